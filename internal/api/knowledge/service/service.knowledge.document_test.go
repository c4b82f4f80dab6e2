// Package knowledgesvc - Test tách token cho keyword search fallback.
package knowledgesvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestKeywordTokens(t *testing.T) {
	// Token ≤3 ký tự bị bỏ, còn lại giữ nguyên thứ tự
	tokens := keywordTokens("What time is the late checkout fee?", 5)
	assert.Equal(t, []string{"what", "time", "late", "checkout"}, tokens)
}

func TestKeywordTokens_CapsAtMax(t *testing.T) {
	tokens := keywordTokens("parking checkout wifi-password amenities refund cancellation payment", 5)
	assert.Len(t, tokens, 5)
}

func TestKeywordTokens_Empty(t *testing.T) {
	assert.Empty(t, keywordTokens("", 5))
	assert.Empty(t, keywordTokens("a to of is", 5))
}

// Vector search chỉ so cosine với embedding của đúng model đang cấu hình:
// embedding từ model khác không cùng không gian vector
func TestVectorSearchFilter(t *testing.T) {
	tenantID := primitive.NewObjectID()
	filter := vectorSearchFilter(tenantID, "text-embedding-004")

	assert.Equal(t, tenantID, filter["tenantId"])
	assert.Equal(t, bson.M{"$ne": nil}, filter["embedding"])
	assert.Equal(t, "text-embedding-004", filter["metadata.embeddingModel"])
	assert.Len(t, filter, 3)
}

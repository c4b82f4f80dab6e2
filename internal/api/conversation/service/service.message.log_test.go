// Package convsvc - Test dedupe key cho message inbound.
package convsvc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Message id từ PMS thắng mọi thứ khác
func TestBuildDedupeKey_MessageIDWins(t *testing.T) {
	key := BuildDedupeKey("msg-123", "any body", 1700000000000)
	assert.Equal(t, "msg-123", key)
}

// Không có message id thì hash deterministic từ timestamp và body
func TestBuildDedupeKey_HashDeterministic(t *testing.T) {
	a := BuildDedupeKey("", "What time is checkout?", 1700000000000)
	b := BuildDedupeKey("", "What time is checkout?", 1700000000000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 24)
	// Key chỉ gồm ký tự hex
	assert.Regexp(t, "^[0-9a-f]{24}$", a)
}

func TestBuildDedupeKey_DifferentInputsDiffer(t *testing.T) {
	base := BuildDedupeKey("", "hello there", 1700000000000)
	assert.NotEqual(t, base, BuildDedupeKey("", "hello there", 1700000000001))
	assert.NotEqual(t, base, BuildDedupeKey("", "hello world", 1700000000000))
}

// Body chỉ tính 64 ký tự đầu: hai body dài khác nhau sau vị trí 64 cho cùng key
func TestBuildDedupeKey_BodyTruncatedAt64(t *testing.T) {
	prefix := strings.Repeat("a", 64)
	a := BuildDedupeKey("", prefix+"tail-one", 1700000000000)
	b := BuildDedupeKey("", prefix+"tail-two", 1700000000000)
	assert.Equal(t, a, b)
}

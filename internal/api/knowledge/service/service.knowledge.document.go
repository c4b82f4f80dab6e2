// Package knowledgesvc chứa service cho domain Knowledge (tài liệu + sync).
// File: service.knowledge.document.go
package knowledgesvc

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ennersmai/saas-automation-sub001/internal/ai"
	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	knowledgemodels "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/models"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// Similarity gán cho kết quả tìm theo keyword / theo recency, khi không
// có embedding để tính cosine thật
const (
	keywordMatchSimilarity = 0.7
	recencyFallbackScore   = 0.5
)

// KnowledgeDocumentService quản lý tài liệu knowledge base: tạo (kèm
// chunking + embedding), tìm kiếm vector với keyword fallback, xoá.
type KnowledgeDocumentService struct {
	*basesvc.BaseServiceMongoImpl[knowledgemodels.KnowledgeDocument]
	llm *ai.LLMClient
}

// NewKnowledgeDocumentService tạo mới KnowledgeDocumentService.
// llm có thể nil: tạo document không embedding, search chạy keyword-only.
func NewKnowledgeDocumentService(llm *ai.LLMClient) (*KnowledgeDocumentService, error) {
	col, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.KnowledgeDocuments)
	if !exist {
		return nil, fmt.Errorf("failed to get knowledge_documents collection: %v", common.ErrNotFound)
	}

	return &KnowledgeDocumentService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[knowledgemodels.KnowledgeDocument](col),
		llm:                  llm,
	}, nil
}

// embed trả về embedding của text, nil khi không có LLM hoặc embed lỗi.
// Embed lỗi không chặn việc tạo document: keyword search vẫn tìm được.
func (s *KnowledgeDocumentService) embed(ctx context.Context, text string) []float32 {
	if s.llm == nil {
		return nil
	}
	vector, err := s.llm.EmbedText(ctx, text)
	if err != nil {
		logger.GetAppLogger().WithError(err).Warn("📚 [Knowledge] Embed thất bại, lưu document không có embedding")
		return nil
	}
	return vector
}

// CreateDocument tạo document mới cho tenant. Nội dung dài hơn ChunkSize
// được chia thành các chunk con, mỗi chunk có embedding riêng và ParentID
// trỏ về document gốc; document gốc giữ nguyên toàn bộ nội dung.
func (s *KnowledgeDocumentService) CreateDocument(ctx context.Context, tenantID primitive.ObjectID, title, content string, metadata map[string]interface{}) (knowledgemodels.KnowledgeDocument, error) {
	var zero knowledgemodels.KnowledgeDocument
	if strings.TrimSpace(content) == "" {
		return zero, common.NewError(common.ErrCodeValidationInput, "Nội dung document không được rỗng", common.StatusBadRequest, nil)
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if s.llm != nil {
		metadata["embeddingModel"] = s.llm.EmbedModel()
	}

	chunks := ChunkText(content, ChunkSize, ChunkOverlap)

	parent := knowledgemodels.KnowledgeDocument{
		TenantID: tenantID,
		Title:    title,
		Content:  content,
		Metadata: metadata,
	}

	// Document ngắn: một record duy nhất, embedding nằm ngay trên nó
	if len(chunks) <= 1 {
		parent.Embedding = s.embed(ctx, content)
		return s.InsertOne(ctx, parent)
	}

	created, err := s.InsertOne(ctx, parent)
	if err != nil {
		return zero, err
	}

	for i, chunk := range chunks {
		parentID := created.ID
		chunkDoc := knowledgemodels.KnowledgeDocument{
			TenantID:    tenantID,
			Title:       title,
			Content:     chunk.Text,
			Embedding:   s.embed(ctx, chunk.Text),
			ParentID:    &parentID,
			ChunkIndex:  i,
			ChunkOffset: chunk.Offset,
			Metadata:    map[string]interface{}{"embeddingModel": metadata["embeddingModel"]},
		}
		if _, err := s.InsertOne(ctx, chunkDoc); err != nil {
			logger.GetAppLogger().WithError(err).WithField("chunkIndex", i).
				Warn("📚 [Knowledge] Không lưu được chunk, tiếp tục các chunk còn lại")
		}
	}

	return created, nil
}

// SearchRelevant implement ai.KnowledgeSearcher: tìm các document liên quan
// nhất trong KB của tenant. Có embedding thì so cosine trên từng chunk và
// lấy max theo document gốc; không thì fallback keyword search.
func (s *KnowledgeDocumentService) SearchRelevant(ctx context.Context, tenantID string, query string, limit int) ([]ai.ContextDoc, error) {
	tenantOID, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat, "Tenant id không hợp lệ", common.StatusBadRequest, err)
	}
	if limit <= 0 {
		limit = 3
	}

	if s.llm != nil {
		queryVector, err := s.llm.EmbedText(ctx, query)
		if err == nil {
			docs, err := s.vectorSearch(ctx, tenantOID, queryVector, limit)
			if err == nil && len(docs) > 0 {
				return docs, nil
			}
			if err != nil {
				logger.GetAppLogger().WithError(err).Warn("📚 [Knowledge] Vector search lỗi, fallback keyword")
			}
		} else {
			logger.GetAppLogger().WithError(err).Warn("📚 [Knowledge] Không embed được query, fallback keyword")
		}
	}

	return s.keywordSearch(ctx, tenantOID, query, limit)
}

// vectorSearchFilter giới hạn vector search trong một tenant và đúng model
// embedding đang cấu hình: vector của model khác không cùng không gian,
// cosine giữa chúng không có ý nghĩa.
func vectorSearchFilter(tenantID primitive.ObjectID, embedModel string) bson.M {
	return bson.M{
		"tenantId":                tenantID,
		"embedding":               bson.M{"$ne": nil},
		"metadata.embeddingModel": embedModel,
	}
}

// vectorSearch so cosine giữa query vector và mọi embedding của tenant,
// gom điểm theo document gốc (chunk quy về parent, lấy max).
func (s *KnowledgeDocumentService) vectorSearch(ctx context.Context, tenantID primitive.ObjectID, queryVector []float32, limit int) ([]ai.ContextDoc, error) {
	docs, err := s.Find(ctx, vectorSearchFilter(tenantID, s.llm.EmbedModel()), nil)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc        knowledgemodels.KnowledgeDocument
		similarity float64
	}
	bestByParent := map[primitive.ObjectID]scored{}

	for _, doc := range docs {
		similarity := ai.CosineSimilarity(queryVector, doc.Embedding)

		parentID := doc.ID
		if doc.ParentID != nil {
			parentID = *doc.ParentID
		}
		if prev, ok := bestByParent[parentID]; !ok || similarity > prev.similarity {
			bestByParent[parentID] = scored{doc: doc, similarity: similarity}
		}
	}

	ranked := make([]scored, 0, len(bestByParent))
	for parentID, sc := range bestByParent {
		// Trả về nội dung document gốc, không phải chunk thắng điểm
		if sc.doc.ParentID != nil {
			parent, err := s.FindOneById(ctx, parentID)
			if err == nil {
				sc.doc = parent
			}
		}
		ranked = append(ranked, sc)
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].similarity > ranked[j].similarity })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]ai.ContextDoc, 0, len(ranked))
	for _, sc := range ranked {
		results = append(results, ai.ContextDoc{
			Title:      sc.doc.Title,
			Content:    sc.doc.Content,
			Similarity: sc.similarity,
		})
	}
	return results, nil
}

var keywordTokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// keywordTokens trích các token dài hơn 3 ký tự từ query, tối đa maxTokens
func keywordTokens(query string, maxTokens int) []string {
	tokens := make([]string, 0, maxTokens)
	for _, token := range keywordTokenSplit.Split(strings.ToLower(query), -1) {
		if len(token) <= 3 {
			continue
		}
		tokens = append(tokens, token)
		if len(tokens) >= maxTokens {
			break
		}
	}
	return tokens
}

// keywordSearch tìm document gốc (không phải chunk) theo substring
// case-insensitive. Query không có token hữu dụng thì trả về các document
// được cập nhật gần nhất.
func (s *KnowledgeDocumentService) keywordSearch(ctx context.Context, tenantID primitive.ObjectID, query string, limit int) ([]ai.ContextDoc, error) {
	baseFilter := bson.M{
		"tenantId": tenantID,
		"parentId": bson.M{"$exists": false},
	}

	tokens := keywordTokens(query, 5)
	similarity := keywordMatchSimilarity
	filter := baseFilter

	if len(tokens) == 0 {
		similarity = recencyFallbackScore
	} else {
		conditions := make([]bson.M, 0, len(tokens))
		for _, token := range tokens {
			conditions = append(conditions, bson.M{"content": bson.M{
				"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(token), Options: "i"},
			}})
		}
		filter = bson.M{
			"tenantId": tenantID,
			"parentId": bson.M{"$exists": false},
			"$or":      conditions,
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}).SetLimit(int64(limit))
	docs, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	results := make([]ai.ContextDoc, 0, len(docs))
	for _, doc := range docs {
		results = append(results, ai.ContextDoc{
			Title:      doc.Title,
			Content:    doc.Content,
			Similarity: similarity,
		})
	}
	return results, nil
}

// DeleteDocument xoá document và toàn bộ chunk con của nó
func (s *KnowledgeDocumentService) DeleteDocument(ctx context.Context, tenantID, docID primitive.ObjectID) error {
	doc, err := s.FindOne(ctx, bson.M{"_id": docID, "tenantId": tenantID}, nil)
	if err != nil {
		return err
	}

	if _, err := s.DeleteMany(ctx, bson.M{"parentId": doc.ID}); err != nil {
		return err
	}
	return s.DeleteOne(ctx, bson.M{"_id": doc.ID})
}

// DeleteAllForTenant xoá toàn bộ knowledge base của một tenant
func (s *KnowledgeDocumentService) DeleteAllForTenant(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"tenantId": tenantID})
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// KnowledgeDocument là một tài liệu trong knowledge base của tenant.
// Document dài được chia thành chunk: mỗi chunk là một document riêng
// với ParentID trỏ về document gốc và embedding riêng của chunk đó.
// Khi search, điểm của document gốc là max similarity trong các chunk.
type KnowledgeDocument struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenantId,omitempty" bson:"tenantId,omitempty"`

	Title   string `json:"title,omitempty" bson:"title,omitempty"`
	Content string `json:"content,omitempty" bson:"content,omitempty"`

	// Embedding của nội dung. Nil khi chưa embed được (không có API key
	// hoặc embed lỗi) — document vẫn tìm được qua keyword search.
	Embedding []float32 `json:"-" bson:"embedding,omitempty"`

	// ParentID khác nil khi document này là một chunk của document khác
	ParentID    *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	ChunkIndex  int                 `json:"chunkIndex,omitempty" bson:"chunkIndex,omitempty"`
	ChunkOffset int                 `json:"chunkOffset,omitempty" bson:"chunkOffset,omitempty"`

	// Metadata tự do: embeddingModel, source, reservationId, conversationId, pairIndex...
	Metadata map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Package knowledgedto chứa các DTO cho domain Knowledge.
package knowledgedto

// KnowledgeDocumentCreateInput là input tạo document thủ công
type KnowledgeDocumentCreateInput struct {
	TenantID string                 `json:"tenantId" validate:"required" bson:"tenantId"`
	Title    string                 `json:"title" validate:"required,no_xss" bson:"title"`
	Content  string                 `json:"content" validate:"required" bson:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// KnowledgeDocumentUpdateInput là input cập nhật document
type KnowledgeDocumentUpdateInput struct {
	Title   string `json:"title,omitempty" validate:"omitempty,no_xss" bson:"title,omitempty"`
	Content string `json:"content,omitempty" bson:"content,omitempty"`
}

// SyncTriggerInput là input kích hoạt một lần sync knowledge base
type SyncTriggerInput struct {
	TenantID         string `json:"tenantId" validate:"required"`
	UserID           string `json:"userId" validate:"required"`
	ReservationLimit int    `json:"reservationLimit,omitempty" validate:"omitempty,min=0"`
}

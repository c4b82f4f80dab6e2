package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Trạng thái của một lần sync knowledge base
const (
	SyncStatusRunning     = "running"
	SyncStatusCompleted   = "completed"
	SyncStatusPartialSync = "partial_sync" // một phần dữ liệu bị bỏ qua do lỗi lặp lại
	SyncStatusFailed      = "failed"
)

// SyncProgress lưu tiến độ sync knowledge base của một user trên một tenant.
// Lưu trong MongoDB thay vì in-memory để client poll được qua API
// và tiến độ sống sót qua restart.
type SyncProgress struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenantId,omitempty" bson:"tenantId,omitempty"`
	UserID   string             `json:"userId,omitempty" bson:"userId,omitempty"`

	Current     int    `json:"current" bson:"current"`
	Total       int    `json:"total" bson:"total"`
	DocsCreated int    `json:"docsCreated" bson:"docsCreated"`
	Status      string `json:"status,omitempty" bson:"status,omitempty"`
	StatusText  string `json:"statusText,omitempty" bson:"statusText,omitempty"`
	Completed   bool   `json:"completed" bson:"completed"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Trạng thái của AI job
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
)

// Loại AI job
const (
	JobTypeProcessMessage = "process_message" // xử lý message inbound của guest
	JobTypeKnowledgeSync  = "knowledge_sync"  // đồng bộ knowledge base từ lịch sử PMS
	JobTypeRawEvent       = "raw_event"       // event PMS khác, giữ lại cho downstream
)

// AIJob là một đơn vị công việc bất đồng bộ cho AI pipeline.
// Webhook chỉ enqueue rồi trả 200 ngay; worker claim và xử lý sau.
type AIJob struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenantId" bson:"tenantId"`
	JobType  string             `json:"jobType" bson:"jobType"`
	Status   string             `json:"status" bson:"status"`

	// Payload phụ thuộc jobType: process_message chứa messageLogId/conversationId
	Payload map[string]interface{} `json:"payload,omitempty" bson:"payload,omitempty"`

	RetryCount  int    `json:"retryCount" bson:"retryCount"`
	MaxRetries  int    `json:"maxRetries" bson:"maxRetries"`
	NextRetryAt int64  `json:"nextRetryAt,omitempty" bson:"nextRetryAt,omitempty"`
	LastError   string `json:"lastError,omitempty" bson:"lastError,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

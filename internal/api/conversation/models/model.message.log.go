package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Loại người gửi message
const (
	SenderTypeGuest  = "guest"
	SenderTypeAi     = "ai"
	SenderTypeHuman  = "human"
	SenderTypeSystem = "system"
)

// Hướng của message
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Trạng thái xử lý của message
const (
	MessageStatusPending    = "pending"
	MessageStatusProcessing = "processing"
	MessageStatusSent       = "sent"
	MessageStatusFailed     = "failed"
)

// MessageLog lưu mọi message vào/ra của một conversation.
// DedupeKey unique theo (tenantId, conversationId) để webhook gửi lại
// không tạo bản ghi trùng.
type MessageLog struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID              primitive.ObjectID `json:"tenantId" bson:"tenantId"`
	ConversationID        primitive.ObjectID `json:"conversationId" bson:"conversationId"`
	ReservationExternalId string             `json:"reservationExternalId,omitempty" bson:"reservationExternalId,omitempty"`
	SenderType            string             `json:"senderType" bson:"senderType"`
	Direction             string             `json:"direction" bson:"direction"`
	Body                  string             `json:"body" bson:"body"`
	Status                string             `json:"status" bson:"status"`
	DedupeKey             string             `json:"dedupeKey" bson:"dedupeKey"`

	// Kết quả phân loại intent (chỉ có trên message inbound đã xử lý)
	Intent     string  `json:"intent,omitempty" bson:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty" bson:"confidence,omitempty"`

	// EscalationAck đánh dấu reply là acknowledgement của một lần escalation
	// (emergency/deferral). Escalation pause hội thoại trước khi delivery chạy
	// nên worker vẫn gửi các message mang cờ này dù hội thoại đã paused.
	EscalationAck bool `json:"escalationAck,omitempty" bson:"escalationAck,omitempty"`

	// ScheduledAt dùng cho proactive message (check-in reminder, ...)
	ScheduledAt int64 `json:"scheduledAt,omitempty" bson:"scheduledAt,omitempty"`
	SentAt      int64 `json:"sentAt,omitempty" bson:"sentAt,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

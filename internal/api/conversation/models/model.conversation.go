package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Trạng thái automation của conversation
const (
	ConversationStatusAutomated     = "automated"       // AI được phép trả lời
	ConversationStatusPausedByHuman = "paused_by_human" // host đã tiếp quản, AI im lặng
)

// Conversation là một thread hội thoại với guest, map 1-1 với reservation trên PMS.
// Unique theo (tenantId, reservationExternalId).
type Conversation struct {
	ID                     primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID               primitive.ObjectID `json:"tenantId" bson:"tenantId"`
	ReservationExternalId  string             `json:"reservationExternalId" bson:"reservationExternalId"`
	ConversationExternalId string             `json:"conversationExternalId,omitempty" bson:"conversationExternalId,omitempty"`
	GuestName              string             `json:"guestName,omitempty" bson:"guestName,omitempty"`
	GuestPhone             string             `json:"guestPhone,omitempty" bson:"guestPhone,omitempty"`
	ListingExternalId      string             `json:"listingExternalId,omitempty" bson:"listingExternalId,omitempty"`
	Status                 string             `json:"status" bson:"status"`
	LastMessageAt          int64              `json:"lastMessageAt,omitempty" bson:"lastMessageAt,omitempty"`
	CreatedAt              int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt              int64              `json:"updatedAt" bson:"updatedAt"`
}

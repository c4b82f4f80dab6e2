// Package webhookdto chứa DTO cho domain Webhook (log).
// File: dto.webhook.log.go
package webhookdto

// WebhookLogCreateInput là DTO cho tạo mới webhook log
type WebhookLogCreateInput struct {
	Source         string                 `json:"source" bson:"source" validate:"required"`       // Nguồn webhook: "pms"
	EventName      string                 `json:"eventName" bson:"eventName" validate:"required"` // Loại event
	AccountID      string                 `json:"accountId,omitempty" bson:"accountId,omitempty"` // Account identifier
	RequestHeaders map[string]string      `json:"requestHeaders,omitempty" bson:"requestHeaders,omitempty"`
	RequestBody    map[string]interface{} `json:"requestBody" bson:"requestBody" validate:"required"`
	RawBody        string                 `json:"rawBody,omitempty" bson:"rawBody,omitempty"`
	IPAddress      string                 `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent      string                 `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
}

// WebhookLogUpdateInput là DTO cho cập nhật webhook log
type WebhookLogUpdateInput struct {
	Processed    *bool   `json:"processed,omitempty" bson:"processed,omitempty"`       // Đã xử lý thành công chưa
	ProcessError *string `json:"processError,omitempty" bson:"processError,omitempty"` // Lỗi nếu có
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Tenant là một khách hàng STR host sử dụng hệ thống automation.
// Mỗi tenant map với một account trên PMS qua ExternalAccountId/ExternalClientId.
type Tenant struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	ExternalAccountId string             `json:"externalAccountId,omitempty" bson:"externalAccountId,omitempty"`
	ExternalClientId  string             `json:"externalClientId,omitempty" bson:"externalClientId,omitempty"`

	// Credential đã mã hóa AES-GCM, không bao giờ trả về client
	PmsApiKeyEncrypted          string `json:"-" bson:"pmsApiKeyEncrypted,omitempty"`
	GatewayCredentialsEncrypted string `json:"-" bson:"gatewayCredentialsEncrypted,omitempty"`

	Timezone           string `json:"timezone,omitempty" bson:"timezone,omitempty"`
	SubscriptionActive bool   `json:"subscriptionActive" bson:"subscriptionActive"`

	// Kênh nhận cảnh báo; rỗng thì dùng default từ config
	OnCallPhone string `json:"onCallPhone,omitempty" bson:"onCallPhone,omitempty"`
	StaffPhone  string `json:"staffPhone,omitempty" bson:"staffPhone,omitempty"`
	StaffEmail  string `json:"staffEmail,omitempty" bson:"staffEmail,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// GatewayCredentials là nội dung JSON sau khi giải mã GatewayCredentialsEncrypted
type GatewayCredentials struct {
	AccountSid string `json:"accountSid"`
	AuthToken  string `json:"authToken"`
}

package dto

// TenantCreateInput dữ liệu đầu vào để tạo tenant
type TenantCreateInput struct {
	Name               string `json:"name" bson:"name" validate:"required,no_xss"`
	ExternalAccountId  string `json:"externalAccountId" bson:"externalAccountId,omitempty" validate:"omitempty,no_xss"`
	ExternalClientId   string `json:"externalClientId" bson:"externalClientId,omitempty" validate:"omitempty,no_xss"`
	Timezone           string `json:"timezone" bson:"timezone,omitempty"`
	SubscriptionActive bool   `json:"subscriptionActive" bson:"subscriptionActive"`
	OnCallPhone        string `json:"onCallPhone" bson:"onCallPhone,omitempty" validate:"omitempty,phone_e164"`
	StaffPhone         string `json:"staffPhone" bson:"staffPhone,omitempty" validate:"omitempty,phone_e164"`
}

// TenantUpdateInput dữ liệu đầu vào để cập nhật tenant
type TenantUpdateInput struct {
	Name               string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,no_xss"`
	Timezone           string `json:"timezone,omitempty" bson:"timezone,omitempty"`
	SubscriptionActive *bool  `json:"subscriptionActive,omitempty" bson:"subscriptionActive,omitempty"`
	OnCallPhone        string `json:"onCallPhone,omitempty" bson:"onCallPhone,omitempty" validate:"omitempty,phone_e164"`
	StaffPhone         string `json:"staffPhone,omitempty" bson:"staffPhone,omitempty" validate:"omitempty,phone_e164"`
}

// TenantCredentialsInput dữ liệu đầu vào để cập nhật credential (được mã hóa trước khi lưu)
type TenantCredentialsInput struct {
	PmsApiKey         string `json:"pmsApiKey" bson:"-" validate:"omitempty"`
	GatewayAccountSid string `json:"gatewayAccountSid" bson:"-" validate:"omitempty"`
	GatewayAuthToken  string `json:"gatewayAuthToken" bson:"-" validate:"omitempty"`
}

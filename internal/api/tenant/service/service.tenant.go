package tenantsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

// TenantService là cấu trúc chứa các phương thức liên quan đến Tenant
type TenantService struct {
	*basesvc.BaseServiceMongoImpl[tenantmodels.Tenant]
}

// NewTenantService tạo mới TenantService
func NewTenantService() (*TenantService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Tenants)
	if !exist {
		return nil, fmt.Errorf("failed to get tenants collection: %v", common.ErrNotFound)
	}

	return &TenantService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[tenantmodels.Tenant](collection),
	}, nil
}

// FindByExternalIds tìm tenant theo accountId hoặc clientId lấy từ webhook payload.
// Webhook của các PMS khác nhau gửi identifier khác nhau nên match trên cả hai field.
func (s *TenantService) FindByExternalIds(ctx context.Context, accountID, clientID string) (tenantmodels.Tenant, error) {
	var zero tenantmodels.Tenant

	conditions := []bson.M{}
	if accountID != "" {
		conditions = append(conditions, bson.M{"externalAccountId": accountID})
	}
	if clientID != "" {
		conditions = append(conditions, bson.M{"externalClientId": clientID})
	}
	if len(conditions) == 0 {
		return zero, common.ErrUnidentifiedClient
	}

	tenant, err := s.FindOne(ctx, bson.M{"$or": conditions}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return zero, common.ErrUnknownTenant
		}
		return zero, err
	}

	return tenant, nil
}

// SetCredentials mã hóa và lưu credential PMS / messaging gateway cho tenant
func (s *TenantService) SetCredentials(ctx context.Context, tenant tenantmodels.Tenant, pmsApiKey, gatewaySid, gatewayToken string) (tenantmodels.Tenant, error) {
	set := bson.M{}

	if pmsApiKey != "" {
		encrypted, err := gateway.EncryptCredential([]byte(pmsApiKey))
		if err != nil {
			return tenant, fmt.Errorf("encrypt pms api key: %w", err)
		}
		set["pmsApiKeyEncrypted"] = encrypted
	}

	if gatewaySid != "" || gatewayToken != "" {
		credJSON, err := json.Marshal(tenantmodels.GatewayCredentials{
			AccountSid: gatewaySid,
			AuthToken:  gatewayToken,
		})
		if err != nil {
			return tenant, fmt.Errorf("marshal gateway credentials: %w", err)
		}
		encrypted, err := gateway.EncryptCredential(credJSON)
		if err != nil {
			return tenant, fmt.Errorf("encrypt gateway credentials: %w", err)
		}
		set["gatewayCredentialsEncrypted"] = encrypted
	}

	if len(set) == 0 {
		return tenant, common.ErrInvalidInput
	}

	return s.UpdateById(ctx, tenant.ID, &basesvc.UpdateData{Set: set})
}

// PmsApiKey giải mã API key của PMS cho tenant.
// Trả về "" nếu tenant chưa cấu hình credential.
func (s *TenantService) PmsApiKey(tenant tenantmodels.Tenant) (string, error) {
	if tenant.PmsApiKeyEncrypted == "" {
		return "", nil
	}
	plaintext, err := gateway.DecryptCredential(tenant.PmsApiKeyEncrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt pms api key: %w", err)
	}
	return string(plaintext), nil
}

// GatewayCredentials giải mã credential messaging gateway của tenant
func (s *TenantService) GatewayCredentials(tenant tenantmodels.Tenant) (*tenantmodels.GatewayCredentials, error) {
	if tenant.GatewayCredentialsEncrypted == "" {
		return nil, nil
	}
	plaintext, err := gateway.DecryptCredential(tenant.GatewayCredentialsEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt gateway credentials: %w", err)
	}
	var creds tenantmodels.GatewayCredentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("parse gateway credentials: %w", err)
	}
	return &creds, nil
}

// OnCallPhone trả về số on-call của tenant, fallback về default trong config
func (s *TenantService) OnCallPhone(tenant tenantmodels.Tenant) string {
	if tenant.OnCallPhone != "" {
		return tenant.OnCallPhone
	}
	return global.ServerConfig.DefaultOnCallPhone
}

// StaffPhone trả về số staff của tenant, fallback về default trong config
func (s *TenantService) StaffPhone(tenant tenantmodels.Tenant) string {
	if tenant.StaffPhone != "" {
		return tenant.StaffPhone
	}
	return global.ServerConfig.DefaultStaffPhone
}

// StaffEmail trả về email staff của tenant, fallback về default trong config.
// Rỗng nghĩa là tenant không nhận cảnh báo qua email.
func (s *TenantService) StaffEmail(tenant tenantmodels.Tenant) string {
	if tenant.StaffEmail != "" {
		return tenant.StaffEmail
	}
	return global.ServerConfig.DefaultStaffEmail
}

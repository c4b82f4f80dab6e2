package tenanthdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	basehdl "github.com/ennersmai/saas-automation-sub001/internal/api/base/handler"
	tenantdto "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/dto"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
	tenantsvc "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
)

// TenantHandler xử lý các request liên quan đến Tenant
type TenantHandler struct {
	*basehdl.BaseHandler[tenantmodels.Tenant, tenantdto.TenantCreateInput, tenantdto.TenantUpdateInput]
	tenantService *tenantsvc.TenantService
}

// NewTenantHandler tạo mới TenantHandler
func NewTenantHandler() (*TenantHandler, error) {
	tenantService, err := tenantsvc.NewTenantService()
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant service: %v", err)
	}

	return &TenantHandler{
		BaseHandler:   basehdl.NewBaseHandler[tenantmodels.Tenant, tenantdto.TenantCreateInput, tenantdto.TenantUpdateInput](tenantService),
		tenantService: tenantService,
	}, nil
}

// HandleSetCredentials nhận credential plaintext, mã hóa và lưu cho tenant.
// PUT /tenant/:id/credentials
func (h *TenantHandler) HandleSetCredentials(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.GetIDFromParams(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input tenantdto.TenantCredentialsInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		tenant, err := h.tenantService.FindOneById(c.Context(), id)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.tenantService.SetCredentials(c.Context(), tenant, input.PmsApiKey, input.GatewayAccountSid, input.GatewayAuthToken)
		h.HandleResponse(c, updated, err)
		return nil
	})
}

// Package router đăng ký các route thuộc domain Tenant.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	apirouter "github.com/ennersmai/saas-automation-sub001/internal/api/router"
	tenanthdl "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/handler"
)

// Register đăng ký tất cả route tenant lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	tenantHandler, err := tenanthdl.NewTenantHandler()
	if err != nil {
		return fmt.Errorf("create tenant handler: %w", err)
	}
	r.RegisterCRUDRoutes(v1, "/tenant", tenantHandler, apirouter.ReadWriteConfig)
	apirouter.RegisterRouteWithMiddleware(v1, "/tenant", "PUT", "/:id/credentials", nil, tenantHandler.HandleSetCredentials)
	return nil
}

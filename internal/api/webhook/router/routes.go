// Package router đăng ký các route thuộc domain Webhook: PMS webhook (public), WebhookLog (CRUD).
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	apirouter "github.com/ennersmai/saas-automation-sub001/internal/api/router"
	webhookhdl "github.com/ennersmai/saas-automation-sub001/internal/api/webhook/handler"
)

// Register đăng ký tất cả route webhook lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	pmsWebhookHandler, err := webhookhdl.NewPMSWebhookHandler()
	if err != nil {
		return fmt.Errorf("create pms webhook handler: %w", err)
	}
	v1.Post("/pms/webhook", pmsWebhookHandler.HandlePMSWebhook)

	webhookLogHandler, err := webhookhdl.NewWebhookLogHandler()
	if err != nil {
		return fmt.Errorf("create webhook log handler: %w", err)
	}
	r.RegisterCRUDRoutes(v1, "/webhook-log", webhookLogHandler, apirouter.ReadOnlyConfig)

	return nil
}

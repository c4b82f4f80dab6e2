// Package router đăng ký các route thuộc domain Conversation: Conversation, MessageLog.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	convhdl "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/handler"
	apirouter "github.com/ennersmai/saas-automation-sub001/internal/api/router"
)

// Register đăng ký tất cả route conversation lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	conversationHandler, err := convhdl.NewConversationHandler()
	if err != nil {
		return fmt.Errorf("create conversation handler: %w", err)
	}
	r.RegisterCRUDRoutes(v1, "/conversation", conversationHandler, apirouter.ReadOnlyConfig)
	apirouter.RegisterRouteWithMiddleware(v1, "/conversation", "POST", "/pause", nil, conversationHandler.HandlePause)
	apirouter.RegisterRouteWithMiddleware(v1, "/conversation", "POST", "/resume", nil, conversationHandler.HandleResume)

	messageLogHandler, err := convhdl.NewMessageLogHandler()
	if err != nil {
		return fmt.Errorf("create message log handler: %w", err)
	}
	r.RegisterCRUDRoutes(v1, "/conversation/message", messageLogHandler, apirouter.ReadOnlyConfig)
	return nil
}

// Package router đăng ký các route thuộc domain Knowledge.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/ennersmai/saas-automation-sub001/internal/ai"
	knowledgehdl "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/handler"
	apirouter "github.com/ennersmai/saas-automation-sub001/internal/api/router"
)

// Register đăng ký tất cả route knowledge lên v1.
func Register(llm *ai.LLMClient) func(v1 fiber.Router, r *apirouter.Router) error {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		knowledgeHandler, err := knowledgehdl.NewKnowledgeHandler(llm)
		if err != nil {
			return fmt.Errorf("create knowledge handler: %w", err)
		}

		r.RegisterCRUDRoutes(v1, "/knowledge", knowledgeHandler, apirouter.ReadOnlyConfig)
		apirouter.RegisterRouteWithMiddleware(v1, "/knowledge", "POST", "/", nil, knowledgeHandler.HandleCreateDocument)
		apirouter.RegisterRouteWithMiddleware(v1, "/knowledge", "DELETE", "/:id", nil, knowledgeHandler.HandleDeleteDocument)
		apirouter.RegisterRouteWithMiddleware(v1, "/knowledge", "DELETE", "/tenant/:tenantId", nil, knowledgeHandler.HandleDeleteAll)
		apirouter.RegisterRouteWithMiddleware(v1, "/knowledge", "GET", "/search", nil, knowledgeHandler.HandleSearch)
		apirouter.RegisterRouteWithMiddleware(v1, "/knowledge", "POST", "/sync", nil, knowledgeHandler.HandleTriggerSync)
		apirouter.RegisterRouteWithMiddleware(v1, "/knowledge", "GET", "/sync/progress", nil, knowledgeHandler.HandleSyncProgress)
		return nil
	}
}

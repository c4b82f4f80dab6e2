// Package knowledgehdl xử lý các request liên quan đến Knowledge Base.
package knowledgehdl

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ennersmai/saas-automation-sub001/internal/ai"
	aijobmodels "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/models"
	aijobsvc "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/service"
	basehdl "github.com/ennersmai/saas-automation-sub001/internal/api/base/handler"
	knowledgedto "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/dto"
	knowledgemodels "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/models"
	knowledgesvc "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
)

// KnowledgeHandler xử lý document CRUD, kích hoạt sync và poll tiến độ
type KnowledgeHandler struct {
	*basehdl.BaseHandler[knowledgemodels.KnowledgeDocument, knowledgedto.KnowledgeDocumentCreateInput, knowledgedto.KnowledgeDocumentUpdateInput]
	documentService *knowledgesvc.KnowledgeDocumentService
	progressService *knowledgesvc.SyncProgressService
	aiJobService    *aijobsvc.AIJobService
}

// NewKnowledgeHandler tạo mới KnowledgeHandler. llm có thể nil.
func NewKnowledgeHandler(llm *ai.LLMClient) (*KnowledgeHandler, error) {
	documentService, err := knowledgesvc.NewKnowledgeDocumentService(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge document service: %v", err)
	}
	progressService, err := knowledgesvc.NewSyncProgressService()
	if err != nil {
		return nil, fmt.Errorf("failed to create sync progress service: %v", err)
	}
	aiJobService, err := aijobsvc.NewAIJobService()
	if err != nil {
		return nil, fmt.Errorf("failed to create ai job service: %v", err)
	}

	return &KnowledgeHandler{
		BaseHandler:     basehdl.NewBaseHandler[knowledgemodels.KnowledgeDocument, knowledgedto.KnowledgeDocumentCreateInput, knowledgedto.KnowledgeDocumentUpdateInput](documentService.BaseServiceMongoImpl),
		documentService: documentService,
		progressService: progressService,
		aiJobService:    aiJobService,
	}, nil
}

func (h *KnowledgeHandler) parseTenantID(value string) (primitive.ObjectID, error) {
	tenantID, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			"Tenant id không hợp lệ",
			common.StatusBadRequest,
			err,
		)
	}
	return tenantID, nil
}

// HandleCreateDocument tạo document mới, tự chia chunk + embed.
// POST /knowledge
func (h *KnowledgeHandler) HandleCreateDocument(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input knowledgedto.KnowledgeDocumentCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}
		if err := h.ValidateInput(input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		tenantID, err := h.parseTenantID(input.TenantID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		doc, err := h.documentService.CreateDocument(c.Context(), tenantID, input.Title, input.Content, input.Metadata)
		h.HandleResponse(c, doc, err)
		return nil
	})
}

// HandleDeleteDocument xoá document và các chunk con.
// DELETE /knowledge/:id?tenantId=...
func (h *KnowledgeHandler) HandleDeleteDocument(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.GetIDFromParams(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		tenantID, err := h.parseTenantID(c.Query("tenantId"))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.documentService.DeleteDocument(c.Context(), tenantID, id)
		h.HandleResponse(c, fiber.Map{"deleted": err == nil}, err)
		return nil
	})
}

// HandleDeleteAll xoá toàn bộ knowledge base của một tenant.
// DELETE /knowledge/tenant/:tenantId
func (h *KnowledgeHandler) HandleDeleteAll(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := h.parseTenantID(c.Params("tenantId"))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		count, err := h.documentService.DeleteAllForTenant(c.Context(), tenantID)
		h.HandleResponse(c, fiber.Map{"deletedCount": count}, err)
		return nil
	})
}

// HandleTriggerSync đưa một knowledge sync job vào queue, worker sẽ chạy nền.
// POST /knowledge/sync
func (h *KnowledgeHandler) HandleTriggerSync(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input knowledgedto.SyncTriggerInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}
		if err := h.ValidateInput(input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		tenantID, err := h.parseTenantID(input.TenantID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		job, err := h.aiJobService.Enqueue(c.Context(), tenantID, aijobmodels.JobTypeKnowledgeSync, map[string]interface{}{
			"userId":           input.UserID,
			"reservationLimit": input.ReservationLimit,
		})
		h.HandleResponse(c, fiber.Map{"jobId": job.ID.Hex(), "queued": err == nil}, err)
		return nil
	})
}

// HandleSyncProgress trả về tiến độ sync hiện tại của một user.
// GET /knowledge/sync/progress?tenantId=...&userId=...
func (h *KnowledgeHandler) HandleSyncProgress(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := h.parseTenantID(c.Query("tenantId"))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		userID := c.Query("userId")
		if userID == "" {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, "Thiếu userId", common.StatusBadRequest, nil))
			return nil
		}

		progress, err := h.progressService.Get(c.Context(), tenantID, userID)
		h.HandleResponse(c, progress, err)
		return nil
	})
}

// HandleSearch tìm kiếm thử trong knowledge base (debug/tuning).
// GET /knowledge/search?tenantId=...&q=...&limit=3
func (h *KnowledgeHandler) HandleSearch(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		if _, err := h.parseTenantID(c.Query("tenantId")); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		query := c.Query("q")
		if query == "" {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, "Thiếu tham số q", common.StatusBadRequest, nil))
			return nil
		}

		limit := 3
		if v, err := strconv.Atoi(c.Query("limit", "3")); err == nil && v > 0 && v <= 20 {
			limit = v
		}
		docs, err := h.documentService.SearchRelevant(c.Context(), c.Query("tenantId"), query, limit)
		h.HandleResponse(c, docs, err)
		return nil
	})
}

package convhdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "github.com/ennersmai/saas-automation-sub001/internal/api/base/handler"
	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	convsvc "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
)

// ConversationHandler xử lý các request liên quan đến Conversation
type ConversationHandler struct {
	*basehdl.BaseHandler[convmodels.Conversation, convmodels.Conversation, convmodels.Conversation]
	conversationService *convsvc.ConversationService
}

// NewConversationHandler tạo mới ConversationHandler
func NewConversationHandler() (*ConversationHandler, error) {
	conversationService, err := convsvc.NewConversationService()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation service: %v", err)
	}

	return &ConversationHandler{
		BaseHandler:         basehdl.NewBaseHandler[convmodels.Conversation, convmodels.Conversation, convmodels.Conversation](conversationService),
		conversationService: conversationService,
	}, nil
}

// statusChangeInput là body của endpoint pause/resume
type statusChangeInput struct {
	TenantID              string `json:"tenantId" validate:"required"`
	ReservationExternalId string `json:"reservationExternalId" validate:"required"`
}

// HandlePause chuyển conversation sang paused_by_human (host tiếp quản).
// POST /conversation/pause
func (h *ConversationHandler) HandlePause(c fiber.Ctx) error {
	return h.handleStatusChange(c, convmodels.ConversationStatusPausedByHuman)
}

// HandleResume trả conversation lại cho AI.
// POST /conversation/resume
func (h *ConversationHandler) HandleResume(c fiber.Ctx) error {
	return h.handleStatusChange(c, convmodels.ConversationStatusAutomated)
}

func (h *ConversationHandler) handleStatusChange(c fiber.Ctx, status string) error {
	return h.SafeHandler(c, func() error {
		var input statusChangeInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		tenantID, err := primitive.ObjectIDFromHex(input.TenantID)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("tenantId không đúng định dạng ObjectID: %s", input.TenantID),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		conversation, err := h.conversationService.SetStatusByReservation(c.Context(), tenantID, input.ReservationExternalId, status)
		h.HandleResponse(c, conversation, err)
		return nil
	})
}

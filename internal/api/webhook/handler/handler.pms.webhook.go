// Package webhookhdl - handler webhook từ PMS (message, reservation, host takeover).
package webhookhdl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	aijobmodels "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/models"
	aijobsvc "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/service"
	basehdl "github.com/ennersmai/saas-automation-sub001/internal/api/base/handler"
	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	convsvc "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/service"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
	tenantsvc "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/service"
	webhookmodels "github.com/ennersmai/saas-automation-sub001/internal/api/webhook/models"
	webhooksvc "github.com/ennersmai/saas-automation-sub001/internal/api/webhook/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
	"github.com/ennersmai/saas-automation-sub001/internal/utility"
)

// Các path trích xuất theo thứ tự ưu tiên. Các PMS khác nhau đặt identifier
// ở vị trí khác nhau trong payload nên phải thử lần lượt.
var (
	eventNamePaths = []string{"event", "eventType", "type", "object"}

	accountIDPaths = []string{
		"accountId", "account_id",
		"clientId", "client_id",
		"data.accountId", "data.account_id", "data.clientId",
	}

	reservationIDPaths = []string{
		"reservationId", "reservation_id",
		"reservation.id", "thread.reservationId",
	}

	messageTimestampPaths = []string{
		"timestamp", "createdAt", "created_at",
		"data.timestamp", "data.createdAt",
	}

	guestPhonePaths = []string{
		"guestPhone", "guest_phone", "phone",
		"guest.phone", "data.guestPhone",
	}
)

// PMSWebhookHandler xử lý các webhook từ PMS
type PMSWebhookHandler struct {
	tenantService       *tenantsvc.TenantService
	conversationService *convsvc.ConversationService
	messageLogService   *convsvc.MessageLogService
	aiJobService        *aijobsvc.AIJobService
	webhookLogService   *webhooksvc.WebhookLogService
}

// NewPMSWebhookHandler tạo mới PMSWebhookHandler
func NewPMSWebhookHandler() (*PMSWebhookHandler, error) {
	tenantService, err := tenantsvc.NewTenantService()
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant service: %v", err)
	}
	conversationService, err := convsvc.NewConversationService()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation service: %v", err)
	}
	messageLogService, err := convsvc.NewMessageLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create message log service: %v", err)
	}
	aiJobService, err := aijobsvc.NewAIJobService()
	if err != nil {
		return nil, fmt.Errorf("failed to create ai job service: %v", err)
	}
	webhookLogService, err := webhooksvc.NewWebhookLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log service: %v", err)
	}
	return &PMSWebhookHandler{
		tenantService:       tenantService,
		conversationService: conversationService,
		messageLogService:   messageLogService,
		aiJobService:        aiJobService,
		webhookLogService:   webhookLogService,
	}, nil
}

// HandlePMSWebhook xử lý webhook từ PMS.
// Luôn lưu log trước và luôn trả 200 để PMS không retry vô hạn;
// lỗi xử lý được ghi vào webhook log thay vì trả về lỗi HTTP.
func (h *PMSWebhookHandler) HandlePMSWebhook(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		log := logger.GetAppLogger()
		rawBody := string(c.Body())
		ctx := c.Context()

		var payload map[string]interface{}
		parseErr := json.Unmarshal(c.Body(), &payload)

		eventName := utility.ExtractString(payload, eventNamePaths...)
		accountID := utility.ExtractString(payload, accountIDPaths...)

		webhookLog, logErr := h.saveWebhookLog(ctx, c, eventName, accountID, payload, rawBody, parseErr)
		if logErr != nil {
			log.WithError(logErr).WithField("module", "webhook").Warn("🔔 [PMS WEBHOOK] Không thể lưu webhook log")
		}

		if parseErr != nil {
			c.Status(common.StatusBadRequest).JSON(fiber.Map{
				"code": common.StatusBadRequest, "message": "Payload không phải JSON hợp lệ", "status": "error",
			})
			return nil
		}

		processErr := h.process(ctx, eventName, accountID, payload)

		if webhookLog != nil {
			errorMsg := ""
			if processErr != nil {
				errorMsg = processErr.Error()
			}
			_ = h.webhookLogService.UpdateProcessedStatus(ctx, webhookLog.ID, processErr == nil, errorMsg)
		}
		if processErr != nil {
			log.WithError(processErr).WithFields(map[string]interface{}{
				"module":    "webhook",
				"eventName": eventName,
				"accountId": accountID,
			}).Error("🔔 [PMS WEBHOOK] Lỗi khi xử lý webhook")
		}

		// Lỗi xác định tenant trả 400 để PMS biết cấu hình sai;
		// mọi lỗi xử lý khác vẫn trả 200 để tránh redelivery storm.
		if errors.Is(processErr, common.ErrUnidentifiedClient) || errors.Is(processErr, common.ErrUnknownTenant) {
			var customErr *common.Error
			errors.As(processErr, &customErr)
			c.Status(common.StatusBadRequest).JSON(fiber.Map{
				"code": customErr.Code.Code, "message": customErr.Message, "status": "error",
			})
			return nil
		}

		c.Status(common.StatusOK).JSON(fiber.Map{
			"received": true,
		})
		return nil
	})
}

// process định tuyến webhook theo event name
func (h *PMSWebhookHandler) process(ctx context.Context, eventName, accountID string, payload map[string]interface{}) error {
	log := logger.GetAppLogger()

	if eventName == "" {
		log.WithField("module", "webhook").Warn("🔔 [PMS WEBHOOK] Không có event name, chỉ lưu log")
		return nil
	}

	tenant, err := h.identifyTenant(ctx, accountID, payload)
	if err != nil {
		return err
	}

	if !tenant.SubscriptionActive {
		log.WithFields(map[string]interface{}{
			"module":   "webhook",
			"tenantId": tenant.ID.Hex(),
		}).Warn("🔔 [PMS WEBHOOK] Tenant không còn subscription active, bỏ qua")
		return nil
	}

	switch eventName {
	case "message.received", "message.created", "conversationMessage":
		return h.handleGuestMessage(ctx, tenant, payload)
	case "host.message.created", "message.sent":
		return h.handleHostMessage(ctx, tenant, payload)
	case "reservation.created", "reservation.updated":
		return h.handleReservationEvent(ctx, tenant, payload)
	default:
		// Event khác không có side effect cục bộ, chỉ enqueue cho downstream
		log.WithFields(map[string]interface{}{
			"module":    "webhook",
			"eventName": eventName,
		}).Info("🔔 [PMS WEBHOOK] Event không thuộc pipeline, enqueue raw")
		_, err := h.aiJobService.Enqueue(ctx, tenant.ID, aijobmodels.JobTypeRawEvent, map[string]interface{}{
			"eventName": eventName,
			"payload":   payload,
		})
		return err
	}
}

// identifyTenant xác định tenant từ account identifier.
// Sub-flow recovery: nếu các path chuẩn không ra identifier, thử lại một lần
// trong object data/payload lồng nhau trước khi kết luận không xác định được.
func (h *PMSWebhookHandler) identifyTenant(ctx context.Context, accountID string, payload map[string]interface{}) (tenantmodels.Tenant, error) {
	var zero tenantmodels.Tenant

	if accountID == "" {
		for _, nested := range []string{"data", "payload", "meta"} {
			if sub := utility.ExtractMap(payload, nested); sub != nil {
				accountID = utility.ExtractString(sub, accountIDPaths...)
				if accountID != "" {
					break
				}
			}
		}
	}

	if accountID == "" {
		return zero, common.ErrUnidentifiedClient
	}

	return h.tenantService.FindByExternalIds(ctx, accountID, accountID)
}

// extractReservationID lấy reservation id theo các path ưu tiên, thử thêm trong data khi không có
func extractReservationID(payload map[string]interface{}) string {
	if id := utility.ExtractString(payload, reservationIDPaths...); id != "" {
		return id
	}
	if data := utility.ExtractMap(payload, "data"); data != nil {
		return utility.ExtractString(data, reservationIDPaths...)
	}
	return ""
}

// extractMessageTimestamp lấy timestamp của message từ payload (epoch millis
// hoặc RFC3339). Trả về 0 khi payload không mang timestamp — caller fallback
// về giờ hiện tại, nhưng khi có thì dedupe key ổn định qua các lần replay.
func extractMessageTimestamp(payload map[string]interface{}) int64 {
	raw := utility.ExtractString(payload, messageTimestampPaths...)
	if raw == "" {
		return 0
	}
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ts
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UnixMilli()
	}
	return 0
}

// handleGuestMessage lưu message guest (idempotent) và enqueue AI job xử lý
func (h *PMSWebhookHandler) handleGuestMessage(ctx context.Context, tenant tenantmodels.Tenant, payload map[string]interface{}) error {
	log := logger.GetAppLogger()

	reservationID := extractReservationID(payload)
	if reservationID == "" {
		return fmt.Errorf("không tìm thấy reservation id trong payload message")
	}

	body := utility.ExtractString(payload, "body", "message", "text", "data.body", "data.message")
	if body == "" {
		return fmt.Errorf("không tìm thấy nội dung message trong payload")
	}

	messageID := utility.ExtractString(payload, "messageId", "message_id", "id", "data.messageId", "data.id")
	conversationExternalID := utility.ExtractString(payload, "conversationId", "conversation_id", "thread.id")
	guestName := utility.ExtractString(payload, "guestName", "guest_name", "guest.name")
	guestPhone := utility.ExtractString(payload, guestPhonePaths...)

	// Timestamp lấy từ payload để replay của cùng một message hash về cùng
	// dedupe key; chỉ message không có cả messageId lẫn timestamp mới phải
	// dùng giờ nhận làm fallback.
	timestamp := extractMessageTimestamp(payload)
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	dedupeKey := convsvc.BuildDedupeKey(messageID, body, timestamp)

	attempt := func() (convmodels.MessageLog, bool, error) {
		conversation, err := h.conversationService.UpsertByReservation(ctx, tenant.ID, reservationID, conversationExternalID, guestName, guestPhone)
		if err != nil {
			return convmodels.MessageLog{}, false, fmt.Errorf("upsert conversation: %w", err)
		}
		return h.messageLogService.LogGuestMessage(ctx, tenant.ID, conversation.ID, reservationID, body, dedupeKey)
	}

	message, isNew, err := attempt()
	if err != nil {
		// Recovery sub-flow: reservation chưa có dữ liệu cục bộ — fetch từ PMS,
		// chạy side-effect schedule proactive message, rồi retry đúng một lần.
		log.WithError(err).WithFields(map[string]interface{}{
			"module":        "webhook",
			"reservationId": reservationID,
		}).Warn("🔔 [PMS WEBHOOK] Ghi message thất bại, chạy recovery sub-flow")

		if recoverErr := h.recoverReservation(ctx, tenant, reservationID); recoverErr != nil {
			return fmt.Errorf("recovery sub-flow: %w", recoverErr)
		}

		message, isNew, err = attempt()
		if err != nil {
			// Lần hai vẫn lỗi thì drop event, chỉ log — không retry vô hạn
			return fmt.Errorf("log guest message sau recovery: %w", err)
		}
	}

	if !isNew {
		log.WithFields(map[string]interface{}{
			"module":    "webhook",
			"dedupeKey": dedupeKey,
		}).Info("🔔 [PMS WEBHOOK] Message trùng dedupeKey, bỏ qua (webhook replay)")
		return nil
	}

	_, err = h.aiJobService.Enqueue(ctx, tenant.ID, aijobmodels.JobTypeProcessMessage, map[string]interface{}{
		"messageLogId":   message.ID.Hex(),
		"conversationId": message.ConversationID.Hex(),
	})
	if err != nil {
		return fmt.Errorf("enqueue ai job: %w", err)
	}

	return nil
}

// recoverReservation fetch reservation từ PMS, upsert conversation từ dữ liệu gốc
// và schedule các proactive message cho reservation đó
func (h *PMSWebhookHandler) recoverReservation(ctx context.Context, tenant tenantmodels.Tenant, reservationID string) error {
	apiKey, err := h.tenantService.PmsApiKey(tenant)
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("tenant %s chưa cấu hình PMS api key", tenant.ID.Hex())
	}

	pms := gateway.NewPMSClient(global.ServerConfig.PMSBaseURL, apiKey)
	reservation, err := pms.GetReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("fetch reservation từ PMS: %w", err)
	}

	conversation, err := h.conversationService.UpsertByReservation(ctx, tenant.ID, reservationID, "", reservation.GuestName, reservation.GuestPhone)
	if err != nil {
		return fmt.Errorf("upsert conversation khi recovery: %w", err)
	}

	h.scheduleProactiveMessages(ctx, conversation, reservation)
	return nil
}

// scheduleProactiveMessages tạo check-in reminder cho reservation mới biết đến.
// Best-effort: lỗi chỉ log, không chặn recovery.
func (h *PMSWebhookHandler) scheduleProactiveMessages(ctx context.Context, conversation convmodels.Conversation, reservation *gateway.PMSReservation) {
	log := logger.GetAppLogger()

	if reservation.CheckIn == "" {
		return
	}

	checkIn, err := time.Parse(time.RFC3339, reservation.CheckIn)
	if err != nil {
		if checkIn, err = time.Parse("2006-01-02", reservation.CheckIn); err != nil {
			log.WithField("module", "webhook").WithField("checkIn", reservation.CheckIn).Warn("🔔 [PMS WEBHOOK] Không parse được ngày check-in, bỏ qua proactive message")
			return
		}
	}

	remindAt := checkIn.Add(-24 * time.Hour)
	if remindAt.Before(time.Now()) {
		return
	}

	body := fmt.Sprintf("Hi %s! Your check-in is coming up tomorrow. Reply here if you have any questions — we're happy to help.", reservation.GuestName)
	if _, err := h.messageLogService.ScheduleProactiveMessage(ctx, conversation, body, remindAt.UnixMilli()); err != nil {
		log.WithError(err).WithField("module", "webhook").Warn("🔔 [PMS WEBHOOK] Không schedule được proactive message")
	}
}

// handleHostMessage xử lý khi host tự tay trả lời: pause automation của conversation.
// Chỉ pause được khi resolve được reservation id; không có thì chỉ log.
func (h *PMSWebhookHandler) handleHostMessage(ctx context.Context, tenant tenantmodels.Tenant, payload map[string]interface{}) error {
	log := logger.GetAppLogger()

	reservationID := extractReservationID(payload)
	if reservationID == "" {
		log.WithField("module", "webhook").Warn("🔔 [PMS WEBHOOK] Host message không có reservation id, không pause được conversation")
		return nil
	}

	_, err := h.conversationService.SetStatusByReservation(ctx, tenant.ID, reservationID, convmodels.ConversationStatusPausedByHuman)
	if err != nil {
		return fmt.Errorf("pause conversation: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"module":        "webhook",
		"tenantId":      tenant.ID.Hex(),
		"reservationId": reservationID,
	}).Info("🔔 [PMS WEBHOOK] Host tiếp quản, đã pause conversation")
	return nil
}

// handleReservationEvent cập nhật metadata conversation từ event reservation
func (h *PMSWebhookHandler) handleReservationEvent(ctx context.Context, tenant tenantmodels.Tenant, payload map[string]interface{}) error {
	reservationID := extractReservationID(payload)
	if reservationID == "" {
		// reservation event thì id có thể nằm ngay field id
		reservationID = utility.ExtractString(payload, "id", "data.id")
	}
	if reservationID == "" {
		return fmt.Errorf("không tìm thấy reservation id trong payload reservation")
	}

	guestName := utility.ExtractString(payload, "guestName", "guest_name", "guest.name", "data.guestName")
	guestPhone := utility.ExtractString(payload, guestPhonePaths...)
	_, err := h.conversationService.UpsertByReservation(ctx, tenant.ID, reservationID, "", guestName, guestPhone)
	return err
}

func (h *PMSWebhookHandler) saveWebhookLog(ctx context.Context, c fiber.Ctx, eventName, accountID string, payload map[string]interface{}, rawBody string, parseErr error) (*webhookmodels.WebhookLog, error) {
	now := time.Now().UnixMilli()
	requestHeaders := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		requestHeaders[string(key)] = string(value)
	})

	requestBody := payload
	if parseErr != nil {
		requestBody = map[string]interface{}{"raw": rawBody, "parseError": parseErr.Error()}
	}

	webhookLog := webhookmodels.WebhookLog{
		Source: "pms", EventName: eventName, AccountID: accountID,
		RequestHeaders: requestHeaders, RequestBody: requestBody, RawBody: rawBody,
		Processed: false,
		ProcessError: func() string {
			if parseErr != nil {
				return fmt.Sprintf("Parse error: %v", parseErr)
			}
			return ""
		}(),
		IPAddress: c.IP(), UserAgent: c.Get("User-Agent"), ReceivedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	return h.webhookLogService.CreateWebhookLog(ctx, webhookLog)
}

package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	convsvc "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/service"
	tenantsvc "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/service"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// MessageDeliveryWorker gửi các outbound message đang pending: reply do AI
// tạo và proactive message đã đến giờ hẹn. Gửi qua WhatsApp với credential
// riêng của từng tenant; gửi lỗi thì đánh dấu failed, không retry tự động.
type MessageDeliveryWorker struct {
	messageLogService   *convsvc.MessageLogService
	conversationService *convsvc.ConversationService
	tenantService       *tenantsvc.TenantService

	interval  time.Duration
	batchSize int64
}

// NewMessageDeliveryWorker tạo worker mới
func NewMessageDeliveryWorker(messageLogService *convsvc.MessageLogService, conversationService *convsvc.ConversationService, tenantService *tenantsvc.TenantService, interval time.Duration, batchSize int64) *MessageDeliveryWorker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &MessageDeliveryWorker{
		messageLogService:   messageLogService,
		conversationService: conversationService,
		tenantService:       tenantService,
		interval:            interval,
		batchSize:           batchSize,
	}
}

// Start chạy worker trong vòng lặp cho đến khi context bị huỷ.
func (w *MessageDeliveryWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithField("interval", w.interval.String()).Info("📤 [DELIVERY] Starting Message Delivery Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("📤 [DELIVERY] Message Delivery Worker stopped")
			return
		case <-ticker.C:
			w.deliverBatch(ctx, log)
		}
	}
}

func (w *MessageDeliveryWorker) deliverBatch(ctx context.Context, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("📤 [DELIVERY] Panic khi gửi message, sẽ tiếp tục lần chạy tiếp theo")
		}
	}()

	replies, err := w.messageLogService.FindPendingAiReplies(ctx, w.batchSize)
	if err != nil {
		log.WithError(err).Error("📤 [DELIVERY] Lỗi lấy danh sách reply pending")
	} else {
		for _, message := range replies {
			w.deliver(ctx, log, message)
		}
	}

	due, err := w.messageLogService.FindDueProactiveMessages(ctx, w.batchSize)
	if err != nil {
		log.WithError(err).Error("📤 [DELIVERY] Lỗi lấy danh sách proactive message đến hạn")
		return
	}
	for _, message := range due {
		w.deliver(ctx, log, message)
	}
}

// deliver gửi một message qua WhatsApp. Hội thoại bị pause sau khi message
// được tạo thì bỏ gửi và đánh dấu failed để con người xử lý tiếp — trừ
// escalation ack: pause là hệ quả của chính escalation đó nên ack vẫn gửi.
func (w *MessageDeliveryWorker) deliver(ctx context.Context, log *logrus.Logger, message convmodels.MessageLog) {
	entry := log.WithFields(map[string]interface{}{
		"messageLogId":   message.ID.Hex(),
		"conversationId": message.ConversationID.Hex(),
	})

	conversation, err := w.conversationService.FindOneById(ctx, message.ConversationID)
	if err != nil {
		entry.WithError(err).Warn("📤 [DELIVERY] Không load được hội thoại, đánh dấu failed")
		w.markFailed(ctx, entry, message)
		return
	}

	if suppressedByPause(conversation, message) {
		entry.Info("📤 [DELIVERY] Hội thoại đã bị pause, không gửi message tự động")
		w.markFailed(ctx, entry, message)
		return
	}

	if conversation.GuestPhone == "" {
		entry.Warn("📤 [DELIVERY] Hội thoại không có số điện thoại guest, đánh dấu failed")
		w.markFailed(ctx, entry, message)
		return
	}

	tenant, err := w.tenantService.FindOneById(ctx, message.TenantID)
	if err != nil {
		entry.WithError(err).Warn("📤 [DELIVERY] Không load được tenant, đánh dấu failed")
		w.markFailed(ctx, entry, message)
		return
	}

	creds, err := w.tenantService.GatewayCredentials(tenant)
	if err != nil {
		entry.WithError(err).Warn("📤 [DELIVERY] Không đọc được gateway credential, đánh dấu failed")
		w.markFailed(ctx, entry, message)
		return
	}

	var sid, token string
	if creds != nil {
		sid = creds.AccountSid
		token = creds.AuthToken
	}
	dryRun := global.ServerConfig.GatewayDryRun || sid == ""
	client := gateway.NewMessagingClient(global.ServerConfig.GatewayBaseURL, sid, token, dryRun)

	if err := client.SendWhatsApp(ctx, conversation.GuestPhone, message.Body); err != nil {
		entry.WithError(err).Warn("📤 [DELIVERY] Gửi WhatsApp thất bại")
		w.markFailed(ctx, entry, message)
		return
	}

	if err := w.messageLogService.MarkSent(ctx, message.ID); err != nil {
		entry.WithError(err).Error("📤 [DELIVERY] Không đánh dấu được message đã gửi")
		return
	}
	entry.Info("📤 [DELIVERY] Đã gửi outbound message")
}

// suppressedByPause: message tự động không gửi vào hội thoại đã pause,
// nhưng escalation ack là hệ quả của chính lần pause đó nên vẫn đi qua
func suppressedByPause(conversation convmodels.Conversation, message convmodels.MessageLog) bool {
	return conversation.Status == convmodels.ConversationStatusPausedByHuman && !message.EscalationAck
}

func (w *MessageDeliveryWorker) markFailed(ctx context.Context, entry *logrus.Entry, message convmodels.MessageLog) {
	if err := w.messageLogService.MarkFailed(ctx, message.ID); err != nil {
		entry.WithError(err).Error("📤 [DELIVERY] Không đánh dấu được message failed")
	}
}

package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

const (
	// lowConfidenceThreshold: dưới ngưỡng này AI không tự trả lời mà escalate
	lowConfidenceThreshold = 0.45

	// historyWindow: số message gần nhất load từ log
	historyWindow = 10

	// historyRendered: số message gần nhất đưa vào prompt
	historyRendered = 5
)

// ConversationStore là phần ConversationService mà engine cần.
// Cùng pattern với KnowledgeSearcher: engine chỉ phụ thuộc interface hẹp,
// implementation thật nằm ở convsvc.
type ConversationStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (convmodels.Conversation, error)
}

// MessageLogStore là phần MessageLogService mà engine cần
type MessageLogStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (convmodels.MessageLog, error)
	MarkProcessed(ctx context.Context, id primitive.ObjectID, status, intent string, confidence float64) error
	HistoryForAi(ctx context.Context, conversationID primitive.ObjectID, limit int64) ([]convmodels.MessageLog, error)
	CreatePendingAiReply(ctx context.Context, inbound convmodels.MessageLog, body, intent string, confidence float64, escalationAck bool) (convmodels.MessageLog, error)
}

// TenantStore là phần TenantService mà engine cần
type TenantStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (tenantmodels.Tenant, error)
	PmsApiKey(tenant tenantmodels.Tenant) (string, error)
}

// EscalationNotifier đưa hội thoại tới con người. Implementation là Escalator.
type EscalationNotifier interface {
	EscalateEmergency(ctx context.Context, tenant tenantmodels.Tenant, conversation convmodels.Conversation, guestMessage string)
	EscalateLowConfidence(ctx context.Context, tenant tenantmodels.Tenant, conversation convmodels.Conversation, guestMessage, intent string, confidence float64)
}

// Engine điều phối toàn bộ pipeline xử lý một guest message:
// classify → escalate/retrieve → generate → persist pending reply.
type Engine struct {
	classifier Classifier
	generator  Generator
	retriever  *ContextRetriever
	escalator  EscalationNotifier

	tenantStore       TenantStore
	conversationStore ConversationStore
	messageLogStore   MessageLogStore
}

func NewEngine(
	classifier Classifier,
	generator Generator,
	retriever *ContextRetriever,
	escalator EscalationNotifier,
	tenantStore TenantStore,
	conversationStore ConversationStore,
	messageLogStore MessageLogStore,
) *Engine {
	return &Engine{
		classifier:        classifier,
		generator:         generator,
		retriever:         retriever,
		escalator:         escalator,
		tenantStore:       tenantStore,
		conversationStore: conversationStore,
		messageLogStore:   messageLogStore,
	}
}

// ProcessMessage xử lý một inbound guest message đã được ghi log.
// Hội thoại đang paused_by_human thì return ngay, không side effect nào cả.
func (e *Engine) ProcessMessage(ctx context.Context, messageLogID, conversationID primitive.ObjectID) error {
	log := logger.GetAppLogger().WithFields(logrus.Fields{
		"module":         "ai",
		"messageLogId":   messageLogID.Hex(),
		"conversationId": conversationID.Hex(),
	})

	conversation, err := e.conversationStore.FindOneById(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	if conversation.Status == convmodels.ConversationStatusPausedByHuman {
		log.Info("💬 [Engine] Hội thoại đang paused_by_human, bỏ qua")
		return nil
	}

	inbound, err := e.messageLogStore.FindOneById(ctx, messageLogID)
	if err != nil {
		return fmt.Errorf("load message log: %w", err)
	}

	tenant, err := e.tenantStore.FindOneById(ctx, conversation.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	// History load trước khi classify: câu trả lời ngắn kiểu "yes please"
	// chỉ phân loại được khi classifier nhìn thấy câu hỏi đứng trước nó
	history, err := e.messageLogStore.HistoryForAi(ctx, conversationID, historyWindow)
	if err != nil {
		log.WithError(err).Warn("💬 [Engine] Không load được lịch sử hội thoại, xử lý không có history")
		history = nil
	}
	renderedHistory := renderHistory(history, inbound.ID)

	classification, err := e.classifier.Classify(ctx, classifierInput(renderedHistory, inbound.Body))
	if err != nil {
		return fmt.Errorf("classify message: %w", err)
	}

	log = log.WithFields(logrus.Fields{
		"intent":     classification.Intent,
		"confidence": classification.Confidence,
	})
	log.Info("💬 [Engine] Đã phân loại guest message")

	if err := e.messageLogStore.MarkProcessed(ctx, inbound.ID,
		convmodels.MessageStatusProcessing, classification.Intent, classification.Confidence); err != nil {
		log.WithError(err).Warn("💬 [Engine] Không cập nhật được classification lên message log")
	}

	if classification.Intent != IntentEmergency && classification.Confidence < lowConfidenceThreshold {
		log.Info("💬 [Engine] Confidence thấp, escalate cho staff")
		e.escalator.EscalateLowConfidence(ctx, tenant, conversation, inbound.Body,
			classification.Intent, classification.Confidence)

		// Guest vẫn nhận một deferral ack cố định trong khi chờ con người;
		// cờ escalationAck để delivery worker gửi qua pause vừa đặt
		if _, err := e.messageLogStore.CreatePendingAiReply(ctx, inbound, DeferralPhrase,
			classification.Intent, classification.Confidence, true); err != nil {
			return fmt.Errorf("persist deferral ack: %w", err)
		}
		return e.messageLogStore.MarkProcessed(ctx, inbound.ID,
			convmodels.MessageStatusSent, classification.Intent, classification.Confidence)
	}

	var msgContext *MessageContext
	if classification.Intent == IntentEmergency {
		// Emergency không bao giờ chạy retriever: mỗi giây đều quan trọng,
		// và mọi lookup đều có thể chậm hoặc lỗi
		log.Warn("💬 [Engine] Emergency, escalate bằng voice call ngay")
		e.escalator.EscalateEmergency(ctx, tenant, conversation, inbound.Body)
		msgContext = &MessageContext{}
	} else {
		var pmsClient *gateway.PMSClient
		if apiKey, err := e.tenantStore.PmsApiKey(tenant); err != nil {
			log.WithError(err).Warn("💬 [Engine] Không đọc được PMS key của tenant")
		} else if apiKey != "" {
			pmsClient = gateway.NewPMSClient(global.ServerConfig.PMSBaseURL, apiKey)
		}
		msgContext = e.retriever.Retrieve(ctx, pmsClient, tenant.ID.Hex(),
			conversation.ReservationExternalId, inbound.Body, classification.Intent)
	}

	reply, err := e.generator.Generate(ctx, &GenerateRequest{
		GuestMessage: inbound.Body,
		Intent:       classification.Intent,
		GuestName:    conversation.GuestName,
		TenantName:   tenant.Name,
		History:      renderedHistory,
		Context:      msgContext,
	})
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	// Ack của emergency cũng phải đi qua pause do escalation đặt
	outbound, err := e.messageLogStore.CreatePendingAiReply(ctx, inbound, reply,
		classification.Intent, classification.Confidence, classification.Intent == IntentEmergency)
	if err != nil {
		return fmt.Errorf("persist pending reply: %w", err)
	}

	if err := e.messageLogStore.MarkProcessed(ctx, inbound.ID,
		convmodels.MessageStatusSent, classification.Intent, classification.Confidence); err != nil {
		log.WithError(err).Warn("💬 [Engine] Không đánh dấu được inbound message là đã xử lý")
	}

	log.WithField("replyId", outbound.ID.Hex()).Info("💬 [Engine] Đã tạo pending reply")
	return nil
}

// classifierInput ghép history đã render với message hiện tại để classifier
// nhìn thấy ngữ cảnh. Message rỗng hoặc không có history thì giữ nguyên
// message để các nhánh degrade không đổi hành vi.
func classifierInput(history []HistoryEntry, message string) string {
	if strings.TrimSpace(message) == "" || len(history) == 0 {
		return message
	}

	var sb strings.Builder
	for _, entry := range history {
		fmt.Fprintf(&sb, "%s: %s\n", entry.Sender, entry.Body)
	}
	sb.WriteString("Guest: ")
	sb.WriteString(message)
	return sb.String()
}

// senderLabel map sender type sang nhãn hiển thị trong prompt
func senderLabel(senderType string) string {
	switch senderType {
	case convmodels.SenderTypeGuest:
		return "Guest"
	case convmodels.SenderTypeAi:
		return "Assistant"
	case convmodels.SenderTypeHuman:
		return "Host"
	default:
		return "System"
	}
}

// renderHistory chuyển các message gần nhất thành prompt context, bỏ qua
// chính message đang xử lý. Chỉ render historyRendered message cuối cùng.
func renderHistory(history []convmodels.MessageLog, excludeID primitive.ObjectID) []HistoryEntry {
	filtered := make([]convmodels.MessageLog, 0, len(history))
	for _, m := range history {
		if m.ID == excludeID {
			continue
		}
		filtered = append(filtered, m)
	}

	if len(filtered) > historyRendered {
		filtered = filtered[len(filtered)-historyRendered:]
	}

	entries := make([]HistoryEntry, 0, len(filtered))
	for _, m := range filtered {
		entries = append(entries, HistoryEntry{
			Sender:    senderLabel(m.SenderType),
			Body:      m.Body,
			Timestamp: time.UnixMilli(m.CreatedAt).UTC().Format("2006-01-02 15:04"),
		})
	}
	return entries
}

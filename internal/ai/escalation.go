package ai

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// TenantContactSource cung cấp credential và kênh liên lạc staff của tenant
type TenantContactSource interface {
	GatewayCredentials(tenant tenantmodels.Tenant) (*tenantmodels.GatewayCredentials, error)
	OnCallPhone(tenant tenantmodels.Tenant) string
	StaffPhone(tenant tenantmodels.Tenant) string
	StaffEmail(tenant tenantmodels.Tenant) string
}

// ConversationStatusSetter đổi trạng thái automation của conversation
type ConversationStatusSetter interface {
	SetStatusByReservation(ctx context.Context, tenantID primitive.ObjectID, reservationExternalID, status string) (convmodels.Conversation, error)
}

// Escalator đưa hội thoại tới con người khi AI không nên tự trả lời:
// voice call cho emergency, SMS + email cho low-confidence. Mọi bước đều
// best-effort — lỗi chỉ được log, không bao giờ propagate lên pipeline.
type Escalator struct {
	tenants       TenantContactSource
	conversations ConversationStatusSetter
	email         *gateway.EmailClient
}

func NewEscalator(tenants TenantContactSource, conversations ConversationStatusSetter, email *gateway.EmailClient) *Escalator {
	return &Escalator{
		tenants:       tenants,
		conversations: conversations,
		email:         email,
	}
}

func (e *Escalator) log() *logrus.Entry {
	return logger.GetAppLogger().WithField("module", "ai")
}

// messagingClientFor tạo messaging client với credential riêng của tenant,
// fallback về nil khi tenant chưa cấu hình (dry-run path vẫn hoạt động)
func (e *Escalator) messagingClientFor(tenant tenantmodels.Tenant) *gateway.MessagingClient {
	creds, err := e.tenants.GatewayCredentials(tenant)
	if err != nil {
		e.log().WithError(err).WithField("tenantId", tenant.ID.Hex()).
			Warn("🚨 [Escalation] Không đọc được gateway credential của tenant")
		return nil
	}

	var sid, token string
	if creds != nil {
		sid = creds.AccountSid
		token = creds.AuthToken
	}
	dryRun := global.ServerConfig.GatewayDryRun || sid == ""
	return gateway.NewMessagingClient(global.ServerConfig.GatewayBaseURL, sid, token, dryRun)
}

// EscalateEmergency gọi voice call tới số on-call của tenant và tạm dừng
// automation cho hội thoại. Nội dung guest message được escape trước khi
// nhúng vào voice markup.
func (e *Escalator) EscalateEmergency(ctx context.Context, tenant tenantmodels.Tenant, conversation convmodels.Conversation, guestMessage string) {
	onCallPhone := e.tenants.OnCallPhone(tenant)
	if onCallPhone == "" {
		e.log().WithField("tenantId", tenant.ID.Hex()).
			Error("🚨 [Escalation] Emergency nhưng không có số on-call, không gọi được")
	} else {
		voiceMessage := fmt.Sprintf(
			"Emergency alert. Guest %s at %s reports: %s. Please respond immediately.",
			gateway.EscapeVoiceMarkup(nonEmpty(conversation.GuestName, "unknown")),
			gateway.EscapeVoiceMarkup(nonEmpty(tenant.Name, "your property")),
			gateway.EscapeVoiceMarkup(guestMessage),
		)
		if client := e.messagingClientFor(tenant); client != nil {
			if err := client.SendVoiceCall(ctx, onCallPhone, voiceMessage); err != nil {
				e.log().WithError(err).WithField("tenantId", tenant.ID.Hex()).
					Error("🚨 [Escalation] Voice call emergency thất bại")
			}
		}
	}

	e.pause(ctx, tenant, conversation)
}

// LowConfidenceAlertBody dựng nội dung thông báo cho staff: tenant nào,
// intent đoán được là gì, guest nào nói gì.
func LowConfidenceAlertBody(tenantName, intent, guestName, guestMessage string, confidence float64) string {
	return fmt.Sprintf(
		"[%s] Guest message needs attention (intent %s, confidence %.2f). Guest %s: %q. Automation paused, please reply manually.",
		nonEmpty(tenantName, "your property"),
		nonEmpty(intent, IntentUnknown),
		confidence,
		nonEmpty(guestName, "unknown"),
		guestMessage,
	)
}

// EscalateLowConfidence gửi SMS tới số staff, gửi email backup (nếu có cấu
// hình SMTP) và tạm dừng automation
func (e *Escalator) EscalateLowConfidence(ctx context.Context, tenant tenantmodels.Tenant, conversation convmodels.Conversation, guestMessage, intent string, confidence float64) {
	body := LowConfidenceAlertBody(tenant.Name, intent, conversation.GuestName, guestMessage, confidence)

	staffPhone := e.tenants.StaffPhone(tenant)
	if staffPhone == "" {
		e.log().WithField("tenantId", tenant.ID.Hex()).
			Warn("🚨 [Escalation] Low confidence nhưng không có số staff, bỏ qua SMS")
	} else if client := e.messagingClientFor(tenant); client != nil {
		if err := client.SendSms(ctx, staffPhone, body); err != nil {
			e.log().WithError(err).WithField("tenantId", tenant.ID.Hex()).
				Error("🚨 [Escalation] SMS low-confidence thất bại")
		}
	}

	if staffEmail := e.tenants.StaffEmail(tenant); staffEmail != "" {
		subject := fmt.Sprintf("[%s] Guest message needs attention", nonEmpty(tenant.Name, "your property"))
		if err := e.email.Send(staffEmail, subject, body); err != nil {
			e.log().WithError(err).WithField("tenantId", tenant.ID.Hex()).
				Error("🚨 [Escalation] Email low-confidence thất bại")
		}
	}

	e.pause(ctx, tenant, conversation)
}

// pause tạm dừng automation khi hội thoại gắn được với reservation
func (e *Escalator) pause(ctx context.Context, tenant tenantmodels.Tenant, conversation convmodels.Conversation) {
	if conversation.ReservationExternalId == "" {
		e.log().WithField("conversationId", conversation.ID.Hex()).
			Warn("🚨 [Escalation] Không có reservation id, không pause được hội thoại")
		return
	}

	_, err := e.conversations.SetStatusByReservation(ctx, tenant.ID,
		conversation.ReservationExternalId, convmodels.ConversationStatusPausedByHuman)
	if err != nil {
		e.log().WithError(err).WithField("conversationId", conversation.ID.Hex()).
			Error("🚨 [Escalation] Không pause được hội thoại")
		return
	}

	e.log().WithFields(logrus.Fields{
		"conversationId": conversation.ID.Hex(),
		"reservationId":  conversation.ReservationExternalId,
	}).Info("🚨 [Escalation] Đã pause automation, chờ con người xử lý")
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

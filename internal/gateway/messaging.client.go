package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// MessagingClient gửi SMS và voice call qua messaging gateway.
// DryRun bật trong môi trường dev/test: chỉ log, không gọi gateway thật.
type MessagingClient struct {
	baseURL    string
	accountSid string
	authToken  string
	dryRun     bool
	httpClient *http.Client
}

// NewMessagingClient tạo mới MessagingClient
func NewMessagingClient(baseURL, accountSid, authToken string, dryRun bool) *MessagingClient {
	return &MessagingClient{
		baseURL:    baseURL,
		accountSid: accountSid,
		authToken:  authToken,
		dryRun:     dryRun,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// EscapeVoiceMarkup escape các ký tự đặc biệt XML trong nội dung voice message.
// Nội dung message của guest được nhúng vào markup TwiML nên phải escape
// trước khi gửi, tránh vỡ document hoặc injection.
func EscapeVoiceMarkup(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}

// SendWhatsApp gửi message WhatsApp tới guest
func (m *MessagingClient) SendWhatsApp(ctx context.Context, toPhone, body string) error {
	log := logger.GetAppLogger()

	if m.dryRun {
		log.WithFields(map[string]interface{}{
			"module": "gateway",
			"to":     toPhone,
			"body":   body,
		}).Info("💬 [WHATSAPP] DryRun: bỏ qua gửi WhatsApp thật")
		return nil
	}

	payload := map[string]interface{}{
		"to":   "whatsapp:" + toPhone,
		"body": body,
	}
	if err := m.post(ctx, "/v1/whatsapp", payload); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"module": "gateway",
		"to":     toPhone,
	}).Info("💬 [WHATSAPP] Gửi WhatsApp thành công")
	return nil
}

// SendSms gửi SMS cảnh báo tới số điện thoại của staff
func (m *MessagingClient) SendSms(ctx context.Context, toPhone, body string) error {
	log := logger.GetAppLogger()

	if m.dryRun {
		log.WithFields(map[string]interface{}{
			"module": "gateway",
			"to":     toPhone,
			"body":   body,
		}).Info("📨 [SMS] DryRun: bỏ qua gửi SMS thật")
		return nil
	}

	payload := map[string]interface{}{
		"to":   toPhone,
		"body": body,
	}
	if err := m.post(ctx, "/v1/sms", payload); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"module": "gateway",
		"to":     toPhone,
	}).Info("📨 [SMS] Gửi SMS thành công")
	return nil
}

// SendVoiceCall gọi điện cảnh báo khẩn cấp tới số on-call.
// message được escape XML rồi nhúng vào voice markup do gateway đọc.
func (m *MessagingClient) SendVoiceCall(ctx context.Context, toPhone, message string) error {
	log := logger.GetAppLogger()

	markup := fmt.Sprintf("<Response><Say>%s</Say></Response>", EscapeVoiceMarkup(message))

	if m.dryRun {
		log.WithFields(map[string]interface{}{
			"module": "gateway",
			"to":     toPhone,
			"markup": markup,
		}).Info("📞 [VOICE] DryRun: bỏ qua gọi điện thật")
		return nil
	}

	payload := map[string]interface{}{
		"to":     toPhone,
		"markup": markup,
	}
	if err := m.post(ctx, "/v1/calls", payload); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"module": "gateway",
		"to":     toPhone,
	}).Info("📞 [VOICE] Tạo voice call thành công")
	return nil
}

// post gửi POST request có basic auth tới messaging gateway
func (m *MessagingClient) post(ctx context.Context, path string, payload interface{}) error {
	log := logger.GetAppLogger()

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.accountSid, m.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"module": "gateway",
			"path":   path,
		}).Error("📨 [GATEWAY] Lỗi khi gọi messaging gateway")
		return common.ErrConnection
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		log.WithFields(map[string]interface{}{
			"module":     "gateway",
			"path":       path,
			"statusCode": resp.StatusCode,
			"response":   string(respBody),
		}).Error("📨 [GATEWAY] Messaging gateway trả về lỗi")
		return common.NewError(
			common.ErrCodeUpstream,
			fmt.Sprintf("messaging gateway returned status %d", resp.StatusCode),
			common.StatusBadGateway,
			nil,
		)
	}

	return nil
}

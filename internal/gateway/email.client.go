package gateway

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// EmailClient gửi email thông báo cho staff qua SMTP.
// Client nil (SMTP chưa cấu hình) là trạng thái hợp lệ: Send trở thành no-op.
type EmailClient struct {
	dialer   *gomail.Dialer
	fromName string
	from     string
}

// NewEmailClient tạo EmailClient từ cấu hình SMTP. host rỗng trả về nil —
// caller giữ nguyên nil và mọi lời gọi Send đều bỏ qua.
func NewEmailClient(host string, port int, username, password, fromName, fromEmail string) *EmailClient {
	if host == "" {
		return nil
	}
	if port == 0 {
		port = 587
	}
	return &EmailClient{
		dialer:   gomail.NewDialer(host, port, username, password),
		fromName: fromName,
		from:     fromEmail,
	}
}

// Send gửi một email text/html tới địa chỉ nhận
func (c *EmailClient) Send(to, subject, content string) error {
	if c == nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"module":  "gateway",
			"to":      to,
			"subject": subject,
		}).Info("📧 [EMAIL] SMTP chưa cấu hình, bỏ qua email")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", c.fromName, c.from))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", content)

	if err := c.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"module":  "gateway",
		"to":      to,
		"subject": subject,
	}).Info("📧 [EMAIL] Đã gửi email thông báo")
	return nil
}

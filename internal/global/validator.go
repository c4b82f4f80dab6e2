package global

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("intent_label", validateIntentLabel)
	_ = Validate.RegisterValidation("phone_e164", validatePhoneE164)
}

// validateNoXSS kiểm tra XSS trong nội dung do người dùng nhập (tiêu đề/nội dung KB)
func validateNoXSS(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"eval(",
		"document.cookie",
		"document.write",
		"innerHTML",
		"<iframe",
		"<object",
		"<embed",
	}

	value = strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateIntentLabel kiểm tra giá trị thuộc closed enum của intent
func validateIntentLabel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "emergency", "check_in_info", "check_out_info", "general_info", "support_request", "unknown":
		return true
	}
	return false
}

// validatePhoneE164 kiểm tra số điện thoại dạng quốc tế đơn giản (+ và 7-15 chữ số)
func validatePhoneE164(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // optional — rỗng hợp lệ, dùng số mặc định toàn cục
	}
	if !strings.HasPrefix(value, "+") {
		return false
	}
	digits := value[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package ai

import (
	"context"
	"strings"
)

// KeywordClassifier là classifier thuần deterministic, không phụ thuộc
// external service. Dùng làm fallback cho LLMClassifier và làm classifier
// chính khi hệ thống chạy không có API key.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Các nhóm keyword kiểm tra theo thứ tự ưu tiên cố định: nhóm đứng trước
// thắng nhóm đứng sau khi message chứa keyword của nhiều nhóm.
var emergencyKeywords = []string{
	"emergency", "fire", "flood", "flooding", "gas leak", "smoke",
	"break-in", "break in", "burglar", "medical", "ambulance", "police",
	"urgent help", "danger",
}

var checkInKeywords = []string{
	"check in", "check-in", "checkin", "arrival", "arrive",
	"door code", "access code", "early check",
}

var checkOutKeywords = []string{
	"check out", "check-out", "checkout", "departure", "late check",
	"leave the", "leaving",
}

var generalInfoKeywords = []string{
	"wifi", "wi-fi", "internet", "password", "parking", "amenities",
}

var supportKeywords = []string{
	"support", "maintenance", "broken", "not working", "doesn't work",
	"repair", "fix", "leaking", "clogged",
}

func containsAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// Classify không bao giờ trả về lỗi: mọi message đều map được về một intent
func (c *KeywordClassifier) Classify(_ context.Context, message string) (*Classification, error) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return &Classification{Intent: IntentUnknown, Confidence: 0}, nil
	}

	switch {
	case containsAny(normalized, emergencyKeywords):
		return &Classification{Intent: IntentEmergency, Confidence: 0.9, Reason: "keyword match"}, nil
	case containsAny(normalized, checkInKeywords):
		return &Classification{Intent: IntentCheckInInfo, Confidence: 0.7, Reason: "keyword match"}, nil
	case containsAny(normalized, checkOutKeywords):
		return &Classification{Intent: IntentCheckOutInfo, Confidence: 0.7, Reason: "keyword match"}, nil
	case containsAny(normalized, generalInfoKeywords):
		return &Classification{Intent: IntentGeneralInfo, Confidence: 0.6, Reason: "keyword match"}, nil
	case containsAny(normalized, supportKeywords):
		return &Classification{Intent: IntentSupportRequest, Confidence: 0.6, Reason: "keyword match"}, nil
	default:
		return &Classification{Intent: IntentUnknown, Confidence: 0.3}, nil
	}
}

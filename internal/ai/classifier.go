package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// Intent labels của guest message
const (
	IntentEmergency      = "emergency"
	IntentCheckInInfo    = "check_in_info"
	IntentCheckOutInfo   = "check_out_info"
	IntentGeneralInfo    = "general_info"
	IntentSupportRequest = "support_request"
	IntentUnknown        = "unknown"
)

// validIntents là tập nhãn hợp lệ duy nhất mà classifier được phép trả về
var validIntents = map[string]bool{
	IntentEmergency:      true,
	IntentCheckInInfo:    true,
	IntentCheckOutInfo:   true,
	IntentGeneralInfo:    true,
	IntentSupportRequest: true,
	IntentUnknown:        true,
}

// Classification là kết quả phân loại một guest message
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Classifier phân loại guest message thành intent + confidence
type Classifier interface {
	Classify(ctx context.Context, message string) (*Classification, error)
}

// LLMClassifier phân loại bằng Gemini, fallback sang keyword khi LLM lỗi
// hoặc trả về nhãn không hợp lệ
type LLMClassifier struct {
	llm      *LLMClient
	fallback *KeywordClassifier
}

func NewLLMClassifier(llm *LLMClient) *LLMClassifier {
	return &LLMClassifier{
		llm:      llm,
		fallback: NewKeywordClassifier(),
	}
}

const classifyPromptTemplate = `You are an intent classifier for a short-term rental guest messaging system.
Classify the guest message into exactly one of these intents:
- emergency: safety issues, fire, flood, gas leak, break-in, medical emergency
- check_in_info: questions about check-in time, access, door codes, arrival
- check_out_info: questions about check-out time, key return, departure
- general_info: questions about the property, wifi, parking, amenities, local area
- support_request: something is broken, not working, or needs maintenance
- unknown: anything that does not fit the above

Respond with JSON only, no other text:
{"intent": "<label>", "confidence": <0.0-1.0>, "reason": "<short explanation>"}

Guest message: %q`

// Classify phân loại message qua LLM với temperature 0 để output ổn định.
// Mọi lỗi ở đây đều degrade sang keyword classifier, không bao giờ fail.
func (c *LLMClassifier) Classify(ctx context.Context, message string) (*Classification, error) {
	if strings.TrimSpace(message) == "" {
		return &Classification{Intent: IntentUnknown, Confidence: 0}, nil
	}

	log := logger.GetAppLogger().WithField("module", "ai")

	raw, err := c.llm.GenerateText(ctx, fmt.Sprintf(classifyPromptTemplate, message), 0, 256)
	if err != nil {
		log.WithError(err).Warn("🤖 [Classifier] LLM lỗi, fallback sang keyword classifier")
		return c.fallback.Classify(ctx, message)
	}

	var result Classification
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &result); err != nil {
		log.WithError(err).Warn("🤖 [Classifier] Không parse được JSON từ LLM, fallback sang keyword")
		return c.fallback.Classify(ctx, message)
	}

	if !validIntents[result.Intent] {
		log.WithField("intent", result.Intent).Warn("🤖 [Classifier] LLM trả về nhãn không hợp lệ, fallback sang keyword")
		return c.fallback.Classify(ctx, message)
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	return &result, nil
}

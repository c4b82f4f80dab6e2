// Package ai - Test keyword classifier: thứ tự ưu tiên nhóm keyword và tính pure.
package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, message string) *Classification {
	t.Helper()
	c := NewKeywordClassifier()
	result, err := c.Classify(context.Background(), message)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestKeywordClassifier_EmptyMessage(t *testing.T) {
	result := classify(t, "")
	assert.Equal(t, IntentUnknown, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)

	result = classify(t, "   \t\n  ")
	assert.Equal(t, IntentUnknown, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestKeywordClassifier_Emergency(t *testing.T) {
	for _, msg := range []string{
		"There is a FIRE in the kitchen!",
		"I smell a gas leak",
		"flooding in the bathroom, please help",
	} {
		result := classify(t, msg)
		assert.Equal(t, IntentEmergency, result.Intent, "message: %q", msg)
		assert.Equal(t, 0.9, result.Confidence)
	}
}

func TestKeywordClassifier_CheckIn(t *testing.T) {
	result := classify(t, "What time can I check in tomorrow?")
	assert.Equal(t, IntentCheckInInfo, result.Intent)
	assert.Equal(t, 0.7, result.Confidence)

	result = classify(t, "I need the door code please")
	assert.Equal(t, IntentCheckInInfo, result.Intent)
}

func TestKeywordClassifier_CheckOut(t *testing.T) {
	result := classify(t, "When is checkout?")
	assert.Equal(t, IntentCheckOutInfo, result.Intent)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestKeywordClassifier_GeneralInfo(t *testing.T) {
	result := classify(t, "what is the wifi password?")
	assert.Equal(t, IntentGeneralInfo, result.Intent)
	assert.Equal(t, 0.6, result.Confidence)

	result = classify(t, "where can I find parking?")
	assert.Equal(t, IntentGeneralInfo, result.Intent)
}

func TestKeywordClassifier_SupportRequest(t *testing.T) {
	result := classify(t, "the heater is broken")
	assert.Equal(t, IntentSupportRequest, result.Intent)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestKeywordClassifier_Unknown(t *testing.T) {
	result := classify(t, "lovely weather today")
	assert.Equal(t, IntentUnknown, result.Intent)
	assert.Equal(t, 0.3, result.Confidence)
}

// Emergency thắng mọi nhóm khác khi message chứa keyword của nhiều nhóm
func TestKeywordClassifier_PriorityOrder(t *testing.T) {
	result := classify(t, "fire near the check in door, wifi router is broken")
	assert.Equal(t, IntentEmergency, result.Intent)

	// check-in thắng general_info
	result = classify(t, "does the check in email have the wifi password?")
	assert.Equal(t, IntentCheckInInfo, result.Intent)

	// general_info thắng support
	result = classify(t, "wifi is broken")
	assert.Equal(t, IntentGeneralInfo, result.Intent)
}

// Classifier phải pure: cùng input cho cùng output qua nhiều lần gọi
func TestKeywordClassifier_Deterministic(t *testing.T) {
	const msg = "When is checkout? Also the wifi is broken."
	first := classify(t, msg)
	for i := 0; i < 10; i++ {
		result := classify(t, msg)
		assert.Equal(t, first.Intent, result.Intent)
		assert.Equal(t, first.Confidence, result.Confidence)
	}
}

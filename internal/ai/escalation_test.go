// Test nội dung thông báo escalation gửi cho staff.
package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Thông báo phải đủ để staff hành động: tenant nào, intent gì, guest nào, nói gì
func TestLowConfidenceAlertBody(t *testing.T) {
	body := LowConfidenceAlertBody("Seaside Stays", IntentGeneralInfo, "Ana", "can I bring my parrot?", 0.21)

	assert.Contains(t, body, "[Seaside Stays]")
	assert.Contains(t, body, "intent general_info")
	assert.Contains(t, body, "confidence 0.21")
	assert.Contains(t, body, "Guest Ana")
	assert.Contains(t, body, `"can I bring my parrot?"`)
	assert.Contains(t, body, "Automation paused")
}

func TestLowConfidenceAlertBody_Fallbacks(t *testing.T) {
	body := LowConfidenceAlertBody("", "", "", "hello?", 0.1)

	assert.Contains(t, body, "[your property]")
	assert.Contains(t, body, "intent unknown")
	assert.Contains(t, body, "Guest unknown")
}

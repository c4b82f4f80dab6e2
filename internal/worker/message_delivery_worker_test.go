// Package worker - Test quy tắc bỏ gửi message khi hội thoại đã pause.
package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
)

func TestSuppressedByPause(t *testing.T) {
	paused := convmodels.Conversation{Status: convmodels.ConversationStatusPausedByHuman}
	automated := convmodels.Conversation{Status: convmodels.ConversationStatusAutomated}

	// Reply thường không gửi vào hội thoại pause
	assert.True(t, suppressedByPause(paused, convmodels.MessageLog{}))

	// Escalation ack (deferral, emergency) vẫn gửi: pause do chính escalation đặt
	assert.False(t, suppressedByPause(paused, convmodels.MessageLog{EscalationAck: true}))

	// Hội thoại automated gửi bình thường
	assert.False(t, suppressedByPause(automated, convmodels.MessageLog{}))
	assert.False(t, suppressedByPause(automated, convmodels.MessageLog{EscalationAck: true}))
}

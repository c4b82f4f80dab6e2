// Package webhookhdl - Test trích reservation id từ payload webhook.
package webhookhdl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	convsvc "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/service"
	"github.com/ennersmai/saas-automation-sub001/internal/utility"
)

func TestExtractReservationID_FlatKeys(t *testing.T) {
	assert.Equal(t, "res-1", extractReservationID(map[string]interface{}{"reservationId": "res-1"}))
	assert.Equal(t, "res-2", extractReservationID(map[string]interface{}{"reservation_id": "res-2"}))
}

func TestExtractReservationID_NestedPaths(t *testing.T) {
	payload := map[string]interface{}{
		"reservation": map[string]interface{}{"id": "res-3"},
	}
	assert.Equal(t, "res-3", extractReservationID(payload))

	payload = map[string]interface{}{
		"thread": map[string]interface{}{"reservationId": "res-4"},
	}
	assert.Equal(t, "res-4", extractReservationID(payload))
}

// Không có ở top level thì thử lại trong object data
func TestExtractReservationID_FallbackToData(t *testing.T) {
	payload := map[string]interface{}{
		"event": "message.received",
		"data": map[string]interface{}{
			"reservationId": "res-5",
		},
	}
	assert.Equal(t, "res-5", extractReservationID(payload))
}

func TestExtractReservationID_Missing(t *testing.T) {
	assert.Equal(t, "", extractReservationID(map[string]interface{}{"event": "x"}))
	assert.Equal(t, "", extractReservationID(map[string]interface{}{}))
}

// Id dạng số từ PMS cũ vẫn resolve được
func TestExtractReservationID_NumericID(t *testing.T) {
	payload := map[string]interface{}{"reservationId": float64(987654)}
	assert.Equal(t, "987654", extractReservationID(payload))
}

func TestExtractMessageTimestamp_EpochMillis(t *testing.T) {
	payload := map[string]interface{}{"timestamp": float64(1717171717171)}
	assert.Equal(t, int64(1717171717171), extractMessageTimestamp(payload))

	payload = map[string]interface{}{"createdAt": "1717171717171"}
	assert.Equal(t, int64(1717171717171), extractMessageTimestamp(payload))
}

func TestExtractMessageTimestamp_RFC3339(t *testing.T) {
	payload := map[string]interface{}{"created_at": "2026-01-02T15:04:05Z"}
	expected := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC).UnixMilli()
	assert.Equal(t, expected, extractMessageTimestamp(payload))
}

func TestExtractMessageTimestamp_NestedData(t *testing.T) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{"timestamp": float64(1700000000000)},
	}
	assert.Equal(t, int64(1700000000000), extractMessageTimestamp(payload))
}

// Không có timestamp hoặc format lạ thì trả 0 để caller fallback giờ nhận
func TestExtractMessageTimestamp_MissingOrInvalid(t *testing.T) {
	assert.Equal(t, int64(0), extractMessageTimestamp(map[string]interface{}{}))
	assert.Equal(t, int64(0), extractMessageTimestamp(map[string]interface{}{"timestamp": "yesterday"}))
}

// Replay với cùng payload timestamp phải cho cùng dedupe key dù đến lúc khác nhau
func TestDedupeKeyStableAcrossReplays(t *testing.T) {
	payload := map[string]interface{}{
		"body":      "what time is check-out?",
		"timestamp": float64(1717171717171),
	}

	first := convsvc.BuildDedupeKey("", "what time is check-out?", extractMessageTimestamp(payload))
	second := convsvc.BuildDedupeKey("", "what time is check-out?", extractMessageTimestamp(payload))
	assert.Equal(t, first, second)
}

func TestExtractGuestPhonePaths(t *testing.T) {
	payload := map[string]interface{}{"guest_phone": "+15551234"}
	assert.Equal(t, "+15551234", utility.ExtractString(payload, guestPhonePaths...))

	payload = map[string]interface{}{
		"guest": map[string]interface{}{"phone": "+15559999"},
	}
	assert.Equal(t, "+15559999", utility.ExtractString(payload, guestPhonePaths...))

	assert.Equal(t, "", utility.ExtractString(map[string]interface{}{}, guestPhonePaths...))
}

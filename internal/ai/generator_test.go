// Test prompt sinh trả lời: toàn bộ context gom được phải xuất hiện trong prompt.
package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
)

func TestBuildGeneratePrompt_FullContext(t *testing.T) {
	prompt := buildGeneratePrompt(&GenerateRequest{
		GuestMessage: "what's the door code?",
		Intent:       IntentCheckInInfo,
		GuestName:    "Ana",
		TenantName:   "Seaside Stays",
		History: []HistoryEntry{
			{Sender: "Guest", Body: "hi there", Timestamp: "2026-01-02 10:00"},
		},
		Context: &MessageContext{
			Reservation: &gateway.PMSReservation{
				CheckIn:  "2026-01-03",
				CheckOut: "2026-01-06",
				Status:   "confirmed",
				Raw: map[string]interface{}{
					"doorCode": "4821",
					"checkIn":  "2026-01-03",
				},
			},
			Listing: map[string]interface{}{"checkoutTime": "10:30 AM"},
			Documents: []ContextDoc{
				{Title: "Parking", Content: "Street parking is free after 6pm."},
			},
		},
	})

	assert.Contains(t, prompt, "Property business: Seaside Stays")
	assert.Contains(t, prompt, "Guest name: Ana")
	assert.Contains(t, prompt, "Detected intent: check_in_info")

	// Reservation và listing serialize nguyên payload: field không chuẩn hóa
	// như doorCode phải xuất hiện
	assert.Contains(t, prompt, "Reservation (JSON):")
	assert.Contains(t, prompt, `"doorCode":"4821"`)
	assert.Contains(t, prompt, "Listing (JSON):")
	assert.Contains(t, prompt, `"checkoutTime":"10:30 AM"`)

	// KB entry kèm title
	assert.Contains(t, prompt, "- Parking: Street parking is free after 6pm.")

	assert.Contains(t, prompt, "[2026-01-02 10:00] Guest: hi there")
	assert.Contains(t, prompt, "Guest message: what's the door code?")
}

// Reservation không có raw payload thì fallback về các field chuẩn hóa
func TestBuildGeneratePrompt_ReservationWithoutRaw(t *testing.T) {
	prompt := buildGeneratePrompt(&GenerateRequest{
		GuestMessage: "when is check-out?",
		Intent:       IntentCheckOutInfo,
		Context: &MessageContext{
			Reservation: &gateway.PMSReservation{
				CheckIn:  "2026-01-03",
				CheckOut: "2026-01-06",
				Status:   "confirmed",
			},
		},
	})

	assert.Contains(t, prompt, "Reservation: check-in 2026-01-03, check-out 2026-01-06, status confirmed")
	assert.NotContains(t, prompt, "Listing (JSON):")
}

func TestBuildGeneratePrompt_DocWithoutTitle(t *testing.T) {
	prompt := buildGeneratePrompt(&GenerateRequest{
		GuestMessage: "parking?",
		Intent:       IntentGeneralInfo,
		Context: &MessageContext{
			Documents: []ContextDoc{{Content: "Street parking is free after 6pm."}},
		},
	})

	assert.Contains(t, prompt, "- Street parking is free after 6pm.")
}

func TestCompactJSON(t *testing.T) {
	assert.Equal(t, "", compactJSON(nil))
	assert.Equal(t, "", compactJSON(map[string]interface{}{}))
	assert.Equal(t, `{"a":1}`, compactJSON(map[string]interface{}{"a": 1}))
}

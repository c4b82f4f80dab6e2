// Package ai - Test template generator theo từng intent.
package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
)

func generate(t *testing.T, req *GenerateRequest) string {
	t.Helper()
	g := NewTemplateGenerator()
	reply, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, reply)
	return reply
}

func TestTemplateGenerator_CheckInWithoutDoorCode(t *testing.T) {
	reply := generate(t, &GenerateRequest{
		Intent:    IntentCheckInInfo,
		GuestName: "Anna",
		Context:   &MessageContext{},
	})
	assert.Contains(t, reply, GuestPortalPhrase)
	assert.Contains(t, reply, "Hi Anna")
}

func TestTemplateGenerator_CheckInWithDoorCode(t *testing.T) {
	// Door code lấy từ listing theo các path khác nhau
	for _, key := range []string{"doorCode", "door_code", "accessCode", "access_code"} {
		reply := generate(t, &GenerateRequest{
			Intent:  IntentCheckInInfo,
			Context: &MessageContext{Listing: map[string]interface{}{key: "4812"}},
		})
		assert.Contains(t, reply, "4812", "path: %s", key)
		assert.NotContains(t, reply, GuestPortalPhrase)
	}
}

func TestTemplateGenerator_CheckInDoorCodeFromReservation(t *testing.T) {
	reply := generate(t, &GenerateRequest{
		Intent: IntentCheckInInfo,
		Context: &MessageContext{
			Reservation: &gateway.PMSReservation{
				Raw: map[string]interface{}{"door_code": "9921"},
			},
		},
	})
	assert.Contains(t, reply, "9921")
}

func TestTemplateGenerator_CheckOutDefaultTime(t *testing.T) {
	reply := generate(t, &GenerateRequest{
		Intent:  IntentCheckOutInfo,
		Context: &MessageContext{},
	})
	assert.Contains(t, reply, DefaultCheckoutTime)
}

func TestTemplateGenerator_CheckOutTimeFromListing(t *testing.T) {
	reply := generate(t, &GenerateRequest{
		Intent:  IntentCheckOutInfo,
		Context: &MessageContext{Listing: map[string]interface{}{"checkoutTime": "10:00 AM"}},
	})
	assert.Contains(t, reply, "10:00 AM")
	assert.NotContains(t, reply, DefaultCheckoutTime)
}

func TestTemplateGenerator_EmergencyAck(t *testing.T) {
	reply := generate(t, &GenerateRequest{Intent: IntentEmergency})
	assert.Contains(t, reply, "urgent")
	assert.Contains(t, reply, "emergency services")
}

func TestTemplateGenerator_SupportAck(t *testing.T) {
	reply := generate(t, &GenerateRequest{Intent: IntentSupportRequest})
	assert.Contains(t, reply, "logged your request")
}

func TestTemplateGenerator_GeneralInfoSnippets(t *testing.T) {
	long := strings.Repeat("a", 350)
	reply := generate(t, &GenerateRequest{
		Intent: IntentGeneralInfo,
		Context: &MessageContext{Documents: []ContextDoc{
			{Title: "Parking", Content: "Free parking is available in the garage."},
			{Title: "Long", Content: long},
		}},
	})
	assert.Contains(t, reply, "Free parking is available in the garage.")
	// Snippet dài bị cắt còn 200 ký tự + dấu "..."
	assert.Contains(t, reply, strings.Repeat("a", snippetMaxLen)+"...")
	assert.NotContains(t, reply, strings.Repeat("a", snippetMaxLen+1))
}

func TestTemplateGenerator_GeneralInfoNoDocuments(t *testing.T) {
	reply := generate(t, &GenerateRequest{
		Intent:  IntentGeneralInfo,
		Context: &MessageContext{},
	})
	assert.Contains(t, reply, WillFollowUpPhrase)
}

func TestTemplateGenerator_UnknownIntent(t *testing.T) {
	reply := generate(t, &GenerateRequest{Intent: IntentUnknown})
	assert.Contains(t, reply, WillFollowUpPhrase)
}

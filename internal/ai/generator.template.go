package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/utility"
)

// TemplateGenerator sinh trả lời từ template cố định theo intent.
// Dùng làm fallback cho LLMGenerator và làm generator chính khi hệ thống
// chạy không có API key.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

const (
	// GuestPortalPhrase xuất hiện trong trả lời check-in khi không tìm được door code
	GuestPortalPhrase = "you can find your access details in your guest portal"

	// DefaultCheckoutTime dùng khi reservation/listing không có thông tin checkout
	DefaultCheckoutTime = "11:00 AM"

	// WillFollowUpPhrase dùng khi không có KB document nào liên quan
	WillFollowUpPhrase = "I've noted your question and our team will follow up with the details shortly."

	// DeferralPhrase là trả lời cố định khi confidence thấp: guest vẫn nhận
	// được hồi âm trong khi message được chuyển cho staff xử lý
	DeferralPhrase = "Thanks for your message! I've passed it along to our team and someone will get back to you shortly."
)

var (
	checkoutTimePaths = []string{"checkoutTime", "checkOut", "check_out", "checkout_time", "departureTime"}
	doorCodePaths     = []string{"doorCode", "door_code", "accessCode", "access_code", "lockCode", "lock_code"}
)

// snippetMaxLen giới hạn độ dài mỗi KB snippet đưa vào trả lời general_info
const snippetMaxLen = 200

func (g *TemplateGenerator) Generate(_ context.Context, req *GenerateRequest) (string, error) {
	greeting := "Hi"
	if req.GuestName != "" {
		greeting = "Hi " + req.GuestName
	}

	switch req.Intent {
	case IntentEmergency:
		return greeting + "! We've received your urgent message and a member of our team is being contacted right now. If you are in immediate danger, please call local emergency services.", nil

	case IntentSupportRequest:
		return greeting + "! Thanks for letting us know. We've logged your request and our team will look into it as soon as possible.", nil

	case IntentCheckInInfo:
		if code := g.lookupField(req.Context, doorCodePaths); code != "" {
			return fmt.Sprintf("%s! Your door code is %s. If you have any trouble getting in, just let us know.", greeting, code), nil
		}
		return fmt.Sprintf("%s! For check-in, %s. If you have any trouble, just let us know.", greeting, GuestPortalPhrase), nil

	case IntentCheckOutInfo:
		checkoutTime := g.lookupField(req.Context, checkoutTimePaths)
		if checkoutTime == "" {
			checkoutTime = DefaultCheckoutTime
			if global.ServerConfig != nil && global.ServerConfig.DefaultCheckoutTime != "" {
				checkoutTime = global.ServerConfig.DefaultCheckoutTime
			}
		}
		return fmt.Sprintf("%s! Check-out time is %s. Please make sure to leave the keys as instructed. Safe travels!", greeting, checkoutTime), nil

	case IntentGeneralInfo:
		return g.generalInfoReply(greeting, req.Context), nil

	default:
		return greeting + "! Thanks for your message. " + WillFollowUpPhrase, nil
	}
}

// lookupField tìm field theo thứ tự: listing trước, rồi raw reservation payload
func (g *TemplateGenerator) lookupField(mc *MessageContext, paths []string) string {
	if mc == nil {
		return ""
	}
	if mc.Listing != nil {
		if v := utility.ExtractString(mc.Listing, paths...); v != "" {
			return v
		}
	}
	if mc.Reservation != nil && mc.Reservation.Raw != nil {
		if v := utility.ExtractString(mc.Reservation.Raw, paths...); v != "" {
			return v
		}
	}
	return ""
}

func (g *TemplateGenerator) generalInfoReply(greeting string, mc *MessageContext) string {
	if mc == nil || len(mc.Documents) == 0 {
		return greeting + "! " + WillFollowUpPhrase
	}

	var sb strings.Builder
	sb.WriteString(greeting)
	sb.WriteString("! Here's what I found:\n")
	for _, doc := range mc.Documents {
		snippet := doc.Content
		if len(snippet) > snippetMaxLen {
			snippet = snippet[:snippetMaxLen] + "..."
		}
		sb.WriteString("- ")
		sb.WriteString(snippet)
		sb.WriteString("\n")
	}
	sb.WriteString("Let us know if you need anything else!")
	return sb.String()
}

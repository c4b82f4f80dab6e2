package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// HistoryEntry là một tin nhắn trong lịch sử hội thoại dùng làm prompt context
type HistoryEntry struct {
	Sender    string
	Body      string
	Timestamp string
}

// Generator sinh nội dung trả lời cho guest
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// GenerateRequest là input cho việc sinh trả lời
type GenerateRequest struct {
	GuestMessage string
	Intent       string
	GuestName    string
	TenantName   string
	History      []HistoryEntry
	Context      *MessageContext
}

// LLMGenerator sinh trả lời bằng Gemini, degrade sang template khi LLM lỗi
type LLMGenerator struct {
	llm      *LLMClient
	fallback *TemplateGenerator
}

func NewLLMGenerator(llm *LLMClient) *LLMGenerator {
	return &LLMGenerator{
		llm:      llm,
		fallback: NewTemplateGenerator(),
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	prompt := buildGeneratePrompt(req)

	reply, err := g.llm.GenerateText(ctx, prompt, 0.7, 300)
	if err != nil {
		logger.GetAppLogger().WithField("module", "ai").WithError(err).
			Warn("🤖 [Generator] LLM lỗi, fallback sang template")
		return g.fallback.Generate(ctx, req)
	}
	return reply, nil
}

func buildGeneratePrompt(req *GenerateRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant for a short-term rental host, replying to a guest message.\n")
	sb.WriteString("Reply concisely and warmly. Do not invent facts not present in the context below.\n\n")

	if req.TenantName != "" {
		fmt.Fprintf(&sb, "Property business: %s\n", req.TenantName)
	}
	if req.GuestName != "" {
		fmt.Fprintf(&sb, "Guest name: %s\n", req.GuestName)
	}
	fmt.Fprintf(&sb, "Detected intent: %s\n", req.Intent)

	if req.Context != nil {
		if res := req.Context.Reservation; res != nil {
			// Payload gốc có các field không chuẩn hóa (door code, checkout
			// time tuỳ PMS) nên serialize nguyên vẹn thay vì chọn field
			if raw := compactJSON(res.Raw); raw != "" {
				fmt.Fprintf(&sb, "\nReservation (JSON): %s\n", raw)
			} else {
				fmt.Fprintf(&sb, "\nReservation: check-in %s, check-out %s, status %s\n",
					res.CheckIn, res.CheckOut, res.Status)
			}
		}
		if listing := compactJSON(req.Context.Listing); listing != "" {
			fmt.Fprintf(&sb, "Listing (JSON): %s\n", listing)
		}
		if len(req.Context.Documents) > 0 {
			sb.WriteString("\nRelevant knowledge base entries:\n")
			for _, doc := range req.Context.Documents {
				if doc.Title != "" {
					fmt.Fprintf(&sb, "- %s: %s\n", doc.Title, doc.Content)
				} else {
					fmt.Fprintf(&sb, "- %s\n", doc.Content)
				}
			}
		}
	}

	if len(req.History) > 0 {
		sb.WriteString("\nRecent conversation:\n")
		for _, entry := range req.History {
			fmt.Fprintf(&sb, "[%s] %s: %s\n", entry.Timestamp, entry.Sender, entry.Body)
		}
	}

	fmt.Fprintf(&sb, "\nGuest message: %s\n\nYour reply:", req.GuestMessage)
	return sb.String()
}

// compactJSON serialize một map thành JSON một dòng, "" khi nil hoặc marshal lỗi
func compactJSON(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(raw)
}


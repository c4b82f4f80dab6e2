// Package ai chứa conversation pipeline: intent classifier, context retriever,
// response generator và escalation controller.
package ai

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// LLMClient bọc Gemini API cho chat completion và embedding.
// Client nil là trạng thái hợp lệ: hệ thống chạy deterministic mode
// (keyword classifier + template generator + keyword search).
type LLMClient struct {
	client     *genai.Client
	chatModel  string
	embedModel string
}

// NewLLMClient tạo LLMClient từ API key. Trả về nil (không lỗi) khi
// không có key — absence là runtime mode hợp lệ, không phải lỗi cấu hình.
func NewLLMClient(ctx context.Context, apiKey, chatModel, embedModel string) (*LLMClient, error) {
	if apiKey == "" {
		logger.GetAppLogger().WithField("module", "ai").Info("🤖 [LLM] Không có API key, chạy deterministic mode")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &LLMClient{
		client:     client,
		chatModel:  chatModel,
		embedModel: embedModel,
	}, nil
}

// Close giải phóng kết nối tới Gemini
func (l *LLMClient) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

// GenerateText gọi chat completion với temperature và max token cho trước
func (l *LLMClient) GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	if l == nil || l.client == nil {
		return "", fmt.Errorf("llm client chưa được cấu hình")
	}

	model := l.client.GenerativeModel(l.chatModel)
	model.GenerationConfig.Temperature = &temperature
	model.GenerationConfig.MaxOutputTokens = &maxTokens

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("llm trả về response rỗng")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("llm trả về text rỗng")
	}
	return result, nil
}

// EmbedText tạo embedding vector cho một đoạn text
func (l *LLMClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("llm client chưa được cấu hình")
	}

	em := l.client.EmbeddingModel(l.embedModel)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding trả về rỗng")
	}

	return resp.Embedding.Values, nil
}

// EmbedModel trả về tên model embedding đang dùng (lưu vào metadata của document
// để không so sánh cosine giữa các model khác nhau)
func (l *LLMClient) EmbedModel() string {
	if l == nil {
		return ""
	}
	return l.embedModel
}

// StripCodeFence bỏ markdown code fence quanh JSON do LLM trả về
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// CosineSimilarity tính độ tương đồng cosine giữa hai vector.
// Trả về 0 khi hai vector khác chiều hoặc một vector là zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

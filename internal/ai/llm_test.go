package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"không có fence", `{"intent":"unknown"}`, `{"intent":"unknown"}`},
		{"fence json", "```json\n{\"intent\":\"emergency\"}\n```", `{"intent":"emergency"}`},
		{"fence trần", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace quanh fence", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"thiếu fence đóng", "```json\n{\"a\":1}", `{"a":1}`},
		{"chuỗi rỗng", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFence(tc.input))
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	// Vector trùng nhau → 1
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)

	// Vector vuông góc → 0
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)

	// Vector ngược hướng → -1
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Khác chiều hoặc zero vector → 0
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

// LLMClient nil phải an toàn ở mọi method
func TestLLMClient_NilSafe(t *testing.T) {
	var l *LLMClient
	assert.NoError(t, l.Close())
	assert.Equal(t, "", l.EmbedModel())
}

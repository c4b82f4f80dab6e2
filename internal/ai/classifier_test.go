package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LLM client chưa cấu hình → mọi lần classify đều fallback sang keyword
func TestLLMClassifier_FallsBackWithoutClient(t *testing.T) {
	c := NewLLMClassifier(nil)

	result, err := c.Classify(context.Background(), "When is checkout?")
	require.NoError(t, err)
	assert.Equal(t, IntentCheckOutInfo, result.Intent)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestLLMClassifier_EmptyMessageShortCircuits(t *testing.T) {
	c := NewLLMClassifier(nil)

	result, err := c.Classify(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, IntentUnknown, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
}

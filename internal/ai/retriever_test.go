// Package ai - Test context retriever và keyword extraction.
package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubSearcher ghi lại các lần SearchRelevant được gọi
type stubSearcher struct {
	calls   int
	queries []string
	docs    []ContextDoc
	err     error
}

func (s *stubSearcher) SearchRelevant(_ context.Context, _ string, query string, _ int) ([]ContextDoc, error) {
	s.calls++
	s.queries = append(s.queries, query)
	return s.docs, s.err
}

// Emergency không bao giờ query knowledge store
func TestRetrieve_EmergencyNeverSearchesKnowledge(t *testing.T) {
	searcher := &stubSearcher{docs: []ContextDoc{{Title: "Fire safety", Content: "..."}}}
	r := NewContextRetriever(searcher)

	result := r.Retrieve(context.Background(), nil, "tenant-1", "", "fire in the kitchen", IntentEmergency)

	assert.Equal(t, 0, searcher.calls)
	assert.Empty(t, result.Documents)
	assert.Nil(t, result.Reservation)
}

func TestRetrieve_NonEmergencySearchesKnowledge(t *testing.T) {
	searcher := &stubSearcher{docs: []ContextDoc{{Title: "Wifi", Content: "Network: Guest / Pass: abc"}}}
	r := NewContextRetriever(searcher)

	for _, intent := range []string{IntentCheckInInfo, IntentCheckOutInfo, IntentGeneralInfo, IntentSupportRequest, IntentUnknown} {
		searcher.calls = 0
		result := r.Retrieve(context.Background(), nil, "tenant-1", "", "what is the wifi password?", intent)
		assert.Equal(t, 1, searcher.calls, "intent: %s", intent)
		assert.Len(t, result.Documents, 1)
	}
}

// Lỗi từ knowledge store không làm hỏng pipeline, chỉ mất KB context
func TestRetrieve_KnowledgeErrorDegradesGracefully(t *testing.T) {
	searcher := &stubSearcher{err: assert.AnError}
	r := NewContextRetriever(searcher)

	result := r.Retrieve(context.Background(), nil, "tenant-1", "", "parking info", IntentGeneralInfo)

	assert.NotNil(t, result)
	assert.Empty(t, result.Documents)
}

func TestRetrieve_NilPMSClientSafe(t *testing.T) {
	r := NewContextRetriever(nil)
	result := r.Retrieve(context.Background(), nil, "tenant-1", "res-1", "hello", IntentGeneralInfo)
	assert.NotNil(t, result)
	assert.Nil(t, result.Reservation)
	assert.Nil(t, result.Listing)
}

func TestExtractSearchTerms_DomainTermsFirst(t *testing.T) {
	terms := ExtractSearchTerms("What time is checkout and where is parking?")
	// Domain term đứng trước token thường
	assert.Equal(t, "checkout", terms[0])
	assert.Equal(t, "parking", terms[1])
	assert.Contains(t, terms, "time")
}

func TestExtractSearchTerms_MultiWordDomainTerm(t *testing.T) {
	terms := ExtractSearchTerms("I forgot the door code")
	assert.Contains(t, terms, "door code")
}

func TestExtractSearchTerms_DropsShortAndStopWords(t *testing.T) {
	terms := ExtractSearchTerms("what is the best way to get there")
	assert.NotContains(t, terms, "what")
	assert.NotContains(t, terms, "the")
	assert.NotContains(t, terms, "is")
	assert.NotContains(t, terms, "to")
	assert.Contains(t, terms, "best")
}

func TestExtractSearchTerms_CapsAtSeven(t *testing.T) {
	terms := ExtractSearchTerms("checkout parking wifi payment refund amenities emergency cancellation door code extra words here also more tokens")
	assert.Len(t, terms, 7)
}

func TestExtractSearchTerms_Empty(t *testing.T) {
	assert.Empty(t, ExtractSearchTerms(""))
	assert.Empty(t, ExtractSearchTerms("is to of a"))
}

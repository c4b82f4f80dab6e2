// Test pipeline của Engine với các store stub: paused short-circuit,
// emergency không chạy retriever, low-confidence tạo deferral ack.
package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
)

type stubConversationStore struct {
	conversation convmodels.Conversation
}

func (s *stubConversationStore) FindOneById(_ context.Context, _ primitive.ObjectID) (convmodels.Conversation, error) {
	return s.conversation, nil
}

type stubTenantStore struct {
	tenant tenantmodels.Tenant
}

func (s *stubTenantStore) FindOneById(_ context.Context, _ primitive.ObjectID) (tenantmodels.Tenant, error) {
	return s.tenant, nil
}

func (s *stubTenantStore) PmsApiKey(_ tenantmodels.Tenant) (string, error) {
	return "", nil
}

type stubMessageLogStore struct {
	inbound convmodels.MessageLog
	history []convmodels.MessageLog

	inboundLoads int
	statuses     []string
	replies      []convmodels.MessageLog
}

func (s *stubMessageLogStore) FindOneById(_ context.Context, _ primitive.ObjectID) (convmodels.MessageLog, error) {
	s.inboundLoads++
	return s.inbound, nil
}

func (s *stubMessageLogStore) MarkProcessed(_ context.Context, _ primitive.ObjectID, status, _ string, _ float64) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *stubMessageLogStore) HistoryForAi(_ context.Context, _ primitive.ObjectID, _ int64) ([]convmodels.MessageLog, error) {
	return s.history, nil
}

func (s *stubMessageLogStore) CreatePendingAiReply(_ context.Context, inbound convmodels.MessageLog, body, intent string, confidence float64, escalationAck bool) (convmodels.MessageLog, error) {
	reply := convmodels.MessageLog{
		ID:             primitive.NewObjectID(),
		TenantID:       inbound.TenantID,
		ConversationID: inbound.ConversationID,
		SenderType:     convmodels.SenderTypeAi,
		Direction:      convmodels.DirectionOutbound,
		Body:           body,
		Intent:         intent,
		Confidence:     confidence,
		EscalationAck:  escalationAck,
	}
	s.replies = append(s.replies, reply)
	return reply, nil
}

type stubNotifier struct {
	emergencies []string
	lowConfs    []string
	lowIntents  []string
}

func (s *stubNotifier) EscalateEmergency(_ context.Context, _ tenantmodels.Tenant, _ convmodels.Conversation, guestMessage string) {
	s.emergencies = append(s.emergencies, guestMessage)
}

func (s *stubNotifier) EscalateLowConfidence(_ context.Context, _ tenantmodels.Tenant, _ convmodels.Conversation, guestMessage, intent string, _ float64) {
	s.lowConfs = append(s.lowConfs, guestMessage)
	s.lowIntents = append(s.lowIntents, intent)
}

type stubClassifier struct {
	result *Classification
	inputs []string
}

func (s *stubClassifier) Classify(_ context.Context, message string) (*Classification, error) {
	s.inputs = append(s.inputs, message)
	return s.result, nil
}

type stubGenerator struct {
	reply    string
	requests []*GenerateRequest
}

func (s *stubGenerator) Generate(_ context.Context, req *GenerateRequest) (string, error) {
	s.requests = append(s.requests, req)
	return s.reply, nil
}

type countingSearcher struct {
	calls int
}

func (s *countingSearcher) SearchRelevant(_ context.Context, _ string, _ string, _ int) ([]ContextDoc, error) {
	s.calls++
	return nil, nil
}

type engineFixture struct {
	engine     *Engine
	classifier *stubClassifier
	generator  *stubGenerator
	searcher   *countingSearcher
	notifier   *stubNotifier
	messages   *stubMessageLogStore

	messageLogID   primitive.ObjectID
	conversationID primitive.ObjectID
}

func newEngineFixture(t *testing.T, status string, classification *Classification) *engineFixture {
	t.Helper()

	conversationID := primitive.NewObjectID()
	messageLogID := primitive.NewObjectID()
	tenantID := primitive.NewObjectID()

	classifier := &stubClassifier{result: classification}
	generator := &stubGenerator{reply: "generated reply"}
	searcher := &countingSearcher{}
	notifier := &stubNotifier{}
	messages := &stubMessageLogStore{
		inbound: convmodels.MessageLog{
			ID:             messageLogID,
			TenantID:       tenantID,
			ConversationID: conversationID,
			SenderType:     convmodels.SenderTypeGuest,
			Direction:      convmodels.DirectionInbound,
			Body:           "is there parking nearby?",
		},
	}

	engine := NewEngine(classifier, generator, NewContextRetriever(searcher), notifier,
		&stubTenantStore{tenant: tenantmodels.Tenant{ID: tenantID, Name: "Seaside Stays"}},
		&stubConversationStore{conversation: convmodels.Conversation{
			ID:                    conversationID,
			TenantID:              tenantID,
			ReservationExternalId: "res-1",
			GuestName:             "Ana",
			Status:                status,
		}},
		messages)

	return &engineFixture{
		engine:         engine,
		classifier:     classifier,
		generator:      generator,
		searcher:       searcher,
		notifier:       notifier,
		messages:       messages,
		messageLogID:   messageLogID,
		conversationID: conversationID,
	}
}

// Hội thoại paused_by_human: return nil ngay, không có bất kỳ side effect nào
func TestEngineSkipsPausedConversation(t *testing.T) {
	f := newEngineFixture(t, convmodels.ConversationStatusPausedByHuman,
		&Classification{Intent: IntentGeneralInfo, Confidence: 0.9})

	err := f.engine.ProcessMessage(context.Background(), f.messageLogID, f.conversationID)

	require.NoError(t, err)
	assert.Zero(t, f.messages.inboundLoads)
	assert.Empty(t, f.classifier.inputs)
	assert.Empty(t, f.messages.statuses)
	assert.Empty(t, f.messages.replies)
	assert.Empty(t, f.notifier.emergencies)
	assert.Empty(t, f.notifier.lowConfs)
	assert.Zero(t, f.searcher.calls)
}

// Emergency: escalate ngay, không query knowledge base, ack vẫn được tạo
// và mang cờ escalationAck để gửi qua pause
func TestEngineEmergencyNeverRetrieves(t *testing.T) {
	f := newEngineFixture(t, convmodels.ConversationStatusAutomated,
		&Classification{Intent: IntentEmergency, Confidence: 0.9})

	err := f.engine.ProcessMessage(context.Background(), f.messageLogID, f.conversationID)

	require.NoError(t, err)
	assert.Len(t, f.notifier.emergencies, 1)
	assert.Zero(t, f.searcher.calls)

	require.Len(t, f.messages.replies, 1)
	assert.True(t, f.messages.replies[0].EscalationAck)
	assert.Equal(t, IntentEmergency, f.messages.replies[0].Intent)
	assert.Equal(t, []string{convmodels.MessageStatusProcessing, convmodels.MessageStatusSent}, f.messages.statuses)
}

// Confidence dưới ngưỡng: escalate cho staff kèm intent, guest nhận deferral
// ack cố định, inbound vẫn được đánh dấu đã xử lý
func TestEngineLowConfidenceCreatesDeferralAck(t *testing.T) {
	f := newEngineFixture(t, convmodels.ConversationStatusAutomated,
		&Classification{Intent: IntentGeneralInfo, Confidence: 0.2})

	err := f.engine.ProcessMessage(context.Background(), f.messageLogID, f.conversationID)

	require.NoError(t, err)
	require.Len(t, f.notifier.lowConfs, 1)
	assert.Equal(t, []string{IntentGeneralInfo}, f.notifier.lowIntents)

	require.Len(t, f.messages.replies, 1)
	assert.Equal(t, DeferralPhrase, f.messages.replies[0].Body)
	assert.True(t, f.messages.replies[0].EscalationAck)
	assert.Equal(t, []string{convmodels.MessageStatusProcessing, convmodels.MessageStatusSent}, f.messages.statuses)

	// Không generate, không escalate emergency
	assert.Empty(t, f.generator.requests)
	assert.Empty(t, f.notifier.emergencies)
}

// Happy path: retrieve chạy, reply từ generator được persist không có cờ ack
func TestEngineNormalFlowPersistsPendingReply(t *testing.T) {
	f := newEngineFixture(t, convmodels.ConversationStatusAutomated,
		&Classification{Intent: IntentGeneralInfo, Confidence: 0.8})

	err := f.engine.ProcessMessage(context.Background(), f.messageLogID, f.conversationID)

	require.NoError(t, err)
	assert.Equal(t, 1, f.searcher.calls)

	require.Len(t, f.messages.replies, 1)
	assert.Equal(t, "generated reply", f.messages.replies[0].Body)
	assert.False(t, f.messages.replies[0].EscalationAck)

	require.Len(t, f.generator.requests, 1)
	assert.Equal(t, "Seaside Stays", f.generator.requests[0].TenantName)
	assert.Equal(t, "Ana", f.generator.requests[0].GuestName)

	assert.Empty(t, f.notifier.emergencies)
	assert.Empty(t, f.notifier.lowConfs)
}

// Classifier phải nhìn thấy history: "yes please" một mình không phân loại
// được, nhưng kèm câu hỏi của host thì có ngữ cảnh
func TestEngineClassifierSeesHistory(t *testing.T) {
	f := newEngineFixture(t, convmodels.ConversationStatusAutomated,
		&Classification{Intent: IntentCheckOutInfo, Confidence: 0.7})
	f.messages.inbound.Body = "yes please"
	f.messages.history = []convmodels.MessageLog{
		{
			ID:         primitive.NewObjectID(),
			SenderType: convmodels.SenderTypeHuman,
			Body:       "Would you like a late check-out?",
			CreatedAt:  1700000000000,
		},
		f.messages.inbound,
	}

	err := f.engine.ProcessMessage(context.Background(), f.messageLogID, f.conversationID)

	require.NoError(t, err)
	require.Len(t, f.classifier.inputs, 1)
	input := f.classifier.inputs[0]
	assert.Contains(t, input, "Host: Would you like a late check-out?")
	assert.True(t, strings.HasSuffix(input, "Guest: yes please"))
}

func TestClassifierInput(t *testing.T) {
	history := []HistoryEntry{
		{Sender: "Host", Body: "Would you like a late check-out?"},
	}

	input := classifierInput(history, "yes please")
	assert.Equal(t, "Host: Would you like a late check-out?\nGuest: yes please", input)

	// Không có history hoặc message rỗng: giữ nguyên message
	assert.Equal(t, "yes please", classifierInput(nil, "yes please"))
	assert.Equal(t, "", classifierInput(history, ""))
	assert.Equal(t, "   ", classifierInput(history, "   "))
}

// Package knowledgesvc - Test trích Q&A từ lịch sử hội thoại.
package knowledgesvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

func incoming(ts int64, body string) gateway.PMSMessage {
	return gateway.PMSMessage{Direction: gateway.DirectionIncoming, Body: body, CreatedAt: ts}
}

func outgoing(ts int64, body string) gateway.PMSMessage {
	return gateway.PMSMessage{Direction: gateway.DirectionOutgoing, Body: body, CreatedAt: ts}
}

// Hội thoại mẫu: câu hỏi checkout được giữ, câu hỏi wifi và answer ngắn bị loại
// → đúng một cặp Q&A
func TestExtractQAPairs_CheckoutKeptWifiDropped(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "What time is checkout?"),
		outgoing(2, "Checkout is 11am, thanks!"),
		incoming(3, "what is the wifi password?"),
		outgoing(4, "Net2024"),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	require.Len(t, pairs, 1)
	assert.Equal(t, "What time is checkout?", pairs[0].Question)
	assert.Equal(t, "Checkout is 11am, thanks!", pairs[0].Answer)
	assert.Equal(t, "conv-1", pairs[0].ConversationID)
	assert.Equal(t, 0, pairs[0].Index)
}

// Message được sort theo CreatedAt trước khi ghép cặp
func TestExtractQAPairs_SortsByCreatedAt(t *testing.T) {
	messages := []gateway.PMSMessage{
		outgoing(20, "Yes, late checkout until 1pm is fine for your stay."),
		incoming(10, "Can we get a late checkout tomorrow?"),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Can we get a late checkout tomorrow?", pairs[0].Question)
}

func TestExtractQAPairs_GreetingsAndAcksSkipped(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "Good morning!"),
		outgoing(2, "Good morning, how can we help you today?"),
		incoming(3, "Thank you!!"),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	assert.Empty(t, pairs)
}

// Answer toàn số/gạch bị lọc nhưng câu hỏi được giữ chờ answer tiếp theo
func TestExtractQAPairs_DashDigitAnswerFilteredQuestionRetained(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "How do I get into the building after dark?"),
		outgoing(2, "0912-334-556-7788"),
		outgoing(3, "Use the side entrance, the keypad is next to the door."),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	require.Len(t, pairs, 1)
	assert.Equal(t, "How do I get into the building after dark?", pairs[0].Question)
	assert.Equal(t, "Use the side entrance, the keypad is next to the door.", pairs[0].Answer)
}

// Answer giao code/password bị lọc tương tự
func TestExtractQAPairs_CodeDeliveryAnswerFiltered(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "How do I unlock the front door?"),
		outgoing(2, "Your code is 4812, see you soon!"),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	assert.Empty(t, pairs)
}

// Answer dài hơn ngưỡng code-delivery không bị lọc dù có chứa phrase
func TestExtractQAPairs_LongAnswerWithCodePhraseKept(t *testing.T) {
	answer := "Your code is in the welcome booklet on the kitchen table, together with the house manual and local recommendations for restaurants."
	messages := []gateway.PMSMessage{
		incoming(1, "Where can I find the door instructions?"),
		outgoing(2, answer),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	require.Len(t, pairs, 1)
	assert.Equal(t, answer, pairs[0].Answer)
}

// Cặp quá ngắn bị bỏ và câu hỏi không được dùng lại cho answer sau
func TestExtractQAPairs_ShortPairDiscarded(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "Parking spot?"),
		outgoing(2, "Number five."),
		outgoing(3, "It is in the underground garage, entrance on Main Street."),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	assert.Empty(t, pairs)
}

// Mỗi câu hỏi chỉ ghép với một answer; answer tiếp theo không có câu hỏi thì bỏ
func TestExtractQAPairs_OneAnswerPerQuestion(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "Is early check in possible on Friday?"),
		outgoing(2, "Yes, you can check in from 1pm on Friday."),
		outgoing(3, "Just let us know when you arrive at the building."),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Yes, you can check in from 1pm on Friday.", pairs[0].Answer)
}

// Body còn template placeholder chưa resolve thì bỏ
func TestExtractQAPairs_PlaceholderBodySkipped(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "Hello {{guest_name}}, welcome to the flat!"),
		outgoing(2, "This reply should not pair with a placeholder message."),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	assert.Empty(t, pairs)
}

func TestExtractQAPairs_IndexIncrements(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "What time is checkout on Sunday?"),
		outgoing(2, "Checkout is at 11am on all days."),
		incoming(3, "Is there a hairdryer in the bathroom?"),
		outgoing(4, "Yes, it is in the top drawer under the sink."),
	}

	pairs := ExtractQAPairs("conv-1", messages)
	require.Len(t, pairs, 2)
	assert.Equal(t, 0, pairs[0].Index)
	assert.Equal(t, 1, pairs[1].Index)
}

func TestDashDigitDominated(t *testing.T) {
	assert.True(t, dashDigitDominated("0912-334-556"))
	assert.True(t, dashDigitDominated("12-34 56-78"))
	assert.False(t, dashDigitDominated("Checkout is at 11am"))
	assert.False(t, dashDigitDominated(""))
}

func TestIsCodeDelivery(t *testing.T) {
	assert.True(t, isCodeDelivery("Your code is 4812"))
	assert.True(t, isCodeDelivery("the pin for the lockbox: 9921"))
	assert.False(t, isCodeDelivery("The code is explained in the house manual, "+strings.Repeat("x", 80)))
	assert.False(t, isCodeDelivery("See the welcome booklet for details"))
}

// Câu hỏi ở thread này và answer ở thread khác (Airbnb vs SMS) vẫn ghép được
// khi message của cả reservation đã gộp thành một stream; pair mang
// conversation id của câu hỏi
func TestExtractQAPairs_CrossThreadPairing(t *testing.T) {
	question := incoming(1, "Is there a parking space at the flat?")
	question.ConversationID = "thread-airbnb"
	answer := outgoing(2, "Yes, spot 12 in the garage is yours during the stay.")
	answer.ConversationID = "thread-sms"

	pairs := ExtractQAPairs("", []gateway.PMSMessage{answer, question})
	require.Len(t, pairs, 1)
	assert.Equal(t, "thread-airbnb", pairs[0].ConversationID)
	assert.Equal(t, "Is there a parking space at the flat?", pairs[0].Question)
}

// Message không mang conversation id riêng thì pair dùng id mặc định
func TestExtractQAPairs_DefaultConversationID(t *testing.T) {
	messages := []gateway.PMSMessage{
		incoming(1, "What time is checkout on Sunday?"),
		outgoing(2, "Checkout is at 11am on all days."),
	}

	pairs := ExtractQAPairs("conv-default", messages)
	require.Len(t, pairs, 1)
	assert.Equal(t, "conv-default", pairs[0].ConversationID)
}

// 429 từ PMS khi lấy message của thread phải được retry với backoff, không
// bỏ thread ngay từ lỗi đầu tiên
func TestFetchThreadMessagesWithRetry_RateLimited(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"m1","direction":"incoming","body":"What time is checkout?","createdAt":1}]}`))
	}))
	defer server.Close()

	var backoffs []time.Duration
	service := &KnowledgeSyncService{sleep: func(d time.Duration) { backoffs = append(backoffs, d) }}

	pmsClient := gateway.NewPMSClient(server.URL, "test-key")
	log := logger.GetAppLogger().WithField("module", "knowledge")

	messages, err := service.fetchThreadMessagesWithRetry(context.Background(), pmsClient, "conv-1", log)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "What time is checkout?", messages[0].Body)

	// Hai lần 429 → hai lần backoff luỹ tiến trước khi thành công
	assert.Equal(t, []time.Duration{rateLimitBackoff, 2 * rateLimitBackoff}, backoffs)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// Lỗi không retry được (404) trả về ngay, không backoff
func TestFetchThreadMessagesWithRetry_NotFoundFailsFast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var slept int
	service := &KnowledgeSyncService{sleep: func(time.Duration) { slept++ }}

	pmsClient := gateway.NewPMSClient(server.URL, "test-key")
	log := logger.GetAppLogger().WithField("module", "knowledge")

	_, err := service.fetchThreadMessagesWithRetry(context.Background(), pmsClient, "conv-1", log)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, slept)
}

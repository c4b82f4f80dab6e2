package knowledgesvc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	knowledgemodels "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/models"
	tenantmodels "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/models"
	tenantsvc "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

const (
	// Phân trang danh sách conversation từ PMS
	syncPageSize = 100
	syncMaxPages = 50

	// Mỗi page được retry tối đa maxPageRetries lần với backoff luỹ tiến;
	// hết retry thì bỏ qua phần còn lại và kết thúc với trạng thái partial_sync
	maxPageRetries   = 5
	rateLimitBackoff = 5 * time.Second
	interPageDelay   = 200 * time.Millisecond
	requestsPerPause = 10

	// Body quá ngắn không mang thông tin, bỏ trước khi trích Q&A
	minBodyLength = 10

	// Cặp Q&A có tổng độ dài dưới ngưỡng này thì bỏ
	minPairLength = 30

	// Answer ngắn chứa phrase giao code/password là tin nhắn giao thông tin
	// một lần, không phải kiến thức tái sử dụng
	codeDeliveryMaxLength = 80
)

// KnowledgeSyncService xây knowledge base từ lịch sử hội thoại trên PMS:
// duyệt các reservation, trích các cặp hỏi-đáp giữa guest và host, lưu
// thành document (kèm embedding) cho tenant.
type KnowledgeSyncService struct {
	documentService *KnowledgeDocumentService
	progressService *SyncProgressService
	tenantService   *tenantsvc.TenantService

	// sleep tách ra để test không phải chờ backoff thật
	sleep func(time.Duration)
}

func NewKnowledgeSyncService(documentService *KnowledgeDocumentService, progressService *SyncProgressService, tenantService *tenantsvc.TenantService) *KnowledgeSyncService {
	return &KnowledgeSyncService{
		documentService: documentService,
		progressService: progressService,
		tenantService:   tenantService,
		sleep:           time.Sleep,
	}
}

// SyncResult tóm tắt kết quả một lần sync
type SyncResult struct {
	ReservationsProcessed int    `json:"reservationsProcessed"`
	PairsExtracted        int    `json:"pairsExtracted"`
	DocsCreated           int    `json:"docsCreated"`
	Status                string `json:"status"`
}

// Sync chạy toàn bộ pipeline cho một tenant. reservationLimit > 0 giới hạn
// số reservation xử lý (chạy thử trên tập nhỏ); 0 là không giới hạn.
// Lỗi lặp lại khi gọi PMS không làm hỏng cả lần sync: phần đã lấy được vẫn
// xử lý và trạng thái cuối là partial_sync.
func (s *KnowledgeSyncService) Sync(ctx context.Context, tenant tenantmodels.Tenant, userID string, reservationLimit int) (*SyncResult, error) {
	log := logger.GetAppLogger().WithFields(logrus.Fields{
		"module":   "knowledge",
		"tenantId": tenant.ID.Hex(),
	})

	apiKey, err := s.tenantService.PmsApiKey(tenant)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeValidationInput, "Tenant chưa cấu hình PMS API key", common.StatusBadRequest, nil)
	}
	pmsClient := gateway.NewPMSClient(global.ServerConfig.PMSBaseURL, apiKey)

	if _, err := s.progressService.Start(ctx, tenant.ID, userID, 0); err != nil {
		return nil, fmt.Errorf("khởi tạo progress: %w", err)
	}

	hardFail := func(cause error) (*SyncResult, error) {
		// Sync không chạy được thì progress record không còn ý nghĩa
		if clearErr := s.progressService.Clear(ctx, tenant.ID, userID); clearErr != nil {
			log.WithError(clearErr).Warn("📚 [Sync] Không xoá được progress record")
		}
		return nil, cause
	}

	conversations, partial := s.listAllConversations(ctx, pmsClient, log)
	if len(conversations) == 0 && partial {
		return hardFail(common.NewError(common.ErrCodeInternalServer, "Không lấy được danh sách hội thoại từ PMS", common.StatusInternalServerError, nil))
	}

	reservationIDs := distinctReservationIDs(conversations)
	if reservationLimit > 0 && len(reservationIDs) > reservationLimit {
		reservationIDs = reservationIDs[:reservationLimit]
	}

	if _, err := s.progressService.Start(ctx, tenant.ID, userID, len(reservationIDs)); err != nil {
		log.WithError(err).Warn("📚 [Sync] Không cập nhật được tổng số reservation")
	}

	result := &SyncResult{}
	requestCount := 0

	for i, reservationID := range reservationIDs {
		select {
		case <-ctx.Done():
			return hardFail(ctx.Err())
		default:
		}

		pairs, reqs, ok := s.collectReservationPairs(ctx, pmsClient, reservationID, log)
		requestCount += reqs
		if !ok {
			partial = true
		}

		for _, pair := range pairs {
			content := fmt.Sprintf("Q: %s\nA: %s", pair.Question, pair.Answer)
			metadata := map[string]interface{}{
				"source":         "conversation_sync",
				"reservationId":  reservationID,
				"conversationId": pair.ConversationID,
				"pairIndex":      pair.Index,
			}
			if _, err := s.documentService.CreateDocument(ctx, tenant.ID, "Guest Q&A", content, metadata); err != nil {
				log.WithError(err).Warn("📚 [Sync] Không lưu được Q&A document")
				continue
			}
			result.DocsCreated++
		}
		result.PairsExtracted += len(pairs)
		result.ReservationsProcessed++

		statusText := fmt.Sprintf("Đã xử lý %d/%d reservation", i+1, len(reservationIDs))
		if err := s.progressService.Update(ctx, tenant.ID, userID, i+1, result.DocsCreated, statusText); err != nil {
			log.WithError(err).Warn("📚 [Sync] Không cập nhật được progress")
		}

		// Giãn nhịp để không dồn request lên PMS
		if requestCount >= requestsPerPause {
			requestCount = 0
			s.sleep(rateLimitBackoff / 5)
		}
	}

	result.Status = knowledgemodels.SyncStatusCompleted
	statusText := fmt.Sprintf("Hoàn tất: %d document từ %d reservation", result.DocsCreated, result.ReservationsProcessed)
	if partial {
		result.Status = knowledgemodels.SyncStatusPartialSync
		statusText = fmt.Sprintf("Sync một phần: %d document, một số dữ liệu bị bỏ qua do lỗi PMS", result.DocsCreated)
	}

	if err := s.progressService.Finish(ctx, tenant.ID, userID, result.Status, statusText, result.DocsCreated); err != nil {
		log.WithError(err).Warn("📚 [Sync] Không đánh dấu được progress hoàn tất")
	}

	log.WithFields(logrus.Fields{
		"reservations": result.ReservationsProcessed,
		"pairs":        result.PairsExtracted,
		"docs":         result.DocsCreated,
		"status":       result.Status,
	}).Info("📚 [Sync] Kết thúc knowledge sync")

	return result, nil
}

// listAllConversations phân trang qua danh sách hội thoại. Trả về thêm cờ
// partial khi một page lỗi quá số retry cho phép và phần còn lại bị bỏ.
func (s *KnowledgeSyncService) listAllConversations(ctx context.Context, pmsClient *gateway.PMSClient, log *logrus.Entry) ([]gateway.PMSConversation, bool) {
	var all []gateway.PMSConversation

	for page := 0; page < syncMaxPages; page++ {
		conversations, err := s.fetchPageWithRetry(ctx, pmsClient, page, log)
		if err != nil {
			log.WithError(err).WithField("page", page).
				Error("📚 [Sync] Page lỗi sau nhiều lần retry, bỏ qua phần còn lại")
			return all, true
		}

		all = append(all, conversations...)
		if len(conversations) < syncPageSize {
			return all, false
		}
		s.sleep(interPageDelay)
	}

	log.WithField("maxPages", syncMaxPages).Warn("📚 [Sync] Chạm giới hạn số page, dừng phân trang")
	return all, true
}

// fetchPageWithRetry lấy một page với tối đa maxPageRetries lần retry.
// 429 hoặc lỗi kết nối đều retry cùng page với backoff luỹ tiến.
func (s *KnowledgeSyncService) fetchPageWithRetry(ctx context.Context, pmsClient *gateway.PMSClient, page int, log *logrus.Entry) ([]gateway.PMSConversation, error) {
	opts := gateway.ListConversationsOptions{
		Limit:  syncPageSize,
		Offset: page * syncPageSize,
	}

	var lastErr error
	for attempt := 0; attempt <= maxPageRetries; attempt++ {
		if attempt > 0 {
			backoff := rateLimitBackoff * time.Duration(1<<(attempt-1))
			log.WithFields(logrus.Fields{"page": page, "attempt": attempt, "backoff": backoff.String()}).
				Warn("📚 [Sync] Retry page sau backoff")
			s.sleep(backoff)
		}

		conversations, err := pmsClient.ListConversations(ctx, opts)
		if err == nil {
			return conversations, nil
		}
		lastErr = err

		if !errors.Is(err, common.ErrRateLimited) && !errors.Is(err, common.ErrConnection) {
			return nil, err
		}
	}
	return nil, lastErr
}

// collectReservationPairs lấy toàn bộ message của một reservation và trích
// các cặp Q&A. Message của mọi thread được gộp thành một stream duy nhất
// trước khi trích: guest hỏi ở thread này, host trả lời ở thread khác
// (Airbnb thread vs SMS thread) vẫn ghép được thành cặp.
// ok=false khi có lỗi PMS khiến dữ liệu không đầy đủ.
func (s *KnowledgeSyncService) collectReservationPairs(ctx context.Context, pmsClient *gateway.PMSClient, reservationID string, log *logrus.Entry) ([]QAPair, int, bool) {
	requests := 1
	threads, err := pmsClient.ListConversations(ctx, gateway.ListConversationsOptions{ReservationID: reservationID, Limit: syncPageSize})
	if err != nil {
		log.WithError(err).WithField("reservationId", reservationID).
			Warn("📚 [Sync] Không lấy được thread của reservation, bỏ qua")
		return nil, requests, false
	}

	ok := true
	var merged []gateway.PMSMessage
	for _, thread := range threads {
		requests++
		messages, err := s.fetchThreadMessagesWithRetry(ctx, pmsClient, thread.ID, log)
		if err != nil {
			log.WithError(err).WithField("conversationId", thread.ID).
				Warn("📚 [Sync] Không lấy được message của thread sau nhiều lần retry, bỏ qua thread")
			ok = false
			continue
		}

		for i := range messages {
			if messages[i].ConversationID == "" {
				messages[i].ConversationID = thread.ID
			}
		}
		merged = append(merged, messages...)
	}

	return ExtractQAPairs(reservationID, merged), requests, ok
}

// fetchThreadMessagesWithRetry lấy message của một thread với cùng chính sách
// retry như fetchPageWithRetry: 429 và lỗi kết nối retry với backoff luỹ tiến,
// lỗi khác trả về ngay.
func (s *KnowledgeSyncService) fetchThreadMessagesWithRetry(ctx context.Context, pmsClient *gateway.PMSClient, conversationID string, log *logrus.Entry) ([]gateway.PMSMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= maxPageRetries; attempt++ {
		if attempt > 0 {
			backoff := rateLimitBackoff * time.Duration(1<<(attempt-1))
			log.WithFields(logrus.Fields{"conversationId": conversationID, "attempt": attempt, "backoff": backoff.String()}).
				Warn("📚 [Sync] Retry lấy message của thread sau backoff")
			s.sleep(backoff)
		}

		messages, err := pmsClient.GetConversationMessages(ctx, conversationID, true)
		if err == nil {
			return messages, nil
		}
		lastErr = err

		if !errors.Is(err, common.ErrRateLimited) && !errors.Is(err, common.ErrConnection) {
			return nil, err
		}
	}
	return nil, lastErr
}

func distinctReservationIDs(conversations []gateway.PMSConversation) []string {
	seen := map[string]bool{}
	var ids []string
	for _, c := range conversations {
		if c.ReservationID == "" || seen[c.ReservationID] {
			continue
		}
		seen[c.ReservationID] = true
		ids = append(ids, c.ReservationID)
	}
	return ids
}

// QAPair là một cặp hỏi-đáp trích từ hội thoại guest-host
type QAPair struct {
	ConversationID string
	Index          int
	Question       string
	Answer         string
}

var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

// greetingAcks: guest message chỉ là chào hỏi/xác nhận, không phải câu hỏi
var greetingAcks = map[string]bool{
	"hi": true, "hello": true, "hey": true, "ok": true, "okay": true,
	"thanks": true, "thank you": true, "thx": true, "yes": true, "no": true,
	"great": true, "perfect": true, "cool": true, "got it": true,
	"good morning": true, "good evening": true, "sounds good": true,
}

var codeDeliveryPhrases = []string{
	"code is", "password is", "your code", "your password", "pin is", "the pin",
}

// usableBody: bỏ body quá ngắn hoặc còn template placeholder chưa resolve
func usableBody(body string) bool {
	trimmed := strings.TrimSpace(body)
	return len(trimmed) > minBodyLength && !placeholderPattern.MatchString(trimmed)
}

func isGreetingOrAck(body string) bool {
	normalized := strings.ToLower(strings.TrimSpace(body))
	normalized = strings.TrimRight(normalized, ".!? ")
	return greetingAcks[normalized]
}

// mentionsWifi: câu hỏi wifi bị loại khỏi Q&A — câu trả lời thường là
// credential của một listing cụ thể, không phải kiến thức dùng lại được
func mentionsWifi(body string) bool {
	normalized := strings.ToLower(body)
	return strings.Contains(normalized, "wifi") || strings.Contains(normalized, "wi-fi") ||
		strings.Contains(normalized, "internet")
}

// dashDigitDominated: quá nửa ký tự hữu hình là số hoặc gạch — gần như
// chắc chắn là code/số điện thoại/số tham chiếu
func dashDigitDominated(body string) bool {
	var visible, dashDigit int
	for _, r := range body {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		visible++
		if (r >= '0' && r <= '9') || r == '-' {
			dashDigit++
		}
	}
	return visible > 0 && dashDigit*2 >= visible
}

// isCodeDelivery: answer ngắn chứa phrase giao code/password
func isCodeDelivery(body string) bool {
	if len(body) > codeDeliveryMaxLength {
		return false
	}
	normalized := strings.ToLower(body)
	for _, phrase := range codeDeliveryPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// ExtractQAPairs trích các cặp hỏi-đáp từ một stream message đã sắp theo
// thời gian (có thể gộp từ nhiều thread của cùng reservation).
// Guest message trở thành câu hỏi hiện tại (trừ chào hỏi và câu hỏi wifi);
// host message đầu tiên sau đó trở thành câu trả lời, mỗi câu hỏi tối đa
// một câu trả lời. Answer dạng code/giao credential bị bỏ nhưng câu hỏi
// được giữ lại chờ answer tiếp theo. Pair mang conversation id của câu hỏi;
// defaultConversationID dùng khi message không mang id riêng.
func ExtractQAPairs(defaultConversationID string, messages []gateway.PMSMessage) []QAPair {
	sorted := make([]gateway.PMSMessage, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt < sorted[j].CreatedAt })

	var pairs []QAPair
	currentQuestion := ""
	questionConvID := ""

	for _, msg := range sorted {
		body := strings.TrimSpace(msg.Body)
		if !usableBody(body) {
			continue
		}

		switch msg.Direction {
		case gateway.DirectionIncoming:
			if isGreetingOrAck(body) || mentionsWifi(body) {
				continue
			}
			currentQuestion = body
			questionConvID = msg.ConversationID

		case gateway.DirectionOutgoing:
			if currentQuestion == "" {
				continue
			}
			if dashDigitDominated(body) || isCodeDelivery(body) {
				// Answer bị lọc, câu hỏi giữ lại chờ answer sau
				continue
			}
			if len(currentQuestion)+len(body) < minPairLength {
				currentQuestion = ""
				continue
			}
			convID := questionConvID
			if convID == "" {
				convID = defaultConversationID
			}
			pairs = append(pairs, QAPair{
				ConversationID: convID,
				Index:          len(pairs),
				Question:       currentQuestion,
				Answer:         body,
			})
			currentQuestion = ""
		}
	}

	return pairs
}

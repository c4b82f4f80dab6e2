package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// Hướng của message trong hội thoại PMS
const (
	DirectionIncoming = "incoming" // guest gửi cho host
	DirectionOutgoing = "outgoing" // host gửi cho guest
)

// PMSMessage là một message trong hội thoại lấy từ PMS
type PMSMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Direction      string `json:"direction"` // DirectionIncoming | DirectionOutgoing
	Body           string `json:"body"`
	CreatedAt      int64  `json:"createdAt"`
}

// PMSConversation là một thread trong danh sách hội thoại của PMS.
// List endpoint chỉ trả về message gần nhất của mỗi thread.
type PMSConversation struct {
	ID            string      `json:"id"`
	ReservationID string      `json:"reservationId"`
	GuestName     string      `json:"guestName"`
	LastMessage   *PMSMessage `json:"lastMessage,omitempty"`
}

// PMSReservation chứa thông tin reservation lấy từ PMS.
// CustomFields giữ nguyên JSON gốc vì tên field tùy PMS (doorCode, door_code, ...).
type PMSReservation struct {
	ID         string                 `json:"id"`
	ListingID  string                 `json:"listingId"`
	GuestName  string                 `json:"guestName"`
	GuestPhone string                 `json:"guestPhone"`
	CheckIn    string                 `json:"checkIn"`
	CheckOut   string                 `json:"checkOut"`
	Status     string                 `json:"status"`
	Raw        map[string]interface{} `json:"-"`
}

// ListConversationsOptions là tham số của endpoint danh sách hội thoại
type ListConversationsOptions struct {
	ReservationID    string
	Limit            int
	Offset           int
	IncludeResources bool
}

// PMSClient gọi REST API của Property Management System.
// API key lấy từ credential đã giải mã của tenant.
type PMSClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPMSClient tạo mới PMSClient cho một tenant
func NewPMSClient(baseURL, apiKey string) *PMSClient {
	return &PMSClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doGet thực hiện GET request và xử lý các status code chung.
// 429 trả về common.ErrRateLimited để caller thực hiện backoff.
func (p *PMSClient) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	log := logger.GetAppLogger()

	reqURL := p.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"module": "gateway",
			"url":    reqURL,
		}).Error("🏨 [PMS] Lỗi khi gọi PMS API")
		return nil, common.ErrConnection
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, common.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, common.ErrNotFound
	case resp.StatusCode >= 400:
		log.WithFields(map[string]interface{}{
			"module":     "gateway",
			"url":        reqURL,
			"statusCode": resp.StatusCode,
			"response":   string(respBody),
		}).Error("🏨 [PMS] PMS API trả về lỗi")
		return nil, common.NewError(
			common.ErrCodeUpstream,
			fmt.Sprintf("PMS API returned status %d", resp.StatusCode),
			common.StatusBadGateway,
			nil,
		)
	}

	return respBody, nil
}

// GetReservation lấy chi tiết reservation theo external id.
// Raw giữ payload gốc để extract các field không chuẩn hóa (door code, checkout time).
func (p *PMSClient) GetReservation(ctx context.Context, reservationID string) (*PMSReservation, error) {
	respBody, err := p.doGet(ctx, "/v1/reservations/"+url.PathEscape(reservationID), nil)
	if err != nil {
		return nil, err
	}

	var reservation PMSReservation
	if err := json.Unmarshal(respBody, &reservation); err != nil {
		return nil, fmt.Errorf("parse reservation: %w", err)
	}
	if err := json.Unmarshal(respBody, &reservation.Raw); err != nil {
		return nil, fmt.Errorf("parse reservation raw: %w", err)
	}

	return &reservation, nil
}

// GetListing lấy chi tiết listing/property theo external id
func (p *PMSClient) GetListing(ctx context.Context, listingID string) (map[string]interface{}, error) {
	respBody, err := p.doGet(ctx, "/v1/listings/"+url.PathEscape(listingID), nil)
	if err != nil {
		return nil, err
	}

	var listing map[string]interface{}
	if err := json.Unmarshal(respBody, &listing); err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	return listing, nil
}

// ListConversations lấy một trang danh sách hội thoại.
// Dùng bởi knowledge sync job để quét lịch sử theo từng trang.
func (p *PMSClient) ListConversations(ctx context.Context, opts ListConversationsOptions) ([]PMSConversation, error) {
	query := url.Values{}
	if opts.ReservationID != "" {
		query.Set("reservationId", opts.ReservationID)
	}
	query.Set("limit", strconv.Itoa(opts.Limit))
	query.Set("offset", strconv.Itoa(opts.Offset))
	if opts.IncludeResources {
		query.Set("includeResources", "true")
	}

	respBody, err := p.doGet(ctx, "/v1/conversations", query)
	if err != nil {
		return nil, err
	}

	var result struct {
		Conversations []PMSConversation `json:"conversations"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse conversations page: %w", err)
	}

	return result.Conversations, nil
}

// GetConversationMessages lấy toàn bộ message của một conversation.
// includeScheduled lấy cả message đã lên lịch mà list view không trả về.
func (p *PMSClient) GetConversationMessages(ctx context.Context, conversationID string, includeScheduled bool) ([]PMSMessage, error) {
	query := url.Values{}
	if includeScheduled {
		query.Set("includeScheduled", "true")
	}

	respBody, err := p.doGet(ctx, "/v1/conversations/"+url.PathEscape(conversationID)+"/messages", query)
	if err != nil {
		return nil, err
	}

	var result struct {
		Messages []PMSMessage `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse conversation messages: %w", err)
	}

	return result.Messages, nil
}

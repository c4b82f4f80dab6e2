package ai

import (
	"context"
	"regexp"
	"strings"

	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
	"github.com/ennersmai/saas-automation-sub001/internal/utility"
)

// ContextDoc là một knowledge document liên quan tới câu hỏi của guest
type ContextDoc struct {
	Title      string
	Content    string
	Similarity float64
}

// KnowledgeSearcher trừu tượng hoá knowledge store để tránh import cycle
// giữa ai và knowledge package. Implementation nằm ở knowledgesvc.
type KnowledgeSearcher interface {
	SearchRelevant(ctx context.Context, tenantID string, query string, limit int) ([]ContextDoc, error)
}

// MessageContext là toàn bộ context gom được cho một guest message
type MessageContext struct {
	Reservation *gateway.PMSReservation
	Listing     map[string]interface{}
	Documents   []ContextDoc
}

// ContextRetriever gom reservation + listing từ PMS và document từ KB.
// Mọi lookup đều best-effort: lỗi được log và degrade, không bao giờ
// chặn pipeline.
type ContextRetriever struct {
	knowledge KnowledgeSearcher
	maxDocs   int
}

func NewContextRetriever(knowledge KnowledgeSearcher) *ContextRetriever {
	return &ContextRetriever{
		knowledge: knowledge,
		maxDocs:   3,
	}
}

var listingIDPaths = []string{"listingId", "listing_id", "listing.id", "propertyId", "property_id"}

// intentNeedsKnowledge: emergency không bao giờ query KB, còn lại đều query
// (kể cả unknown — guest hỏi gì đó ta chưa phân loại được vẫn đáng tra cứu)
func intentNeedsKnowledge(intent string) bool {
	return intent != IntentEmergency
}

// Retrieve gom context cho một message. pmsClient có thể nil (tenant chưa
// cấu hình PMS key) — khi đó chỉ query KB.
func (r *ContextRetriever) Retrieve(ctx context.Context, pmsClient *gateway.PMSClient, tenantID, reservationID, message, intent string) *MessageContext {
	log := logger.GetAppLogger().WithField("module", "ai")
	result := &MessageContext{}

	if pmsClient != nil && reservationID != "" {
		reservation, err := pmsClient.GetReservation(ctx, reservationID)
		if err != nil {
			log.WithError(err).WithField("reservationId", reservationID).
				Warn("🔍 [Retriever] Không lấy được reservation, tiếp tục không có reservation data")
		} else {
			result.Reservation = reservation

			// Listing id nằm ở vị trí khác nhau tuỳ PMS, thử lần lượt các path
			if listingID := utility.ExtractString(reservation.Raw, listingIDPaths...); listingID != "" {
				listing, err := pmsClient.GetListing(ctx, listingID)
				if err != nil {
					log.WithError(err).WithField("listingId", listingID).
						Warn("🔍 [Retriever] Không lấy được listing")
				} else {
					result.Listing = listing
				}
			}
		}
	}

	if r.knowledge != nil && intentNeedsKnowledge(intent) {
		query := strings.Join(ExtractSearchTerms(message), " ")
		if query == "" {
			query = message
		}
		docs, err := r.knowledge.SearchRelevant(ctx, tenantID, query, r.maxDocs)
		if err != nil {
			log.WithError(err).Warn("🔍 [Retriever] Knowledge search lỗi, tiếp tục không có KB context")
		} else {
			result.Documents = docs
		}
	}

	return result
}

// domainTerms là vocabulary nghiệp vụ được ưu tiên khi trích search term.
// Term nhiều từ được match trước khi tách token.
var domainTerms = []string{
	"checkout", "check-in", "parking", "wifi", "door code", "cancellation",
	"payment", "refund", "amenities", "emergency",
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "have": true, "from": true, "what": true, "when": true,
	"where": true, "will": true, "would": true, "could": true, "please": true,
	"about": true, "there": true, "your": true, "yours": true, "thanks": true,
	"thank": true, "hello": true, "need": true, "know": true, "does": true,
}

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// ExtractSearchTerms trích tối đa 7 search term từ guest message:
// domain term match trước, sau đó là các token dài hơn 3 ký tự
// không phải stop word, giữ nguyên thứ tự xuất hiện.
func ExtractSearchTerms(message string) []string {
	const maxTerms = 7

	normalized := strings.ToLower(message)
	terms := make([]string, 0, maxTerms)
	seen := map[string]bool{}

	for _, dt := range domainTerms {
		if len(terms) >= maxTerms {
			break
		}
		if strings.Contains(normalized, dt) && !seen[dt] {
			terms = append(terms, dt)
			seen[dt] = true
		}
	}

	for _, token := range nonAlphaNum.Split(normalized, -1) {
		if len(terms) >= maxTerms {
			break
		}
		if len(token) <= 3 || stopWords[token] || seen[token] {
			continue
		}
		terms = append(terms, token)
		seen[token] = true
	}

	return terms
}

package convsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

// MessageLogService là cấu trúc chứa các phương thức liên quan đến MessageLog
type MessageLogService struct {
	*basesvc.BaseServiceMongoImpl[convmodels.MessageLog]
}

// NewMessageLogService tạo mới MessageLogService
func NewMessageLogService() (*MessageLogService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.MessageLogs)
	if !exist {
		return nil, fmt.Errorf("failed to get message_logs collection: %v", common.ErrNotFound)
	}

	return &MessageLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[convmodels.MessageLog](collection),
	}, nil
}

// BuildDedupeKey tạo key idempotency cho message inbound.
// Ưu tiên message id từ PMS; nếu không có thì hash từ nội dung và timestamp
// để webhook gửi lại cùng payload vẫn map về cùng một key.
func BuildDedupeKey(messageID, body string, timestamp int64) string {
	if messageID != "" {
		return messageID
	}

	content := body
	if len(content) > 64 {
		content = content[:64]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", timestamp, content)))
	return hex.EncodeToString(sum[:])[:24]
}

// LogGuestMessage lưu message của guest với idempotency theo dedupeKey.
// Trả về (message, isNew, error): isNew = false nghĩa là webhook replay,
// message đã tồn tại và không được xử lý lại.
func (s *MessageLogService) LogGuestMessage(ctx context.Context, tenantID, conversationID primitive.ObjectID, reservationExternalID, body, dedupeKey string) (convmodels.MessageLog, bool, error) {
	var zero convmodels.MessageLog

	message := convmodels.MessageLog{
		TenantID:              tenantID,
		ConversationID:        conversationID,
		ReservationExternalId: reservationExternalID,
		SenderType:            convmodels.SenderTypeGuest,
		Direction:             convmodels.DirectionInbound,
		Body:                  body,
		Status:                convmodels.MessageStatusPending,
		DedupeKey:             dedupeKey,
	}

	created, err := s.InsertOne(ctx, message)
	if err != nil {
		if errors.Is(err, common.ErrMongoDuplicate) {
			existing, findErr := s.FindOne(ctx, bson.M{
				"tenantId":       tenantID,
				"conversationId": conversationID,
				"dedupeKey":      dedupeKey,
			}, nil)
			if findErr != nil {
				return zero, false, findErr
			}
			return existing, false, nil
		}
		return zero, false, err
	}

	return created, true, nil
}

// CreatePendingAiReply lưu reply do AI sinh ra ở trạng thái pending.
// Delivery thực tế do worker gửi qua messaging gateway sau. escalationAck
// đánh dấu reply đi kèm một lần escalation để worker gửi cả khi hội thoại
// vừa bị pause bởi chính escalation đó.
func (s *MessageLogService) CreatePendingAiReply(ctx context.Context, inbound convmodels.MessageLog, body, intent string, confidence float64, escalationAck bool) (convmodels.MessageLog, error) {
	reply := convmodels.MessageLog{
		TenantID:              inbound.TenantID,
		ConversationID:        inbound.ConversationID,
		ReservationExternalId: inbound.ReservationExternalId,
		SenderType:            convmodels.SenderTypeAi,
		Direction:             convmodels.DirectionOutbound,
		Body:                  body,
		Status:                convmodels.MessageStatusPending,
		DedupeKey:             fmt.Sprintf("reply:%s", inbound.DedupeKey),
		Intent:                intent,
		Confidence:            confidence,
		EscalationAck:         escalationAck,
	}
	return s.InsertOne(ctx, reply)
}

// MarkProcessed cập nhật kết quả xử lý của message inbound
func (s *MessageLogService) MarkProcessed(ctx context.Context, id primitive.ObjectID, status, intent string, confidence float64) error {
	set := map[string]interface{}{
		"status": status,
	}
	if intent != "" {
		set["intent"] = intent
		set["confidence"] = confidence
	}
	_, err := s.UpdateById(ctx, id, &basesvc.UpdateData{Set: set})
	return err
}

// HistoryForAi lấy các message gần nhất của conversation theo thứ tự thời gian tăng dần,
// dùng làm context cho LLM.
func (s *MessageLogService) HistoryForAi(ctx context.Context, conversationID primitive.ObjectID, limit int64) ([]convmodels.MessageLog, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit)

	messages, err := s.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, err
	}

	// Đảo lại thành thứ tự cũ → mới
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ScheduleProactiveMessage tạo outbound message hẹn giờ (check-in reminder, checkout notice).
// Worker sẽ gửi khi đến scheduledAt.
func (s *MessageLogService) ScheduleProactiveMessage(ctx context.Context, conversation convmodels.Conversation, body string, scheduledAt int64) (convmodels.MessageLog, error) {
	message := convmodels.MessageLog{
		TenantID:              conversation.TenantID,
		ConversationID:        conversation.ID,
		ReservationExternalId: conversation.ReservationExternalId,
		SenderType:            convmodels.SenderTypeSystem,
		Direction:             convmodels.DirectionOutbound,
		Body:                  body,
		Status:                convmodels.MessageStatusPending,
		DedupeKey:             fmt.Sprintf("proactive:%s:%d", conversation.ReservationExternalId, scheduledAt),
		ScheduledAt:           scheduledAt,
	}
	return s.InsertOne(ctx, message)
}

// FindDueProactiveMessages lấy các proactive message đã đến giờ gửi
func (s *MessageLogService) FindDueProactiveMessages(ctx context.Context, limit int64) ([]convmodels.MessageLog, error) {
	filter := bson.M{
		"status":      convmodels.MessageStatusPending,
		"senderType":  convmodels.SenderTypeSystem,
		"scheduledAt": bson.M{"$gt": 0, "$lte": time.Now().UnixMilli()},
	}
	opts := options.Find().SetSort(bson.M{"scheduledAt": 1}).SetLimit(limit)
	return s.Find(ctx, filter, opts)
}

// FindPendingAiReplies lấy các reply AI đang chờ gửi (không hẹn giờ)
func (s *MessageLogService) FindPendingAiReplies(ctx context.Context, limit int64) ([]convmodels.MessageLog, error) {
	filter := bson.M{
		"status":     convmodels.MessageStatusPending,
		"senderType": convmodels.SenderTypeAi,
		"direction":  convmodels.DirectionOutbound,
	}
	opts := options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(limit)
	return s.Find(ctx, filter, opts)
}

// MarkSent đánh dấu outbound message đã gửi thành công
func (s *MessageLogService) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status": convmodels.MessageStatusSent,
			"sentAt": time.Now().UnixMilli(),
		},
	})
	return err
}

// MarkFailed đánh dấu message xử lý thất bại
func (s *MessageLogService) MarkFailed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status": convmodels.MessageStatusFailed,
		},
	})
	return err
}

package convsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

// ConversationService là cấu trúc chứa các phương thức liên quan đến Conversation
type ConversationService struct {
	*basesvc.BaseServiceMongoImpl[convmodels.Conversation]
}

// NewConversationService tạo mới ConversationService
func NewConversationService() (*ConversationService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Conversations)
	if !exist {
		return nil, fmt.Errorf("failed to get conversations collection: %v", common.ErrNotFound)
	}

	return &ConversationService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[convmodels.Conversation](collection),
	}, nil
}

// UpsertByReservation tìm hoặc tạo conversation theo (tenantId, reservationExternalId).
// Conversation mới tạo luôn ở trạng thái automated. Guest name/phone chỉ
// ghi đè khi payload có giá trị — webhook thiếu field không xoá dữ liệu cũ.
func (s *ConversationService) UpsertByReservation(ctx context.Context, tenantID primitive.ObjectID, reservationExternalID string, conversationExternalID, guestName, guestPhone string) (convmodels.Conversation, error) {
	filter := bson.M{
		"tenantId":              tenantID,
		"reservationExternalId": reservationExternalID,
	}

	set := bson.M{
		"lastMessageAt": time.Now().UnixMilli(),
	}
	if conversationExternalID != "" {
		set["conversationExternalId"] = conversationExternalID
	}
	if guestName != "" {
		set["guestName"] = guestName
	}
	if guestPhone != "" {
		set["guestPhone"] = guestPhone
	}

	update := &basesvc.UpdateData{
		Set: set,
		SetOnInsert: map[string]interface{}{
			"tenantId":              tenantID,
			"reservationExternalId": reservationExternalID,
			"status":                convmodels.ConversationStatusAutomated,
		},
	}

	return s.Upsert(ctx, filter, update)
}

// SetStatusByReservation đổi trạng thái automation của conversation theo reservation id.
// Dùng khi host tiếp quản (paused_by_human) hoặc trả lại cho AI (automated).
func (s *ConversationService) SetStatusByReservation(ctx context.Context, tenantID primitive.ObjectID, reservationExternalID, status string) (convmodels.Conversation, error) {
	var zero convmodels.Conversation

	if status != convmodels.ConversationStatusAutomated && status != convmodels.ConversationStatusPausedByHuman {
		return zero, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Trạng thái conversation không hợp lệ: %s", status),
			common.StatusBadRequest,
			nil,
		)
	}

	filter := bson.M{
		"tenantId":              tenantID,
		"reservationExternalId": reservationExternalID,
	}

	return s.UpdateOne(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{"status": status},
	}, nil)
}

// FindByReservation tìm conversation theo reservation external id
func (s *ConversationService) FindByReservation(ctx context.Context, tenantID primitive.ObjectID, reservationExternalID string) (convmodels.Conversation, error) {
	filter := bson.M{
		"tenantId":              tenantID,
		"reservationExternalId": reservationExternalID,
	}
	return s.FindOne(ctx, filter, nil)
}

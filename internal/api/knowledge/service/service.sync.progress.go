package knowledgesvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	knowledgemodels "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/models"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

// SyncProgressService quản lý tiến độ sync của từng user trên từng tenant.
// Progress là một resource MongoDB thật sự để client poll được qua API
// và không mất khi server restart giữa chừng.
type SyncProgressService struct {
	*basesvc.BaseServiceMongoImpl[knowledgemodels.SyncProgress]
}

func NewSyncProgressService() (*SyncProgressService, error) {
	col, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SyncProgress)
	if !exist {
		return nil, fmt.Errorf("failed to get sync_progress collection: %v", common.ErrNotFound)
	}

	return &SyncProgressService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[knowledgemodels.SyncProgress](col),
	}, nil
}

func (s *SyncProgressService) filter(tenantID primitive.ObjectID, userID string) bson.M {
	return bson.M{"tenantId": tenantID, "userId": userID}
}

// Start tạo (hoặc reset) progress record cho một lần sync mới
func (s *SyncProgressService) Start(ctx context.Context, tenantID primitive.ObjectID, userID string, total int) (knowledgemodels.SyncProgress, error) {
	data := map[string]interface{}{
		"current":     0,
		"total":       total,
		"docsCreated": 0,
		"status":      knowledgemodels.SyncStatusRunning,
		"statusText":  "Đang bắt đầu sync",
		"completed":   false,
	}
	return s.Upsert(ctx, s.filter(tenantID, userID), data)
}

// Update cập nhật tiến độ hiện tại
func (s *SyncProgressService) Update(ctx context.Context, tenantID primitive.ObjectID, userID string, current, docsCreated int, statusText string) error {
	data := map[string]interface{}{
		"current":     current,
		"docsCreated": docsCreated,
		"statusText":  statusText,
	}
	_, err := s.Upsert(ctx, s.filter(tenantID, userID), data)
	return err
}

// Finish đánh dấu sync kết thúc với trạng thái cuối cùng
// (completed hoặc partial_sync)
func (s *SyncProgressService) Finish(ctx context.Context, tenantID primitive.ObjectID, userID, status, statusText string, docsCreated int) error {
	data := map[string]interface{}{
		"status":      status,
		"statusText":  statusText,
		"docsCreated": docsCreated,
		"completed":   true,
	}
	_, err := s.Upsert(ctx, s.filter(tenantID, userID), data)
	return err
}

// Get trả về progress hiện tại của user
func (s *SyncProgressService) Get(ctx context.Context, tenantID primitive.ObjectID, userID string) (knowledgemodels.SyncProgress, error) {
	return s.FindOne(ctx, s.filter(tenantID, userID), nil)
}

// Clear xoá progress record sau khi sync thất bại hẳn
func (s *SyncProgressService) Clear(ctx context.Context, tenantID primitive.ObjectID, userID string) error {
	return s.DeleteOne(ctx, s.filter(tenantID, userID))
}

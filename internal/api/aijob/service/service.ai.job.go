package aijobsvc

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	aijobmodels "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/models"
	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

// AIJobService là cấu trúc chứa các phương thức liên quan đến AIJob queue
type AIJobService struct {
	*basesvc.BaseServiceMongoImpl[aijobmodels.AIJob]
}

// NewAIJobService tạo mới AIJobService
func NewAIJobService() (*AIJobService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.AIJobs)
	if !exist {
		return nil, fmt.Errorf("failed to get ai_jobs collection: %v", common.ErrNotFound)
	}

	return &AIJobService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[aijobmodels.AIJob](collection),
	}, nil
}

// Enqueue tạo job mới ở trạng thái pending
func (s *AIJobService) Enqueue(ctx context.Context, tenantID primitive.ObjectID, jobType string, payload map[string]interface{}) (aijobmodels.AIJob, error) {
	job := aijobmodels.AIJob{
		TenantID:   tenantID,
		JobType:    jobType,
		Status:     aijobmodels.JobStatusPending,
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}
	return s.InsertOne(ctx, job)
}

// ClaimPending claim một job pending đã đến giờ xử lý (atomic qua FindOneAndUpdate).
// Trả về common.ErrNotFound khi queue rỗng.
func (s *AIJobService) ClaimPending(ctx context.Context) (aijobmodels.AIJob, error) {
	now := time.Now().UnixMilli()
	filter := bson.M{
		"status": aijobmodels.JobStatusPending,
		"$or": []bson.M{
			{"nextRetryAt": bson.M{"$exists": false}},
			{"nextRetryAt": bson.M{"$lte": now}},
		},
	}

	update := &basesvc.UpdateData{
		Set: map[string]interface{}{"status": aijobmodels.JobStatusProcessing},
	}

	opts := options.FindOneAndUpdate().
		SetSort(bson.M{"createdAt": 1}).
		SetReturnDocument(options.After)

	return s.FindOneAndUpdate(ctx, filter, update, opts)
}

// MarkDone đánh dấu job hoàn thành
func (s *AIJobService) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":    aijobmodels.JobStatusDone,
			"lastError": "",
		},
	})
	return err
}

// MarkFailedOrRetry tăng retry count; chưa vượt maxRetries thì trả job về pending
// với backoff lũy thừa, vượt thì chuyển failed hẳn.
func (s *AIJobService) MarkFailedOrRetry(ctx context.Context, job aijobmodels.AIJob, jobErr error) error {
	retryCount := job.RetryCount + 1

	set := map[string]interface{}{
		"retryCount": retryCount,
		"lastError":  jobErr.Error(),
	}

	if retryCount >= job.MaxRetries {
		set["status"] = aijobmodels.JobStatusFailed
	} else {
		backoff := time.Duration(math.Pow(2, float64(retryCount))) * time.Second
		set["status"] = aijobmodels.JobStatusPending
		set["nextRetryAt"] = time.Now().Add(backoff).UnixMilli()
	}

	_, err := s.UpdateById(ctx, job.ID, &basesvc.UpdateData{Set: set})
	return err
}

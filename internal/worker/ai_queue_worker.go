// Package worker chứa các background worker của hệ thống.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ennersmai/saas-automation-sub001/internal/ai"
	aijobmodels "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/models"
	aijobsvc "github.com/ennersmai/saas-automation-sub001/internal/api/aijob/service"
	knowledgesvc "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/service"
	tenantsvc "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// AIQueueWorker drain queue AI job theo chu kỳ: chạy engine cho guest message
// mới và chạy knowledge sync khi được kích hoạt. Job lỗi được trả lại queue
// với backoff, quá số lần retry thì đánh dấu failed.
type AIQueueWorker struct {
	aiJobService  *aijobsvc.AIJobService
	engine        *ai.Engine
	syncService   *knowledgesvc.KnowledgeSyncService
	tenantService *tenantsvc.TenantService

	interval  time.Duration
	batchSize int
}

// NewAIQueueWorker tạo worker mới
func NewAIQueueWorker(engine *ai.Engine, syncService *knowledgesvc.KnowledgeSyncService, tenantService *tenantsvc.TenantService, interval time.Duration, batchSize int) (*AIQueueWorker, error) {
	aiJobService, err := aijobsvc.NewAIJobService()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &AIQueueWorker{
		aiJobService:  aiJobService,
		engine:        engine,
		syncService:   syncService,
		tenantService: tenantService,
		interval:      interval,
		batchSize:     batchSize,
	}, nil
}

// Start chạy worker trong vòng lặp cho đến khi context bị huỷ.
func (w *AIQueueWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":  w.interval.String(),
		"batchSize": w.batchSize,
	}).Info("⚙️ [AI_QUEUE] Starting AI Queue Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("⚙️ [AI_QUEUE] AI Queue Worker stopped")
			return
		case <-ticker.C:
			w.drainQueue(ctx, log)
		}
	}
}

// drainQueue claim và xử lý tối đa batchSize job mỗi lần tick
func (w *AIQueueWorker) drainQueue(ctx context.Context, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("⚙️ [AI_QUEUE] Panic khi xử lý job, sẽ tiếp tục lần chạy tiếp theo")
		}
	}()

	for i := 0; i < w.batchSize; i++ {
		job, err := w.aiJobService.ClaimPending(ctx)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				log.WithError(err).Error("⚙️ [AI_QUEUE] Lỗi claim job từ queue")
			}
			return
		}

		if err := w.processJob(ctx, job); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"jobId":   job.ID.Hex(),
				"jobType": job.JobType,
				"retry":   job.RetryCount,
			}).Warn("⚙️ [AI_QUEUE] Job thất bại")
			if markErr := w.aiJobService.MarkFailedOrRetry(ctx, job, err); markErr != nil {
				log.WithError(markErr).Error("⚙️ [AI_QUEUE] Không cập nhật được trạng thái job lỗi")
			}
			continue
		}

		if err := w.aiJobService.MarkDone(ctx, job.ID); err != nil {
			log.WithError(err).WithField("jobId", job.ID.Hex()).
				Error("⚙️ [AI_QUEUE] Không đánh dấu được job hoàn thành")
		}
	}
}

func (w *AIQueueWorker) processJob(ctx context.Context, job aijobmodels.AIJob) error {
	switch job.JobType {
	case aijobmodels.JobTypeProcessMessage:
		return w.processMessageJob(ctx, job)
	case aijobmodels.JobTypeKnowledgeSync:
		return w.processKnowledgeSyncJob(ctx, job)
	case aijobmodels.JobTypeRawEvent:
		// Event chưa có handler riêng, chỉ ghi nhận để audit
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"jobId": job.ID.Hex(),
			"event": job.Payload["eventName"],
		}).Info("⚙️ [AI_QUEUE] Raw event được ghi nhận, không xử lý thêm")
		return nil
	default:
		return fmt.Errorf("job type không được hỗ trợ: %s", job.JobType)
	}
}

func payloadObjectID(payload map[string]interface{}, key string) (primitive.ObjectID, error) {
	raw, _ := payload[key].(string)
	if raw == "" {
		return primitive.NilObjectID, fmt.Errorf("payload thiếu %s", key)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("payload %s không hợp lệ: %w", key, err)
	}
	return id, nil
}

func (w *AIQueueWorker) processMessageJob(ctx context.Context, job aijobmodels.AIJob) error {
	messageLogID, err := payloadObjectID(job.Payload, "messageLogId")
	if err != nil {
		return err
	}
	conversationID, err := payloadObjectID(job.Payload, "conversationId")
	if err != nil {
		return err
	}
	return w.engine.ProcessMessage(ctx, messageLogID, conversationID)
}

func (w *AIQueueWorker) processKnowledgeSyncJob(ctx context.Context, job aijobmodels.AIJob) error {
	tenant, err := w.tenantService.FindOneById(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	userID, _ := job.Payload["userId"].(string)
	reservationLimit := 0
	if v, ok := job.Payload["reservationLimit"].(float64); ok {
		reservationLimit = int(v)
	} else if v, ok := job.Payload["reservationLimit"].(int32); ok {
		reservationLimit = int(v)
	} else if v, ok := job.Payload["reservationLimit"].(int64); ok {
		reservationLimit = int(v)
	}

	_, err = w.syncService.Sync(ctx, tenant, userID, reservationLimit)
	return err
}

package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
)

// EnsureIndexes tạo các index cần thiết cho các collection của hệ thống.
// Các unique index là nơi enforce idempotency của webhook (dedupeKey) và
// tính duy nhất của conversation theo (tenant, reservation).
func EnsureIndexes(ctx context.Context, db *mongo.Database, colNames global.CollectionName) {
	log := logger.GetAppLogger()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	create := func(col string, models []mongo.IndexModel) {
		_, err := db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			log.WithError(err).WithField("collection", col).Warn("Không thể tạo index, tiếp tục khởi động")
		}
	}

	create(colNames.Tenants, []mongo.IndexModel{
		{Keys: bson.D{{Key: "externalAccountId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "externalClientId", Value: 1}}, Options: options.Index().SetSparse(true)},
	})

	create(colNames.Conversations, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "reservationExternalId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "status", Value: 1}}},
	})

	create(colNames.MessageLogs, []mongo.IndexModel{
		// Idempotency: replayed webhook deliveries không được tạo log trùng
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "conversationId", Value: 1}, {Key: "dedupeKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "status", Value: 1}}},
	})

	create(colNames.KnowledgeDocuments, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "parentId", Value: 1}}, Options: options.Index().SetSparse(true)},
	})

	create(colNames.WebhookLogs, []mongo.IndexModel{
		{Keys: bson.D{{Key: "receivedAt", Value: -1}}},
		{Keys: bson.D{{Key: "eventName", Value: 1}}},
	})

	create(colNames.SyncProgress, []mongo.IndexModel{
		// Mỗi user chỉ có một progress record đang chạy cho mỗi tenant
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	})

	create(colNames.AIJobs, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "nextRetryAt", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})

	log.Info("Ensured MongoDB indexes")
}

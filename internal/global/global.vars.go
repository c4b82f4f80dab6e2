package global

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ennersmai/saas-automation-sub001/config"
	"github.com/ennersmai/saas-automation-sub001/internal/registry"
)

// CollectionName chứa tên các collection trong MongoDB
type CollectionName struct {
	Tenants            string // Tên collection cho tenant (host thuê ngắn hạn)
	Conversations      string // Tên collection cho hội thoại với khách
	MessageLogs        string // Tên collection cho log tin nhắn inbound/outbound
	KnowledgeDocuments string // Tên collection cho tài liệu knowledge base
	WebhookLogs        string // Tên collection cho log webhook (audit)
	AIJobs             string // Tên collection cho queue job xử lý AI
	SyncProgress       string // Tên collection cho tiến độ knowledge sync job
}

// Các biến toàn cục
var Validate *validator.Validate            // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client           // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration      // Cấu hình của server
var MongoDB_ColNames = *new(CollectionName) // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections

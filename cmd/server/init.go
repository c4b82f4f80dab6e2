package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ennersmai/saas-automation-sub001/config"
	"github.com/ennersmai/saas-automation-sub001/internal/database"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Tenants = "tenants"
	global.MongoDB_ColNames.Conversations = "conversations"
	global.MongoDB_ColNames.MessageLogs = "message_logs"
	global.MongoDB_ColNames.KnowledgeDocuments = "knowledge_documents"
	global.MongoDB_ColNames.WebhookLogs = "webhook_logs"
	global.MongoDB_ColNames.AIJobs = "ai_jobs"
	global.MongoDB_ColNames.SyncProgress = "knowledge_sync_progress"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (dùng global.InitValidator để đăng ký custom validators: no_xss, intent_label, phone_e164)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database và các index
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	db := global.MongoDB_Session.Database(global.ServerConfig.MongoDB_DBName)
	database.EnsureIndexes(context.Background(), db, global.MongoDB_ColNames)
}

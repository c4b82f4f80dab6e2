package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ennersmai/saas-automation-sub001/internal/ai"
	convsvc "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/service"
	knowledgesvc "github.com/ennersmai/saas-automation-sub001/internal/api/knowledge/service"
	tenantsvc "github.com/ennersmai/saas-automation-sub001/internal/api/tenant/service"
	"github.com/ennersmai/saas-automation-sub001/internal/gateway"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/logger"
	"github.com/ennersmai/saas-automation-sub001/internal/worker"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Logger tự đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// initLLM khởi tạo Gemini client. Không có API key thì trả về nil và hệ
// thống chạy deterministic mode.
func initLLM() *ai.LLMClient {
	cfg := global.ServerConfig
	llm, err := ai.NewLLMClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiEmbedderModel)
	if err != nil {
		logger.GetAppLogger().WithError(err).
			Error("Failed to create LLM client, continuing in deterministic mode")
		return nil
	}
	return llm
}

// buildEngine lắp ráp conversation engine từ các service và LLM client
func buildEngine(llm *ai.LLMClient, tenantService *tenantsvc.TenantService, conversationService *convsvc.ConversationService, messageLogService *convsvc.MessageLogService, documentService *knowledgesvc.KnowledgeDocumentService) *ai.Engine {
	var classifier ai.Classifier
	var generator ai.Generator
	if llm != nil {
		classifier = ai.NewLLMClassifier(llm)
		generator = ai.NewLLMGenerator(llm)
	} else {
		classifier = ai.NewKeywordClassifier()
		generator = ai.NewTemplateGenerator()
	}

	cfg := global.ServerConfig
	emailClient := gateway.NewEmailClient(cfg.SMTPHost, cfg.SMTPPort,
		cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFromName, cfg.SMTPFromEmail)

	retriever := ai.NewContextRetriever(documentService)
	escalator := ai.NewEscalator(tenantService, conversationService, emailClient)

	return ai.NewEngine(classifier, generator, retriever, escalator,
		tenantService, conversationService, messageLogService)
}

// startWorkers khởi động các background worker
func startWorkers(ctx context.Context, llm *ai.LLMClient) {
	log := logger.GetAppLogger()

	tenantService, err := tenantsvc.NewTenantService()
	if err != nil {
		log.WithError(err).Error("Failed to create tenant service, workers disabled")
		return
	}
	conversationService, err := convsvc.NewConversationService()
	if err != nil {
		log.WithError(err).Error("Failed to create conversation service, workers disabled")
		return
	}
	messageLogService, err := convsvc.NewMessageLogService()
	if err != nil {
		log.WithError(err).Error("Failed to create message log service, workers disabled")
		return
	}
	documentService, err := knowledgesvc.NewKnowledgeDocumentService(llm)
	if err != nil {
		log.WithError(err).Error("Failed to create knowledge document service, workers disabled")
		return
	}
	progressService, err := knowledgesvc.NewSyncProgressService()
	if err != nil {
		log.WithError(err).Error("Failed to create sync progress service, workers disabled")
		return
	}

	engine := buildEngine(llm, tenantService, conversationService, messageLogService, documentService)
	syncService := knowledgesvc.NewKnowledgeSyncService(documentService, progressService, tenantService)

	cfg := global.ServerConfig
	queueWorker, err := worker.NewAIQueueWorker(engine, syncService, tenantService,
		time.Duration(cfg.AIQueueInterval)*time.Second, cfg.AIQueueBatchSize)
	if err != nil {
		log.WithError(err).Error("Failed to create AI queue worker")
	} else {
		go queueWorker.Start(ctx)
	}

	deliveryWorker := worker.NewMessageDeliveryWorker(messageLogService, conversationService, tenantService, 10*time.Second, 20)
	go deliveryWorker.Start(ctx)
}

// main_thread khởi tạo và chạy Fiber server
func main_thread(llm *ai.LLMClient) {
	app := InitFiberApp(llm)

	cfg := global.ServerConfig
	address := ":" + cfg.Address

	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	listenConfig := fiber.ListenConfig{}
	if err := app.Listen(address, listenConfig); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	// Khởi tạo LLM client (nil khi không có API key)
	llm := initLLM()
	defer llm.Close()

	// Khởi động background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWorkers(ctx, llm)

	// Chạy Fiber server trên main thread
	main_thread(llm)
}

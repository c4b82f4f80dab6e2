package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng:
// kết nối cơ sở dữ liệu, secret mã hóa credential, cấu hình AI và gateway.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:"8080"`                 // Cổng server
	ServerSecret          string `env:"SERVER_SECRET,required"`                    // Secret dùng derive key mã hóa credential tenant
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// AI Configuration — GeminiAPIKey rỗng là chế độ chạy hợp lệ:
	// classifier/generator deterministic, knowledge search keyword-only
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`                                         // API key cho Gemini (optional)
	GeminiChatModel     string `env:"GEMINI_CHAT_MODEL" envDefault:"gemini-1.5-flash"`        // Model chat completion
	GeminiEmbedderModel string `env:"GEMINI_EMBEDDER_MODEL" envDefault:"text-embedding-004"` // Model embedding (768 chiều)

	// PMS (Property Management System) Configuration
	PMSBaseURL string `env:"PMS_BASE_URL" envDefault:"https://api.hostaway.example.com/v1"` // Base URL của PMS API

	// Messaging Gateway Configuration
	GatewayBaseURL      string `env:"GATEWAY_BASE_URL" envDefault:"https://gateway.example.com/v1"` // Base URL của messaging gateway
	GatewayDryRun       bool   `env:"GATEWAY_DRY_RUN" envDefault:"false"`                           // Dry-run toàn cục: log thay vì gửi thật
	DefaultOnCallPhone  string `env:"DEFAULT_ONCALL_PHONE"`                                         // Số on-call mặc định cho escalation khẩn cấp
	DefaultStaffPhone   string `env:"DEFAULT_STAFF_PHONE"`                                          // Số staff mặc định cho escalation low-confidence
	DefaultCheckoutTime string `env:"DEFAULT_CHECKOUT_TIME" envDefault:"11:00 AM"`                  // Giờ checkout mặc định cho template fallback

	// SMTP Configuration — host rỗng là tắt kênh email thông báo
	SMTPHost           string `env:"SMTP_HOST"`                                      // SMTP server gửi email thông báo staff
	SMTPPort           int    `env:"SMTP_PORT" envDefault:"587"`                     // Cổng SMTP
	SMTPUsername       string `env:"SMTP_USERNAME"`                                  // Tài khoản SMTP
	SMTPPassword       string `env:"SMTP_PASSWORD"`                                  // Mật khẩu SMTP
	SMTPFromName       string `env:"SMTP_FROM_NAME" envDefault:"Guest Automation"`   // Tên người gửi
	SMTPFromEmail      string `env:"SMTP_FROM_EMAIL"`                                // Địa chỉ gửi
	DefaultStaffEmail  string `env:"DEFAULT_STAFF_EMAIL"`                            // Email staff mặc định cho cảnh báo low-confidence

	// AI Queue Worker Configuration
	AIQueueInterval  int `env:"AI_QUEUE_INTERVAL" envDefault:"5"`    // Chu kỳ drain queue (giây)
	AIQueueBatchSize int `env:"AI_QUEUE_BATCH_SIZE" envDefault:"10"` // Số job tối đa mỗi lần drain
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env bằng cách đi lên từ working directory
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}

package logger

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// FilterHook lọc log entries theo module (webhook, ai, kb, escalation, gateway,
// ai_queue) và theo log level. Entry bị filter được đánh dấu bằng field
// "_filtered" để AsyncHook bỏ qua khi ghi.
type FilterHook struct {
	// Nếu map rỗng hoặc "*" trong config, cho phép tất cả
	allowedModules  map[string]bool
	allowedLogTypes map[string]bool

	hasModuleFilter  bool
	hasLogTypeFilter bool

	mu sync.RWMutex
}

// NewFilterHook tạo một filter hook mới với cấu hình
func NewFilterHook(cfg *LogConfig) *FilterHook {
	hook := &FilterHook{
		allowedModules:  make(map[string]bool),
		allowedLogTypes: make(map[string]bool),
	}
	hook.updateFilters(cfg)
	return hook
}

// updateFilters cập nhật filters từ config
func (h *FilterHook) updateFilters(cfg *LogConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.allowedModules = parseFilter(cfg.FilterModules)
	h.hasModuleFilter = len(h.allowedModules) > 0 && !h.allowedModules["*"]

	h.allowedLogTypes = parseFilter(cfg.FilterLogTypes)
	h.hasLogTypeFilter = len(h.allowedLogTypes) > 0 && !h.allowedLogTypes["*"]
}

// parseFilter parse filter string thành map.
// Format: "value1,value2,value3" hoặc "*" cho tất cả.
func parseFilter(filterStr string) map[string]bool {
	result := make(map[string]bool)

	if filterStr == "" || filterStr == "*" {
		result["*"] = true
		return result
	}

	values := strings.Split(filterStr, ",")
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result[strings.ToLower(v)] = true
		}
	}

	return result
}

// Levels trả về các log levels mà hook này xử lý
func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đánh dấu entry bị filter bằng cách set field "_filtered" = true.
func (h *FilterHook) Fire(entry *logrus.Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.hasLogTypeFilter {
		levelStr := strings.ToLower(entry.Level.String())
		if !h.allowedLogTypes[levelStr] {
			entry.Data["_filtered"] = true
			return nil
		}
	}

	if h.hasModuleFilter {
		module, ok := entry.Data["module"].(string)
		if ok && module != "" {
			// Nếu không có module field, bỏ qua filter này (cho phép log)
			if !h.allowedModules[strings.ToLower(module)] {
				entry.Data["_filtered"] = true
				return nil
			}
		}
	}

	return nil
}

// UpdateFilters cập nhật filters từ config mới (có thể gọi runtime)
func (h *FilterHook) UpdateFilters(cfg *LogConfig) {
	h.updateFilters(cfg)
}

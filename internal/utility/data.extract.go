package utility

import (
	"fmt"
	"strings"
)

// ExtractString tìm giá trị string đầu tiên trong payload theo danh sách path.
// Path có thể là key phẳng ("accountId") hoặc nested path ("data.account_id").
// Key được so sánh không phân biệt hoa thường. Giá trị số cũng được chấp nhận
// và format lại thành string (id dạng số từ các PMS cũ).
// Trả về "" nếu không path nào resolve được.
func ExtractString(payload map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := resolvePath(payload, path); ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// ExtractMap resolve path đầu tiên trỏ đến một object lồng nhau.
func ExtractMap(payload map[string]interface{}, paths ...string) map[string]interface{} {
	for _, path := range paths {
		if v, ok := resolvePath(payload, path); ok {
			if m, ok := v.(map[string]interface{}); ok {
				return m
			}
		}
	}
	return nil
}

// resolvePath đi theo từng segment của path (tách bằng dấu chấm) trong map lồng nhau
func resolvePath(payload map[string]interface{}, path string) (interface{}, bool) {
	current := payload
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		value, ok := lookupKey(current, segment)
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// lookupKey tìm key trong map, ưu tiên khớp chính xác rồi mới đến khớp không phân biệt hoa thường
func lookupKey(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// stringify chuyển giá trị bất kỳ từ JSON payload về string.
// float64 là kiểu mặc định của số khi decode JSON nên phải format không có phần thập phân.
func stringify(v interface{}) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return fmt.Sprintf("%.0f", value)
	case int:
		return fmt.Sprintf("%d", value)
	case int64:
		return fmt.Sprintf("%d", value)
	case bool:
		return fmt.Sprintf("%t", value)
	default:
		return ""
	}
}

// Package utility - Test trích giá trị từ payload PMS dạng map lồng nhau.
package utility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractString_OrderedPaths(t *testing.T) {
	payload := map[string]interface{}{
		"listing_id": "second",
		"listingId":  "first",
	}
	// Path đứng trước thắng dù map có cả hai key
	assert.Equal(t, "first", ExtractString(payload, "listingId", "listing_id"))
	assert.Equal(t, "second", ExtractString(payload, "listing_id", "listingId"))
}

func TestExtractString_NestedPath(t *testing.T) {
	payload := map[string]interface{}{
		"listing": map[string]interface{}{
			"id": "abc-123",
		},
	}
	assert.Equal(t, "abc-123", ExtractString(payload, "listingId", "listing.id"))
}

func TestExtractString_CaseInsensitiveKeys(t *testing.T) {
	payload := map[string]interface{}{"ReservationID": "res-9"}
	assert.Equal(t, "res-9", ExtractString(payload, "reservationid"))
}

// Số từ JSON decode là float64 và phải được format không có phần thập phân
func TestExtractString_NumericValues(t *testing.T) {
	payload := map[string]interface{}{
		"accountId": float64(123456),
		"flag":      true,
	}
	assert.Equal(t, "123456", ExtractString(payload, "accountId"))
	assert.Equal(t, "true", ExtractString(payload, "flag"))
}

func TestExtractString_MissingAndEmpty(t *testing.T) {
	assert.Equal(t, "", ExtractString(map[string]interface{}{}, "anything"))
	assert.Equal(t, "", ExtractString(map[string]interface{}{"key": ""}, "key"))
	// Giá trị rỗng ở path đầu không chặn path sau
	payload := map[string]interface{}{"a": "", "b": "value"}
	assert.Equal(t, "value", ExtractString(payload, "a", "b"))
}

func TestExtractMap(t *testing.T) {
	inner := map[string]interface{}{"id": "x"}
	payload := map[string]interface{}{
		"data": map[string]interface{}{"reservation": inner},
	}
	assert.Equal(t, inner, ExtractMap(payload, "reservation", "data.reservation"))
	assert.Nil(t, ExtractMap(payload, "missing"))
	// Path trỏ đến scalar không phải map
	assert.Nil(t, ExtractMap(map[string]interface{}{"k": "v"}, "k"))
}

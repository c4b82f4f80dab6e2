package utility

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// CustomBson dùng để thực hiện các thao tác bson tùy chỉnh
// như set, push, unset bằng cách sử dụng các struct
type CustomBson struct{}

// BsonWrapper chứa các thao tác bson cơ bản ($set, $unset, $push, $addToSet)
type BsonWrapper struct {
	Set      interface{} `json:"$set,omitempty" bson:"$set,omitempty"`
	Unset    interface{} `json:"$unset,omitempty" bson:"$unset,omitempty"`
	Push     interface{} `json:"$push,omitempty" bson:"$push,omitempty"`
	AddToSet interface{} `json:"$addToSet,omitempty" bson:"$addToSet,omitempty"`
}

// ToMap chuyển đổi struct thành map thông qua bson marshal/unmarshal,
// giữ nguyên bson tag của struct (dùng làm filter/update cho mongo)
func ToMap(s interface{}) (map[string]interface{}, error) {
	data, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi chuyển đổi struct thành bson: %v", err)
	}
	var result map[string]interface{}
	if err := bson.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("lỗi khi chuyển đổi bson thành map: %v", err)
	}
	return result, nil
}

// Set tạo update document { $set: {...} } từ struct
func (c *CustomBson) Set(data interface{}) (map[string]interface{}, error) {
	wrapper := BsonWrapper{Set: data}
	return ToMap(wrapper)
}

// Push tạo update document { $push: {...} } từ struct
func (c *CustomBson) Push(data interface{}) (map[string]interface{}, error) {
	wrapper := BsonWrapper{Push: data}
	return ToMap(wrapper)
}

// Unset tạo update document { $unset: {...} } từ struct
func (c *CustomBson) Unset(data interface{}) (map[string]interface{}, error) {
	wrapper := BsonWrapper{Unset: data}
	return ToMap(wrapper)
}

// AddToSet tạo update document { $addToSet: {...} } từ struct
func (c *CustomBson) AddToSet(data interface{}) (map[string]interface{}, error) {
	wrapper := BsonWrapper{AddToSet: data}
	return ToMap(wrapper)
}

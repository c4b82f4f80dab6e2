package basehdl

// Package basehdl - base CRUD handlers.
// Package này cung cấp các chức năng CRUD cơ bản và các tiện ích để xử lý request/response.

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	basesvc "github.com/ennersmai/saas-automation-sub001/internal/api/base/service"
	"github.com/ennersmai/saas-automation-sub001/internal/common"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
	"github.com/ennersmai/saas-automation-sub001/internal/utility"
)

// BaseHandler cung cấp các handler CRUD cơ bản cho một model.
// Type Parameters:
//   - T: Kiểu dữ liệu của model
//   - CreateInput: Kiểu dữ liệu DTO cho thao tác tạo mới
//   - UpdateInput: Kiểu dữ liệu DTO cho thao tác cập nhật
type BaseHandler[T any, CreateInput any, UpdateInput any] struct {
	BaseService basesvc.BaseServiceMongo[T]
}

// NewBaseHandler tạo mới một BaseHandler với service tương ứng
func NewBaseHandler[T any, CreateInput any, UpdateInput any](service basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput, UpdateInput] {
	return &BaseHandler[T, CreateInput, UpdateInput]{
		BaseService: service,
	}
}

// ParseRequestBody parse body của request thành struct đích
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseRequestBody(c fiber.Ctx, out interface{}) error {
	return c.Bind().Body(out)
}

// ValidateInput validate struct input bằng validator toàn cục (struct tag validate)
func (h *BaseHandler[T, CreateInput, UpdateInput]) ValidateInput(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Dữ liệu không hợp lệ: %v", err),
			common.StatusBadRequest,
			err,
		)
	}
	return nil
}

// transformInputToModel chuyển DTO thành model qua bson round-trip (bson tag khớp nhau)
func (h *BaseHandler[T, CreateInput, UpdateInput]) transformInputToModel(input interface{}) (*T, error) {
	dataMap, err := utility.ToMap(input)
	if err != nil {
		return nil, err
	}
	raw, err := bson.Marshal(dataMap)
	if err != nil {
		return nil, err
	}
	var model T
	if err := bson.Unmarshal(raw, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// GetIDFromParams lấy ObjectID từ URL params
func (h *BaseHandler[T, CreateInput, UpdateInput]) GetIDFromParams(c fiber.Ctx) (primitive.ObjectID, error) {
	id := c.Params("id")
	if id == "" {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			"ID không được để trống trong URL params",
			common.StatusBadRequest,
			nil,
		)
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("ID không đúng định dạng ObjectID: %s", id),
			common.StatusBadRequest,
			err,
		)
	}
	return objID, nil
}

// ProcessFilter parse filter JSON từ query string (?filter={"field":"value"})
func (h *BaseHandler[T, CreateInput, UpdateInput]) ProcessFilter(c fiber.Ctx) (map[string]interface{}, error) {
	filter := make(map[string]interface{})
	filterStr := c.Query("filter")
	if filterStr == "" {
		return filter, nil
	}
	if err := json.Unmarshal([]byte(filterStr), &filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter không đúng định dạng JSON: %v", err),
			common.StatusBadRequest,
			err,
		)
	}
	return filter, nil
}

// ParsePagination lấy page và limit từ query string với giá trị mặc định
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParsePagination(c fiber.Ctx) (page int64, limit int64) {
	page = 1
	limit = 10
	if v, err := strconv.ParseInt(c.Query("page", "1"), 10, 64); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

// InsertOne thêm mới một document vào database.
// Dữ liệu được parse từ request body (DTO CreateInput) và transform sang Model trước khi thêm vào DB.
func (h *BaseHandler[T, CreateInput, UpdateInput]) InsertOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input CreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		model, err := h.transformInputToModel(&input)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Lỗi transform dữ liệu: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		data, err := h.BaseService.InsertOne(c.Context(), *model)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindOne tìm một document theo điều kiện filter từ query string
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.FindOne(c.Context(), filter, mongoopts.FindOne())
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindOneById tìm một document theo ID trong URL params
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindOneById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.GetIDFromParams(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.FindOneById(c.Context(), id)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindWithPagination tìm danh sách document với filter và phân trang
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindWithPagination(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		page, limit := h.ParsePagination(c)
		data, err := h.BaseService.FindWithPagination(c.Context(), filter, page, limit, nil)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// UpdateById cập nhật một document theo ID với dữ liệu từ request body
func (h *BaseHandler[T, CreateInput, UpdateInput]) UpdateById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.GetIDFromParams(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input UpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.UpdateById(c.Context(), id, &input)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// DeleteById xóa một document theo ID trong URL params
func (h *BaseHandler[T, CreateInput, UpdateInput]) DeleteById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.GetIDFromParams(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.BaseService.DeleteById(c.Context(), id)
		h.HandleResponse(c, nil, err)
		return nil
	})
}

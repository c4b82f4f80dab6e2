package convhdl

import (
	"fmt"

	basehdl "github.com/ennersmai/saas-automation-sub001/internal/api/base/handler"
	convmodels "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/models"
	convsvc "github.com/ennersmai/saas-automation-sub001/internal/api/conversation/service"
)

// MessageLogHandler xử lý các request liên quan đến MessageLog
type MessageLogHandler struct {
	*basehdl.BaseHandler[convmodels.MessageLog, convmodels.MessageLog, convmodels.MessageLog]
	messageLogService *convsvc.MessageLogService
}

// NewMessageLogHandler tạo mới MessageLogHandler
func NewMessageLogHandler() (*MessageLogHandler, error) {
	messageLogService, err := convsvc.NewMessageLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create message log service: %v", err)
	}

	return &MessageLogHandler{
		BaseHandler:       basehdl.NewBaseHandler[convmodels.MessageLog, convmodels.MessageLog, convmodels.MessageLog](messageLogService),
		messageLogService: messageLogService,
	}, nil
}

package shared

import (
	"errors"

	"github.com/dropsync-next/internal/http/response"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		if appErr.Code >= response.CodeInternal {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		} else {
			log.Warnw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// ServiceErrorCode 将 service 层错误映射为业务状态码与提示消息。
func ServiceErrorCode(err error) (int, string) {
	var upstream *service.UpstreamError
	switch {
	case err == nil:
		return response.CodeOK, "success"
	case errors.Is(err, service.ErrValidation):
		return response.CodeBadRequest, validationMessage(err)
	case errors.Is(err, service.ErrOrderNotFound):
		return response.CodeNotFound, "order not found"
	case errors.Is(err, service.ErrFulfillmentNotFound):
		return response.CodeNotFound, "fulfillment record not found"
	case errors.Is(err, service.ErrProductNotFound):
		return response.CodeNotFound, "product not found"
	case errors.Is(err, service.ErrPlacementInProgress):
		return response.CodeConflict, "placement still in progress"
	case errors.Is(err, service.ErrAlreadyPlaced):
		return response.CodeConflict, "order already placed with provider"
	case errors.Is(err, service.ErrNotPaid):
		return response.CodeConflict, "order is not paid"
	case errors.As(err, &upstream):
		return response.CodeBadGateway, upstream.Error()
	case errors.Is(err, service.ErrQueueUnavailable):
		return response.CodeServiceUnavailable, "queue unavailable"
	default:
		return response.CodeInternal, "internal error"
	}
}

// RespondServiceError 按 service 层错误类型返回响应。
func RespondServiceError(c *gin.Context, err error) {
	code, msg := ServiceErrorCode(err)
	RespondError(c, code, msg, err)
}

func validationMessage(err error) string {
	for _, target := range []error{
		service.ErrInvalidOrderID,
		service.ErrInvalidProductID,
		service.ErrInvalidStatus,
		service.ErrOrderItemsEmpty,
		service.ErrProductNotLinked,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return service.ErrValidation.Error()
}

package admin

import (
	"errors"

	"github.com/dropsync-next/internal/http/response"
	"github.com/dropsync-next/internal/queue"
	"github.com/dropsync-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// UpdateOrderStatusRequest 订单状态变更请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PlaceOrder 提交供应商下单，?async=1 时改为推送队列任务
func (h *Handler) PlaceOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if isAsyncRequest(c) {
		h.enqueuePlacement(c, orderID)
		return
	}
	result, err := h.PlacementService.Place(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_placed",
		"order_id", orderID,
		"external_order_id", result.ExternalOrderID,
		"attempt", result.AttemptCount,
	)
	response.Success(c, result)
}

func (h *Handler) enqueuePlacement(c *gin.Context, orderID uint) {
	if !h.QueueClient.Enabled() {
		respondServiceError(c, service.ErrQueueUnavailable)
		return
	}
	err := h.QueueClient.EnqueueOrderPlace(queue.OrderPlacePayload{OrderID: orderID})
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		response.SuccessWithMsg(c, "placement already queued", gin.H{"order_id": orderID, "queued": false})
		return
	}
	if err != nil {
		respondError(c, response.CodeInternal, "enqueue placement failed", err)
		return
	}
	response.Success(c, gin.H{"order_id": orderID, "queued": true})
}

// RetryPlacement 重新提交下单失败的订单
func (h *Handler) RetryPlacement(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.PlacementService.RetryPlacement(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// RefreshTracking 刷新单个订单物流，?async=1 时推送同步任务
func (h *Handler) RefreshTracking(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if isAsyncRequest(c) {
		if !h.QueueClient.Enabled() {
			respondServiceError(c, service.ErrQueueUnavailable)
			return
		}
		err := h.QueueClient.EnqueueOrderTrackingSync(queue.OrderTrackingSyncPayload{OrderID: orderID})
		if errors.Is(err, asynq.ErrDuplicateTask) {
			response.SuccessWithMsg(c, "tracking sync already queued", gin.H{"order_id": orderID, "queued": false})
			return
		}
		if err != nil {
			respondError(c, response.CodeInternal, "enqueue tracking sync failed", err)
			return
		}
		response.Success(c, gin.H{"order_id": orderID, "queued": true})
		return
	}

	result, err := h.TrackingService.Refresh(c.Request.Context(), orderID)
	if errors.Is(err, service.ErrNoTrackingYet) {
		// 尚未发货属于正常业务状态
		response.Success(c, gin.H{
			"order_id": orderID,
			"success":  false,
			"message":  err.Error(),
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"success": true,
		"result":  result,
	})
}

// GetShippingQuote 查询订单可用物流方式与到岸成本
func (h *Handler) GetShippingQuote(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	quote, err := h.ShippingQuoteService.Quote(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quote)
}

// UpdateOrderStatus 手动变更订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "status is required", err)
		return
	}
	result, err := h.OrderStatusService.Transition(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

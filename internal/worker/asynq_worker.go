package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/provider"
	"github.com/dropsync-next/internal/queue"
	"github.com/dropsync-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskOrderPlace, c.handleOrderPlace)
	mux.HandleFunc(queue.TaskOrderTrackingSync, c.handleOrderTrackingSync)
	mux.HandleFunc(queue.TaskOrderStaleReap, c.handleOrderStaleReap)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || strings.TrimSpace(payload.Receiver) == "" {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_status_email_skip_email_service_nil", "order_id", payload.OrderID, "order_no", payload.OrderNo)
		return nil
	}
	if err := c.EmailService.SendStatusEmail(service.FromOrderStatusEmailPayload(payload)); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled),
			errors.Is(err, service.ErrEmailServiceNotConfigured),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrEmailRecipientRejected):
			logger.Warnw("worker_order_status_email_skip_undeliverable",
				"order_id", payload.OrderID,
				"order_no", payload.OrderNo,
				"status", payload.Status,
				"error", err,
			)
			return nil
		default:
			logger.Warnw("worker_order_status_email_send_failed",
				"order_id", payload.OrderID,
				"order_no", payload.OrderNo,
				"receiver_email", payload.Receiver,
				"status", payload.Status,
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleOrderPlace(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_place_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPlacePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_place_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_place_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.PlacementService == nil {
		logger.Warnw("worker_order_place_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	_, err := c.PlacementService.Place(ctx, payload.OrderID)
	// 重试时上一次尝试已留下 failed 记录，改走 RetryPlacement
	if errors.Is(err, service.ErrAlreadyPlaced) && retryCount(ctx) > 0 {
		_, err = c.PlacementService.RetryPlacement(ctx, payload.OrderID)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlacementInProgress):
			// 交给 asynq 退避重试，等上一次提交超过中断判定时长后重新占用
			logger.Infow("worker_order_place_in_progress", "order_id", payload.OrderID)
			return err
		case errors.Is(err, service.ErrAlreadyPlaced):
			logger.Debugw("worker_order_place_skip_already_placed", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrNotPaid):
			logger.Debugw("worker_order_place_skip_not_paid", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_place_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrValidation):
			logger.Warnw("worker_order_place_skip_invalid_order", "order_id", payload.OrderID, "error", err)
			return nil
		default:
			logger.Warnw("worker_order_place_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleOrderTrackingSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_tracking_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTrackingSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_tracking_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_tracking_sync_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.TrackingService == nil {
		logger.Warnw("worker_order_tracking_sync_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if _, err := c.TrackingService.Refresh(ctx, payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoTrackingYet):
			logger.Debugw("worker_order_tracking_sync_skip_no_tracking", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_tracking_sync_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_tracking_sync_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleOrderStaleReap(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_stale_reap_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.ReaperService == nil {
		logger.Warnw("worker_order_stale_reap_skip_service_nil")
		return nil
	}
	result, err := c.ReaperService.Run(ctx)
	if err != nil {
		logger.Warnw("worker_order_stale_reap_failed", "error", err)
		return err
	}
	if result != nil && result.LockSkipped {
		logger.Debugw("worker_order_stale_reap_skip_locked")
	}
	return nil
}

func retryCount(ctx context.Context) int {
	count, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return 0
	}
	return count
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/metrics"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/repository"

	"gorm.io/gorm"
)

// 邮件跳过原因
const (
	EmailSkipNoRecipient       = "no_recipient_email"
	EmailSkipRecipientLookup   = "recipient_lookup_failed"
	EmailSkipDispatcherMissing = "dispatcher_unavailable"
)

// TransitionResult 状态变更结果
type TransitionResult struct {
	OrderID            uint   `json:"order_id"`
	OrderNo            string `json:"order_no"`
	PreviousStatus     string `json:"previous_status"`
	Status             string `json:"status"`
	Changed            bool   `json:"changed"`
	EmailSent          bool   `json:"email_sent"`
	EmailSkippedReason string `json:"email_skipped_reason,omitempty"`
	EmailError         string `json:"email_error,omitempty"`
}

// OrderStatusService 订单状态变更与邮件通知
type OrderStatusService struct {
	orderRepo  repository.OrderRepository
	userRepo   repository.UserRepository
	dispatcher StatusEmailDispatcher
	metrics    *metrics.Recorder
	now        func() time.Time
}

// NewOrderStatusService 创建订单状态服务
func NewOrderStatusService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, dispatcher StatusEmailDispatcher, recorder *metrics.Recorder) *OrderStatusService {
	return &OrderStatusService{
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
		metrics:    recorder,
		now:        time.Now,
	}
}

// IsAllowedOrderStatus 判断状态是否可写入
func IsAllowedOrderStatus(status string) bool {
	for _, allowed := range constants.AllowedOrderStatuses {
		if status == allowed {
			return true
		}
	}
	return false
}

// Transition 将订单更新为目标状态，状态实际变化时通知买家。
// 邮件投递失败只记录在结果中，不影响状态更新。
func (s *OrderStatusService) Transition(ctx context.Context, orderID uint, status string) (*TransitionResult, error) {
	if orderID == 0 {
		return nil, ErrInvalidOrderID
	}
	if !IsAllowedOrderStatus(status) {
		return nil, ErrInvalidStatus
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	result := &TransitionResult{
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		PreviousStatus: order.Status,
		Status:         status,
	}
	if order.Status == status {
		return result, nil
	}

	now := s.now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	switch status {
	case constants.OrderStatusShipped:
		updates["shipped_at"] = gorm.Expr("COALESCE(shipped_at, ?)", now)
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", now)
	}
	changed, err := s.orderRepo.UpdateStatus(order.ID, order.Status, status, updates)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if !changed {
		// 并发变更已抢先写入，由对方负责通知
		logger.ForOrder(order.ID, "from", order.Status, "to", status).Infow("order_status_transition_superseded")
		if current, getErr := s.orderRepo.GetByID(order.ID); getErr == nil && current != nil {
			result.Status = current.Status
		}
		return result, nil
	}
	result.Changed = true
	s.metrics.IncStatusChange(status)

	s.notify(ctx, order, result)
	return result, nil
}

func (s *OrderStatusService) notify(ctx context.Context, order *models.Order, result *TransitionResult) {
	log := logger.ForOrder(order.ID, "status", result.Status)
	receiver, receiverName, reason := s.resolveRecipient(order)
	if receiver == "" {
		result.EmailSkippedReason = reason
		s.metrics.IncEmailDispatch(metrics.OutcomeSkipped)
		log.Infow("order_status_email_skipped", "reason", reason)
		return
	}
	if s.dispatcher == nil {
		result.EmailSkippedReason = EmailSkipDispatcherMissing
		s.metrics.IncEmailDispatch(metrics.OutcomeSkipped)
		log.Warnw("order_status_email_skipped", "reason", EmailSkipDispatcherMissing)
		return
	}

	email := StatusEmail{
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		Receiver:       receiver,
		ReceiverName:   receiverName,
		PreviousStatus: result.PreviousStatus,
		Status:         result.Status,
		Amount:         order.TotalAmount.String(),
		Currency:       order.Currency,
	}
	if order.Fulfillment != nil {
		email.TrackingNumber = order.Fulfillment.TrackingNumber
		email.TrackingURL = order.Fulfillment.TrackingURL
	}
	sent, err := s.dispatcher.DispatchOrderStatus(ctx, email)
	if err != nil {
		result.EmailError = err.Error()
		s.metrics.IncEmailDispatch(metrics.OutcomeFailed)
		log.Warnw("order_status_email_dispatch_failed", "error", err)
		return
	}
	result.EmailSent = sent
	if sent {
		s.metrics.IncEmailDispatch(metrics.OutcomeSuccess)
	} else {
		s.metrics.IncEmailDispatch(metrics.OutcomeSkipped)
	}
}

// resolveRecipient 收件人：账单邮箱 > 用户目录邮箱
func (s *OrderStatusService) resolveRecipient(order *models.Order) (string, string, string) {
	if email := strings.TrimSpace(order.BillingEmail); email != "" {
		return email, strings.TrimSpace(order.BillingName), ""
	}
	if order.UserID == 0 || s.userRepo == nil {
		return "", "", EmailSkipNoRecipient
	}
	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil {
		logger.ForOrder(order.ID, "user_id", order.UserID).Warnw("order_status_recipient_lookup_failed", "error", err)
		return "", "", EmailSkipRecipientLookup
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return "", "", EmailSkipNoRecipient
	}
	name := strings.TrimSpace(order.BillingName)
	if name == "" {
		name = strings.TrimSpace(user.DisplayName)
	}
	return strings.TrimSpace(user.Email), name, ""
}

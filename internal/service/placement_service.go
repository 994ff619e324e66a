package service

import (
	"context"
	"strings"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/metrics"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/repository"
)

// PlacementResult 供应商下单结果
type PlacementResult struct {
	OrderID             uint              `json:"order_id"`
	ExternalOrderID     string            `json:"external_order_id"`
	ExternalOrderNumber string            `json:"external_order_number"`
	ExternalStatus      string            `json:"external_status"`
	TrackingNumber      string            `json:"tracking_number,omitempty"`
	LogisticName        string            `json:"logistic_name,omitempty"`
	AttemptCount        int               `json:"attempt_count"`
	Transition          *TransitionResult `json:"transition,omitempty"`
}

// PlacementService 供应商下单服务
type PlacementService struct {
	orderRepo       repository.OrderRepository
	fulfillmentRepo repository.FulfillmentRepository
	provider        FulfillmentProvider
	statusService   *OrderStatusService
	metrics         *metrics.Recorder
	staleAfter      time.Duration
	now             func() time.Time
}

// NewPlacementService 创建下单服务
func NewPlacementService(orderRepo repository.OrderRepository, fulfillmentRepo repository.FulfillmentRepository, provider FulfillmentProvider, statusService *OrderStatusService, recorder *metrics.Recorder) *PlacementService {
	return &PlacementService{
		orderRepo:       orderRepo,
		fulfillmentRepo: fulfillmentRepo,
		provider:        provider,
		statusService:   statusService,
		metrics:         recorder,
		staleAfter:      15*time.Second + constants.PlacementStaleMarginSeconds*time.Second,
		now:             time.Now,
	}
}

// WithProviderTimeout 按供应商超时设置 submitting 记录的中断判定时长
func (s *PlacementService) WithProviderTimeout(timeout time.Duration) *PlacementService {
	if timeout > 0 {
		s.staleAfter = timeout + constants.PlacementStaleMarginSeconds*time.Second
	}
	return s
}

// Place 首次向供应商提交订单，每个订单只会成功提交一次
func (s *PlacementService) Place(ctx context.Context, orderID uint) (*PlacementResult, error) {
	if orderID == 0 {
		return nil, ErrInvalidOrderID
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Fulfillment != nil {
		return nil, ErrAlreadyPlaced
	}
	if order.PaymentStatus != constants.PaymentStatusPaid {
		return nil, ErrNotPaid
	}
	if len(order.Items) == 0 {
		return nil, ErrOrderItemsEmpty
	}

	record, created, err := s.fulfillmentRepo.ClaimPlacement(order.ID, s.now())
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if !created {
		return nil, ErrAlreadyPlaced
	}
	return s.submit(ctx, order, record.AttemptCount)
}

// RetryPlacement 重新提交失败的下单。
// 对 failed 记录生效；submitting 记录的最近尝试超过中断判定时长时也会被重新提交。
func (s *PlacementService) RetryPlacement(ctx context.Context, orderID uint) (*PlacementResult, error) {
	if orderID == 0 {
		return nil, ErrInvalidOrderID
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	record := order.Fulfillment
	if record == nil {
		return nil, ErrFulfillmentNotFound
	}
	now := s.now()
	staleBefore := now.Add(-s.staleAfter)
	switch record.Status {
	case constants.FulfillmentStatusFailed:
	case constants.FulfillmentStatusSubmitting:
		if record.LastAttemptAt != nil && !record.LastAttemptAt.Before(staleBefore) {
			return nil, ErrPlacementInProgress
		}
		logger.ForOrder(order.ID, "last_attempt_at", record.LastAttemptAt).Warnw("placement_reclaim_stale_submitting")
	default:
		return nil, ErrAlreadyPlaced
	}
	if order.PaymentStatus != constants.PaymentStatusPaid {
		return nil, ErrNotPaid
	}
	if len(order.Items) == 0 {
		return nil, ErrOrderItemsEmpty
	}
	claimed, err := s.fulfillmentRepo.ClaimRetry(order.ID, now, staleBefore)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if !claimed {
		return nil, ErrAlreadyPlaced
	}
	return s.submit(ctx, order, record.AttemptCount+1)
}

func (s *PlacementService) loadOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// submit 调用供应商并落库结果，调用发生在事务之外
func (s *PlacementService) submit(ctx context.Context, order *models.Order, attempt int) (*PlacementResult, error) {
	log := logger.ForOrder(order.ID, "attempt", attempt)
	created := s.provider.CreateOrder(ctx, buildCreateOrderRequest(order))
	if !created.Ok() {
		s.metrics.IncPlacement(metrics.OutcomeFailed)
		log.Warnw("placement_provider_failed", "message", created.Message())
		if err := s.fulfillmentRepo.MarkFailed(order.ID, created.Message(), s.now()); err != nil {
			log.Errorw("placement_mark_failed_error", "error", err)
			return nil, wrapPersistence(err)
		}
		return nil, newUpstreamError("create_order", created.Message())
	}

	placed := created.Value()
	if err := s.fulfillmentRepo.MarkPlaced(order.ID, repository.PlacedUpdate{
		ExternalOrderID:     placed.OrderID,
		ExternalOrderNumber: placed.OrderNumber,
		ExternalStatus:      placed.OrderStatus,
		TrackingNumber:      strings.TrimSpace(placed.TrackNumber),
		LogisticName:        placed.LogisticName,
		At:                  s.now(),
	}); err != nil {
		log.Errorw("placement_mark_placed_failed", "external_order_id", placed.OrderID, "error", err)
		return nil, wrapPersistence(err)
	}
	s.metrics.IncPlacement(metrics.OutcomeSuccess)
	log.Infow("placement_succeeded", "external_order_id", placed.OrderID)

	result := &PlacementResult{
		OrderID:             order.ID,
		ExternalOrderID:     placed.OrderID,
		ExternalOrderNumber: placed.OrderNumber,
		ExternalStatus:      placed.OrderStatus,
		TrackingNumber:      strings.TrimSpace(placed.TrackNumber),
		LogisticName:        placed.LogisticName,
		AttemptCount:        attempt,
	}
	if order.Status == constants.OrderStatusPending && s.statusService != nil {
		transition, err := s.statusService.Transition(ctx, order.ID, constants.OrderStatusProcessing)
		if err != nil {
			log.Errorw("placement_status_transition_failed", "error", err)
		} else {
			result.Transition = transition
		}
	}
	return result, nil
}

func buildCreateOrderRequest(order *models.Order) dropship.CreateOrderRequest {
	address := strings.TrimSpace(order.ShippingAddress1)
	if line2 := strings.TrimSpace(order.ShippingAddress2); line2 != "" {
		address = strings.TrimSpace(address + " " + line2)
	}
	return dropship.CreateOrderRequest{
		OrderNumber:          order.OrderNo,
		ShippingCountryCode:  NormalizeCountryCode(order.ShippingCountry),
		ShippingProvince:     order.ShippingProvince,
		ShippingCity:         order.ShippingCity,
		ShippingAddress:      address,
		ShippingZip:          order.ShippingZip,
		ShippingPhone:        order.ShippingPhone,
		ShippingCustomerName: order.ShippingName,
		Remark:               order.Remark,
		LogisticName:         order.ShippingMethod,
		Products:             buildOrderProducts(order.Items),
	}
}

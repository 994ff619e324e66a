package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/metrics"
	"github.com/dropsync-next/internal/repository"

	"golang.org/x/sync/errgroup"
)

// TrackingResult 物流刷新结果
type TrackingResult struct {
	OrderID        uint   `json:"order_id"`
	Stage          string `json:"stage"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	Saved          bool   `json:"saved"`
	OrderStatus    string `json:"order_status"`
	StatusChanged  bool   `json:"status_changed"`
}

// TrackingBatchItem 批量刷新中单个订单的结果
type TrackingBatchItem struct {
	OrderID uint            `json:"order_id"`
	Result  *TrackingResult `json:"result,omitempty"`
	Skipped bool            `json:"skipped"`
	Error   string          `json:"error,omitempty"`
}

// TrackingBatchSummary 批量刷新汇总
type TrackingBatchSummary struct {
	Updated int                 `json:"updated"`
	Skipped int                 `json:"skipped"`
	Failed  int                 `json:"failed"`
	Items   []TrackingBatchItem `json:"items"`
}

// TrackingService 物流刷新服务
type TrackingService struct {
	orderRepo       repository.OrderRepository
	fulfillmentRepo repository.FulfillmentRepository
	provider        FulfillmentProvider
	statusService   *OrderStatusService
	metrics         *metrics.Recorder
	maxConcurrency  int
	now             func() time.Time
}

// NewTrackingService 创建物流刷新服务
func NewTrackingService(orderRepo repository.OrderRepository, fulfillmentRepo repository.FulfillmentRepository, provider FulfillmentProvider, statusService *OrderStatusService, recorder *metrics.Recorder, maxConcurrency int) *TrackingService {
	if maxConcurrency <= 0 {
		maxConcurrency = constants.TrackingSweepMaxConcurrent
	}
	return &TrackingService{
		orderRepo:       orderRepo,
		fulfillmentRepo: fulfillmentRepo,
		provider:        provider,
		statusService:   statusService,
		metrics:         recorder,
		maxConcurrency:  maxConcurrency,
		now:             time.Now,
	}
}

// stageOrderStatus 物流阶段隐含的订单状态
var stageOrderStatus = map[string]string{
	constants.TrackingStageDispatched:             constants.OrderStatusShipped,
	constants.TrackingStageEnRoute:                constants.OrderStatusShipped,
	constants.TrackingStageArrivedCourierFacility: constants.OrderStatusShipped,
	constants.TrackingStageOutForDelivery:         constants.OrderStatusShipped,
	constants.TrackingStageAvailableForPickup:     constants.OrderStatusShipped,
	constants.TrackingStageUnsuccessfulDelivery:   constants.OrderStatusShipped,
	constants.TrackingStageDelivered:              constants.OrderStatusDelivered,
}

// 物流只能推进的订单状态序列
var forwardStatusRank = map[string]int{
	constants.OrderStatusPending:    0,
	constants.OrderStatusProcessing: 1,
	constants.OrderStatusShipped:    2,
	constants.OrderStatusDelivered:  3,
}

// impliedStatus 返回物流阶段要求的订单新状态，不需要变更时返回空
func impliedStatus(current, stage string) string {
	target, ok := stageOrderStatus[stage]
	if !ok {
		return ""
	}
	currentRank, ok := forwardStatusRank[current]
	if !ok {
		return ""
	}
	if forwardStatusRank[target] <= currentRank {
		return ""
	}
	return target
}

// Refresh 拉取单个订单的最新物流并落库
func (s *TrackingService) Refresh(ctx context.Context, orderID uint) (*TrackingResult, error) {
	if orderID == 0 {
		return nil, ErrInvalidOrderID
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	record := order.Fulfillment
	if record == nil {
		return nil, ErrNoTrackingYet
	}
	log := logger.ForOrder(order.ID)

	trackingNumber := strings.TrimSpace(record.TrackingNumber)
	trackingURL := strings.TrimSpace(record.TrackingURL)
	externalStatus := ""
	if trackingNumber == "" && strings.TrimSpace(record.ExternalOrderID) != "" {
		detail := s.provider.GetOrderDetail(ctx, record.ExternalOrderID)
		if !detail.Ok() {
			log.Warnw("tracking_order_detail_failed", "external_order_id", record.ExternalOrderID, "message", detail.Message())
			return nil, newUpstreamError("get_order_detail", detail.Message())
		}
		trackingNumber = strings.TrimSpace(detail.Value().TrackNumber)
		externalStatus = detail.Value().OrderStatus
		if url := strings.TrimSpace(detail.Value().TrackingURL); url != "" {
			trackingURL = url
		}
	}
	if trackingNumber == "" {
		return nil, ErrNoTrackingYet
	}

	tracking := s.provider.GetTracking(ctx, trackingNumber)
	if !tracking.Ok() {
		log.Warnw("tracking_lookup_failed", "tracking_number", trackingNumber, "message", tracking.Message())
		return nil, newUpstreamError("get_tracking", tracking.Message())
	}
	info := tracking.Value()
	stage, known := dropship.MapTrackingStage(info.TrackingStatus)
	if !known {
		stage = record.TrackingStage
		log.Infow("tracking_stage_unmapped", "raw_status", info.TrackingStatus, "kept_stage", stage)
	}
	if url := strings.TrimSpace(info.TrackingURL); url != "" {
		trackingURL = url
	}
	if err := s.fulfillmentRepo.UpdateTracking(order.ID, repository.TrackingUpdate{
		TrackingNumber: trackingNumber,
		TrackingURL:    trackingURL,
		Stage:          stage,
		ExternalStatus: externalStatus,
		At:             s.now(),
	}); err != nil {
		log.Errorw("tracking_persist_failed", "error", err)
		return nil, wrapPersistence(err)
	}

	result := &TrackingResult{
		OrderID:        order.ID,
		Stage:          stage,
		TrackingNumber: trackingNumber,
		TrackingURL:    trackingURL,
		Saved:          true,
		OrderStatus:    order.Status,
	}
	if target := impliedStatus(order.Status, stage); target != "" && s.statusService != nil {
		transition, err := s.statusService.Transition(ctx, order.ID, target)
		if err != nil {
			log.Errorw("tracking_status_transition_failed", "target", target, "error", err)
		} else {
			result.OrderStatus = transition.Status
			result.StatusChanged = transition.Changed
		}
	}
	log.Debugw("tracking_refreshed", "stage", stage, "status_changed", result.StatusChanged)
	return result, nil
}

// RefreshBatch 并发刷新一组订单，单个订单失败不影响其它订单
func (s *TrackingService) RefreshBatch(ctx context.Context, orderIDs []uint) TrackingBatchSummary {
	items := make([]TrackingBatchItem, len(orderIDs))
	var mu sync.Mutex
	summary := TrackingBatchSummary{}

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, orderID := range orderIDs {
		g.Go(func() error {
			item := TrackingBatchItem{OrderID: orderID}
			result, err := s.Refresh(ctx, orderID)
			outcome := metrics.OutcomeSuccess
			switch {
			case err == nil:
				item.Result = result
			case errors.Is(err, ErrNoTrackingYet):
				item.Skipped = true
				outcome = metrics.OutcomeSkipped
			default:
				item.Error = err.Error()
				outcome = metrics.OutcomeFailed
				logger.ForOrder(orderID).Warnw("tracking_batch_item_failed", "error", err)
			}
			s.metrics.IncTrackingRefresh(outcome)

			mu.Lock()
			items[i] = item
			switch outcome {
			case metrics.OutcomeSuccess:
				summary.Updated++
			case metrics.OutcomeSkipped:
				summary.Skipped++
			default:
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	summary.Items = items
	return summary
}

// inFlightStatuses 需要巡检物流的订单状态
var inFlightStatuses = []string{constants.OrderStatusProcessing, constants.OrderStatusShipped}

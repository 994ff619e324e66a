package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/models"
)

func newTrackingServiceForTest(env *serviceTestEnv) *TrackingService {
	return NewTrackingService(env.orderRepo, env.fulfillmentRepo, env.provider, env.statusService, nil, 2)
}

func seedPlacedOrder(t *testing.T, env *serviceTestEnv, orderNo, status, trackingNumber string) *models.Order {
	t.Helper()
	order := env.seedPaidOrder(t, orderNo)
	if status != constants.OrderStatusPending {
		if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", status).Error; err != nil {
			t.Fatalf("set status failed: %v", err)
		}
	}
	env.seedRecord(t, &models.FulfillmentRecord{
		OrderID:         order.ID,
		Status:          constants.FulfillmentStatusPlaced,
		ExternalOrderID: "EXT-" + orderNo,
		TrackingNumber:  trackingNumber,
		TrackingStage:   constants.TrackingStageProcessing,
	})
	return order
}

func TestRefreshMovesOrderToShipped(t *testing.T) {
	env := setupServiceTest(t)
	order := seedPlacedOrder(t, env, "DS-3001", constants.OrderStatusProcessing, "YT100")
	env.provider.tracking["YT100"] = dropship.Success(dropship.TrackingInfo{
		TrackingNumber: "YT100",
		TrackingStatus: "In Transit",
		TrackingURL:    "https://track.example.com/YT100",
	})
	svc := newTrackingServiceForTest(env)

	result, err := svc.Refresh(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.Stage != constants.TrackingStageEnRoute || !result.Saved || !result.StatusChanged {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.OrderStatus != constants.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", result.OrderStatus)
	}

	stored := env.reloadOrder(t, order.ID)
	if stored.Status != constants.OrderStatusShipped || stored.ShippedAt == nil {
		t.Fatalf("unexpected order: %+v", stored)
	}
	if stored.Fulfillment.TrackingStage != constants.TrackingStageEnRoute || stored.Fulfillment.TrackingURL != "https://track.example.com/YT100" {
		t.Fatalf("unexpected record: %+v", stored.Fulfillment)
	}
	if stored.Fulfillment.LastSyncedAt == nil {
		t.Fatalf("expected last_synced_at stamped")
	}
	emails := env.dispatcher.emails()
	if len(emails) != 1 || emails[0].TrackingNumber != "YT100" {
		t.Fatalf("expected shipped email with tracking, got %+v", emails)
	}
}

func TestRefreshDeliveredSetsDeliveredAt(t *testing.T) {
	env := setupServiceTest(t)
	order := seedPlacedOrder(t, env, "DS-3002", constants.OrderStatusShipped, "YT200")
	env.provider.tracking["YT200"] = dropship.Success(dropship.TrackingInfo{TrackingNumber: "YT200", TrackingStatus: "DELIVERED"})
	svc := newTrackingServiceForTest(env)

	result, err := svc.Refresh(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.OrderStatus != constants.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %+v", result)
	}
	if stored := env.reloadOrder(t, order.ID); stored.DeliveredAt == nil {
		t.Fatalf("expected delivered_at set")
	}
}

func TestRefreshWithoutTrackingNumber(t *testing.T) {
	env := setupServiceTest(t)
	order := env.seedPaidOrder(t, "DS-3003")
	svc := newTrackingServiceForTest(env)

	if _, err := svc.Refresh(context.Background(), order.ID); !errors.Is(err, ErrNoTrackingYet) {
		t.Fatalf("expected ErrNoTrackingYet without record, got %v", err)
	}

	env.seedRecord(t, &models.FulfillmentRecord{OrderID: order.ID, Status: constants.FulfillmentStatusPlaced, ExternalOrderID: "EXT-3003"})
	env.provider.detailResult = dropship.Success(dropship.OrderDetail{OrderID: "EXT-3003", OrderStatus: "UNSHIPPED"})
	if _, err := svc.Refresh(context.Background(), order.ID); !errors.Is(err, ErrNoTrackingYet) {
		t.Fatalf("expected ErrNoTrackingYet when provider has none, got %v", err)
	}
	if _, tracking := env.provider.calls(); tracking != 0 {
		t.Fatalf("tracking lookup must not run without a number")
	}
}

func TestRefreshDiscoversTrackingNumberFromOrderDetail(t *testing.T) {
	env := setupServiceTest(t)
	order := seedPlacedOrder(t, env, "DS-3004", constants.OrderStatusProcessing, "")
	env.provider.detailResult = dropship.Success(dropship.OrderDetail{OrderID: "EXT-DS-3004", OrderStatus: "SHIPPED", TrackNumber: "YT400"})
	env.provider.tracking["YT400"] = dropship.Success(dropship.TrackingInfo{TrackingNumber: "YT400", TrackingStatus: "picked up"})
	svc := newTrackingServiceForTest(env)

	result, err := svc.Refresh(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.TrackingNumber != "YT400" || result.Stage != constants.TrackingStageDispatched {
		t.Fatalf("unexpected result: %+v", result)
	}
	stored := env.reloadOrder(t, order.ID)
	if stored.Fulfillment.TrackingNumber != "YT400" || stored.Fulfillment.ExternalStatus != "SHIPPED" {
		t.Fatalf("unexpected record: %+v", stored.Fulfillment)
	}
}

func TestRefreshUnknownStageKeepsPrevious(t *testing.T) {
	env := setupServiceTest(t)
	order := seedPlacedOrder(t, env, "DS-3005", constants.OrderStatusProcessing, "YT500")
	env.provider.tracking["YT500"] = dropship.Success(dropship.TrackingInfo{TrackingNumber: "YT500", TrackingStatus: "customs hold"})
	svc := newTrackingServiceForTest(env)

	result, err := svc.Refresh(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.Stage != constants.TrackingStageProcessing || result.StatusChanged {
		t.Fatalf("unknown stage must keep previous stage and status: %+v", result)
	}
}

func TestRefreshUpstreamFailure(t *testing.T) {
	env := setupServiceTest(t)
	order := seedPlacedOrder(t, env, "DS-3006", constants.OrderStatusProcessing, "YT600")
	svc := newTrackingServiceForTest(env)

	if _, err := svc.Refresh(context.Background(), order.ID); !errors.Is(err, ErrUpstreamProvider) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if stored := env.reloadOrder(t, order.ID); stored.Fulfillment.LastSyncedAt != nil {
		t.Fatalf("nothing should be saved on upstream failure")
	}
}

func TestRefreshNeverMovesCancelledOrder(t *testing.T) {
	env := setupServiceTest(t)
	order := seedPlacedOrder(t, env, "DS-3007", constants.OrderStatusCancelled, "YT700")
	env.provider.tracking["YT700"] = dropship.Success(dropship.TrackingInfo{TrackingNumber: "YT700", TrackingStatus: "delivered"})
	svc := newTrackingServiceForTest(env)

	result, err := svc.Refresh(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.StatusChanged || result.OrderStatus != constants.OrderStatusCancelled {
		t.Fatalf("cancelled order must not move: %+v", result)
	}
}

func TestImpliedStatusOnlyMovesForward(t *testing.T) {
	tests := []struct {
		current string
		stage   string
		want    string
	}{
		{constants.OrderStatusProcessing, constants.TrackingStageProcessing, ""},
		{constants.OrderStatusProcessing, constants.TrackingStageOutForDelivery, constants.OrderStatusShipped},
		{constants.OrderStatusShipped, constants.TrackingStageEnRoute, ""},
		{constants.OrderStatusDelivered, constants.TrackingStageEnRoute, ""},
		{constants.OrderStatusShipped, constants.TrackingStageDelivered, constants.OrderStatusDelivered},
		{constants.OrderStatusRefunded, constants.TrackingStageDelivered, ""},
	}
	for _, tt := range tests {
		if got := impliedStatus(tt.current, tt.stage); got != tt.want {
			t.Fatalf("impliedStatus(%s, %s) = %q, want %q", tt.current, tt.stage, got, tt.want)
		}
	}
}

func TestRefreshBatchIsolatesFailures(t *testing.T) {
	env := setupServiceTest(t)
	ok := seedPlacedOrder(t, env, "DS-3101", constants.OrderStatusProcessing, "YT-OK")
	pending := seedPlacedOrder(t, env, "DS-3102", constants.OrderStatusProcessing, "")
	broken := seedPlacedOrder(t, env, "DS-3103", constants.OrderStatusShipped, "YT-BROKEN")
	env.provider.tracking["YT-OK"] = dropship.Success(dropship.TrackingInfo{TrackingNumber: "YT-OK", TrackingStatus: "out for delivery"})
	env.provider.detailResult = dropship.Success(dropship.OrderDetail{})
	svc := newTrackingServiceForTest(env)

	summary := svc.RefreshBatch(context.Background(), []uint{ok.ID, pending.ID, broken.ID})
	if summary.Updated != 1 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Items) != 3 || summary.Items[0].OrderID != ok.ID || summary.Items[0].Result == nil {
		t.Fatalf("unexpected items: %+v", summary.Items)
	}
	if !summary.Items[1].Skipped || summary.Items[2].Error == "" {
		t.Fatalf("unexpected item outcomes: %+v", summary.Items)
	}
}

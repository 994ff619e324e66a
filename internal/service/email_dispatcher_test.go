package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dropsync-next/internal/config"
	"github.com/dropsync-next/internal/queue"
)

func TestNewStatusEmailDispatcherFallsBackToDirect(t *testing.T) {
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	t.Cleanup(func() {
		_ = queueClient.Close()
	})

	dispatcher := NewStatusEmailDispatcher(queueClient, NewEmailService(&config.EmailConfig{Enabled: false}))
	if _, ok := dispatcher.(*DirectEmailDispatcher); !ok {
		t.Fatalf("expected direct dispatcher when queue disabled, got %T", dispatcher)
	}
	sent, err := dispatcher.DispatchOrderStatus(context.Background(), StatusEmail{Receiver: "buyer@example.com"})
	if sent || !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected disabled email service error, got sent=%v err=%v", sent, err)
	}
}

func TestQueueEmailDispatcherRequiresQueue(t *testing.T) {
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	sent, err := NewQueueEmailDispatcher(queueClient).DispatchOrderStatus(context.Background(), StatusEmail{Receiver: "buyer@example.com"})
	if sent || !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("expected queue unavailable, got sent=%v err=%v", sent, err)
	}
}

func TestOrderStatusEmailPayloadConversion(t *testing.T) {
	email := StatusEmail{
		OrderID:        7,
		OrderNo:        "DS-7",
		Receiver:       "buyer@example.com",
		PreviousStatus: "processing",
		Status:         "shipped",
		Amount:         "12.00",
		Currency:       "ZAR",
		TrackingNumber: "YT7",
	}
	if got := FromOrderStatusEmailPayload(ToOrderStatusEmailPayload(email)); got != email {
		t.Fatalf("payload conversion lost data: %+v", got)
	}
}

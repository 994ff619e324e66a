package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/dropsync-next/internal/config"
)

func TestBuildOrderStatusContent(t *testing.T) {
	tests := []struct {
		name                string
		input               OrderStatusEmailInput
		wantSubjectContains []string
		wantBodyContains    []string
		wantBodyMissing     []string
	}{
		{
			name: "processing",
			input: OrderStatusEmailInput{
				OrderNo:  "DS-PROC",
				Status:   "processing",
				Amount:   "120.00",
				Currency: "ZAR",
			},
			wantSubjectContains: []string{"DS-PROC", "Processing"},
			wantBodyContains:    []string{"being prepared", "Order No: DS-PROC", "120.00 ZAR"},
			wantBodyMissing:     []string{"Tracking No"},
		},
		{
			name: "shipped_with_tracking",
			input: OrderStatusEmailInput{
				OrderNo:        "DS-SHIP",
				ReceiverName:   "Thandi",
				Status:         "shipped",
				Amount:         "80.50",
				Currency:       "ZAR",
				TrackingNumber: "YT123",
				TrackingURL:    "https://track.example.com/YT123",
			},
			wantSubjectContains: []string{"Shipped"},
			wantBodyContains:    []string{"Hello Thandi,", "on its way", "Tracking No: YT123", "https://track.example.com/YT123"},
		},
		{
			name: "unknown_status_falls_back_to_raw",
			input: OrderStatusEmailInput{
				OrderNo: "DS-X",
				Status:  "on_hold",
				Amount:  "1.00",
			},
			wantSubjectContains: []string{"on_hold"},
			wantBodyContains:    []string{"has been updated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := buildOrderStatusContent(tt.input)
			for _, expected := range tt.wantSubjectContains {
				if !strings.Contains(subject, expected) {
					t.Fatalf("subject missing %q: %s", expected, subject)
				}
			}
			for _, expected := range tt.wantBodyContains {
				if !strings.Contains(body, expected) {
					t.Fatalf("body missing %q: %s", expected, body)
				}
			}
			for _, unexpected := range tt.wantBodyMissing {
				if strings.Contains(body, unexpected) {
					t.Fatalf("body should not contain %q: %s", unexpected, body)
				}
			}
		})
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "smtp_550_no_such_recipient", err: errors.New("550 No such recipient here"), want: true},
		{name: "smtp_user_unknown", err: errors.New("SMTP 5.1.1 user unknown"), want: true},
		{name: "smtp_550_mailbox_unavailable", err: errors.New("550 mailbox unavailable"), want: true},
		{name: "network_timeout", err: errors.New("dial tcp timeout"), want: false},
		{name: "nil_error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}

	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}

	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("normalizeEmailSendError(nil) should be nil, got %v", got)
	}
}

func TestSendOrderStatusEmailRequiresConfig(t *testing.T) {
	disabled := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := disabled.SendOrderStatusEmail("buyer@example.com", OrderStatusEmailInput{}); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected ErrEmailServiceDisabled, got %v", err)
	}

	missingHost := NewEmailService(&config.EmailConfig{Enabled: true, Port: 587, From: "shop@example.com"})
	if err := missingHost.SendOrderStatusEmail("buyer@example.com", OrderStatusEmailInput{}); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected ErrEmailServiceNotConfigured, got %v", err)
	}

	configured := NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "shop@example.com"})
	if err := configured.SendOrderStatusEmail("not-an-email", OrderStatusEmailInput{}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

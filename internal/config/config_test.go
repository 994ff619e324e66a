package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetDefaultsUnmarshal(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Reaper.Cron != "@every 5m" || !cfg.Reaper.Enabled {
		t.Fatalf("unexpected reaper defaults: %+v", cfg.Reaper)
	}
	if cfg.Provider.Currency != "USD" || cfg.Provider.MaxConcurrency <= 0 {
		t.Fatalf("unexpected provider defaults: %+v", cfg.Provider)
	}
	if cfg.Queue.Queues["critical"] == 0 || cfg.Queue.Queues["default"] == 0 {
		t.Fatalf("queue weights missing: %+v", cfg.Queue.Queues)
	}
	if cfg.RateLimit.WindowSeconds != 60 || cfg.RateLimit.MaxRequests != 120 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestReaperGraceHasFloor(t *testing.T) {
	if got := (ReaperConfig{GraceMinutes: 5}).Grace(); got != 15*time.Minute {
		t.Fatalf("grace below floor should be raised, got %v", got)
	}
	if got := (ReaperConfig{GraceMinutes: 45}).Grace(); got != 45*time.Minute {
		t.Fatalf("grace want 45m got %v", got)
	}
}

func TestProviderTimeoutDefault(t *testing.T) {
	if got := (ProviderConfig{}).Timeout(); got != 15*time.Second {
		t.Fatalf("default timeout want 15s got %v", got)
	}
	if got := (ProviderConfig{TimeoutSeconds: 3}).Timeout(); got != 3*time.Second {
		t.Fatalf("timeout want 3s got %v", got)
	}
}

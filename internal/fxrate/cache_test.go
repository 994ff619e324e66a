package fxrate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fetcherStub struct {
	calls int32
	rate  decimal.Decimal
	err   error
}

func (f *fetcherStub) Fetch(_ context.Context, _, _ string) (decimal.Decimal, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rate, nil
}

func TestCacheServesFreshEntryWithoutRefetch(t *testing.T) {
	fetcher := &fetcherStub{rate: decimal.RequireFromString("0.055")}
	c := NewCache(fetcher, time.Hour)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		quote, err := c.Rate(context.Background(), "zar", "usd")
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		if !quote.Rate.Equal(decimal.RequireFromString("0.055")) || quote.Stale {
			t.Fatalf("unexpected quote: %+v", quote)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected single fetch, got %d", fetcher.calls)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	fetcher := &fetcherStub{rate: decimal.RequireFromString("18.2")}
	c := NewCache(fetcher, time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, err := c.Rate(context.Background(), "USD", "ZAR"); err != nil {
		t.Fatalf("first rate failed: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := c.Rate(context.Background(), "USD", "ZAR"); err != nil {
		t.Fatalf("second rate failed: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", fetcher.calls)
	}
}

func TestCacheServesStaleOnFetchError(t *testing.T) {
	fetcher := &fetcherStub{rate: decimal.RequireFromString("18.2")}
	c := NewCache(fetcher, time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, err := c.Rate(context.Background(), "USD", "ZAR"); err != nil {
		t.Fatalf("warm rate failed: %v", err)
	}
	now = now.Add(time.Hour)
	fetcher.err = errors.New("upstream down")

	quote, err := c.Rate(context.Background(), "USD", "ZAR")
	if err != nil {
		t.Fatalf("expected stale value, got error: %v", err)
	}
	if !quote.Stale || !quote.Rate.Equal(decimal.RequireFromString("18.2")) {
		t.Fatalf("expected stale 18.2, got %+v", quote)
	}
}

func TestCacheReturnsErrorWithoutCachedValue(t *testing.T) {
	c := NewCache(&fetcherStub{err: errors.New("upstream down")}, time.Minute)
	if _, err := c.Rate(context.Background(), "USD", "EUR"); err == nil {
		t.Fatalf("expected error with empty cache")
	}
}

func TestCacheSameCurrencyIsIdentity(t *testing.T) {
	var c *Cache
	quote, err := c.Rate(context.Background(), "usd", "USD")
	if err != nil {
		t.Fatalf("identity rate failed: %v", err)
	}
	if !quote.Rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected rate 1, got %s", quote.Rate)
	}
}

func TestHTTPFetcherParsesLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest" || r.URL.Query().Get("base") != "ZAR" || r.URL.Query().Get("symbols") != "USD" {
			t.Fatalf("unexpected request: %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"ZAR","rates":{"USD":0.0551}}`))
	}))
	defer server.Close()

	rate, err := NewHTTPFetcher(server.URL, server.Client()).Fetch(context.Background(), "ZAR", "USD")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.0551")) {
		t.Fatalf("unexpected rate: %s", rate)
	}
}

func TestHTTPFetcherMissingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"ZAR","rates":{}}`))
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(server.URL, server.Client()).Fetch(context.Background(), "ZAR", "USD")
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected invalid response error, got %v", err)
	}
}

package fxrate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropsync-next/internal/cache"
	"github.com/dropsync-next/internal/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const defaultTTL = 60 * time.Minute

// Quote 汇率查询结果，Stale 表示数据源失败时返回的过期值
type Quote struct {
	From      string
	To        string
	Rate      decimal.Decimal
	FetchedAt time.Time
	Stale     bool
}

// Convert 按汇率换算金额
func (q Quote) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(q.Rate)
}

type entry struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// Cache 带 TTL 的汇率缓存，进程内条目由 Cache 独占，Redis 开启时多副本共享
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
}

// NewCache 创建汇率缓存
func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Enabled 是否可用
func (c *Cache) Enabled() bool {
	return c != nil && c.fetcher != nil
}

// Rate 查询 from -> to 汇率
func (c *Cache) Rate(ctx context.Context, from, to string) (Quote, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1), FetchedAt: c.clock()}, nil
	}
	if !c.Enabled() {
		return Quote{}, ErrNotConfigured
	}
	key := from + ":" + to

	if cached, ok := c.lookup(key); ok && c.fresh(cached) {
		return Quote{From: from, To: to, Rate: cached.rate, FetchedAt: cached.fetchedAt}, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.refresh(ctx, key, from, to)
	})
	if err != nil {
		if cached, ok := c.lookup(key); ok {
			logger.Warnw("fxrate_fetch_failed_serving_stale", "from", from, "to", to, "fetched_at", cached.fetchedAt, "error", err)
			return Quote{From: from, To: to, Rate: cached.rate, FetchedAt: cached.fetchedAt, Stale: true}, nil
		}
		return Quote{}, err
	}
	fetched := value.(entry)
	return Quote{From: from, To: to, Rate: fetched.rate, FetchedAt: fetched.fetchedAt}, nil
}

func (c *Cache) refresh(ctx context.Context, key, from, to string) (entry, error) {
	if snapshot, hit, err := cache.GetFXRate(ctx, from, to); err == nil && hit {
		rate, parseErr := decimal.NewFromString(snapshot.Rate)
		shared := entry{rate: rate, fetchedAt: time.Unix(snapshot.FetchedAt, 0)}
		if parseErr == nil && rate.IsPositive() && c.fresh(shared) {
			c.store(key, shared)
			return shared, nil
		}
	}

	rate, err := c.fetcher.Fetch(ctx, from, to)
	if err != nil {
		return entry{}, err
	}
	fetched := entry{rate: rate, fetchedAt: c.clock()}
	c.store(key, fetched)
	if err := cache.SetFXRate(ctx, cache.FXRateSnapshot{
		From:      from,
		To:        to,
		Rate:      rate.String(),
		FetchedAt: fetched.fetchedAt.Unix(),
	}, c.ttl); err != nil {
		logger.Debugw("fxrate_shared_cache_write_failed", "from", from, "to", to, "error", err)
	}
	return fetched, nil
}

func (c *Cache) lookup(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) store(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

func (c *Cache) fresh(e entry) bool {
	return c.clock().Sub(e.fetchedAt) < c.ttl
}

func (c *Cache) clock() time.Time {
	if c == nil || c.now == nil {
		return time.Now()
	}
	return c.now()
}

package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FXRateSnapshot 汇率快照，rate 使用字符串保存避免精度丢失
type FXRateSnapshot struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Rate      string `json:"rate"`
	FetchedAt int64  `json:"fetched_at"`
}

func fxRateKey(from, to string) string {
	return fmt.Sprintf("fx:%s:%s", strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to)))
}

// GetFXRate 读取共享汇率快照
func GetFXRate(ctx context.Context, from, to string) (*FXRateSnapshot, bool, error) {
	var snapshot FXRateSnapshot
	hit, err := GetJSON(ctx, fxRateKey(from, to), &snapshot)
	if err != nil || !hit {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetFXRate 写入共享汇率快照
func SetFXRate(ctx context.Context, snapshot FXRateSnapshot, ttl time.Duration) error {
	return SetJSON(ctx, fxRateKey(snapshot.From, snapshot.To), snapshot, ttl)
}

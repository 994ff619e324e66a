package fxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured   = errors.New("fx rate source not configured")
	ErrRequestFailed   = errors.New("fx rate request failed")
	ErrResponseInvalid = errors.New("fx rate response invalid")
)

const defaultTimeout = 8 * time.Second

// Fetcher 汇率数据源
type Fetcher interface {
	Fetch(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// HTTPFetcher 基于 JSON 汇率接口的数据源，接口形如 GET {base}/latest?base=ZAR&symbols=USD
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFetcher 创建 HTTP 汇率数据源
func NewHTTPFetcher(baseURL string, httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPFetcher{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Fetch 拉取 from -> to 的汇率
func (f *HTTPFetcher) Fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if f == nil || f.baseURL == "" {
		return decimal.Zero, ErrNotConfigured
	}
	query := url.Values{"base": {from}, "symbols": {to}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/latest?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("%w: status %d", ErrResponseInvalid, resp.StatusCode)
	}
	var parsed latestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	rate, ok := parsed.Rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: missing rate %s", ErrResponseInvalid, to)
	}
	return rate, nil
}

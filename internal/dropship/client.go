package dropship

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropsync-next/internal/logger"
)

const (
	defaultTimeout = 15 * time.Second
	headerAPIKey   = "X-Api-Key"
	successCode    = 200

	pathCreateOrder     = "/shopping/order/createOrderV2"
	pathOrderDetail     = "/shopping/order/getOrderDetail"
	pathFreightQuote    = "/logistic/freightCalculate"
	pathProduct         = "/product/query"
	pathProductVariants = "/product/variant/query"
	pathTracking        = "/logistic/trackInfo"
)

var errNotConfigured = errors.New("provider base url is not configured")

// Config 供应商客户端配置
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Observer 记录每次供应商调用的结果与耗时
type Observer interface {
	ObserveProviderCall(operation string, ok bool, elapsed time.Duration)
}

// Client 代发货供应商 HTTP 客户端
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	observer   Observer
}

// NewClient 创建供应商客户端
func NewClient(cfg Config, httpClient *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// WithObserver 设置调用观测器
func (c *Client) WithObserver(observer Observer) *Client {
	if c == nil {
		return nil
	}
	c.observer = observer
	return c
}

// CreateOrder 在供应商侧创建订单
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) Result[CreatedOrder] {
	var out CreatedOrder
	if msg, ok := c.call(ctx, "create_order", http.MethodPost, pathCreateOrder, nil, req, &out); !ok {
		return Failure[CreatedOrder](msg)
	}
	return Success(out)
}

// GetOrderDetail 查询供应商订单详情
func (c *Client) GetOrderDetail(ctx context.Context, externalOrderID string) Result[OrderDetail] {
	query := url.Values{"orderId": {strings.TrimSpace(externalOrderID)}}
	var out OrderDetail
	if msg, ok := c.call(ctx, "get_order_detail", http.MethodGet, pathOrderDetail, query, nil, &out); !ok {
		return Failure[OrderDetail](msg)
	}
	return Success(out)
}

// GetShippingMethods 运费试算
func (c *Client) GetShippingMethods(ctx context.Context, req ShippingQuoteRequest) Result[[]ShippingMethod] {
	var out []ShippingMethod
	if msg, ok := c.call(ctx, "get_shipping_methods", http.MethodPost, pathFreightQuote, nil, req, &out); !ok {
		return Failure[[]ShippingMethod](msg)
	}
	return Success(out)
}

// GetProduct 查询供应商商品
func (c *Client) GetProduct(ctx context.Context, providerProductID string) Result[ProductInfo] {
	query := url.Values{"pid": {strings.TrimSpace(providerProductID)}}
	var out ProductInfo
	if msg, ok := c.call(ctx, "get_product", http.MethodGet, pathProduct, query, nil, &out); !ok {
		return Failure[ProductInfo](msg)
	}
	return Success(out)
}

// GetProductVariants 查询供应商商品规格
func (c *Client) GetProductVariants(ctx context.Context, providerProductID string) Result[[]ProductVariant] {
	query := url.Values{"pid": {strings.TrimSpace(providerProductID)}}
	var out []ProductVariant
	if msg, ok := c.call(ctx, "get_product_variants", http.MethodGet, pathProductVariants, query, nil, &out); !ok {
		return Failure[[]ProductVariant](msg)
	}
	return Success(out)
}

// GetTracking 按运单号查询物流轨迹
func (c *Client) GetTracking(ctx context.Context, trackingNumber string) Result[TrackingInfo] {
	trackingNumber = strings.TrimSpace(trackingNumber)
	query := url.Values{"trackNumber": {trackingNumber}}
	var out []TrackingInfo
	if msg, ok := c.call(ctx, "get_tracking", http.MethodGet, pathTracking, query, nil, &out); !ok {
		return Failure[TrackingInfo](msg)
	}
	for _, info := range out {
		if strings.EqualFold(strings.TrimSpace(info.TrackingNumber), trackingNumber) {
			return Success(info)
		}
	}
	if len(out) > 0 {
		return Success(out[0])
	}
	return Failure[TrackingInfo]("tracking info not found")
}

// call 执行请求并解析统一响应，失败时返回供应商信息
func (c *Client) call(ctx context.Context, operation, method, path string, query url.Values, body interface{}, out interface{}) (string, bool) {
	started := time.Now()
	msg, ok := c.do(ctx, method, path, query, body, out)
	if c != nil && c.observer != nil {
		c.observer.ObserveProviderCall(operation, ok, time.Since(started))
	}
	if !ok {
		logger.Warnw("dropship_request_failed",
			"operation", operation,
			"path", path,
			"message", msg,
			"elapsed_ms", time.Since(started).Milliseconds(),
		)
	}
	return msg, ok
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) (string, bool) {
	if c == nil || c.baseURL == "" {
		return errNotConfigured.Error(), false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Sprintf("marshal request failed: %v", err), false
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Sprintf("build request failed: %v", err), false
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "provider request timed out", false
		}
		return fmt.Sprintf("http request failed: %v", err), false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read response failed: %v", err), false
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Sprintf("provider http status %d", resp.StatusCode), false
		}
		return "decode response failed", false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Result || env.Code != successCode {
		message := strings.TrimSpace(env.Message)
		if message == "" {
			message = fmt.Sprintf("provider http status %d code %d", resp.StatusCode, env.Code)
		}
		return message, false
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "decode response data failed", false
		}
	}
	return "", true
}

package dropship

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// envelope 供应商统一响应结构
type envelope struct {
	Code    int             `json:"code"`
	Result  bool            `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// OrderProduct 下单与运费试算的商品行
type OrderProduct struct {
	VID      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest 供应商下单请求
type CreateOrderRequest struct {
	OrderNumber          string         `json:"orderNumber"`
	ShippingCountryCode  string         `json:"shippingCountryCode"`
	ShippingProvince     string         `json:"shippingProvince"`
	ShippingCity         string         `json:"shippingCity"`
	ShippingAddress      string         `json:"shippingAddress"`
	ShippingZip          string         `json:"shippingZip"`
	ShippingPhone        string         `json:"shippingPhone"`
	ShippingCustomerName string         `json:"shippingCustomerName"`
	Remark               string         `json:"remark,omitempty"`
	LogisticName         string         `json:"logisticName,omitempty"`
	Products             []OrderProduct `json:"products"`
}

// CreatedOrder 供应商下单结果
type CreatedOrder struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNum"`
	OrderStatus  string `json:"orderStatus"`
	TrackNumber  string `json:"trackNumber"`
	LogisticName string `json:"logisticName"`
}

// OrderDetail 供应商订单详情
type OrderDetail struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNum"`
	OrderStatus  string `json:"orderStatus"`
	TrackNumber  string `json:"trackNumber"`
	TrackingURL  string `json:"trackingUrl"`
	LogisticName string `json:"logisticName"`
}

// ShippingQuoteRequest 运费试算请求
type ShippingQuoteRequest struct {
	StartCountryCode string         `json:"startCountryCode,omitempty"`
	EndCountryCode   string         `json:"endCountryCode"`
	Products         []OrderProduct `json:"products"`
}

// ShippingMethod 供应商报价的物流方式
type ShippingMethod struct {
	LogisticName  string `json:"logisticName"`
	LogisticPrice Price  `json:"logisticPrice"`
	LogisticAging string `json:"logisticAging"`
	Currency      string `json:"currency,omitempty"`
}

// ProductInfo 供应商商品
type ProductInfo struct {
	PID       string `json:"pid"`
	Name      string `json:"productNameEn"`
	SellPrice Price  `json:"sellPrice"`
}

// ProductVariant 供应商商品规格
type ProductVariant struct {
	VID       string `json:"vid"`
	PID       string `json:"pid"`
	SellPrice Price  `json:"variantSellPrice"`
}

// TrackingInfo 供应商物流轨迹
type TrackingInfo struct {
	TrackingNumber string `json:"trackingNumber"`
	LogisticName   string `json:"logisticName"`
	TrackingStatus string `json:"trackingStatus"`
	TrackingURL    string `json:"trackingUrl"`
	DeliveryDay    string `json:"deliveryDay"`
}

// Price 供应商价格，兼容数字、字符串以及 "1.20 -- 3.40" 形式的区间（取下限）
type Price struct {
	decimal.Decimal
}

// UnmarshalJSON 解析价格
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		p.Decimal = decimal.Zero
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		p.Decimal = decimal.Zero
		return nil
	}
	if idx := strings.Index(raw, "-"); idx > 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	p.Decimal = d
	return nil
}

// MarshalJSON 输出字符串形式的价格
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Decimal.String())
}

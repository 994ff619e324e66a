package service

import (
	"context"
	"strings"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/fxrate"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/repository"

	"github.com/shopspring/decimal"
)

// RateProvider 汇率来源，由 fxrate.Cache 实现
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (fxrate.Quote, error)
}

// ShippingOption 供应商可选物流方式
type ShippingOption struct {
	Name     string       `json:"name"`
	Price    models.Money `json:"price"`
	Currency string       `json:"currency"`
	Aging    string       `json:"aging,omitempty"`
}

// ShippingQuote 订单运费报价
type ShippingQuote struct {
	OrderID          uint             `json:"order_id"`
	CountryCode      string           `json:"country_code"`
	Methods          []ShippingOption `json:"methods"`
	Cheapest         *ShippingOption  `json:"cheapest,omitempty"`
	OrderTotal       models.Money     `json:"order_total"`
	OrderCurrency    string           `json:"order_currency"`
	LandedCost       *models.Money    `json:"landed_cost"`
	ProviderCurrency string           `json:"provider_currency"`
	ExchangeRate     *decimal.Decimal `json:"exchange_rate,omitempty"`
	RateStale        bool             `json:"rate_stale,omitempty"`
	ConvertedTotal   *models.Money    `json:"converted_total,omitempty"`
	EstimatedMargin  *models.Money    `json:"estimated_margin,omitempty"`
}

// ShippingQuoteService 运费报价服务，只读
type ShippingQuoteService struct {
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	provider         FulfillmentProvider
	rates            RateProvider
	providerCurrency string
}

// NewShippingQuoteService 创建运费报价服务
func NewShippingQuoteService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, provider FulfillmentProvider, rates RateProvider, providerCurrency string) *ShippingQuoteService {
	providerCurrency = strings.ToUpper(strings.TrimSpace(providerCurrency))
	if providerCurrency == "" {
		providerCurrency = constants.ProviderCurrencyDefault
	}
	return &ShippingQuoteService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		provider:         provider,
		rates:            rates,
		providerCurrency: providerCurrency,
	}
}

// Quote 查询订单可选物流方式与到岸成本
func (s *ShippingQuoteService) Quote(ctx context.Context, orderID uint) (*ShippingQuote, error) {
	if orderID == 0 {
		return nil, ErrInvalidOrderID
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if len(order.Items) == 0 {
		return nil, ErrOrderItemsEmpty
	}

	landed, err := s.landedCost(order.Items)
	if err != nil {
		return nil, err
	}

	country := NormalizeCountryCode(order.ShippingCountry)
	methods := s.provider.GetShippingMethods(ctx, dropship.ShippingQuoteRequest{
		EndCountryCode: country,
		Products:       buildOrderProducts(order.Items),
	})
	if !methods.Ok() {
		logger.ForOrder(order.ID).Warnw("shipping_quote_provider_failed", "message", methods.Message())
		return nil, newUpstreamError("get_shipping_methods", methods.Message())
	}

	quote := &ShippingQuote{
		OrderID:          order.ID,
		CountryCode:      country,
		Methods:          make([]ShippingOption, 0, len(methods.Value())),
		OrderTotal:       order.TotalAmount,
		OrderCurrency:    order.Currency,
		LandedCost:       landed,
		ProviderCurrency: s.providerCurrency,
	}
	for _, method := range methods.Value() {
		currency := strings.TrimSpace(method.Currency)
		if currency == "" {
			currency = s.providerCurrency
		}
		quote.Methods = append(quote.Methods, ShippingOption{
			Name:     method.LogisticName,
			Price:    models.NewMoneyFromDecimal(method.LogisticPrice.Decimal),
			Currency: currency,
			Aging:    method.LogisticAging,
		})
	}
	for i := range quote.Methods {
		if quote.Cheapest == nil || quote.Methods[i].Price.LessThan(quote.Cheapest.Price.Decimal) {
			cheapest := quote.Methods[i]
			quote.Cheapest = &cheapest
		}
	}
	s.applyExchangeRate(ctx, order, quote)
	return quote, nil
}

// landedCost 汇总到岸成本，任一订单项无法匹配商品时返回 nil
func (s *ShippingQuoteService) landedCost(items []models.OrderItem) (*models.Money, error) {
	total := decimal.Zero
	for _, item := range items {
		product, err := s.resolveProduct(item)
		if err != nil {
			return nil, wrapPersistence(err)
		}
		if product == nil {
			return nil, nil
		}
		total = total.Add(product.BasePrice.MulQuantity(item.Quantity))
	}
	landed := models.NewMoneyFromDecimal(total)
	return &landed, nil
}

func (s *ShippingQuoteService) resolveProduct(item models.OrderItem) (*models.Product, error) {
	if item.ProductID != 0 {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil || product != nil {
			return product, err
		}
	}
	return s.productRepo.GetByProviderProductID(item.ProviderProductID)
}

// applyExchangeRate 汇率可用时补充换算后的订单金额与预估毛利，
// 最便宜物流方式不以供应商币种计价时不计算毛利
func (s *ShippingQuoteService) applyExchangeRate(ctx context.Context, order *models.Order, quote *ShippingQuote) {
	if s.rates == nil || strings.TrimSpace(order.Currency) == "" {
		return
	}
	rate, err := s.rates.Rate(ctx, order.Currency, s.providerCurrency)
	if err != nil {
		logger.ForOrder(order.ID).Infow("shipping_quote_rate_unavailable", "from", order.Currency, "to", s.providerCurrency, "error", err)
		return
	}
	rateValue := rate.Rate
	quote.ExchangeRate = &rateValue
	quote.RateStale = rate.Stale
	converted := models.NewMoneyFromDecimal(rate.Convert(order.TotalAmount.Decimal))
	quote.ConvertedTotal = &converted
	if quote.LandedCost == nil || quote.Cheapest == nil {
		return
	}
	if !strings.EqualFold(quote.Cheapest.Currency, s.providerCurrency) {
		return
	}
	margin := models.NewMoneyFromDecimal(converted.Sub(quote.LandedCost.Decimal).Sub(quote.Cheapest.Price.Decimal))
	quote.EstimatedMargin = &margin
}

package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/models"
)

// FulfillmentProvider 代发货供应商能力，由 dropship.Client 实现
type FulfillmentProvider interface {
	CreateOrder(ctx context.Context, req dropship.CreateOrderRequest) dropship.Result[dropship.CreatedOrder]
	GetOrderDetail(ctx context.Context, externalOrderID string) dropship.Result[dropship.OrderDetail]
	GetShippingMethods(ctx context.Context, req dropship.ShippingQuoteRequest) dropship.Result[[]dropship.ShippingMethod]
	GetProduct(ctx context.Context, providerProductID string) dropship.Result[dropship.ProductInfo]
	GetProductVariants(ctx context.Context, providerProductID string) dropship.Result[[]dropship.ProductVariant]
	GetTracking(ctx context.Context, trackingNumber string) dropship.Result[dropship.TrackingInfo]
}

// itemVID 供应商商品行标识：规格ID > 供应商商品ID > 本地商品ID
func itemVID(item models.OrderItem) string {
	if item.VariantID != nil {
		if vid := strings.TrimSpace(*item.VariantID); vid != "" {
			return vid
		}
	}
	if pid := strings.TrimSpace(item.ProviderProductID); pid != "" {
		return pid
	}
	return strconv.FormatUint(uint64(item.ProductID), 10)
}

func buildOrderProducts(items []models.OrderItem) []dropship.OrderProduct {
	products := make([]dropship.OrderProduct, 0, len(items))
	for _, item := range items {
		products = append(products, dropship.OrderProduct{
			VID:      itemVID(item),
			Quantity: item.Quantity,
		})
	}
	return products
}

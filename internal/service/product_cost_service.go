package service

import (
	"context"
	"strings"
	"time"

	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductCostResult 成本同步结果
type ProductCostResult struct {
	ProductID         uint         `json:"product_id"`
	ProviderProductID string       `json:"provider_product_id"`
	PreviousCost      models.Money `json:"previous_cost"`
	BasePrice         models.Money `json:"base_price"`
	VariantCount      int          `json:"variant_count"`
	SyncedAt          time.Time    `json:"synced_at"`
}

// ProductCostService 从供应商同步商品到岸成本
type ProductCostService struct {
	productRepo repository.ProductRepository
	provider    FulfillmentProvider
	now         func() time.Time
}

// NewProductCostService 创建成本同步服务
func NewProductCostService(productRepo repository.ProductRepository, provider FulfillmentProvider) *ProductCostService {
	return &ProductCostService{
		productRepo: productRepo,
		provider:    provider,
		now:         time.Now,
	}
}

// Sync 以最低的有效规格价（或商品售价）作为商品成本
func (s *ProductCostService) Sync(ctx context.Context, productID uint) (*ProductCostResult, error) {
	if productID == 0 {
		return nil, ErrInvalidProductID
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	pid := strings.TrimSpace(product.ProviderProductID)
	if pid == "" {
		return nil, ErrProductNotLinked
	}

	info := s.provider.GetProduct(ctx, pid)
	if !info.Ok() {
		return nil, newUpstreamError("get_product", info.Message())
	}
	variants := s.provider.GetProductVariants(ctx, pid)
	if !variants.Ok() {
		return nil, newUpstreamError("get_product_variants", variants.Message())
	}

	cost := lowestPositivePrice(variants.Value())
	if !cost.IsPositive() {
		cost = info.Value().SellPrice.Decimal
	}
	if !cost.IsPositive() {
		return nil, newUpstreamError("get_product", "provider returned no usable price")
	}

	now := s.now()
	basePrice := models.NewMoneyFromDecimal(cost)
	if err := s.productRepo.UpdateCost(product.ID, basePrice, now); err != nil {
		return nil, wrapPersistence(err)
	}
	logger.Infow("product_cost_synced",
		"product_id", product.ID,
		"provider_product_id", pid,
		"previous_cost", product.BasePrice.String(),
		"base_price", basePrice.String(),
	)
	return &ProductCostResult{
		ProductID:         product.ID,
		ProviderProductID: pid,
		PreviousCost:      product.BasePrice,
		BasePrice:         basePrice,
		VariantCount:      len(variants.Value()),
		SyncedAt:          now,
	}, nil
}

func lowestPositivePrice(variants []dropship.ProductVariant) decimal.Decimal {
	lowest := decimal.Zero
	for _, variant := range variants {
		price := variant.SellPrice.Decimal
		if !price.IsPositive() {
			continue
		}
		if lowest.IsZero() || price.LessThan(lowest) {
			lowest = price
		}
	}
	return lowest
}

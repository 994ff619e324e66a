package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/models"
)

func TestProductCostSyncUsesLowestVariantPrice(t *testing.T) {
	env := setupServiceTest(t)
	product := &models.Product{Title: "Lamp", ProviderProductID: "PID-LAMP", BasePrice: models.MustMoney("9.99")}
	if err := env.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	env.provider.productResult = dropship.Success(dropship.ProductInfo{PID: "PID-LAMP", SellPrice: price("8.00")})
	env.provider.variants = dropship.Success([]dropship.ProductVariant{
		{VID: "V1", SellPrice: price("7.25")},
		{VID: "V2", SellPrice: price("0")},
		{VID: "V3", SellPrice: price("6.80")},
	})
	svc := NewProductCostService(env.productRepo, env.provider)

	result, err := svc.Sync(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.BasePrice.String() != "6.80" || result.PreviousCost.String() != "9.99" || result.VariantCount != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	stored, err := env.productRepo.GetByID(product.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if stored.BasePrice.String() != "6.80" || stored.CostSyncedAt == nil {
		t.Fatalf("unexpected stored product: %+v", stored)
	}
}

func TestProductCostSyncFallsBackToSellPrice(t *testing.T) {
	env := setupServiceTest(t)
	product := &models.Product{ProviderProductID: "PID-BAG"}
	if err := env.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	env.provider.productResult = dropship.Success(dropship.ProductInfo{PID: "PID-BAG", SellPrice: price("15.10")})
	env.provider.variants = dropship.Success([]dropship.ProductVariant{})
	svc := NewProductCostService(env.productRepo, env.provider)

	result, err := svc.Sync(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.BasePrice.String() != "15.10" {
		t.Fatalf("expected sell price fallback, got %s", result.BasePrice.String())
	}
}

func TestProductCostSyncErrors(t *testing.T) {
	env := setupServiceTest(t)
	svc := NewProductCostService(env.productRepo, env.provider)

	if _, err := svc.Sync(context.Background(), 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Sync(context.Background(), 77); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	unlinked := &models.Product{Title: "Local only"}
	if err := env.productRepo.Create(unlinked); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := svc.Sync(context.Background(), unlinked.ID); !errors.Is(err, ErrProductNotLinked) {
		t.Fatalf("expected not linked, got %v", err)
	}

	linked := &models.Product{ProviderProductID: "PID-X", BasePrice: models.MustMoney("1.00")}
	if err := env.productRepo.Create(linked); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := svc.Sync(context.Background(), linked.ID); !errors.Is(err, ErrUpstreamProvider) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	stored, _ := env.productRepo.GetByID(linked.ID)
	if stored.BasePrice.String() != "1.00" || stored.CostSyncedAt != nil {
		t.Fatalf("product must be untouched on upstream failure: %+v", stored)
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db              *gorm.DB
	orderRepo       *repository.GormOrderRepository
	fulfillmentRepo *repository.GormFulfillmentRepository
	productRepo     *repository.GormProductRepository
	userRepo        *repository.GormUserRepository
	provider        *providerStub
	dispatcher      *dispatcherStub
	statusService   *OrderStatusService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 共享缓存的内存库并发写会锁表，测试中串行化连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.FulfillmentRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &serviceTestEnv{
		db:              db,
		orderRepo:       repository.NewOrderRepository(db),
		fulfillmentRepo: repository.NewFulfillmentRepository(db),
		productRepo:     repository.NewProductRepository(db),
		userRepo:        repository.NewUserRepository(db),
		provider:        newProviderStub(),
		dispatcher:      &dispatcherStub{},
	}
	env.statusService = NewOrderStatusService(env.orderRepo, env.userRepo, env.dispatcher, nil)
	return env
}

// seedPaidOrder 写入一个已支付、待下单的订单
func (e *serviceTestEnv) seedPaidOrder(t *testing.T, orderNo string, items ...models.OrderItem) *models.Order {
	t.Helper()
	return e.seedOrder(t, &models.Order{
		OrderNo:          orderNo,
		Status:           constants.OrderStatusPending,
		PaymentStatus:    constants.PaymentStatusPaid,
		Currency:         "ZAR",
		TotalAmount:      models.MustMoney("500.00"),
		ShippingName:     "Thandi Mokoena",
		ShippingPhone:    "+27 82 000 0000",
		ShippingAddress1: "12 Long Street",
		ShippingAddress2: "Unit 4",
		ShippingCity:     "Cape Town",
		ShippingProvince: "Western Cape",
		ShippingZip:      "8001",
		ShippingCountry:  "South Africa",
		BillingName:      "Thandi",
		BillingEmail:     "thandi@example.com",
	}, items...)
}

func (e *serviceTestEnv) seedOrder(t *testing.T, order *models.Order, items ...models.OrderItem) *models.Order {
	t.Helper()
	if len(items) == 0 {
		items = []models.OrderItem{{ProviderProductID: "PID-1", Quantity: 1, UnitPrice: models.MustMoney("500.00"), TotalPrice: models.MustMoney("500.00")}}
	}
	if err := e.orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (e *serviceTestEnv) seedRecord(t *testing.T, record *models.FulfillmentRecord) {
	t.Helper()
	if err := e.db.Create(record).Error; err != nil {
		t.Fatalf("create fulfillment record failed: %v", err)
	}
}

func (e *serviceTestEnv) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := e.orderRepo.GetByID(id)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order
}

func strPtr(value string) *string {
	return &value
}

type providerStub struct {
	mu sync.Mutex

	createResult  dropship.Result[dropship.CreatedOrder]
	createCalls   int
	lastCreate    dropship.CreateOrderRequest
	detailResult  dropship.Result[dropship.OrderDetail]
	detailCalls   int
	methodsResult dropship.Result[[]dropship.ShippingMethod]
	lastQuote     dropship.ShippingQuoteRequest
	productResult dropship.Result[dropship.ProductInfo]
	variants      dropship.Result[[]dropship.ProductVariant]
	tracking      map[string]dropship.Result[dropship.TrackingInfo]
	trackingCalls int
}

func newProviderStub() *providerStub {
	return &providerStub{
		createResult:  dropship.Failure[dropship.CreatedOrder]("create order not stubbed"),
		detailResult:  dropship.Failure[dropship.OrderDetail]("order detail not stubbed"),
		methodsResult: dropship.Failure[[]dropship.ShippingMethod]("shipping methods not stubbed"),
		productResult: dropship.Failure[dropship.ProductInfo]("product not stubbed"),
		variants:      dropship.Failure[[]dropship.ProductVariant]("variants not stubbed"),
		tracking:      map[string]dropship.Result[dropship.TrackingInfo]{},
	}
}

func (p *providerStub) CreateOrder(_ context.Context, req dropship.CreateOrderRequest) dropship.Result[dropship.CreatedOrder] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	p.lastCreate = req
	return p.createResult
}

func (p *providerStub) GetOrderDetail(_ context.Context, _ string) dropship.Result[dropship.OrderDetail] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailCalls++
	return p.detailResult
}

func (p *providerStub) GetShippingMethods(_ context.Context, req dropship.ShippingQuoteRequest) dropship.Result[[]dropship.ShippingMethod] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastQuote = req
	return p.methodsResult
}

func (p *providerStub) GetProduct(_ context.Context, _ string) dropship.Result[dropship.ProductInfo] {
	return p.productResult
}

func (p *providerStub) GetProductVariants(_ context.Context, _ string) dropship.Result[[]dropship.ProductVariant] {
	return p.variants
}

func (p *providerStub) GetTracking(_ context.Context, trackingNumber string) dropship.Result[dropship.TrackingInfo] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trackingCalls++
	if result, ok := p.tracking[trackingNumber]; ok {
		return result
	}
	return dropship.Failure[dropship.TrackingInfo]("tracking info not found")
}

func (p *providerStub) calls() (create int, tracking int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls, p.trackingCalls
}

type dispatcherStub struct {
	mu   sync.Mutex
	sent []StatusEmail
	err  error
}

func (d *dispatcherStub) DispatchOrderStatus(_ context.Context, email StatusEmail) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	d.sent = append(d.sent, email)
	return true, nil
}

func (d *dispatcherStub) emails() []StatusEmail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]StatusEmail(nil), d.sent...)
}

package main

import (
	"time"

	"github.com/dropsync-next/internal/config"
	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/repository"

	"github.com/shopspring/decimal"
)

// 写入本地联调用的演示数据，可重复执行
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	products := []models.Product{
		{Title: "Wireless Earbuds", ProviderProductID: "1468225491234567890", BasePrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(8.40))},
		{Title: "Silicone Phone Case", ProviderProductID: "1468225491234567891", BasePrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.95))},
		{Title: "Local Gift Wrap"},
	}
	for i := range products {
		var existing models.Product
		if err := models.DB.Where("title = ?", products[i].Title).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", products[i].Title)
			products[i] = existing
			continue
		}
		if err := models.DB.Create(&products[i]).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", products[i].Title, err)
			continue
		}
		stdLog.Printf("Created product: %s", products[i].Title)
	}

	user := models.User{Email: "lerato@example.com", DisplayName: "Lerato"}
	if err := models.DB.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
		stdLog.Fatalf("Failed to create user: %v", err)
	}

	orderRepo := repository.NewOrderRepository(models.DB)
	now := time.Now()
	seeds := []struct {
		order     models.Order
		createdAt time.Time
	}{
		{
			// 已支付，等待提交供应商
			order: demoOrder("DS-DEMO-0001", user.ID, constants.PaymentStatusPaid, constants.OrderStatusPending, "South Africa"),
		},
		{
			// 超过宽限期未支付，会被清理任务删除
			order:     demoOrder("DS-DEMO-0002", 0, constants.PaymentStatusPending, constants.OrderStatusPending, "ZA"),
			createdAt: now.Add(-2 * time.Hour),
		},
		{
			// 游客订单，仅有联系邮箱
			order: demoOrder("DS-DEMO-0003", 0, constants.PaymentStatusPaid, constants.OrderStatusPending, "Namibia"),
		},
	}
	for _, seed := range seeds {
		var count int64
		models.DB.Model(&models.Order{}).Where("order_no = ?", seed.order.OrderNo).Count(&count)
		if count > 0 {
			stdLog.Printf("Order already exists: %s", seed.order.OrderNo)
			continue
		}
		order := seed.order
		items := []models.OrderItem{
			{ProductID: products[0].ID, ProviderProductID: products[0].ProviderProductID, Quantity: 1, UnitPrice: models.MustMoney("349.00"), TotalPrice: models.MustMoney("349.00")},
			{ProductID: products[1].ID, ProviderProductID: products[1].ProviderProductID, Quantity: 2, UnitPrice: models.MustMoney("75.50"), TotalPrice: models.MustMoney("151.00")},
		}
		if err := orderRepo.Create(&order, items); err != nil {
			stdLog.Printf("Failed to create order %s: %v", order.OrderNo, err)
			continue
		}
		if !seed.createdAt.IsZero() {
			models.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("created_at", seed.createdAt)
		}
		stdLog.Printf("Created order: %s (id=%d)", order.OrderNo, order.ID)
	}

	stdLog.Println("Seed completed")
}

func demoOrder(orderNo string, userID uint, paymentStatus, status, country string) models.Order {
	billingEmail := ""
	if userID == 0 {
		billingEmail = "guest@example.com"
	}
	return models.Order{
		OrderNo:          orderNo,
		UserID:           userID,
		Status:           status,
		PaymentStatus:    paymentStatus,
		Currency:         "ZAR",
		TotalAmount:      models.MustMoney("500.00"),
		ShippingName:     "Lerato Dlamini",
		ShippingPhone:    "+27 82 555 0101",
		ShippingAddress1: "45 Main Road",
		ShippingAddress2: "Apartment 7",
		ShippingCity:     "Johannesburg",
		ShippingProvince: "Gauteng",
		ShippingZip:      "2001",
		ShippingCountry:  country,
		BillingName:      "Lerato Dlamini",
		BillingEmail:     billingEmail,
	}
}

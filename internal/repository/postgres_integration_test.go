//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.FulfillmentRecord{},
		&models.OrderItem{},
		&models.Order{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.FulfillmentRecord{}); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresClaimPlacementConcurrent(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	orders := NewOrderRepository(db)
	order := &models.Order{OrderNo: "DS-PG-1", Status: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPaid, Currency: "ZAR"}
	if err := orders.Create(order, []models.OrderItem{{ProviderProductID: "PID-1", Quantity: 1}}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	repo := NewFulfillmentRepository(db)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.ClaimPlacement(order.ID, time.Now())
			if err != nil {
				t.Errorf("claim placement failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("exactly one claim should win, got %d", created)
	}
}

func TestPostgresStaleDeleteAndCoalesce(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	stale := &models.Order{OrderNo: "DS-PG-2", Status: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPending, Currency: "ZAR"}
	if err := repo.Create(stale, []models.OrderItem{{ProviderProductID: "PID-1", Quantity: 1}}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Order{}).Where("id = ?", stale.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("age order failed: %v", err)
	}

	cutoff := time.Now().Add(-15 * time.Minute)
	ids, err := repo.ListStaleIDs(cutoff)
	if err != nil || len(ids) != 1 {
		t.Fatalf("expected one stale id, got %v err=%v", ids, err)
	}
	deleted, err := repo.DeleteStaleByIDs(ids, cutoff)
	if err != nil || deleted != 1 {
		t.Fatalf("expected one deleted row, got %d err=%v", deleted, err)
	}

	paid := &models.Order{OrderNo: "DS-PG-3", Status: constants.OrderStatusProcessing, PaymentStatus: constants.PaymentStatusPaid, Currency: "ZAR"}
	if err := repo.Create(paid, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	first := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	ok, err := repo.UpdateStatus(paid.ID, constants.OrderStatusProcessing, constants.OrderStatusShipped, map[string]interface{}{
		"shipped_at": gorm.Expr("COALESCE(shipped_at, ?)", first),
	})
	if err != nil || !ok {
		t.Fatalf("update status failed: ok=%v err=%v", ok, err)
	}
	reloaded, err := repo.GetByID(paid.ID)
	if err != nil || reloaded.ShippedAt == nil || !reloaded.ShippedAt.Equal(first) {
		t.Fatalf("shipped_at should be written once, got %+v err=%v", reloaded, err)
	}
}

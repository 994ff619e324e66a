package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupFulfillmentRepositoryTest(t *testing.T) (*GormFulfillmentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:fulfillment_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.FulfillmentRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewFulfillmentRepository(db), db
}

func TestFulfillmentClaimPlacementOnlyOnce(t *testing.T) {
	repo, db := setupFulfillmentRepositoryTest(t)
	now := time.Now().UTC()

	record, created, err := repo.ClaimPlacement(11, now)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if !created || record == nil || record.Status != constants.FulfillmentStatusSubmitting {
		t.Fatalf("expected submitting record created, got created=%v record=%+v", created, record)
	}

	again, created, err := repo.ClaimPlacement(11, now.Add(time.Second))
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if created {
		t.Fatalf("second claim must not create a record")
	}
	if again == nil || again.ID != record.ID {
		t.Fatalf("expected existing record returned, got %+v", again)
	}

	var count int64
	if err := db.Model(&models.FulfillmentRecord{}).Where("order_id = ?", 11).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one record, got %d", count)
	}
}

func TestFulfillmentUniqueIndexRejectsDuplicate(t *testing.T) {
	_, db := setupFulfillmentRepositoryTest(t)
	first := &models.FulfillmentRecord{OrderID: 12, Status: constants.FulfillmentStatusPlaced}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	err := db.Create(&models.FulfillmentRecord{OrderID: 12, Status: constants.FulfillmentStatusPlaced}).Error
	if err == nil {
		t.Fatalf("expected unique violation")
	}
	if !isDuplicateKeyError(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestFulfillmentClaimRetryOnlyFromFailed(t *testing.T) {
	repo, _ := setupFulfillmentRepositoryTest(t)
	now := time.Now().UTC()
	if _, _, err := repo.ClaimPlacement(21, now); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	ok, err := repo.ClaimRetry(21, now, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("retry claim failed: %v", err)
	}
	if ok {
		t.Fatalf("retry must not win while submitting")
	}

	if err := repo.MarkFailed(21, "out of stock", now); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	ok, err = repo.ClaimRetry(21, now.Add(time.Minute), now)
	if err != nil || !ok {
		t.Fatalf("expected retry claim to win, ok=%v err=%v", ok, err)
	}
	ok, err = repo.ClaimRetry(21, now.Add(time.Minute), now)
	if err != nil || ok {
		t.Fatalf("expected second retry claim to lose, ok=%v err=%v", ok, err)
	}

	record, err := repo.GetByOrderID(21)
	if err != nil || record == nil {
		t.Fatalf("get record failed: %v", err)
	}
	if record.Status != constants.FulfillmentStatusSubmitting {
		t.Fatalf("expected submitting, got %s", record.Status)
	}
	if record.AttemptCount != 2 {
		t.Fatalf("expected attempt_count 2, got %d", record.AttemptCount)
	}
	if record.ErrorMessage != nil {
		t.Fatalf("expected error message cleared, got %v", *record.ErrorMessage)
	}
}

func TestFulfillmentClaimRetryReclaimsStaleSubmitting(t *testing.T) {
	repo, _ := setupFulfillmentRepositoryTest(t)
	startedAt := time.Now().UTC().Add(-10 * time.Minute)
	if _, _, err := repo.ClaimPlacement(22, startedAt); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	now := time.Now().UTC()
	ok, err := repo.ClaimRetry(22, now, startedAt.Add(-time.Second))
	if err != nil || ok {
		t.Fatalf("recent submitting record must not be reclaimed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.ClaimRetry(22, now, now.Add(-time.Minute))
	if err != nil || !ok {
		t.Fatalf("expected stale submitting record to be reclaimed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.ClaimRetry(22, now, now.Add(-time.Minute))
	if err != nil || ok {
		t.Fatalf("second reclaim must lose, ok=%v err=%v", ok, err)
	}

	record, err := repo.GetByOrderID(22)
	if err != nil || record == nil {
		t.Fatalf("get record failed: %v", err)
	}
	if record.Status != constants.FulfillmentStatusSubmitting || record.AttemptCount != 2 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestFulfillmentMarkPlacedAndUpdateTracking(t *testing.T) {
	repo, _ := setupFulfillmentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	if _, _, err := repo.ClaimPlacement(31, now); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := repo.MarkPlaced(31, PlacedUpdate{
		ExternalOrderID:     "CJ-1",
		ExternalOrderNumber: "DS-31",
		ExternalStatus:      "CREATED",
		LogisticName:        "CJPacket",
		At:                  now,
	}); err != nil {
		t.Fatalf("mark placed failed: %v", err)
	}
	if err := repo.UpdateTracking(31, TrackingUpdate{
		TrackingNumber: "TRK-31",
		TrackingURL:    "https://track.example.com/TRK-31",
		Stage:          constants.TrackingStageEnRoute,
		At:             now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("update tracking failed: %v", err)
	}

	record, err := repo.GetByOrderID(31)
	if err != nil || record == nil {
		t.Fatalf("get record failed: %v", err)
	}
	if record.Status != constants.FulfillmentStatusPlaced || record.ExternalOrderID != "CJ-1" {
		t.Fatalf("unexpected placed fields: %+v", record)
	}
	if record.ExternalStatus != "CREATED" {
		t.Fatalf("empty external status must not overwrite, got %q", record.ExternalStatus)
	}
	if record.TrackingNumber != "TRK-31" || record.TrackingStage != constants.TrackingStageEnRoute {
		t.Fatalf("unexpected tracking fields: %+v", record)
	}
	if record.PlacedAt == nil || !record.PlacedAt.Equal(now) {
		t.Fatalf("unexpected placed_at: %v", record.PlacedAt)
	}
}

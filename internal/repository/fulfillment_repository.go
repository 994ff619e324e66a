package repository

import (
	"errors"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/models"

	"gorm.io/gorm"
)

// FulfillmentRepository 履约记录数据访问接口
type FulfillmentRepository interface {
	ClaimPlacement(orderID uint, now time.Time) (*models.FulfillmentRecord, bool, error)
	ClaimRetry(orderID uint, now, staleBefore time.Time) (bool, error)
	GetByOrderID(orderID uint) (*models.FulfillmentRecord, error)
	MarkPlaced(orderID uint, placed PlacedUpdate) error
	MarkFailed(orderID uint, message string, now time.Time) error
	UpdateTracking(orderID uint, tracking TrackingUpdate) error
}

// GormFulfillmentRepository GORM 实现
type GormFulfillmentRepository struct {
	db *gorm.DB
}

// NewFulfillmentRepository 创建履约记录仓库
func NewFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

// ClaimPlacement 占用订单的下单权。
// 返回 created=false 表示记录已存在，此时 record 为已有记录。
func (r *GormFulfillmentRepository) ClaimPlacement(orderID uint, now time.Time) (*models.FulfillmentRecord, bool, error) {
	var claimed *models.FulfillmentRecord
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		existing, err := getFulfillmentByOrderID(tx, orderID)
		if err != nil {
			return err
		}
		if existing != nil {
			claimed = existing
			return nil
		}
		record := &models.FulfillmentRecord{
			OrderID:       orderID,
			Status:        constants.FulfillmentStatusSubmitting,
			AttemptCount:  1,
			LastAttemptAt: &now,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		claimed = record
		created = true
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			existing, getErr := r.GetByOrderID(orderID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return claimed, created, nil
}

// ClaimRetry 将失败记录重新置为提交中，并发调用只有一个会成功。
// 最近尝试早于 staleBefore 的 submitting 记录视为中断的提交，同样可以重新占用。
func (r *GormFulfillmentRepository) ClaimRetry(orderID uint, now, staleBefore time.Time) (bool, error) {
	result := r.db.Model(&models.FulfillmentRecord{}).
		Where("order_id = ?", orderID).
		Where("status = ? OR (status = ? AND last_attempt_at < ?)",
			constants.FulfillmentStatusFailed, constants.FulfillmentStatusSubmitting, staleBefore).
		Updates(map[string]interface{}{
			"status":          constants.FulfillmentStatusSubmitting,
			"attempt_count":   gorm.Expr("attempt_count + ?", 1),
			"last_attempt_at": now,
			"error_message":   nil,
			"updated_at":      now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetByOrderID 根据订单 ID 获取履约记录
func (r *GormFulfillmentRepository) GetByOrderID(orderID uint) (*models.FulfillmentRecord, error) {
	return getFulfillmentByOrderID(r.db, orderID)
}

func getFulfillmentByOrderID(db *gorm.DB, orderID uint) (*models.FulfillmentRecord, error) {
	var record models.FulfillmentRecord
	if err := db.Where("order_id = ?", orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// MarkPlaced 写入供应商下单成功结果
func (r *GormFulfillmentRepository) MarkPlaced(orderID uint, placed PlacedUpdate) error {
	return r.db.Model(&models.FulfillmentRecord{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":                constants.FulfillmentStatusPlaced,
			"external_order_id":     placed.ExternalOrderID,
			"external_order_number": placed.ExternalOrderNumber,
			"external_status":       placed.ExternalStatus,
			"tracking_number":       placed.TrackingNumber,
			"logistic_name":         placed.LogisticName,
			"error_message":         nil,
			"placed_at":             placed.At,
			"last_synced_at":        placed.At,
			"updated_at":            placed.At,
		}).Error
}

// MarkFailed 写入供应商下单失败信息
func (r *GormFulfillmentRepository) MarkFailed(orderID uint, message string, now time.Time) error {
	return r.db.Model(&models.FulfillmentRecord{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":        constants.FulfillmentStatusFailed,
			"error_message": message,
			"updated_at":    now,
		}).Error
}

// UpdateTracking 写入最新物流信息
func (r *GormFulfillmentRepository) UpdateTracking(orderID uint, tracking TrackingUpdate) error {
	updates := map[string]interface{}{
		"tracking_number": tracking.TrackingNumber,
		"tracking_stage":  tracking.Stage,
		"last_synced_at":  tracking.At,
		"updated_at":      tracking.At,
	}
	if tracking.TrackingURL != "" {
		updates["tracking_url"] = tracking.TrackingURL
	}
	if tracking.ExternalStatus != "" {
		updates["external_status"] = tracking.ExternalStatus
	}
	return r.db.Model(&models.FulfillmentRecord{}).Where("order_id = ?", orderID).Updates(updates).Error
}

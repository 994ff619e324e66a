package repository

import (
	"errors"
	"time"

	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	ListStaleIDs(cutoff time.Time) ([]uint, error)
	DeleteStaleByIDs(ids []uint, cutoff time.Time) (int64, error)
	ListInFlightIDs(statuses []string, limit int) ([]uint, error)
	UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取订单（含订单项与履约记录）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Fulfillment").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) staleScope(query *gorm.DB, cutoff time.Time) *gorm.DB {
	return query.Where("status = ? AND payment_status = ? AND created_at <= ?",
		constants.OrderStatusPending, constants.PaymentStatusPending, cutoff)
}

// ListStaleIDs 查询创建时间不晚于 cutoff 且仍未支付的订单
func (r *GormOrderRepository) ListStaleIDs(cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := r.staleScope(r.db.Model(&models.Order{}), cutoff).
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteStaleByIDs 在同一事务内删除订单及其订单项。
// 删除时再次校验过期条件，期间已支付的订单会被保留。
func (r *GormOrderRepository) DeleteStaleByIDs(ids []uint, cutoff time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var confirmed []uint
		if err := r.staleScope(tx.Model(&models.Order{}), cutoff).
			Where("id IN ?", ids).
			Pluck("id", &confirmed).Error; err != nil {
			return err
		}
		if len(confirmed) == 0 {
			return nil
		}
		if err := tx.Where("order_id IN ?", confirmed).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", confirmed).Delete(&models.Order{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListInFlightIDs 按更新时间升序返回处于指定状态的订单
func (r *GormOrderRepository) ListInFlightIDs(statuses []string, limit int) ([]uint, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := r.db.Model(&models.Order{}).
		Where("status IN ?", statuses).
		Order("updated_at asc").
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateStatus 仅当订单仍处于 fromStatus 时更新为 toStatus，返回是否实际更新
func (r *GormOrderRepository) UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error) {
	payload := map[string]interface{}{
		"status": toStatus,
	}
	for key, value := range updates {
		payload[key] = value
	}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(payload)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dropsync-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品成本数据访问接口
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByProviderProductID(providerProductID string) (*models.Product, error)
	UpdateCost(id uint, basePrice models.Money, syncedAt time.Time) error
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByProviderProductID 根据供应商商品 ID 获取商品
func (r *GormProductRepository) GetByProviderProductID(providerProductID string) (*models.Product, error) {
	providerProductID = strings.TrimSpace(providerProductID)
	if providerProductID == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Where("provider_product_id = ?", providerProductID).Order("id asc").First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// UpdateCost 更新到岸成本
func (r *GormProductRepository) UpdateCost(id uint, basePrice models.Money, syncedAt time.Time) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"base_price":     basePrice,
		"cost_synced_at": syncedAt,
		"updated_at":     syncedAt,
	}).Error
}

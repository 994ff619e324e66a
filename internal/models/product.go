package models

import (
	"time"
)

// Product 商品成本表
type Product struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                    // 主键
	Title             string     `gorm:"type:varchar(255)" json:"title"`                          // 标题
	ProviderProductID string     `gorm:"type:varchar(64);index" json:"provider_product_id"`       // 供应商商品ID
	BasePrice         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"` // 到岸成本（供应商计价币种）
	CostSyncedAt      *time.Time `json:"cost_synced_at"`                                          // 成本同步时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

package models

import (
	"time"
)

// OrderItem 订单项表，创建后不再修改
type OrderItem struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID           uint      `gorm:"index;not null" json:"order_id"`                            // 订单ID
	ProductID         uint      `gorm:"index;not null;default:0" json:"product_id"`                // 本地商品ID（可为 0）
	ProviderProductID string    `gorm:"type:varchar(64);index" json:"provider_product_id"`         // 供应商商品ID快照
	VariantID         *string   `gorm:"type:varchar(64)" json:"variant_id,omitempty"`              // 供应商规格ID
	Quantity          int       `gorm:"not null" json:"quantity"`                                  // 数量
	UnitPrice         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价
	TotalPrice        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 小计
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

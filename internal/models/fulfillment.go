package models

import (
	"time"
)

// FulfillmentRecord 供应商履约记录表，每个订单至多一条
type FulfillmentRecord struct {
	ID                  uint       `gorm:"primarykey" json:"id"`                                  // 主键
	OrderID             uint       `gorm:"uniqueIndex;not null" json:"order_id"`                  // 订单ID
	Status              string     `gorm:"index;not null" json:"status"`                          // 本地状态（submitting/placed/failed）
	ExternalOrderID     string     `gorm:"type:varchar(64);index" json:"external_order_id"`       // 供应商订单ID
	ExternalOrderNumber string     `gorm:"type:varchar(64)" json:"external_order_number"`         // 供应商订单号
	ExternalStatus      string     `gorm:"type:varchar(64)" json:"external_status"`               // 供应商订单状态
	TrackingNumber      string     `gorm:"type:varchar(128)" json:"tracking_number"`              // 运单号
	TrackingURL         string     `gorm:"type:varchar(512)" json:"tracking_url"`                 // 物流查询地址
	TrackingStage       string     `gorm:"type:varchar(64)" json:"tracking_stage"`                // 物流阶段
	LogisticName        string     `gorm:"type:varchar(120)" json:"logistic_name"`                // 物流方式
	AttemptCount        int        `gorm:"not null;default:0" json:"attempt_count"`               // 下单尝试次数
	ErrorMessage        *string    `gorm:"type:text" json:"error_message,omitempty"`              // 最近一次失败信息
	PlacedAt            *time.Time `gorm:"index" json:"placed_at,omitempty"`                      // 下单成功时间
	LastSyncedAt        *time.Time `gorm:"index" json:"last_synced_at,omitempty"`                 // 最近同步时间
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`                             // 最近尝试时间
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt           time.Time  `gorm:"index" json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (FulfillmentRecord) TableName() string {
	return "fulfillment_records"
}

package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo          string     `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID           uint       `gorm:"index;not null;default:0" json:"user_id,omitempty"`         // 用户ID（游客订单为 0）
	Status           string     `gorm:"index;not null" json:"status"`                              // 订单状态
	PaymentStatus    string     `gorm:"index;not null" json:"payment_status"`                      // 支付状态
	Currency         string     `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	ShippingMethod   string     `gorm:"type:varchar(120)" json:"shipping_method,omitempty"`        // 选定的物流方式
	ShippingName     string     `gorm:"type:varchar(120)" json:"shipping_name"`                    // 收件人
	ShippingPhone    string     `gorm:"type:varchar(64)" json:"shipping_phone"`                    // 收件电话
	ShippingAddress1 string     `gorm:"type:varchar(255)" json:"shipping_address1"`                // 地址行 1
	ShippingAddress2 string     `gorm:"type:varchar(255)" json:"shipping_address2"`                // 地址行 2
	ShippingCity     string     `gorm:"type:varchar(120)" json:"shipping_city"`                    // 城市
	ShippingProvince string     `gorm:"type:varchar(120)" json:"shipping_province"`                // 省份
	ShippingZip      string     `gorm:"type:varchar(32)" json:"shipping_zip"`                      // 邮编
	ShippingCountry  string     `gorm:"type:varchar(64)" json:"shipping_country"`                  // 国家（原始输入）
	BillingName      string     `gorm:"type:varchar(120)" json:"billing_name"`                     // 联系人
	BillingEmail     string     `gorm:"type:varchar(255);index" json:"billing_email"`              // 联系邮箱
	BillingPhone     string     `gorm:"type:varchar(64)" json:"billing_phone"`                     // 联系电话
	Remark           string     `gorm:"type:text" json:"remark,omitempty"`                         // 备注
	ShippedAt        *time.Time `gorm:"index" json:"shipped_at"`                                   // 发货时间（仅首次写入）
	DeliveredAt      *time.Time `gorm:"index" json:"delivered_at"`                                 // 签收时间（仅首次写入）
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                                   // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	// 关联
	Fulfillment *FulfillmentRecord `gorm:"foreignKey:OrderID" json:"fulfillment,omitempty"` // 履约记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

package models

import (
	"time"
)

// User 用户表
type User struct {
	ID          uint      `gorm:"primarykey" json:"id"`           // 主键
	Email       string    `gorm:"index;not null" json:"email"`    // 邮箱
	DisplayName string    `gorm:"default:''" json:"display_name"` // 昵称
	CreatedAt   time.Time `gorm:"index" json:"created_at"`        // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`        // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

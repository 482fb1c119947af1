package models

import (
	"time"

	"gorm.io/gorm"
)

// Store 店铺表（多租户边界，所有业务数据按 store_id 隔离）
type Store struct {
	ID                uint           `gorm:"primarykey" json:"id"`                      // 主键
	Name              string         `gorm:"not null" json:"name"`                      // 店铺名称
	NotificationEmail string         `gorm:"type:varchar(200)" json:"notification_email"` // 通知邮箱
	Currency          string         `gorm:"type:varchar(10);not null" json:"currency"` // 币种
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`    // 是否启用
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Store) TableName() string {
	return "stores"
}

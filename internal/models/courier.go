package models

import (
	"time"

	"gorm.io/gorm"
)

// Courier 配送员表
type Courier struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	StoreID   uint           `gorm:"index;not null" json:"store_id"`         // 所属店铺ID
	CarrierID uint           `gorm:"index;not null" json:"carrier_id"`       // 所属承运商ID
	Name      string         `gorm:"not null" json:"name"`                   // 姓名
	Phone     string         `gorm:"type:varchar(40)" json:"phone"`          // 联系电话
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Courier) TableName() string {
	return "couriers"
}

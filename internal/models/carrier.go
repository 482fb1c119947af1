package models

import (
	"time"

	"gorm.io/gorm"
)

// Carrier 承运商表
type Carrier struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	StoreID   uint           `gorm:"index;not null" json:"store_id"`         // 所属店铺ID
	Name      string         `gorm:"not null" json:"name"`                   // 承运商名称
	Phone     string         `gorm:"type:varchar(40)" json:"phone"`          // 联系电话
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间

	Zones []CarrierZone `gorm:"foreignKey:CarrierID" json:"zones,omitempty"` // 配送区域
}

// TableName 指定表名
func (Carrier) TableName() string {
	return "carriers"
}

// CarrierZone 承运商配送区域表（区域固定运费）
// 区域名匹配目前区分大小写，行为待与业务确认后再调整。
type CarrierZone struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	StoreID   uint           `gorm:"index;not null" json:"store_id"`                // 所属店铺ID
	CarrierID uint           `gorm:"index;not null" json:"carrier_id"`              // 承运商ID
	ZoneName  string         `gorm:"type:varchar(100);not null" json:"zone_name"`   // 区域名称
	Rate      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"rate"` // 固定费率
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`        // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (CarrierZone) TableName() string {
	return "carrier_zones"
}

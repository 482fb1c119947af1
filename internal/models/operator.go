package models

import (
	"time"

	"gorm.io/gorm"
)

// Operator 后台操作员表
type Operator struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                    // 主键
	StoreID            uint           `gorm:"index;not null" json:"store_id"`          // 所属店铺ID
	Username           string         `gorm:"uniqueIndex;not null" json:"username"`    // 登录用户名
	PasswordHash       string         `gorm:"not null" json:"-"`                       // 密码哈希
	DisplayName        string         `gorm:"type:varchar(100)" json:"display_name"`   // 显示名称
	IsSuper            bool           `gorm:"not null;default:false" json:"is_super"`  // 是否超级操作员（跳过模块鉴权）
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`  // 是否启用（禁用后无法登录）
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`             // Token 版本号（改密后失效旧 token）
	TokenInvalidBefore *time.Time     `json:"-"`                                       // 此时间之前签发的 token 一律失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                           // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}

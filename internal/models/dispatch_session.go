package models

import (
	"time"

	"gorm.io/gorm"
)

// DispatchSession 发货批次表
// 一个批次对应一个承运商一次实际出车，批次编号按店铺按天递增，方便口头沟通。
type DispatchSession struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                        // 主键
	StoreID     uint           `gorm:"index:idx_dispatch_store_code,unique;not null" json:"store_id"` // 所属店铺ID
	CarrierID   uint           `gorm:"index;not null" json:"carrier_id"`                            // 承运商ID
	Code        string         `gorm:"index:idx_dispatch_store_code,unique;not null" json:"code"`   // 批次编号（店铺内唯一）
	Status      string         `gorm:"index;not null" json:"status"`                                // 批次状态（open/exported/processed）
	CreatedBy   uint           `gorm:"index;not null" json:"created_by"`                            // 创建操作员ID
	ExportedAt  *time.Time     `json:"exported_at,omitempty"`                                       // 最近导出时间
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`                                      // 处理完成时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	Carrier *Carrier               `gorm:"foreignKey:CarrierID" json:"carrier,omitempty"` // 承运商
	Orders  []DispatchSessionOrder `gorm:"foreignKey:SessionID" json:"orders,omitempty"`  // 批次内订单
}

// TableName 指定表名
func (DispatchSession) TableName() string {
	return "dispatch_sessions"
}

// DispatchSessionOrder 发货批次-订单关联表
// 导入配送结果时会把 outcome / 实收金额记录在关联行上，供后续日结汇总使用。
type DispatchSessionOrder struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                               // 主键
	SessionID       uint      `gorm:"index:idx_dispatch_order,unique;not null" json:"session_id"`         // 批次ID
	OrderID         uint      `gorm:"index:idx_dispatch_order,unique;not null" json:"order_id"`           // 订单ID
	Outcome         string    `gorm:"type:varchar(20)" json:"outcome,omitempty"`                          // 配送结果（delivered/failed/returned）
	AmountCollected Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount_collected"`      // 实收金额
	FailureReason   string    `gorm:"type:varchar(300)" json:"failure_reason,omitempty"`                  // 失败原因
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                            // 创建时间
	UpdatedAt       time.Time `gorm:"index" json:"updated_at"`                                            // 更新时间

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 订单详情
}

// TableName 指定表名
func (DispatchSessionOrder) TableName() string {
	return "dispatch_session_orders"
}

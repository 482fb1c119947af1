package models

import (
	"time"

	"gorm.io/gorm"
)

// Settlement 日结表
// 同一店铺同一承运商同一天最多一条（复合唯一索引保证并发下 upsert 安全）；
// discrepancy 始终等于 collected_cash - expected_cash，由服务层重新计算写入。
type Settlement struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                                        // 主键
	StoreID           uint           `gorm:"index:idx_settlement_key,unique;not null" json:"store_id"`                    // 所属店铺ID
	CarrierID         *uint          `gorm:"index:idx_settlement_key,unique" json:"carrier_id,omitempty"`                 // 承运商ID
	SettlementDate    time.Time      `gorm:"index:idx_settlement_key,unique;not null" json:"settlement_date"`             // 结算日期（已归一化到 UTC 零点）
	ExpectedCash      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"expected_cash"`                  // 应收现金
	CollectedCash     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"collected_cash"`                 // 实收现金
	Discrepancy       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discrepancy"`                    // 差额（实收-应收）
	Status            string         `gorm:"index;not null" json:"status"`                                                // 日结状态
	Notes             string         `gorm:"type:text" json:"notes"`                                                      // 差额说明/备注
	SettledBy         uint           `gorm:"index" json:"settled_by"`                                                     // 结算操作员ID
	DispatchSessionID *uint          `gorm:"index" json:"dispatch_session_id,omitempty"`                                  // 来源发货批次ID（手工对账为空）
	PaidAmount        *Money         `gorm:"type:decimal(20,2)" json:"paid_amount,omitempty"`                             // 打款金额
	PaymentMethod     string         `gorm:"type:varchar(100)" json:"payment_method,omitempty"`                           // 打款方式
	PaymentReference  string         `gorm:"type:varchar(200)" json:"payment_reference,omitempty"`                        // 打款凭证号
	PaymentNotes      string         `gorm:"type:text" json:"payment_notes,omitempty"`                                    // 打款备注
	PaidAt            *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                              // 打款时间
	PaidBy            *uint          `json:"paid_by,omitempty"`                                                           // 打款登记操作员ID
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                                     // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                                     // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                              // 软删除时间

	Carrier *Carrier          `gorm:"foreignKey:CarrierID" json:"carrier,omitempty"`   // 承运商
	Orders  []SettlementOrder `gorm:"foreignKey:SettlementID" json:"orders,omitempty"` // 结算订单明细
}

// TableName 指定表名
func (Settlement) TableName() string {
	return "settlements"
}

// SettlementOrder 日结-订单关联表（金额为结算时刻快照）
type SettlementOrder struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                            // 主键
	SettlementID uint      `gorm:"index:idx_settlement_order,unique;not null" json:"settlement_id"` // 日结ID
	OrderID      uint      `gorm:"index:idx_settlement_order,unique;not null" json:"order_id"`      // 订单ID
	Amount       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`             // 快照金额
	Outcome      string    `gorm:"type:varchar(20)" json:"outcome"`                                 // 配送结果
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                                         // 创建时间

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 订单详情
}

// TableName 指定表名
func (SettlementOrder) TableName() string {
	return "settlement_orders"
}

// NormalizeSettlementDate 结算日期归一化（UTC 零点），复合唯一键按天生效
func NormalizeSettlementDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

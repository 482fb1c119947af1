package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 对账引擎只读写 status / payment_status / settlement_id 等字段，
// 订单的创建与商品明细由上游模块负责。
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                       // 主键
	StoreID       uint           `gorm:"index:idx_orders_store_no,unique;not null" json:"store_id"`  // 所属店铺ID
	OrderNo       string         `gorm:"index:idx_orders_store_no,unique;not null" json:"order_no"`  // 订单编号（店铺内唯一，导出/导入用）
	CarrierID     *uint          `gorm:"index" json:"carrier_id,omitempty"`                          // 承运商ID
	CustomerName  string         `gorm:"type:varchar(200)" json:"customer_name"`                     // 收件人姓名
	Address       string         `gorm:"type:varchar(500)" json:"address"`                           // 收件地址
	Phone         string         `gorm:"type:varchar(40)" json:"phone"`                              // 收件电话
	Zone          string         `gorm:"type:varchar(100)" json:"zone"`                              // 配送区域
	Status        string         `gorm:"index;not null" json:"status"`                               // 配送状态
	TotalPrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`   // 订单总额
	CODAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cod_amount"`    // 货到付款应收金额
	PaymentStatus string         `gorm:"index;not null" json:"payment_status"`                       // 收款状态
	SettlementID  *uint          `gorm:"index" json:"settlement_id,omitempty"`                       // 所属日结ID
	Notes         string         `gorm:"type:text" json:"notes"`                                     // 备注
	DispatchDate  *time.Time     `gorm:"index" json:"dispatch_date,omitempty"`                       // 发货日期（发货时写入）
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Carrier *Carrier `gorm:"foreignKey:CarrierID" json:"carrier,omitempty"` // 承运商
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// AmountToCollect 配送员应收金额：货到付款金额优先，否则取订单总额
func (o Order) AmountToCollect() Money {
	if !o.CODAmount.IsZero() {
		return o.CODAmount
	}
	return o.TotalPrice
}

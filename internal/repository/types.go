package repository

import "time"

// CarrierListFilter 查询承运商列表的过滤条件
type CarrierListFilter struct {
	Page       int
	PageSize   int
	StoreID    uint
	Search     string
	OnlyActive bool
	WithZones  bool
}

// CourierListFilter 查询配送员列表的过滤条件
type CourierListFilter struct {
	Page       int
	PageSize   int
	StoreID    uint
	CarrierID  uint
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	StoreID       uint
	CarrierID     uint
	Status        string
	PaymentStatus string
	Zone          string
	Search        string
	Unsettled     bool
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// DispatchSessionListFilter 查询派送批次列表的过滤条件
type DispatchSessionListFilter struct {
	Page        int
	PageSize    int
	StoreID     uint
	CarrierID   uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SettlementListFilter 查询结算单列表的过滤条件
type SettlementListFilter struct {
	Page      int
	PageSize  int
	StoreID   uint
	CarrierID uint
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
}

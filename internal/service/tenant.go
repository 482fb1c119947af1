package service

// TenantContext 租户上下文：所有业务操作都显式携带店铺与操作员，
// 避免跨店铺读写与无主操作记录。
type TenantContext struct {
	StoreID    uint
	OperatorID uint
}

// Valid 判断租户上下文是否完整
func (t TenantContext) Valid() bool {
	return t.StoreID > 0 && t.OperatorID > 0
}

package repository

import (
	"errors"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	GetByID(storeID, id uint) (*models.Order, error)
	GetByOrderNo(storeID uint, orderNo string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListByIDs(storeID uint, ids []uint) ([]models.Order, error)
	ListDispatchable(storeID, carrierID uint, limit int) ([]models.Order, error)
	ListShippedUnsettled(storeID uint) ([]models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	UpdateStatus(storeID, id uint, status string, updates map[string]interface{}) error
	MarkSettled(ids []uint, settlementID uint) error
	Delete(storeID, id uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByID 获取店铺下订单
func (r *GormOrderRepository) GetByID(storeID, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Carrier").
		Where("store_id = ?", storeID).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(storeID uint, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("store_id = ? AND order_no = ?", storeID, orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 获取订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("store_id = ?", filter.StoreID)
	if filter.CarrierID > 0 {
		query = query.Where("carrier_id = ?", filter.CarrierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Zone != "" {
		query = query.Where("zone = ?", filter.Zone)
	}
	if filter.Unsettled {
		query = query.Where("settlement_id IS NULL")
	}
	if filter.Search != "" {
		condition, argCount := buildKeywordCondition(r.db, []string{"order_no", "customer_name", "phone"})
		query = query.Where(condition, repeatLikeArgs("%"+filter.Search+"%", argCount)...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]models.Order, 0)
	err := applyPagination(query.Preload("Carrier").Order("id DESC"), filter.Page, filter.PageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByIDs 批量获取店铺下订单
func (r *GormOrderRepository) ListByIDs(storeID uint, ids []uint) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(ids))
	if len(ids) == 0 {
		return orders, nil
	}
	err := r.db.Where("store_id = ? AND id IN ?", storeID, ids).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListDispatchable 获取可派送订单：已确认且未被未完成批次占用。
func (r *GormOrderRepository) ListDispatchable(storeID, carrierID uint, limit int) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	subQuery := r.db.Model(&models.DispatchSessionOrder{}).
		Select("dispatch_session_orders.order_id").
		Joins("JOIN dispatch_sessions ON dispatch_sessions.id = dispatch_session_orders.session_id").
		Where("dispatch_sessions.status IN ?", []string{
			constants.DispatchStatusOpen,
			constants.DispatchStatusExported,
		})

	query := r.db.Preload("Carrier").
		Where("store_id = ? AND status = ?", storeID, constants.OrderStatusConfirmed).
		Where("id NOT IN (?)", subQuery)
	if carrierID > 0 {
		query = query.Where("carrier_id = ?", carrierID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListShippedUnsettled 获取已发货且未结算订单，供手工对账分组使用。
func (r *GormOrderRepository) ListShippedUnsettled(storeID uint) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.db.Preload("Carrier").
		Where("store_id = ? AND status = ? AND settlement_id IS NULL", storeID, constants.OrderStatusShipped).
		Order("carrier_id ASC, dispatch_date ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update 更新订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateStatus 更新订单状态及附加字段
func (r *GormOrderRepository) UpdateStatus(storeID, id uint, status string, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": status}
	for key, value := range updates {
		values[key] = value
	}
	return r.db.Model(&models.Order{}).
		Where("store_id = ? AND id = ?", storeID, id).
		Updates(values).Error
}

// MarkSettled 批量绑定结算单并标记回款
func (r *GormOrderRepository) MarkSettled(ids []uint, settlementID uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"settlement_id":  settlementID,
			"payment_status": constants.PaymentStatusCollected,
		}).Error
}

// Delete 删除订单（软删除）
func (r *GormOrderRepository) Delete(storeID, id uint) error {
	return r.db.Where("store_id = ?", storeID).Delete(&models.Order{}, id).Error
}

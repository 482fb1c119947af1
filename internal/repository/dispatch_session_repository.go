package repository

import (
	"errors"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"gorm.io/gorm"
)

// DispatchSessionRepository 派送批次数据访问接口
type DispatchSessionRepository interface {
	GetByID(storeID, id uint) (*models.DispatchSession, error)
	List(filter DispatchSessionListFilter) ([]models.DispatchSession, int64, error)
	CountByCodePrefix(storeID uint, codePrefix string) (int64, error)
	FindBusyOrderIDs(storeID uint, orderIDs []uint) ([]uint, error)
	Create(session *models.DispatchSession) error
	Update(session *models.DispatchSession) error
	UpdateStatus(storeID, id uint, status string, updates map[string]interface{}) error
	UpdateSessionOrder(sessionOrder *models.DispatchSessionOrder) error
	WithTx(tx *gorm.DB) *GormDispatchSessionRepository
}

// GormDispatchSessionRepository GORM 实现
type GormDispatchSessionRepository struct {
	db *gorm.DB
}

// NewDispatchSessionRepository 创建派送批次仓库
func NewDispatchSessionRepository(db *gorm.DB) *GormDispatchSessionRepository {
	return &GormDispatchSessionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDispatchSessionRepository) WithTx(tx *gorm.DB) *GormDispatchSessionRepository {
	if tx == nil {
		return r
	}
	return &GormDispatchSessionRepository{db: tx}
}

// GetByID 获取店铺下派送批次，包含批次订单及订单详情
func (r *GormDispatchSessionRepository) GetByID(storeID, id uint) (*models.DispatchSession, error) {
	var session models.DispatchSession
	err := r.db.Preload("Carrier").
		Preload("Orders").
		Preload("Orders.Order").
		Where("store_id = ?", storeID).
		First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// List 获取派送批次列表
func (r *GormDispatchSessionRepository) List(filter DispatchSessionListFilter) ([]models.DispatchSession, int64, error) {
	query := r.db.Model(&models.DispatchSession{}).Where("store_id = ?", filter.StoreID)
	if filter.CarrierID > 0 {
		query = query.Where("carrier_id = ?", filter.CarrierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	sessions := make([]models.DispatchSession, 0)
	err := applyPagination(query.Preload("Carrier").Order("id DESC"), filter.Page, filter.PageSize).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// CountByCodePrefix 统计批次编号前缀出现次数，用于生成当日序号。
func (r *GormDispatchSessionRepository) CountByCodePrefix(storeID uint, codePrefix string) (int64, error) {
	var count int64
	err := r.db.Model(&models.DispatchSession{}).
		Where("store_id = ? AND code LIKE ?", storeID, codePrefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindBusyOrderIDs 找出已被未完成批次占用的订单，防止重复派送。
func (r *GormDispatchSessionRepository) FindBusyOrderIDs(storeID uint, orderIDs []uint) ([]uint, error) {
	busy := make([]uint, 0)
	if len(orderIDs) == 0 {
		return busy, nil
	}
	err := r.db.Model(&models.DispatchSessionOrder{}).
		Select("dispatch_session_orders.order_id").
		Joins("JOIN dispatch_sessions ON dispatch_sessions.id = dispatch_session_orders.session_id").
		Where("dispatch_sessions.store_id = ?", storeID).
		Where("dispatch_sessions.status IN ?", []string{
			constants.DispatchStatusOpen,
			constants.DispatchStatusExported,
		}).
		Where("dispatch_session_orders.order_id IN ?", orderIDs).
		Find(&busy).Error
	if err != nil {
		return nil, err
	}
	return busy, nil
}

// Create 创建派送批次及其订单关联
func (r *GormDispatchSessionRepository) Create(session *models.DispatchSession) error {
	return r.db.Create(session).Error
}

// Update 更新派送批次
func (r *GormDispatchSessionRepository) Update(session *models.DispatchSession) error {
	return r.db.Save(session).Error
}

// UpdateStatus 更新批次状态及附加字段
func (r *GormDispatchSessionRepository) UpdateStatus(storeID, id uint, status string, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": status}
	for key, value := range updates {
		values[key] = value
	}
	return r.db.Model(&models.DispatchSession{}).
		Where("store_id = ? AND id = ?", storeID, id).
		Updates(values).Error
}

// UpdateSessionOrder 更新批次订单的派送结果
func (r *GormDispatchSessionRepository) UpdateSessionOrder(sessionOrder *models.DispatchSessionOrder) error {
	return r.db.Save(sessionOrder).Error
}

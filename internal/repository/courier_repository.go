package repository

import (
	"errors"

	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"gorm.io/gorm"
)

// CourierRepository 配送员数据访问接口
type CourierRepository interface {
	GetByID(storeID, id uint) (*models.Courier, error)
	List(filter CourierListFilter) ([]models.Courier, int64, error)
	Create(courier *models.Courier) error
	Update(courier *models.Courier) error
	Delete(storeID, id uint) error
}

// GormCourierRepository GORM 实现
type GormCourierRepository struct {
	db *gorm.DB
}

// NewCourierRepository 创建配送员仓库
func NewCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// GetByID 获取店铺下配送员
func (r *GormCourierRepository) GetByID(storeID, id uint) (*models.Courier, error) {
	var courier models.Courier
	err := r.db.Where("store_id = ?", storeID).First(&courier, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &courier, nil
}

// List 获取配送员列表
func (r *GormCourierRepository) List(filter CourierListFilter) ([]models.Courier, int64, error) {
	query := r.db.Model(&models.Courier{}).Where("store_id = ?", filter.StoreID)
	if filter.CarrierID > 0 {
		query = query.Where("carrier_id = ?", filter.CarrierID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		condition, argCount := buildKeywordCondition(r.db, []string{"name", "phone"})
		query = query.Where(condition, repeatLikeArgs("%"+filter.Search+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	couriers := make([]models.Courier, 0)
	err := applyPagination(query.Order("id ASC"), filter.Page, filter.PageSize).
		Find(&couriers).Error
	if err != nil {
		return nil, 0, err
	}
	return couriers, total, nil
}

// Create 创建配送员
func (r *GormCourierRepository) Create(courier *models.Courier) error {
	return r.db.Create(courier).Error
}

// Update 更新配送员
func (r *GormCourierRepository) Update(courier *models.Courier) error {
	return r.db.Save(courier).Error
}

// Delete 删除配送员（软删除）
func (r *GormCourierRepository) Delete(storeID, id uint) error {
	return r.db.Where("store_id = ?", storeID).Delete(&models.Courier{}, id).Error
}

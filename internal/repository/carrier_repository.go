package repository

import (
	"errors"

	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"gorm.io/gorm"
)

// CarrierRepository 承运商数据访问接口
type CarrierRepository interface {
	GetByID(storeID, id uint) (*models.Carrier, error)
	List(filter CarrierListFilter) ([]models.Carrier, int64, error)
	Create(carrier *models.Carrier) error
	Update(carrier *models.Carrier) error
	Delete(storeID, id uint) error
	CountReferences(storeID, id uint) (int64, error)
	GetZone(storeID, carrierID, zoneID uint) (*models.CarrierZone, error)
	FindZoneByName(storeID, carrierID uint, zoneName string) (*models.CarrierZone, error)
	ListZones(storeID, carrierID uint, onlyActive bool) ([]models.CarrierZone, error)
	CreateZone(zone *models.CarrierZone) error
	UpdateZone(zone *models.CarrierZone) error
	DeleteZone(storeID, carrierID, zoneID uint) error
	WithTx(tx *gorm.DB) *GormCarrierRepository
}

// GormCarrierRepository GORM 实现
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewCarrierRepository 创建承运商仓库
func NewCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCarrierRepository) WithTx(tx *gorm.DB) *GormCarrierRepository {
	if tx == nil {
		return r
	}
	return &GormCarrierRepository{db: tx}
}

// GetByID 获取店铺下承运商
func (r *GormCarrierRepository) GetByID(storeID, id uint) (*models.Carrier, error) {
	var carrier models.Carrier
	err := r.db.Preload("Zones").
		Where("store_id = ?", storeID).
		First(&carrier, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &carrier, nil
}

// List 获取承运商列表
func (r *GormCarrierRepository) List(filter CarrierListFilter) ([]models.Carrier, int64, error) {
	query := r.db.Model(&models.Carrier{}).Where("store_id = ?", filter.StoreID)
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

	carriers := make([]models.Carrier, 0)
	listQuery := applyPagination(query.Order("id ASC"), filter.Page, filter.PageSize)
	if filter.WithZones {
		listQuery = listQuery.Preload("Zones")
	}
	if err := listQuery.Find(&carriers).Error; err != nil {
		return nil, 0, err
	}
	return carriers, total, nil
}

// Create 创建承运商
func (r *GormCarrierRepository) Create(carrier *models.Carrier) error {
	return r.db.Create(carrier).Error
}

// Update 更新承运商
func (r *GormCarrierRepository) Update(carrier *models.Carrier) error {
	return r.db.Save(carrier).Error
}

// Delete 删除承运商（软删除）
func (r *GormCarrierRepository) Delete(storeID, id uint) error {
	return r.db.Where("store_id = ?", storeID).Delete(&models.Carrier{}, id).Error
}

// CountReferences 统计承运商被订单、批次、结算单引用的数量
func (r *GormCarrierRepository) CountReferences(storeID, id uint) (int64, error) {
	var total int64
	counts := []struct {
		model interface{}
	}{
		{&models.Order{}},
		{&models.DispatchSession{}},
		{&models.Settlement{}},
	}
	for _, item := range counts {
		var count int64
		err := r.db.Model(item.model).
			Where("store_id = ? AND carrier_id = ?", storeID, id).
			Count(&count).Error
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// GetZone 获取配送区域
func (r *GormCarrierRepository) GetZone(storeID, carrierID, zoneID uint) (*models.CarrierZone, error) {
	var zone models.CarrierZone
	err := r.db.Where("store_id = ? AND carrier_id = ?", storeID, carrierID).
		First(&zone, zoneID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

// FindZoneByName 按名称精确匹配配送区域，区分大小写。
func (r *GormCarrierRepository) FindZoneByName(storeID, carrierID uint, zoneName string) (*models.CarrierZone, error) {
	var zone models.CarrierZone
	err := r.db.Where("store_id = ? AND carrier_id = ? AND zone_name = ? AND is_active = ?",
		storeID, carrierID, zoneName, true).
		First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

// ListZones 获取承运商配送区域列表
func (r *GormCarrierRepository) ListZones(storeID, carrierID uint, onlyActive bool) ([]models.CarrierZone, error) {
	zones := make([]models.CarrierZone, 0)
	query := r.db.Where("store_id = ? AND carrier_id = ?", storeID, carrierID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("zone_name ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// CreateZone 创建配送区域
func (r *GormCarrierRepository) CreateZone(zone *models.CarrierZone) error {
	return r.db.Create(zone).Error
}

// UpdateZone 更新配送区域
func (r *GormCarrierRepository) UpdateZone(zone *models.CarrierZone) error {
	return r.db.Save(zone).Error
}

// DeleteZone 删除配送区域
func (r *GormCarrierRepository) DeleteZone(storeID, carrierID, zoneID uint) error {
	return r.db.Where("store_id = ? AND carrier_id = ?", storeID, carrierID).
		Delete(&models.CarrierZone{}, zoneID).Error
}

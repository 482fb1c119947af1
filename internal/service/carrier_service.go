package service

import (
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
)

// CarrierService 承运商服务
type CarrierService struct {
	carrierRepo repository.CarrierRepository
}

// NewCarrierService 创建承运商服务实例
func NewCarrierService(carrierRepo repository.CarrierRepository) *CarrierService {
	return &CarrierService{carrierRepo: carrierRepo}
}

// CarrierInput 承运商创建/更新入参
type CarrierInput struct {
	Name     string
	Phone    string
	IsActive *bool
}

// ZoneInput 配送区域创建/更新入参
type ZoneInput struct {
	ZoneName string
	Rate     *models.Money
	IsActive *bool
}

// List 查询承运商列表
func (s *CarrierService) List(tenant TenantContext, filter repository.CarrierListFilter) ([]models.Carrier, int64, error) {
	filter.StoreID = tenant.StoreID
	return s.carrierRepo.List(filter)
}

// Get 查询承运商详情
func (s *CarrierService) Get(tenant TenantContext, id uint) (*models.Carrier, error) {
	carrier, err := s.carrierRepo.GetByID(tenant.StoreID, id)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrNotFound
	}
	return carrier, nil
}

// Create 创建承运商
func (s *CarrierService) Create(tenant TenantContext, input CarrierInput) (*models.Carrier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrValidation
	}
	carrier := &models.Carrier{
		StoreID:  tenant.StoreID,
		Name:     name,
		Phone:    strings.TrimSpace(input.Phone),
		IsActive: true,
	}
	if input.IsActive != nil {
		carrier.IsActive = *input.IsActive
	}
	if err := s.carrierRepo.Create(carrier); err != nil {
		return nil, err
	}
	return carrier, nil
}

// Update 更新承运商
func (s *CarrierService) Update(tenant TenantContext, id uint, input CarrierInput) (*models.Carrier, error) {
	carrier, err := s.Get(tenant, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		carrier.Name = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		carrier.Phone = phone
	}
	if input.IsActive != nil {
		carrier.IsActive = *input.IsActive
	}
	if err := s.carrierRepo.Update(carrier); err != nil {
		return nil, err
	}
	return carrier, nil
}

// Delete 删除承运商，存在订单/批次/结算单引用时拒绝
func (s *CarrierService) Delete(tenant TenantContext, id uint) error {
	if _, err := s.Get(tenant, id); err != nil {
		return err
	}
	refs, err := s.carrierRepo.CountReferences(tenant.StoreID, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrCarrierHasReferences
	}
	return s.carrierRepo.Delete(tenant.StoreID, id)
}

// ListZones 查询承运商配送区域
func (s *CarrierService) ListZones(tenant TenantContext, carrierID uint, onlyActive bool) ([]models.CarrierZone, error) {
	if _, err := s.Get(tenant, carrierID); err != nil {
		return nil, err
	}
	return s.carrierRepo.ListZones(tenant.StoreID, carrierID, onlyActive)
}

// CreateZone 创建配送区域，同一承运商下名称唯一
func (s *CarrierService) CreateZone(tenant TenantContext, carrierID uint, input ZoneInput) (*models.CarrierZone, error) {
	if _, err := s.Get(tenant, carrierID); err != nil {
		return nil, err
	}
	zoneName := strings.TrimSpace(input.ZoneName)
	if zoneName == "" || input.Rate == nil || input.Rate.IsNegative() {
		return nil, ErrValidation
	}
	existing, err := s.carrierRepo.FindZoneByName(tenant.StoreID, carrierID, zoneName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrZoneConflict
	}
	zone := &models.CarrierZone{
		StoreID:   tenant.StoreID,
		CarrierID: carrierID,
		ZoneName:  zoneName,
		Rate:      *input.Rate,
		IsActive:  true,
	}
	if input.IsActive != nil {
		zone.IsActive = *input.IsActive
	}
	if err := s.carrierRepo.CreateZone(zone); err != nil {
		return nil, err
	}
	return zone, nil
}

// UpdateZone 更新配送区域
func (s *CarrierService) UpdateZone(tenant TenantContext, carrierID, zoneID uint, input ZoneInput) (*models.CarrierZone, error) {
	zone, err := s.carrierRepo.GetZone(tenant.StoreID, carrierID, zoneID)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, ErrNotFound
	}
	if zoneName := strings.TrimSpace(input.ZoneName); zoneName != "" && zoneName != zone.ZoneName {
		existing, err := s.carrierRepo.FindZoneByName(tenant.StoreID, carrierID, zoneName)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != zone.ID {
			return nil, ErrZoneConflict
		}
		zone.ZoneName = zoneName
	}
	if input.Rate != nil {
		if input.Rate.IsNegative() {
			return nil, ErrValidation
		}
		zone.Rate = *input.Rate
	}
	if input.IsActive != nil {
		zone.IsActive = *input.IsActive
	}
	if err := s.carrierRepo.UpdateZone(zone); err != nil {
		return nil, err
	}
	return zone, nil
}

// DeleteZone 删除配送区域
func (s *CarrierService) DeleteZone(tenant TenantContext, carrierID, zoneID uint) error {
	zone, err := s.carrierRepo.GetZone(tenant.StoreID, carrierID, zoneID)
	if err != nil {
		return err
	}
	if zone == nil {
		return ErrNotFound
	}
	return s.carrierRepo.DeleteZone(tenant.StoreID, carrierID, zoneID)
}

// RateFor 按区域名查询承运商固定运费，名称精确匹配且区分大小写。
// 未配置该区域时返回 ErrNotFound，由调用方决定回退逻辑。
func (s *CarrierService) RateFor(tenant TenantContext, carrierID uint, zoneName string) (models.Money, error) {
	zone, err := s.carrierRepo.FindZoneByName(tenant.StoreID, carrierID, zoneName)
	if err != nil {
		return models.Money{}, err
	}
	if zone == nil {
		return models.Money{}, ErrNotFound
	}
	return zone.Rate, nil
}

package service

import (
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
)

// CourierService 配送员服务
type CourierService struct {
	courierRepo repository.CourierRepository
	carrierRepo repository.CarrierRepository
}

// NewCourierService 创建配送员服务实例
func NewCourierService(courierRepo repository.CourierRepository, carrierRepo repository.CarrierRepository) *CourierService {
	return &CourierService{
		courierRepo: courierRepo,
		carrierRepo: carrierRepo,
	}
}

// CourierInput 配送员创建/更新入参
type CourierInput struct {
	CarrierID uint
	Name      string
	Phone     string
	IsActive  *bool
}

// List 查询配送员列表
func (s *CourierService) List(tenant TenantContext, filter repository.CourierListFilter) ([]models.Courier, int64, error) {
	filter.StoreID = tenant.StoreID
	return s.courierRepo.List(filter)
}

// Get 查询配送员详情
func (s *CourierService) Get(tenant TenantContext, id uint) (*models.Courier, error) {
	courier, err := s.courierRepo.GetByID(tenant.StoreID, id)
	if err != nil {
		return nil, err
	}
	if courier == nil {
		return nil, ErrNotFound
	}
	return courier, nil
}

// Create 创建配送员，必须挂在本店铺已有承运商下
func (s *CourierService) Create(tenant TenantContext, input CourierInput) (*models.Courier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.CarrierID == 0 {
		return nil, ErrValidation
	}
	carrier, err := s.carrierRepo.GetByID(tenant.StoreID, input.CarrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrNotFound
	}
	courier := &models.Courier{
		StoreID:   tenant.StoreID,
		CarrierID: input.CarrierID,
		Name:      name,
		Phone:     strings.TrimSpace(input.Phone),
		IsActive:  true,
	}
	if input.IsActive != nil {
		courier.IsActive = *input.IsActive
	}
	if err := s.courierRepo.Create(courier); err != nil {
		return nil, err
	}
	return courier, nil
}

// Update 更新配送员
func (s *CourierService) Update(tenant TenantContext, id uint, input CourierInput) (*models.Courier, error) {
	courier, err := s.Get(tenant, id)
	if err != nil {
		return nil, err
	}
	if input.CarrierID != 0 && input.CarrierID != courier.CarrierID {
		carrier, err := s.carrierRepo.GetByID(tenant.StoreID, input.CarrierID)
		if err != nil {
			return nil, err
		}
		if carrier == nil {
			return nil, ErrNotFound
		}
		courier.CarrierID = input.CarrierID
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		courier.Name = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		courier.Phone = phone
	}
	if input.IsActive != nil {
		courier.IsActive = *input.IsActive
	}
	if err := s.courierRepo.Update(courier); err != nil {
		return nil, err
	}
	return courier, nil
}

// Delete 删除配送员
func (s *CourierService) Delete(tenant TenantContext, id uint) error {
	if _, err := s.Get(tenant, id); err != nil {
		return err
	}
	return s.courierRepo.Delete(tenant.StoreID, id)
}

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
)

// OrderService 订单服务（对账引擎视角）
type OrderService struct {
	orderRepo   repository.OrderRepository
	carrierRepo repository.CarrierRepository
}

// NewOrderService 创建订单服务实例
func NewOrderService(orderRepo repository.OrderRepository, carrierRepo repository.CarrierRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		carrierRepo: carrierRepo,
	}
}

// 配送状态只允许向前推进，终态之间不可互转
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusReadyToShip: true,
	},
	constants.OrderStatusReadyToShip: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered:      true,
		constants.OrderStatusDeliveryFailed: true,
	},
}

// CanTransition 判断配送状态是否允许从 from 推进到 to
func CanTransition(from, to string) bool {
	targets, ok := allowedTransitions[strings.ToLower(strings.TrimSpace(from))]
	if !ok {
		return false
	}
	return targets[strings.ToLower(strings.TrimSpace(to))]
}

// OrderInput 订单创建/更新入参
type OrderInput struct {
	OrderNo      string
	CarrierID    *uint
	CustomerName string
	Address      string
	Phone        string
	Zone         string
	TotalPrice   *models.Money
	CODAmount    *models.Money
	Notes        string
}

// List 查询订单列表
func (s *OrderService) List(tenant TenantContext, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.StoreID = tenant.StoreID
	return s.orderRepo.List(filter)
}

// Get 查询订单详情
func (s *OrderService) Get(tenant TenantContext, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(tenant.StoreID, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// Create 创建订单，订单号店铺内唯一
func (s *OrderService) Create(tenant TenantContext, input OrderInput) (*models.Order, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" {
		return nil, ErrValidation
	}
	existing, err := s.orderRepo.GetByOrderNo(tenant.StoreID, orderNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}
	if input.CarrierID != nil {
		carrier, err := s.carrierRepo.GetByID(tenant.StoreID, *input.CarrierID)
		if err != nil {
			return nil, err
		}
		if carrier == nil {
			return nil, ErrNotFound
		}
	}

	order := &models.Order{
		StoreID:       tenant.StoreID,
		OrderNo:       orderNo,
		CarrierID:     input.CarrierID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		Address:       strings.TrimSpace(input.Address),
		Phone:         strings.TrimSpace(input.Phone),
		Zone:          strings.TrimSpace(input.Zone),
		Status:        constants.OrderStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
		Notes:         input.Notes,
	}
	if input.TotalPrice != nil {
		if input.TotalPrice.IsNegative() {
			return nil, ErrValidation
		}
		order.TotalPrice = *input.TotalPrice
	}
	if input.CODAmount != nil {
		if input.CODAmount.IsNegative() {
			return nil, ErrValidation
		}
		order.CODAmount = *input.CODAmount
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Update 更新订单基础信息，已进入批次/结算流程的金额字段不再允许修改
func (s *OrderService) Update(tenant TenantContext, id uint, input OrderInput) (*models.Order, error) {
	order, err := s.Get(tenant, id)
	if err != nil {
		return nil, err
	}
	if order.SettlementID != nil {
		return nil, ErrStatusInvalid
	}

	if input.CarrierID != nil {
		carrier, err := s.carrierRepo.GetByID(tenant.StoreID, *input.CarrierID)
		if err != nil {
			return nil, err
		}
		if carrier == nil {
			return nil, ErrNotFound
		}
		order.CarrierID = input.CarrierID
	}
	if v := strings.TrimSpace(input.CustomerName); v != "" {
		order.CustomerName = v
	}
	if v := strings.TrimSpace(input.Address); v != "" {
		order.Address = v
	}
	if v := strings.TrimSpace(input.Phone); v != "" {
		order.Phone = v
	}
	if v := strings.TrimSpace(input.Zone); v != "" {
		order.Zone = v
	}
	if input.Notes != "" {
		order.Notes = input.Notes
	}
	if order.Status == constants.OrderStatusPending || order.Status == constants.OrderStatusConfirmed {
		if input.TotalPrice != nil {
			if input.TotalPrice.IsNegative() {
				return nil, ErrValidation
			}
			order.TotalPrice = *input.TotalPrice
		}
		if input.CODAmount != nil {
			if input.CODAmount.IsNegative() {
				return nil, ErrValidation
			}
			order.CODAmount = *input.CODAmount
		}
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus 推进订单配送状态，只允许沿状态机向前
func (s *OrderService) UpdateStatus(tenant TenantContext, id uint, status string) (*models.Order, error) {
	order, err := s.Get(tenant, id)
	if err != nil {
		return nil, err
	}
	target := strings.ToLower(strings.TrimSpace(status))
	if !CanTransition(order.Status, target) {
		return nil, ErrStatusInvalid
	}
	updates := map[string]interface{}{"updated_at": time.Now()}
	if target == constants.OrderStatusShipped {
		now := time.Now()
		updates["dispatch_date"] = now
	}
	if err := s.orderRepo.UpdateStatus(tenant.StoreID, id, target, updates); err != nil {
		return nil, err
	}
	return s.Get(tenant, id)
}

// OrdersToDispatch 查询可派送订单（待发货且未被未完成批次占用）
func (s *OrderService) OrdersToDispatch(tenant TenantContext, carrierID uint, limit int) ([]models.Order, error) {
	return s.orderRepo.ListDispatchable(tenant.StoreID, carrierID, limit)
}

// ShippedOrderGroup 已发货未结算订单分组（按承运商+发货日期）
type ShippedOrderGroup struct {
	CarrierID    uint           `json:"carrier_id"`
	CarrierName  string         `json:"carrier_name"`
	DispatchDate *time.Time     `json:"dispatch_date,omitempty"`
	Total        models.Money   `json:"total"`
	Orders       []models.Order `json:"orders"`
}

// ShippedOrdersGrouped 手工对账入口：已发货未结算订单按承运商和发货日分组
func (s *OrderService) ShippedOrdersGrouped(tenant TenantContext) ([]ShippedOrderGroup, error) {
	orders, err := s.orderRepo.ListShippedUnsettled(tenant.StoreID)
	if err != nil {
		return nil, err
	}

	groups := make([]ShippedOrderGroup, 0)
	index := make(map[string]int)
	for _, order := range orders {
		if order.CarrierID == nil {
			continue
		}
		key := groupKey(*order.CarrierID, order.DispatchDate)
		i, ok := index[key]
		if !ok {
			group := ShippedOrderGroup{
				CarrierID:    *order.CarrierID,
				DispatchDate: order.DispatchDate,
			}
			if order.Carrier != nil {
				group.CarrierName = order.Carrier.Name
			}
			groups = append(groups, group)
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Orders = append(groups[i].Orders, order)
		groups[i].Total = models.NewMoneyFromDecimal(groups[i].Total.Add(order.AmountToCollect().Decimal))
	}
	return groups, nil
}

func groupKey(carrierID uint, dispatchDate *time.Time) string {
	day := "none"
	if dispatchDate != nil {
		day = dispatchDate.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%d/%s", carrierID, day)
}

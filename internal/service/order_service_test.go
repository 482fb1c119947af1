package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Carrier{}, &models.CarrierZone{}, &models.Order{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	svc := NewOrderService(repository.NewOrderRepository(db), repository.NewCarrierRepository(db))
	return svc, db
}

func moneyPtr(amount int64) *models.Money {
	m := models.NewMoneyFromInt(amount)
	return &m
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusReadyToShip, true},
		{constants.OrderStatusReadyToShip, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusDeliveryFailed, true},
		{" Shipped ", "DELIVERED", true}, // 大小写与空白宽容
		{constants.OrderStatusConfirmed, constants.OrderStatusShipped, false},
		{constants.OrderStatusShipped, constants.OrderStatusConfirmed, false},
		{constants.OrderStatusDelivered, constants.OrderStatusShipped, false},
		{constants.OrderStatusDelivered, constants.OrderStatusDeliveryFailed, false},
		{constants.OrderStatusDeliveryFailed, constants.OrderStatusDelivered, false},
		{"unknown", constants.OrderStatusShipped, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderCreateValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}
	carrier := seedCarrier(t, db, 1, "迅达速运")

	if _, err := svc.Create(tenant, OrderInput{OrderNo: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank order no, got %v", err)
	}

	unknownCarrier := carrier.ID + 100
	if _, err := svc.Create(tenant, OrderInput{OrderNo: "SO-1001", CarrierID: &unknownCarrier}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown carrier, got %v", err)
	}

	if _, err := svc.Create(tenant, OrderInput{OrderNo: "SO-1001", CODAmount: moneyPtr(-100)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative amount, got %v", err)
	}

	order, err := svc.Create(tenant, OrderInput{
		OrderNo:      " SO-1001 ",
		CarrierID:    &carrier.ID,
		CustomerName: "张三",
		CODAmount:    moneyPtr(9900),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.OrderNo != "SO-1001" || order.Status != constants.OrderStatusPending {
		t.Fatalf("unexpected order state: %+v", order)
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("payment status should start pending, got %s", order.PaymentStatus)
	}

	// 同店铺订单号唯一
	if _, err := svc.Create(tenant, OrderInput{OrderNo: "SO-1001"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate order no, got %v", err)
	}
	// 其他店铺可复用同号
	if _, err := svc.Create(TenantContext{StoreID: 2, OperatorID: 1}, OrderInput{OrderNo: "SO-1001"}); err != nil {
		t.Fatalf("cross store order no should be allowed: %v", err)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}
	carrier := seedCarrier(t, db, 1, "迅达速运")

	order, err := svc.Create(tenant, OrderInput{OrderNo: "SO-2001", CarrierID: &carrier.ID, CODAmount: moneyPtr(5000)})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	for _, target := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusReadyToShip,
		constants.OrderStatusShipped,
	} {
		if order, err = svc.UpdateStatus(tenant, order.ID, target); err != nil {
			t.Fatalf("advance to %s failed: %v", target, err)
		}
		if order.Status != target {
			t.Fatalf("status = %s, want %s", order.Status, target)
		}
	}
	if order.DispatchDate == nil {
		t.Fatalf("shipping should record dispatch date")
	}

	// 不允许回退或跳级
	if _, err := svc.UpdateStatus(tenant, order.ID, constants.OrderStatusConfirmed); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("expected ErrStatusInvalid on backward transition, got %v", err)
	}

	if order, err = svc.UpdateStatus(tenant, order.ID, constants.OrderStatusDelivered); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if _, err := svc.UpdateStatus(tenant, order.ID, constants.OrderStatusDeliveryFailed); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("terminal states must not transition, got %v", err)
	}
}

func TestUpdateLocksAmountsAfterReadyToShip(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}
	seedCarrier(t, db, 1, "迅达速运")

	order, err := svc.Create(tenant, OrderInput{OrderNo: "SO-3001", CODAmount: moneyPtr(10000)})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 确认前金额可改
	order, err = svc.Update(tenant, order.ID, OrderInput{CODAmount: moneyPtr(12000)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if order.CODAmount.String() != models.NewMoneyFromInt(12000).String() {
		t.Fatalf("cod amount should update, got %s", order.CODAmount.String())
	}

	if _, err = svc.UpdateStatus(tenant, order.ID, constants.OrderStatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err = svc.UpdateStatus(tenant, order.ID, constants.OrderStatusReadyToShip); err != nil {
		t.Fatalf("ready to ship failed: %v", err)
	}

	order, err = svc.Update(tenant, order.ID, OrderInput{CODAmount: moneyPtr(999), Notes: "客户改地址"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if order.CODAmount.String() != models.NewMoneyFromInt(12000).String() {
		t.Fatalf("cod amount must stay locked, got %s", order.CODAmount.String())
	}
	if order.Notes != "客户改地址" {
		t.Fatalf("notes should still update, got %q", order.Notes)
	}

	// 已结算订单完全禁止修改
	settlementID := uint(7)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("settlement_id", settlementID).Error; err != nil {
		t.Fatalf("bind settlement failed: %v", err)
	}
	if _, err := svc.Update(tenant, order.ID, OrderInput{Notes: "x"}); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("expected ErrStatusInvalid for settled order, got %v", err)
	}
}

func TestShippedOrdersGrouped(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}
	carrierA := seedCarrier(t, db, 1, "迅达速运")
	carrierB := seedCarrier(t, db, 1, "同城快送")

	day := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	a1 := seedShippedOrder(t, db, 1, carrierA.ID, "SO-4001", 10000)
	a2 := seedShippedOrder(t, db, 1, carrierA.ID, "SO-4002", 5000)
	b1 := seedShippedOrder(t, db, 1, carrierB.ID, "SO-4003", 3000)
	for _, o := range []*models.Order{a1, a2, b1} {
		if err := db.Model(o).Update("dispatch_date", day).Error; err != nil {
			t.Fatalf("set dispatch date failed: %v", err)
		}
	}
	// 已结算订单不参与分组
	settled := seedShippedOrder(t, db, 1, carrierA.ID, "SO-4004", 8000)
	if err := db.Model(settled).Updates(map[string]interface{}{"dispatch_date": day, "settlement_id": 1}).Error; err != nil {
		t.Fatalf("mark settled failed: %v", err)
	}

	groups, err := svc.ShippedOrdersGrouped(tenant)
	if err != nil {
		t.Fatalf("group failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for _, g := range groups {
		switch g.CarrierID {
		case carrierA.ID:
			if len(g.Orders) != 2 || g.Total.String() != models.NewMoneyFromInt(15000).String() {
				t.Fatalf("carrier A group wrong: %d orders, total %s", len(g.Orders), g.Total.String())
			}
			if g.CarrierName != "迅达速运" {
				t.Fatalf("carrier name missing: %q", g.CarrierName)
			}
		case carrierB.ID:
			if len(g.Orders) != 1 || g.Total.String() != models.NewMoneyFromInt(3000).String() {
				t.Fatalf("carrier B group wrong: %d orders, total %s", len(g.Orders), g.Total.String())
			}
		default:
			t.Fatalf("unexpected group carrier %d", g.CarrierID)
		}
	}
}

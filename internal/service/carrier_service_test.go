package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCarrierServiceTest(t *testing.T) (*CarrierService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:carrier_svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.Carrier{},
		&models.CarrierZone{},
		&models.Order{},
		&models.DispatchSession{},
		&models.Settlement{},
	)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewCarrierService(repository.NewCarrierRepository(db)), db
}

func TestCarrierZoneNameUnique(t *testing.T) {
	svc, _ := setupCarrierServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}

	carrier, err := svc.Create(tenant, CarrierInput{Name: "迅达速运", Phone: "13800000001"})
	if err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}

	zone, err := svc.CreateZone(tenant, carrier.ID, ZoneInput{ZoneName: " 市中心 ", Rate: moneyPtr(800)})
	if err != nil {
		t.Fatalf("create zone failed: %v", err)
	}
	if zone.ZoneName != "市中心" {
		t.Fatalf("zone name should be trimmed, got %q", zone.ZoneName)
	}

	if _, err := svc.CreateZone(tenant, carrier.ID, ZoneInput{ZoneName: "市中心", Rate: moneyPtr(900)}); !errors.Is(err, ErrZoneConflict) {
		t.Fatalf("expected ErrZoneConflict for duplicate zone name, got %v", err)
	}
	if _, err := svc.CreateZone(tenant, carrier.ID, ZoneInput{ZoneName: "近郊", Rate: moneyPtr(-1)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative rate, got %v", err)
	}

	// 改名到已有区域名同样冲突
	other, err := svc.CreateZone(tenant, carrier.ID, ZoneInput{ZoneName: "近郊", Rate: moneyPtr(1250)})
	if err != nil {
		t.Fatalf("create second zone failed: %v", err)
	}
	if _, err := svc.UpdateZone(tenant, carrier.ID, other.ID, ZoneInput{ZoneName: "市中心"}); !errors.Is(err, ErrZoneConflict) {
		t.Fatalf("expected ErrZoneConflict on rename, got %v", err)
	}
}

func TestCarrierRateForExactMatch(t *testing.T) {
	svc, _ := setupCarrierServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}

	carrier, err := svc.Create(tenant, CarrierInput{Name: "同城快送"})
	if err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	if _, err := svc.CreateZone(tenant, carrier.ID, ZoneInput{ZoneName: "Downtown", Rate: moneyPtr(850)}); err != nil {
		t.Fatalf("create zone failed: %v", err)
	}

	rate, err := svc.RateFor(tenant, carrier.ID, "Downtown")
	if err != nil {
		t.Fatalf("rate lookup failed: %v", err)
	}
	if rate.String() != models.NewMoneyFromInt(850).String() {
		t.Fatalf("rate = %s, want 850.00", rate.String())
	}

	// 名称精确匹配，区分大小写
	if _, err := svc.RateFor(tenant, carrier.ID, "downtown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for case mismatch, got %v", err)
	}
	if _, err := svc.RateFor(tenant, carrier.ID, "郊区"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown zone, got %v", err)
	}
}

func TestCarrierDeleteGuards(t *testing.T) {
	svc, db := setupCarrierServiceTest(t)
	tenant := TenantContext{StoreID: 1, OperatorID: 1}

	carrier, err := svc.Create(tenant, CarrierInput{Name: "迅达速运"})
	if err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	seedShippedOrder(t, db, 1, carrier.ID, "SO-5001", 1000)

	if err := svc.Delete(tenant, carrier.ID); !errors.Is(err, ErrCarrierHasReferences) {
		t.Fatalf("expected ErrCarrierHasReferences, got %v", err)
	}

	idle, err := svc.Create(tenant, CarrierInput{Name: "备用承运商"})
	if err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	if err := svc.Delete(tenant, idle.ID); err != nil {
		t.Fatalf("delete unreferenced carrier failed: %v", err)
	}
	if _, err := svc.Get(tenant, idle.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// 租户隔离：其他店铺不可见
	if _, err := svc.Get(TenantContext{StoreID: 2, OperatorID: 1}, carrier.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across stores, got %v", err)
	}
}

package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/http/response"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/provider"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSettlementRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:settlement_admin_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.Carrier{},
		&models.CarrierZone{},
		&models.Order{},
		&models.Settlement{},
		&models.SettlementOrder{},
	)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	settlementRepo := repository.NewSettlementRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	carrierRepo := repository.NewCarrierRepository(db)
	handler := New(&provider.Container{
		SettlementService: service.NewSettlementService(settlementRepo, orderRepo, carrierRepo, nil, 1),
		OrderService:      service.NewOrderService(orderRepo, carrierRepo),
	})

	r := gin.New()
	// 模拟认证中间件写入的租户上下文
	r.Use(func(c *gin.Context) {
		c.Set("store_id", uint(1))
		c.Set("operator_id", uint(1))
		c.Next()
	})
	r.POST("/settlements/manual-reconciliation", handler.ManualReconciliation)
	r.GET("/settlements/:id", handler.GetSettlement)
	r.POST("/settlements/:id/pay", handler.PaySettlement)
	r.DELETE("/settlements/:id", handler.DeleteSettlement)
	return r, db
}

func seedHandlerOrder(t *testing.T, db *gorm.DB, carrierID uint, orderNo string, cod int64) *models.Order {
	t.Helper()
	order := &models.Order{
		StoreID:       1,
		OrderNo:       orderNo,
		CarrierID:     &carrierID,
		Status:        constants.OrderStatusShipped,
		PaymentStatus: constants.PaymentStatusPending,
		CODAmount:     models.NewMoneyFromInt(cod),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) response.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status = %d, want 200", w.Code)
	}
	var envelope response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope failed: %v", err)
	}
	return envelope
}

func TestManualReconciliationHandlerDiscrepancyGuard(t *testing.T) {
	r, db := setupSettlementRouter(t)
	carrier := &models.Carrier{StoreID: 1, Name: "迅达速运", IsActive: true}
	if err := db.Create(carrier).Error; err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	order := seedHandlerOrder(t, db, carrier.ID, "SO-7001", 10000)

	// 差异未确认也未备注，业务码 400
	envelope := doJSON(t, r, http.MethodPost, "/settlements/manual-reconciliation", gin.H{
		"carrier_id": carrier.ID,
		"order_ids":  []uint{order.ID},
		"collected_cash": 5000,
	})
	if envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("status_code = %d, want %d", envelope.StatusCode, response.CodeBadRequest)
	}

	// 确认差异后成功
	envelope = doJSON(t, r, http.MethodPost, "/settlements/manual-reconciliation", gin.H{
		"carrier_id":          carrier.ID,
		"order_ids":           []uint{order.ID},
		"collected_cash":      5000,
		"confirm_discrepancy": true,
	})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("status_code = %d, want %d (msg=%s)", envelope.StatusCode, response.CodeOK, envelope.Msg)
	}
}

func TestGetSettlementHandlerNotFound(t *testing.T) {
	r, _ := setupSettlementRouter(t)
	envelope := doJSON(t, r, http.MethodGet, "/settlements/999", nil)
	if envelope.StatusCode != response.CodeNotFound {
		t.Fatalf("status_code = %d, want %d", envelope.StatusCode, response.CodeNotFound)
	}
}

func TestPaySettlementHandlerOnlyOnce(t *testing.T) {
	r, db := setupSettlementRouter(t)
	carrier := &models.Carrier{StoreID: 1, Name: "同城快送", IsActive: true}
	if err := db.Create(carrier).Error; err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	order := seedHandlerOrder(t, db, carrier.ID, "SO-7101", 10000)

	envelope := doJSON(t, r, http.MethodPost, "/settlements/manual-reconciliation", gin.H{
		"carrier_id":     carrier.ID,
		"order_ids":      []uint{order.ID},
		"collected_cash": 10000,
	})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("reconciliation failed: %d %s", envelope.StatusCode, envelope.Msg)
	}

	var settlement models.Settlement
	if err := db.Where("store_id = ?", 1).First(&settlement).Error; err != nil {
		t.Fatalf("load settlement failed: %v", err)
	}

	payURL := fmt.Sprintf("/settlements/%d/pay", settlement.ID)
	payBody := gin.H{"amount": 10000, "method": "bank_transfer", "reference": "TX-1"}
	if envelope = doJSON(t, r, http.MethodPost, payURL, payBody); envelope.StatusCode != response.CodeOK {
		t.Fatalf("first payment failed: %d %s", envelope.StatusCode, envelope.Msg)
	}
	if envelope = doJSON(t, r, http.MethodPost, payURL, payBody); envelope.StatusCode != response.CodeConflict {
		t.Fatalf("second payment status_code = %d, want %d", envelope.StatusCode, response.CodeConflict)
	}
}

func TestDeleteSettlementHandlerGuard(t *testing.T) {
	r, db := setupSettlementRouter(t)
	carrier := &models.Carrier{StoreID: 1, Name: "迅达速运", IsActive: true}
	if err := db.Create(carrier).Error; err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	order := seedHandlerOrder(t, db, carrier.ID, "SO-7201", 10000)

	envelope := doJSON(t, r, http.MethodPost, "/settlements/manual-reconciliation", gin.H{
		"carrier_id":     carrier.ID,
		"order_ids":      []uint{order.ID},
		"collected_cash": 10000,
	})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("reconciliation failed: %d %s", envelope.StatusCode, envelope.Msg)
	}

	var settlement models.Settlement
	if err := db.Where("store_id = ?", 1).First(&settlement).Error; err != nil {
		t.Fatalf("load settlement failed: %v", err)
	}

	// completed 状态禁止删除
	envelope = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/settlements/%d", settlement.ID), nil)
	if envelope.StatusCode != response.CodeConflict {
		t.Fatalf("delete status_code = %d, want %d", envelope.StatusCode, response.CodeConflict)
	}
}

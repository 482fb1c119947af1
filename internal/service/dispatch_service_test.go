package service

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDispatchServiceTest(t *testing.T) (*DispatchService, *SettlementService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:dispatch_svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.Carrier{},
		&models.CarrierZone{},
		&models.Order{},
		&models.DispatchSession{},
		&models.DispatchSessionOrder{},
		&models.Settlement{},
		&models.SettlementOrder{},
	)
	if err != nil {
		t.Fatalf("migrate tables failed: %v", err)
	}
	models.DB = db

	settlementSvc := NewSettlementService(
		repository.NewSettlementRepository(db),
		repository.NewOrderRepository(db),
		repository.NewCarrierRepository(db),
		nil,
		1,
	)
	dispatchSvc := NewDispatchService(
		repository.NewDispatchSessionRepository(db),
		repository.NewOrderRepository(db),
		repository.NewCarrierRepository(db),
		settlementSvc,
		"DISP",
		true,
	)
	return dispatchSvc, settlementSvc, db
}

func seedConfirmedOrder(t *testing.T, db *gorm.DB, storeID uint, orderNo string, cod int64) *models.Order {
	t.Helper()
	order := &models.Order{
		StoreID:       storeID,
		OrderNo:       orderNo,
		Status:        constants.OrderStatusConfirmed,
		PaymentStatus: constants.PaymentStatusPending,
		CustomerName:  "测试客户",
		TotalPrice:    models.NewMoneyFromInt(cod),
		CODAmount:     models.NewMoneyFromInt(cod),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCreateSessionAssignsCodeAndClaimsOrders(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	orderA := seedConfirmedOrder(t, db, 1, "SO-3001", 100)
	orderB := seedConfirmedOrder(t, db, 1, "SO-3002", 200)

	session, err := svc.CreateSession(tenant, carrier.ID, []uint{orderA.ID, orderB.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	wantPrefix := fmt.Sprintf("DISP-%s-", time.Now().Format("02012006"))
	if !strings.HasPrefix(session.Code, wantPrefix) || !strings.HasSuffix(session.Code, "01") {
		t.Fatalf("unexpected session code %s", session.Code)
	}
	if session.Status != constants.DispatchStatusOpen {
		t.Fatalf("expected open session, got %s", session.Status)
	}

	// 领取只建立批次关联，订单本身停留在已确认，承运商也暂不绑定
	var reloaded models.Order
	if err := db.First(&reloaded, orderA.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusConfirmed {
		t.Fatalf("claimed order should stay confirmed, got %s", reloaded.Status)
	}
	if reloaded.CarrierID != nil {
		t.Fatalf("claimed order should not be bound to a carrier yet, got %v", *reloaded.CarrierID)
	}

	// 同日第二个批次序号递增
	orderC := seedConfirmedOrder(t, db, 1, "SO-3003", 50)
	second, err := svc.CreateSession(tenant, carrier.ID, []uint{orderC.ID})
	if err != nil {
		t.Fatalf("create second session failed: %v", err)
	}
	if !strings.HasSuffix(second.Code, "02") {
		t.Fatalf("expected daily sequence 02, got %s", second.Code)
	}
}

func TestCreateSessionRejectsBusyOrders(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	order := seedConfirmedOrder(t, db, 1, "SO-3101", 100)
	if _, err := svc.CreateSession(tenant, carrier.ID, []uint{order.ID}); err != nil {
		t.Fatalf("first session failed: %v", err)
	}

	// 订单仍是已确认状态，但已被未完成批次占用，再次领取应被拦下
	_, err := svc.CreateSession(tenant, carrier.ID, []uint{order.ID})
	if err != ErrOrdersBusy {
		t.Fatalf("expected ErrOrdersBusy, got %v", err)
	}
}

func TestCreateSessionGuards(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	if _, err := svc.CreateSession(tenant, carrier.ID, nil); err != ErrEmptyOrders {
		t.Fatalf("expected ErrEmptyOrders, got %v", err)
	}

	order := seedConfirmedOrder(t, db, 1, "SO-3201", 100)
	if err := db.Model(order).Update("status", constants.OrderStatusShipped).Error; err != nil {
		t.Fatalf("update order status failed: %v", err)
	}
	if _, err := svc.CreateSession(tenant, carrier.ID, []uint{order.ID}); err != ErrStatusInvalid {
		t.Fatalf("expected ErrStatusInvalid for shipped order, got %v", err)
	}

	disabled := seedCarrier(t, db, 1, "停用承运商")
	if err := db.Model(disabled).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable carrier failed: %v", err)
	}
	fresh := seedConfirmedOrder(t, db, 1, "SO-3202", 100)
	if _, err := svc.CreateSession(tenant, disabled.ID, []uint{fresh.ID}); err != ErrCarrierDisabled {
		t.Fatalf("expected ErrCarrierDisabled, got %v", err)
	}
}

func TestExportCSVMarksSessionExported(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	order := seedConfirmedOrder(t, db, 1, "SO-3301", 100)
	session, err := svc.CreateSession(tenant, carrier.ID, []uint{order.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	content, filename, err := svc.ExportCSV(tenant, session.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if filename != session.Code+".csv" {
		t.Fatalf("unexpected filename %s", filename)
	}
	if !bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("export should start with UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSpace(string(bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}))), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "order_no,") {
		t.Fatalf("unexpected header %s", lines[0])
	}
	if !strings.Contains(lines[1], "SO-3301") {
		t.Fatalf("row should contain order number, got %s", lines[1])
	}

	reloadedSession, err := svc.Get(tenant, session.ID)
	if err != nil {
		t.Fatalf("reload session failed: %v", err)
	}
	if reloadedSession.Status != constants.DispatchStatusExported || reloadedSession.ExportedAt == nil {
		t.Fatalf("expected exported session with exported_at, got %s / %v", reloadedSession.Status, reloadedSession.ExportedAt)
	}

	// 导出只是流程标记，订单不因此改变状态
	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusConfirmed {
		t.Fatalf("exported order should stay confirmed, got %s", reloaded.Status)
	}

	// 已导出的批次允许重复导出（司机丢单重打）
	if _, _, err := svc.ExportCSV(tenant, session.ID); err != nil {
		t.Fatalf("re-export failed: %v", err)
	}

	// 已处理的批次不允许再导出
	if err := db.Model(&models.DispatchSession{}).Where("id = ?", session.ID).
		Update("status", constants.DispatchStatusProcessed).Error; err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}
	if _, _, err := svc.ExportCSV(tenant, session.ID); err != ErrStatusInvalid {
		t.Fatalf("expected ErrStatusInvalid for processed session, got %v", err)
	}
}

func TestImportResultsPartialSuccess(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	orderIDs := make([]uint, 0, 8)
	for i := 1; i <= 8; i++ {
		order := seedConfirmedOrder(t, db, 1, fmt.Sprintf("SO-34%02d", i), 100)
		orderIDs = append(orderIDs, order.ID)
	}
	session, err := svc.CreateSession(tenant, carrier.ID, orderIDs)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, _, err := svc.ExportCSV(tenant, session.ID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var csvBuf strings.Builder
	csvBuf.WriteString("order_no,outcome,amount_collected,failure_reason\n")
	for i := 1; i <= 6; i++ {
		csvBuf.WriteString(fmt.Sprintf("SO-34%02d,delivered,100,\n", i))
	}
	csvBuf.WriteString("SO-3407,failed,,客户拒收\n")
	csvBuf.WriteString("SO-3408,failed,,电话无人接听\n")
	// 两行批次外的订单号
	csvBuf.WriteString("SO-9901,delivered,100,\n")
	csvBuf.WriteString("SO-9902,failed,,\n")

	summary, err := svc.ImportResults(tenant, session.ID, strings.NewReader(csvBuf.String()))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Total != 10 || summary.Matched != 8 {
		t.Fatalf("expected 10 total / 8 matched, got %d / %d", summary.Total, summary.Matched)
	}
	if summary.Delivered != 6 || summary.Failed != 2 {
		t.Fatalf("expected 6 delivered / 2 failed, got %d / %d", summary.Delivered, summary.Failed)
	}
	if len(summary.Unmatched) != 2 || summary.Unmatched[0] != "SO-9901" || summary.Unmatched[1] != "SO-9902" {
		t.Fatalf("unexpected unmatched list: %v", summary.Unmatched)
	}
	if !summary.TotalCollected.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected collected 600, got %s", summary.TotalCollected.String())
	}

	var delivered, failed int64
	if err := db.Model(&models.Order{}).Where("status = ?", constants.OrderStatusDelivered).Count(&delivered).Error; err != nil {
		t.Fatalf("count delivered failed: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("status = ?", constants.OrderStatusDeliveryFailed).Count(&failed).Error; err != nil {
		t.Fatalf("count failed failed: %v", err)
	}
	if delivered != 6 || failed != 2 {
		t.Fatalf("expected 6 delivered / 2 delivery_failed orders, got %d / %d", delivered, failed)
	}

	// 结果落库时才绑定承运商并补发货日期
	var first models.Order
	if err := db.First(&first, orderIDs[0]).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if first.CarrierID == nil || *first.CarrierID != carrier.ID {
		t.Fatalf("imported order should be bound to carrier %d, got %v", carrier.ID, first.CarrierID)
	}
	if first.DispatchDate == nil {
		t.Fatalf("imported order should have a dispatch date")
	}
}

func TestImportResultsGuards(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	order := seedConfirmedOrder(t, db, 1, "SO-3501", 100)
	session, err := svc.CreateSession(tenant, carrier.ID, []uint{order.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	// 缺少 outcome 列
	_, err = svc.ImportResults(tenant, session.ID, strings.NewReader("order_no\nSO-3501\n"))
	if err != ErrValidation {
		t.Fatalf("expected ErrValidation for missing outcome column, got %v", err)
	}

	// 非法 outcome 值
	_, err = svc.ImportResults(tenant, session.ID, strings.NewReader("order_no,outcome\nSO-3501,lost\n"))
	if err != ErrValidation {
		t.Fatalf("expected ErrValidation for invalid outcome, got %v", err)
	}

	// 未导出的批次也允许导入（导出只是流程标记）
	summary, err := svc.ImportResults(tenant, session.ID, strings.NewReader("order_no,outcome,amount_collected\nSO-3501,delivered,100\n"))
	if err != nil {
		t.Fatalf("import into open session failed: %v", err)
	}
	if summary.Matched != 1 || summary.Delivered != 1 {
		t.Fatalf("expected 1 matched / 1 delivered, got %d / %d", summary.Matched, summary.Delivered)
	}

	// 已处理的批次拒绝导入
	if err := db.Model(&models.DispatchSession{}).Where("id = ?", session.ID).
		Update("status", constants.DispatchStatusProcessed).Error; err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}
	_, err = svc.ImportResults(tenant, session.ID, strings.NewReader("order_no,outcome\nSO-3501,delivered\n"))
	if err != ErrStatusInvalid {
		t.Fatalf("expected ErrStatusInvalid on processed session, got %v", err)
	}
}

func TestDispatchSettlementFullScenario(t *testing.T) {
	svc, _, db := setupDispatchServiceTest(t)
	carrier := seedCarrier(t, db, 1, "顺达物流")
	tenant := TenantContext{StoreID: 1, OperatorID: 3}

	orderA := seedConfirmedOrder(t, db, 1, "SO-3601", 100000)
	orderB := seedConfirmedOrder(t, db, 1, "SO-3602", 50000)

	session, err := svc.CreateSession(tenant, carrier.ID, []uint{orderA.ID, orderB.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	content, _, err := svc.ExportCSV(tenant, session.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}))), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}

	// 一单妥投一单拒收：应收覆盖两单，差额体现失败单的应收
	results := "order_no,outcome,amount_collected,failure_reason\n" +
		"SO-3601,delivered,100000,\n" +
		"SO-3602,failed,,客户拒收\n"
	if _, err := svc.ImportResults(tenant, session.ID, strings.NewReader(results)); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	settlement, err := svc.ProcessSettlement(tenant, session.ID, ProcessInput{
		SettlementDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("process settlement failed: %v", err)
	}
	if !settlement.ExpectedCash.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("expected cash want 150000, got %s", settlement.ExpectedCash.String())
	}
	if !settlement.CollectedCash.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("collected cash want 100000, got %s", settlement.CollectedCash.String())
	}
	if !settlement.Discrepancy.Equal(decimal.NewFromInt(-50000)) {
		t.Fatalf("discrepancy want -50000, got %s", settlement.Discrepancy.String())
	}
	if settlement.Status != constants.SettlementStatusWithIssues {
		t.Fatalf("expected with_issues, got %s", settlement.Status)
	}
	if settlement.DispatchSessionID == nil || *settlement.DispatchSessionID != session.ID {
		t.Fatalf("settlement should reference session %d, got %v", session.ID, settlement.DispatchSessionID)
	}

	reloadedSession, err := svc.Get(tenant, session.ID)
	if err != nil {
		t.Fatalf("reload session failed: %v", err)
	}
	if reloadedSession.Status != constants.DispatchStatusProcessed || reloadedSession.ProcessedAt == nil {
		t.Fatalf("expected processed session, got %s / %v", reloadedSession.Status, reloadedSession.ProcessedAt)
	}

	// 已处理的批次不允许重复结算
	if _, err := svc.ProcessSettlement(tenant, session.ID, ProcessInput{}); err != ErrStatusInvalid {
		t.Fatalf("expected ErrStatusInvalid on processed session, got %v", err)
	}

	var reloadedA models.Order
	if err := db.First(&reloadedA, orderA.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedA.Status != constants.OrderStatusDelivered {
		t.Fatalf("delivered order should be delivered, got %s", reloadedA.Status)
	}
	if reloadedA.SettlementID == nil || *reloadedA.SettlementID != settlement.ID {
		t.Fatalf("order should be bound to settlement %d, got %v", settlement.ID, reloadedA.SettlementID)
	}

	// 失败单不结清，只在结算单里体现差额
	var reloadedB models.Order
	if err := db.First(&reloadedB, orderB.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedB.Status != constants.OrderStatusDeliveryFailed {
		t.Fatalf("failed order should be delivery_failed, got %s", reloadedB.Status)
	}
	if reloadedB.SettlementID != nil {
		t.Fatalf("failed order should not be settled, got settlement %d", *reloadedB.SettlementID)
	}
}

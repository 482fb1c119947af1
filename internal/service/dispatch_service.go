package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// utf8BOM 导出 CSV 时写入，Excel 直接双击打开不乱码
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DispatchService 派送批次服务
type DispatchService struct {
	sessionRepo   repository.DispatchSessionRepository
	orderRepo     repository.OrderRepository
	carrierRepo   repository.CarrierRepository
	settlementSvc *SettlementService
	codePrefix    string
	exportBOM     bool
}

// NewDispatchService 创建派送批次服务实例
func NewDispatchService(
	sessionRepo repository.DispatchSessionRepository,
	orderRepo repository.OrderRepository,
	carrierRepo repository.CarrierRepository,
	settlementSvc *SettlementService,
	codePrefix string,
	exportBOM bool,
) *DispatchService {
	prefix := strings.TrimSpace(codePrefix)
	if prefix == "" {
		prefix = constants.DispatchCodePrefix
	}
	return &DispatchService{
		sessionRepo:   sessionRepo,
		orderRepo:     orderRepo,
		carrierRepo:   carrierRepo,
		settlementSvc: settlementSvc,
		codePrefix:    prefix,
		exportBOM:     exportBOM,
	}
}

// List 查询派送批次列表
func (s *DispatchService) List(tenant TenantContext, filter repository.DispatchSessionListFilter) ([]models.DispatchSession, int64, error) {
	filter.StoreID = tenant.StoreID
	return s.sessionRepo.List(filter)
}

// Get 查询派送批次详情
func (s *DispatchService) Get(tenant TenantContext, sessionID uint) (*models.DispatchSession, error) {
	session, err := s.sessionRepo.GetByID(tenant.StoreID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	return session, nil
}

// CreateSession 创建派送批次：
// 批次编号按店铺按天递增（DISP-DDMMYYYY-NN），
// 订单必须处于已确认状态且未被其他未完成批次占用，整个创建在一个事务内完成。
// 订单本身状态不变，占用关系由批次关联行承载，结果导入时才推进订单。
func (s *DispatchService) CreateSession(tenant TenantContext, carrierID uint, orderIDs []uint) (*models.DispatchSession, error) {
	if carrierID == 0 {
		return nil, ErrValidation
	}
	if len(orderIDs) == 0 {
		return nil, ErrEmptyOrders
	}
	carrier, err := s.carrierRepo.GetByID(tenant.StoreID, carrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrNotFound
	}
	if !carrier.IsActive {
		return nil, ErrCarrierDisabled
	}

	var session *models.DispatchSession
	var txErr error
	// 编号唯一索引冲突时重新计数后再试一次
	for attempt := 0; attempt < 2; attempt++ {
		txErr = models.DB.Transaction(func(tx *gorm.DB) error {
			orderRepo := s.orderRepo.WithTx(tx)
			sessionRepo := s.sessionRepo.WithTx(tx)

			orders, err := orderRepo.ListByIDs(tenant.StoreID, orderIDs)
			if err != nil {
				return err
			}
			if len(orders) != len(orderIDs) {
				return ErrNotFound
			}
			for i := range orders {
				order := &orders[i]
				if order.Status != constants.OrderStatusConfirmed {
					return ErrStatusInvalid
				}
				if order.CarrierID != nil && *order.CarrierID != carrierID {
					return ErrValidation
				}
			}

			busy, err := sessionRepo.FindBusyOrderIDs(tenant.StoreID, orderIDs)
			if err != nil {
				return err
			}
			if len(busy) > 0 {
				return ErrOrdersBusy
			}

			code, err := s.nextCode(sessionRepo, tenant.StoreID, time.Now())
			if err != nil {
				return err
			}

			links := make([]models.DispatchSessionOrder, 0, len(orderIDs))
			for _, orderID := range orderIDs {
				links = append(links, models.DispatchSessionOrder{OrderID: orderID})
			}
			session = &models.DispatchSession{
				StoreID:   tenant.StoreID,
				CarrierID: carrierID,
				Code:      code,
				Status:    constants.DispatchStatusOpen,
				CreatedBy: tenant.OperatorID,
				Orders:    links,
			}
			return sessionRepo.Create(session)
		})
		if txErr == nil {
			break
		}
		if !repository.IsDuplicateKeyError(txErr) {
			return nil, txErr
		}
		logger.Warnw("dispatch_code_conflict_retry", "store_id", tenant.StoreID)
	}
	if txErr != nil {
		return nil, txErr
	}
	return session, nil
}

// nextCode 生成批次编号：前缀-日日月月年年年年-当日序号
func (s *DispatchService) nextCode(sessionRepo repository.DispatchSessionRepository, storeID uint, now time.Time) (string, error) {
	datePrefix := fmt.Sprintf("%s-%s-", s.codePrefix, now.Format("02012006"))
	count, err := sessionRepo.CountByCodePrefix(storeID, datePrefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%02d", datePrefix, count+1), nil
}

// exportHeader 派送单 CSV 列头，与导入时的识别列保持一致
var exportHeader = []string{"order_no", "customer_name", "address", "phone", "amount_to_collect", "notes"}

// ExportCSV 导出派送单 CSV 并把批次标记为 exported（记录导出时间）。
// 导出只是流程标记，不改订单状态。
// 已导出的批次可重复导出（司机丢单场景），已处理的批次不允许。
func (s *DispatchService) ExportCSV(tenant TenantContext, sessionID uint) ([]byte, string, error) {
	session, err := s.Get(tenant, sessionID)
	if err != nil {
		return nil, "", err
	}
	if session.Status == constants.DispatchStatusProcessed {
		return nil, "", ErrStatusInvalid
	}

	var buf bytes.Buffer
	if s.exportBOM {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, "", err
	}
	for _, link := range session.Orders {
		if link.Order == nil {
			continue
		}
		order := link.Order
		row := []string{
			order.OrderNo,
			order.CustomerName,
			order.Address,
			order.Phone,
			order.AmountToCollect().String(),
			order.Notes,
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	err = s.sessionRepo.UpdateStatus(tenant.StoreID, sessionID, constants.DispatchStatusExported,
		map[string]interface{}{"exported_at": time.Now()})
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s.csv", session.Code)
	return buf.Bytes(), filename, nil
}

// ImportSummary 配送结果导入汇总
type ImportSummary struct {
	Total          int          `json:"total"`
	Matched        int          `json:"matched"`
	Delivered      int          `json:"delivered"`
	Failed         int          `json:"failed"`
	Unmatched      []string     `json:"unmatched"`
	TotalCollected models.Money `json:"total_collected"`
}

type importRow struct {
	orderNo         string
	outcome         string
	amountCollected models.Money
	failureReason   string
}

// ImportResults 导入配送结果 CSV（承运商回传），部分成功：
// 能匹配的行全部落库，匹配不上的订单号收集到 Unmatched 返回，不中断整体导入。
// 未导出的批次同样可以导入，只有已处理的批次拒绝。
func (s *DispatchService) ImportResults(tenant TenantContext, sessionID uint, reader io.Reader) (*ImportSummary, error) {
	session, err := s.Get(tenant, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == constants.DispatchStatusProcessed {
		return nil, ErrStatusInvalid
	}

	rows, err := parseImportRows(reader)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrValidation
	}

	// 批次内订单号索引
	linkByOrderNo := make(map[string]*models.DispatchSessionOrder, len(session.Orders))
	for i := range session.Orders {
		link := &session.Orders[i]
		if link.Order != nil {
			linkByOrderNo[link.Order.OrderNo] = link
		}
	}

	summary := &ImportSummary{Total: len(rows), Unmatched: make([]string, 0)}
	collected := decimal.Zero
	// 只从未终结的状态向前推进，已终结的订单不回写（WHERE 条件即并发重校验）
	forwardable := []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusReadyToShip,
		constants.OrderStatusShipped,
	}
	now := time.Now()

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		sessionRepo := s.sessionRepo.WithTx(tx)
		for _, row := range rows {
			link, ok := linkByOrderNo[row.orderNo]
			if !ok {
				summary.Unmatched = append(summary.Unmatched, row.orderNo)
				continue
			}

			link.Outcome = row.outcome
			link.AmountCollected = row.amountCollected
			link.FailureReason = row.failureReason
			if err := sessionRepo.UpdateSessionOrder(link); err != nil {
				return err
			}

			targetStatus := constants.OrderStatusDelivered
			if row.outcome != constants.DeliveryOutcomeDelivered {
				targetStatus = constants.OrderStatusDeliveryFailed
			}
			err := tx.Model(&models.Order{}).
				Where("store_id = ? AND id = ? AND status IN ?",
					tenant.StoreID, link.OrderID, forwardable).
				Updates(map[string]interface{}{
					"status":        targetStatus,
					"carrier_id":    session.CarrierID,
					"dispatch_date": gorm.Expr("COALESCE(dispatch_date, ?)", now),
				}).Error
			if err != nil {
				return err
			}

			summary.Matched++
			if row.outcome == constants.DeliveryOutcomeDelivered {
				summary.Delivered++
				collected = collected.Add(row.amountCollected.Decimal)
			} else {
				summary.Failed++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.TotalCollected = models.NewMoneyFromDecimal(collected)
	logger.Infow("dispatch_results_imported",
		"session_id", sessionID,
		"matched", summary.Matched,
		"unmatched", len(summary.Unmatched),
	)
	return summary, nil
}

// parseImportRows 解析导入 CSV：自动去除 BOM，按列头取值，列头必须含 order_no 与 outcome
func parseImportRows(reader io.Reader) ([]importRow, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	csvReader := csv.NewReader(bytes.NewReader(raw))
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, ErrValidation
	}
	if len(records) < 1 {
		return nil, ErrValidation
	}

	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}
	orderNoIdx, hasOrderNo := colIndex["order_no"]
	outcomeIdx, hasOutcome := colIndex["outcome"]
	if !hasOrderNo || !hasOutcome {
		return nil, ErrValidation
	}
	amountIdx, hasAmount := colIndex["amount_collected"]
	reasonIdx, hasReason := colIndex["failure_reason"]

	rows := make([]importRow, 0, len(records)-1)
	for _, record := range records[1:] {
		orderNo := fieldAt(record, orderNoIdx)
		outcome := strings.ToLower(fieldAt(record, outcomeIdx))
		if orderNo == "" {
			continue
		}
		if outcome != constants.DeliveryOutcomeDelivered &&
			outcome != constants.DeliveryOutcomeFailed &&
			outcome != constants.DeliveryOutcomeReturned {
			return nil, ErrValidation
		}

		row := importRow{orderNo: orderNo, outcome: outcome}
		if hasAmount {
			if rawAmount := fieldAt(record, amountIdx); rawAmount != "" {
				amount, err := decimal.NewFromString(rawAmount)
				if err != nil || amount.IsNegative() {
					return nil, ErrValidation
				}
				row.amountCollected = models.NewMoneyFromDecimal(amount)
			}
		}
		if hasReason {
			row.failureReason = fieldAt(record, reasonIdx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// ProcessInput 批次结算入参
type ProcessInput struct {
	SettlementDate time.Time
	Notes          string
}

// ProcessSettlement 批次对账路径：以导入的配送结果为准生成/合并结算单。
// 应收取全部有结果订单的应收金额，妥投和失败都计入；实收取关联行上记录的实收金额。
// 批次随后标记为已处理，已处理的批次不允许重复结算。
func (s *DispatchService) ProcessSettlement(tenant TenantContext, sessionID uint, input ProcessInput) (*models.Settlement, error) {
	session, err := s.Get(tenant, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == constants.DispatchStatusProcessed {
		return nil, ErrStatusInvalid
	}

	expected := decimal.Zero
	collectedTotal := decimal.Zero
	settlementOrders := make([]models.SettlementOrder, 0, len(session.Orders))
	settledIDs := make([]uint, 0, len(session.Orders))
	hasOutcome := false
	for i := range session.Orders {
		link := &session.Orders[i]
		if link.Outcome == "" || link.Order == nil {
			continue
		}
		hasOutcome = true
		amount := link.Order.AmountToCollect()
		settlementOrders = append(settlementOrders, models.SettlementOrder{
			OrderID: link.OrderID,
			Amount:  amount,
			Outcome: link.Outcome,
		})
		expected = expected.Add(amount.Decimal)
		collectedTotal = collectedTotal.Add(link.AmountCollected.Decimal)
		// 只有妥投订单标记结清；失败订单留在结算单里体现差额
		if link.Outcome == constants.DeliveryOutcomeDelivered {
			settledIDs = append(settledIDs, link.OrderID)
		}
	}
	if !hasOutcome {
		return nil, ErrEmptyOrders
	}

	settlementDate := input.SettlementDate
	if settlementDate.IsZero() {
		settlementDate = time.Now()
	}

	settlement, err := s.settlementSvc.Reconcile(tenant, SettlementDraft{
		CarrierID:         session.CarrierID,
		SettlementDate:    settlementDate,
		Expected:          models.NewMoneyFromDecimal(expected),
		Collected:         models.NewMoneyFromDecimal(collectedTotal),
		Notes:             input.Notes,
		DispatchSessionID: &sessionID,
		Orders:            settlementOrders,
		SettledOrderIDs:   settledIDs,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.sessionRepo.UpdateStatus(tenant.StoreID, sessionID, constants.DispatchStatusProcessed,
		map[string]interface{}{"processed_at": now})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

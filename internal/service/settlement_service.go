package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/cache"
	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"
	"github.com/T0MGL/0rdefy-sub018/internal/metrics"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// DiscrepancyNotifier 差异通知接口，由队列客户端实现
type DiscrepancyNotifier interface {
	NotifySettlementDiscrepancy(settlementID uint) error
}

// SettlementService 结算服务
type SettlementService struct {
	settlementRepo repository.SettlementRepository
	orderRepo      repository.OrderRepository
	carrierRepo    repository.CarrierRepository
	notifier       DiscrepancyNotifier
	summaryTTL     time.Duration
}

// NewSettlementService 创建结算服务实例
func NewSettlementService(
	settlementRepo repository.SettlementRepository,
	orderRepo repository.OrderRepository,
	carrierRepo repository.CarrierRepository,
	notifier DiscrepancyNotifier,
	summaryTTLSeconds int,
) *SettlementService {
	ttl := time.Duration(summaryTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Duration(constants.SettlementSummaryCacheTTLSeconds) * time.Second
	}
	return &SettlementService{
		settlementRepo: settlementRepo,
		orderRepo:      orderRepo,
		carrierRepo:    carrierRepo,
		notifier:       notifier,
		summaryTTL:     ttl,
	}
}

// SettlementDraft 一次对账的汇总结果，两条对账路径最终都归并到这里
type SettlementDraft struct {
	CarrierID         uint
	SettlementDate    time.Time
	Expected          models.Money
	Collected         models.Money
	Notes             string
	DispatchSessionID *uint
	Orders            []models.SettlementOrder
	SettledOrderIDs   []uint
}

// Reconcile 结算写入的共同出口：
// 同键（店铺+承运商+日期）当天已有结算单则累加金额并追加明细，
// 否则创建；唯一索引冲突时重查后改走更新，保证并发下同键只有一条。
func (s *SettlementService) Reconcile(tenant TenantContext, draft SettlementDraft) (*models.Settlement, error) {
	if draft.CarrierID == 0 || draft.SettlementDate.IsZero() {
		return nil, ErrValidation
	}
	discrepancy := draft.Collected.Sub(draft.Expected)
	date := models.NormalizeSettlementDate(draft.SettlementDate)

	var settlement *models.Settlement
	var txErr error
	// 唯一索引冲突重查一次后重试
	for attempt := 0; attempt < 2; attempt++ {
		txErr = models.DB.Transaction(func(tx *gorm.DB) error {
			repo := s.settlementRepo.WithTx(tx)

			existing, err := repo.GetByKey(tenant.StoreID, draft.CarrierID, date)
			if err != nil {
				return err
			}
			if existing == nil {
				settlement = &models.Settlement{
					StoreID:           tenant.StoreID,
					CarrierID:         &draft.CarrierID,
					SettlementDate:    date,
					ExpectedCash:      draft.Expected,
					CollectedCash:     draft.Collected,
					Discrepancy:       discrepancy,
					Status:            settlementStatusFor(discrepancy),
					Notes:             strings.TrimSpace(draft.Notes),
					SettledBy:         tenant.OperatorID,
					DispatchSessionID: draft.DispatchSessionID,
				}
				if err := repo.Create(settlement); err != nil {
					return err
				}
			} else {
				existing.ExpectedCash = models.NewMoneyFromDecimal(existing.ExpectedCash.Add(draft.Expected.Decimal))
				existing.CollectedCash = models.NewMoneyFromDecimal(existing.CollectedCash.Add(draft.Collected.Decimal))
				existing.Discrepancy = existing.CollectedCash.Sub(existing.ExpectedCash)
				existing.Status = settlementStatusFor(existing.Discrepancy)
				existing.SettledBy = tenant.OperatorID
				if notes := strings.TrimSpace(draft.Notes); notes != "" {
					if existing.Notes == "" {
						existing.Notes = notes
					} else {
						existing.Notes = existing.Notes + "\n" + notes
					}
				}
				if existing.DispatchSessionID == nil {
					existing.DispatchSessionID = draft.DispatchSessionID
				}
				if err := repo.Update(existing); err != nil {
					return err
				}
				settlement = existing
			}

			if err := repo.AppendOrders(settlement.ID, draft.Orders); err != nil {
				return err
			}
			if len(draft.SettledOrderIDs) > 0 {
				orderRepo := s.orderRepo.WithTx(tx)
				if err := orderRepo.MarkSettled(draft.SettledOrderIDs, settlement.ID); err != nil {
					return err
				}
				// 手工对账的订单此前停在已发货，结算即视为妥投
				err := tx.Model(&models.Order{}).
					Where("id IN ? AND status = ?", draft.SettledOrderIDs, constants.OrderStatusShipped).
					Update("status", constants.OrderStatusDelivered).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if txErr == nil {
			break
		}
		if !repository.IsDuplicateKeyError(txErr) {
			return nil, txErr
		}
		logger.Warnw("settlement_upsert_conflict_retry",
			"store_id", tenant.StoreID,
			"carrier_id", draft.CarrierID,
			"settlement_date", date.Format("2006-01-02"),
		)
	}
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateSummaryCache(tenant.StoreID)
	if settlement.Status == constants.SettlementStatusWithIssues {
		metrics.IncSettlementDiscrepancy()
		if s.notifier != nil {
			if err := s.notifier.NotifySettlementDiscrepancy(settlement.ID); err != nil {
				logger.Warnw("settlement_discrepancy_notify_failed",
					"settlement_id", settlement.ID,
					"error", err,
				)
			}
		}
	}
	return settlement, nil
}

func settlementStatusFor(discrepancy models.Money) string {
	if discrepancy.IsZero() {
		return constants.SettlementStatusCompleted
	}
	return constants.SettlementStatusWithIssues
}

// ManualReconciliationInput 手工对账入参
type ManualReconciliationInput struct {
	CarrierID          uint
	SettlementDate     time.Time
	OrderIDs           []uint
	CollectedCash      models.Money
	Notes              string
	ConfirmDiscrepancy bool
}

// ProcessManualReconciliation 手工对账路径：操作员勾选订单并录入实收总额
func (s *SettlementService) ProcessManualReconciliation(tenant TenantContext, input ManualReconciliationInput) (*models.Settlement, error) {
	if input.CarrierID == 0 {
		return nil, ErrValidation
	}
	if len(input.OrderIDs) == 0 {
		return nil, ErrEmptyOrders
	}
	if input.CollectedCash.IsNegative() {
		return nil, ErrValidation
	}
	carrier, err := s.carrierRepo.GetByID(tenant.StoreID, input.CarrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrNotFound
	}

	orders, err := s.orderRepo.ListByIDs(tenant.StoreID, input.OrderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(input.OrderIDs) {
		return nil, ErrNotFound
	}

	expected := decimal.Zero
	settlementOrders := make([]models.SettlementOrder, 0, len(orders))
	settledIDs := make([]uint, 0, len(orders))
	for i := range orders {
		order := &orders[i]
		if order.SettlementID != nil {
			return nil, ErrConflict
		}
		if order.Status != constants.OrderStatusShipped && order.Status != constants.OrderStatusDelivered {
			return nil, ErrStatusInvalid
		}
		if order.CarrierID == nil || *order.CarrierID != input.CarrierID {
			return nil, ErrValidation
		}
		amount, err := s.expectedAmountFor(tenant, order)
		if err != nil {
			return nil, err
		}
		expected = expected.Add(amount.Decimal)
		settlementOrders = append(settlementOrders, models.SettlementOrder{
			OrderID: order.ID,
			Amount:  amount,
			Outcome: constants.DeliveryOutcomeDelivered,
		})
		settledIDs = append(settledIDs, order.ID)
	}

	// 差异守卫：实收与应收不一致时必须填写备注或显式确认
	expectedMoney := models.NewMoneyFromDecimal(expected)
	discrepancy := input.CollectedCash.Sub(expectedMoney)
	if !discrepancy.IsZero() && strings.TrimSpace(input.Notes) == "" && !input.ConfirmDiscrepancy {
		return nil, ErrDiscrepancyConfirmationRequired
	}

	settlementDate := input.SettlementDate
	if settlementDate.IsZero() {
		settlementDate = time.Now()
	}
	return s.Reconcile(tenant, SettlementDraft{
		CarrierID:       input.CarrierID,
		SettlementDate:  settlementDate,
		Expected:        expectedMoney,
		Collected:       input.CollectedCash,
		Notes:           input.Notes,
		Orders:          settlementOrders,
		SettledOrderIDs: settledIDs,
	})
}

// expectedAmountFor 单笔订单应收金额：订单金额为零且填写了区域时回退到区域固定运费
func (s *SettlementService) expectedAmountFor(tenant TenantContext, order *models.Order) (models.Money, error) {
	amount := order.AmountToCollect()
	if !amount.IsZero() || order.Zone == "" || order.CarrierID == nil {
		return amount, nil
	}
	zone, err := s.carrierRepo.FindZoneByName(tenant.StoreID, *order.CarrierID, order.Zone)
	if err != nil {
		return models.Money{}, err
	}
	if zone == nil {
		return amount, nil
	}
	return zone.Rate, nil
}

// PaymentInput 打款登记入参
type PaymentInput struct {
	Amount    models.Money
	Method    string
	Reference string
	Notes     string
}

// MarkPaid 登记承运商打款，结算单只允许登记一次
func (s *SettlementService) MarkPaid(tenant TenantContext, settlementID uint, input PaymentInput) (*models.Settlement, error) {
	settlement, err := s.Get(tenant, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.PaidAt != nil {
		return nil, ErrSettlementPaid
	}
	if !input.Amount.IsPositive() {
		return nil, ErrPaymentAmountInvalid
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		return nil, ErrValidation
	}

	now := time.Now()
	amount := input.Amount
	settlement.PaidAmount = &amount
	settlement.PaymentMethod = method
	settlement.PaymentReference = strings.TrimSpace(input.Reference)
	settlement.PaymentNotes = input.Notes
	settlement.PaidAt = &now
	settlement.PaidBy = &tenant.OperatorID
	if err := s.settlementRepo.Update(settlement); err != nil {
		return nil, err
	}
	s.invalidateSummaryCache(tenant.StoreID)
	return settlement, nil
}

// Delete 删除结算单，已进入 completed / with_issues 的留作审计不允许删除
func (s *SettlementService) Delete(tenant TenantContext, settlementID uint) error {
	settlement, err := s.Get(tenant, settlementID)
	if err != nil {
		return err
	}
	if settlement.Status != constants.SettlementStatusPending {
		return ErrSettlementNotDeletable
	}
	if err := s.settlementRepo.Delete(tenant.StoreID, settlementID); err != nil {
		return err
	}
	s.invalidateSummaryCache(tenant.StoreID)
	return nil
}

// List 查询结算单列表
func (s *SettlementService) List(tenant TenantContext, filter repository.SettlementListFilter) ([]models.Settlement, int64, error) {
	filter.StoreID = tenant.StoreID
	return s.settlementRepo.List(filter)
}

// Get 查询结算单详情
func (s *SettlementService) Get(tenant TenantContext, settlementID uint) (*models.Settlement, error) {
	settlement, err := s.settlementRepo.GetByID(tenant.StoreID, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrNotFound
	}
	return settlement, nil
}

// PendingByCarrier 按承运商汇总未打款结算单
func (s *SettlementService) PendingByCarrier(tenant TenantContext) ([]repository.CarrierPendingRow, error) {
	return s.settlementRepo.PendingByCarrier(tenant.StoreID)
}

// Summary 结算汇总，短暂缓存降低报表页刷新的查询压力
func (s *SettlementService) Summary(tenant TenantContext, from, to *time.Time) ([]repository.SettlementSummaryRow, error) {
	key := s.summaryCacheKey(tenant.StoreID, from, to)
	cached := make([]repository.SettlementSummaryRow, 0)
	if hit, err := cache.GetJSON(context.Background(), key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := s.settlementRepo.Summary(tenant.StoreID, from, to)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(context.Background(), key, rows, s.summaryTTL); err != nil {
		logger.Warnw("settlement_summary_cache_set_failed", "error", err)
	}
	return rows, nil
}

func (s *SettlementService) summaryCacheKey(storeID uint, from, to *time.Time) string {
	fromPart, toPart := "", ""
	if from != nil {
		fromPart = models.NormalizeSettlementDate(*from).Format("20060102")
	}
	if to != nil {
		toPart = models.NormalizeSettlementDate(*to).Format("20060102")
	}
	return fmt.Sprintf("%s:%d:%s:%s", constants.SettlementSummaryCacheKey, storeID, fromPart, toPart)
}

func (s *SettlementService) invalidateSummaryCache(storeID uint) {
	// 范围参数参与键名，这里只清默认全量键，范围键等 TTL 过期
	if err := cache.Del(context.Background(), fmt.Sprintf("%s:%d::", constants.SettlementSummaryCacheKey, storeID)); err != nil {
		logger.Warnw("settlement_summary_cache_del_failed", "error", err)
	}
}

// ExportXLSX 导出结算单工作簿
func (s *SettlementService) ExportXLSX(tenant TenantContext, filter repository.SettlementListFilter) ([]byte, error) {
	filter.StoreID = tenant.StoreID
	settlements, err := s.settlementRepo.ListForExport(filter)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()
	const sheet = "Settlements"
	file.SetSheetName(file.GetSheetName(0), sheet)

	headers := []string{"结算日期", "承运商", "应收现金", "实收现金", "差额", "状态", "打款金额", "打款时间", "备注"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, settlement := range settlements {
		carrierName := ""
		if settlement.Carrier != nil {
			carrierName = settlement.Carrier.Name
		}
		paidAmount := ""
		if settlement.PaidAmount != nil {
			paidAmount = settlement.PaidAmount.String()
		}
		paidAt := ""
		if settlement.PaidAt != nil {
			paidAt = settlement.PaidAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			settlement.SettlementDate.Format("2006-01-02"),
			carrierName,
			settlement.ExpectedCash.String(),
			settlement.CollectedCash.String(),
			settlement.Discrepancy.String(),
			settlement.Status,
			paidAmount,
			paidAt,
			settlement.Notes,
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}


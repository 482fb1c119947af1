package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/http/response"
	"github.com/T0MGL/0rdefy-sub018/internal/metrics"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func buildSettlementFilter(c *gin.Context) (repository.SettlementListFilter, error) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	dateFrom, err := parseDateNullable(strings.TrimSpace(c.Query("date_from")))
	if err != nil {
		return repository.SettlementListFilter{}, err
	}
	dateTo, err := parseDateNullable(strings.TrimSpace(c.Query("date_to")))
	if err != nil {
		return repository.SettlementListFilter{}, err
	}
	var carrierID uint
	if raw := strings.TrimSpace(c.Query("carrier_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			carrierID = uint(parsed)
		}
	}

	return repository.SettlementListFilter{
		Page:      page,
		PageSize:  pageSize,
		CarrierID: carrierID,
		Status:    strings.TrimSpace(c.Query("status")),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	}, nil
}

// ListSettlements 结算单列表
func (h *Handler) ListSettlements(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	filter, err := buildSettlementFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	settlements, total, err := h.SettlementService.List(t, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.Pagination{
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		Total:     total,
		TotalPage: (total + int64(filter.PageSize) - 1) / int64(filter.PageSize),
	}
	response.SuccessWithPage(c, settlements, pagination)
}

// GetSettlement 结算单详情
func (h *Handler) GetSettlement(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	settlement, err := h.SettlementService.Get(t, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.settlement_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, settlement)
}

// GetShippedOrdersGrouped 待手工对账订单（按承运商+派送日期分组）
func (h *Handler) GetShippedOrdersGrouped(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}

	groups, err := h.OrderService.ShippedOrdersGrouped(t)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, groups)
}

// ManualReconciliationRequest 手工对账请求
type ManualReconciliationRequest struct {
	CarrierID          uint         `json:"carrier_id" binding:"required"`
	SettlementDate     string       `json:"settlement_date"`
	OrderIDs           []uint       `json:"order_ids" binding:"required"`
	CollectedCash      models.Money `json:"collected_cash"`
	Notes              string       `json:"notes"`
	ConfirmDiscrepancy bool         `json:"confirm_discrepancy"`
}

// ManualReconciliation 手工对账：勾选订单并录入实收总额
func (h *Handler) ManualReconciliation(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	var req ManualReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	settlementDate := time.Now()
	if raw := strings.TrimSpace(req.SettlementDate); raw != "" {
		parsed, err := parseDateNullable(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.settlement_date_invalid", err)
			return
		}
		settlementDate = *parsed
	}

	start := time.Now()
	settlement, err := h.SettlementService.ProcessManualReconciliation(t, service.ManualReconciliationInput{
		CarrierID:          req.CarrierID,
		SettlementDate:     settlementDate,
		OrderIDs:           req.OrderIDs,
		CollectedCash:      req.CollectedCash,
		Notes:              req.Notes,
		ConfirmDiscrepancy: req.ConfirmDiscrepancy,
	})
	metrics.ObserveSettlementReconcile("manual", err, time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrders):
			respondError(c, response.CodeBadRequest, "error.settlement_orders_empty", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.not_found", nil)
		case errors.Is(err, service.ErrDiscrepancyConfirmationRequired):
			respondError(c, response.CodeBadRequest, "error.discrepancy_confirmation_required", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.order_status_invalid", nil)
		case errors.Is(err, service.ErrConflict):
			respondError(c, response.CodeConflict, "error.conflict", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, settlement)
}

// SettlementPaymentRequest 结算打款登记请求
type SettlementPaymentRequest struct {
	Amount    models.Money `json:"amount"`
	Method    string       `json:"method" binding:"required"`
	Reference string       `json:"reference"`
	Notes     string       `json:"notes"`
}

// PaySettlement 登记结算打款（仅允许一次）
func (h *Handler) PaySettlement(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SettlementPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	settlement, err := h.SettlementService.MarkPaid(t, id, service.PaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.settlement_not_found", nil)
		case errors.Is(err, service.ErrSettlementPaid):
			respondError(c, response.CodeConflict, "error.settlement_already_paid", nil)
		case errors.Is(err, service.ErrPaymentAmountInvalid), errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.payment_amount_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, settlement)
}

// DeleteSettlement 删除结算单（仅 pending 状态允许）
func (h *Handler) DeleteSettlement(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.SettlementService.Delete(t, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.settlement_not_found", nil)
		case errors.Is(err, service.ErrSettlementNotDeletable):
			respondError(c, response.CodeConflict, "error.settlement_not_deletable", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, nil)
}

// GetPendingByCarrier 各承运商未打款余额
func (h *Handler) GetPendingByCarrier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}

	rows, err := h.SettlementService.PendingByCarrier(t)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, rows)
}

// GetSettlementSummary 结算汇总统计（短时缓存）
func (h *Handler) GetSettlementSummary(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	from, err := parseDateNullable(strings.TrimSpace(c.Query("start_date")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	to, err := parseDateNullable(strings.TrimSpace(c.Query("end_date")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rows, err := h.SettlementService.Summary(t, from, to)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, rows)
}

// ExportSettlements 导出结算单 XLSX
func (h *Handler) ExportSettlements(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	filter, err := buildSettlementFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	content, err := h.SettlementService.ExportXLSX(t, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.export_failed", err)
		return
	}

	filename := fmt.Sprintf("settlements_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}

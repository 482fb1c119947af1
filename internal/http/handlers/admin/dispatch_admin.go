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
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrdersToDispatch 可派送订单列表（已确认且未被未完成批次占用）
func (h *Handler) GetOrdersToDispatch(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	var carrierID uint
	if raw := strings.TrimSpace(c.Query("carrier_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		carrierID = uint(parsed)
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	orders, err := h.OrderService.OrdersToDispatch(t, carrierID, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, orders)
}

// CreateDispatchSessionRequest 创建派送批次请求
type CreateDispatchSessionRequest struct {
	CarrierID uint   `json:"carrier_id" binding:"required"`
	OrderIDs  []uint `json:"order_ids" binding:"required"`
}

// CreateDispatchSession 创建派送批次（领用订单）
func (h *Handler) CreateDispatchSession(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	var req CreateDispatchSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	session, err := h.DispatchService.CreateSession(t, req.CarrierID, req.OrderIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrders):
			respondError(c, response.CodeBadRequest, "error.dispatch_orders_empty", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.not_found", nil)
		case errors.Is(err, service.ErrCarrierDisabled):
			respondError(c, response.CodeConflict, "error.carrier_disabled", nil)
		case errors.Is(err, service.ErrOrdersBusy), errors.Is(err, service.ErrConflict):
			respondError(c, response.CodeConflict, "error.dispatch_order_conflict", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.order_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, session)
}

// ListDispatchSessions 派送批次列表
func (h *Handler) ListDispatchSessions(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var carrierID uint
	if raw := strings.TrimSpace(c.Query("carrier_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			carrierID = uint(parsed)
		}
	}

	sessions, total, err := h.DispatchService.List(t, repository.DispatchSessionListFilter{
		Page:        page,
		PageSize:    pageSize,
		CarrierID:   carrierID,
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, sessions, pagination)
}

// GetDispatchSession 派送批次详情
func (h *Handler) GetDispatchSession(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.DispatchService.Get(t, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.dispatch_session_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, session)
}

// ExportDispatchSession 导出派送清单 CSV（订单随之流转为已发货）
func (h *Handler) ExportDispatchSession(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	content, filename, err := h.DispatchService.ExportCSV(t, id)
	if err != nil {
		metrics.IncDispatchExport(false)
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.dispatch_session_not_found", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.dispatch_session_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.export_failed", err)
		}
		return
	}
	metrics.IncDispatchExport(true)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", content)
}

// ImportDispatchResults 导入承运商配送结果回执（部分成功）
func (h *Handler) ImportDispatchResults(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.import_file_invalid", err)
		return
	}
	reader, err := file.Open()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.import_file_invalid", err)
		return
	}
	defer reader.Close()

	summary, err := h.DispatchService.ImportResults(t, id, reader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.dispatch_session_not_found", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.dispatch_session_status_invalid", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.import_file_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	metrics.AddDispatchImportRows("delivered", summary.Delivered)
	metrics.AddDispatchImportRows("failed", summary.Failed)
	metrics.AddDispatchImportRows("unmatched", len(summary.Unmatched))
	response.Success(c, summary)
}

// ProcessDispatchSessionRequest 批次对账请求
type ProcessDispatchSessionRequest struct {
	SettlementDate string `json:"settlement_date"`
	Notes          string `json:"notes"`
}

// ProcessDispatchSession 批次对账：按导入回执生成/合并结算单
func (h *Handler) ProcessDispatchSession(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProcessDispatchSessionRequest
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
	settlement, err := h.DispatchService.ProcessSettlement(t, id, service.ProcessInput{
		SettlementDate: settlementDate,
		Notes:          req.Notes,
	})
	metrics.ObserveSettlementReconcile("session", err, time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.dispatch_session_not_found", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.dispatch_session_status_invalid", nil)
		case errors.Is(err, service.ErrEmptyOrders):
			respondError(c, response.CodeBadRequest, "error.settlement_orders_empty", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, settlement)
}

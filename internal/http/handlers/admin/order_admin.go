package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/http/response"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderRequest 订单创建/更新请求
type OrderRequest struct {
	OrderNo      string        `json:"order_no" binding:"required"`
	CarrierID    *uint         `json:"carrier_id"`
	CustomerName string        `json:"customer_name" binding:"required"`
	Address      string        `json:"address"`
	Phone        string        `json:"phone"`
	Zone         string        `json:"zone"`
	TotalPrice   *models.Money `json:"total_price"`
	CODAmount    *models.Money `json:"cod_amount"`
	Notes        string        `json:"notes"`
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
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

	orders, total, err := h.OrderService.List(t, repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		CarrierID:     carrierID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		Zone:          strings.TrimSpace(c.Query("zone")),
		Search:        strings.TrimSpace(c.Query("search")),
		Unsettled:     c.Query("unsettled") == "true",
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
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
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.Get(t, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, order)
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.Create(t, service.OrderInput{
		OrderNo:      req.OrderNo,
		CarrierID:    req.CarrierID,
		CustomerName: req.CustomerName,
		Address:      req.Address,
		Phone:        req.Phone,
		Zone:         req.Zone,
		TotalPrice:   req.TotalPrice,
		CODAmount:    req.CODAmount,
		Notes:        req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			respondError(c, response.CodeConflict, "error.order_no_conflict", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.carrier_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, order)
}

// UpdateOrder 更新订单
func (h *Handler) UpdateOrder(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.Update(t, id, service.OrderInput{
		OrderNo:      req.OrderNo,
		CarrierID:    req.CarrierID,
		CustomerName: req.CustomerName,
		Address:      req.Address,
		Phone:        req.Phone,
		Zone:         req.Zone,
		TotalPrice:   req.TotalPrice,
		CODAmount:    req.CODAmount,
		Notes:        req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.order_status_invalid", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest 订单状态流转请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 订单状态流转（仅允许前向流转）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.UpdateStatus(t, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrStatusInvalid):
			respondError(c, response.CodeConflict, "error.order_status_invalid", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, order)
}

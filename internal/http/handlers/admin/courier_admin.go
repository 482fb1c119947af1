package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/http/response"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/gin-gonic/gin"
)

// CourierRequest 配送员创建/更新请求
type CourierRequest struct {
	CarrierID uint   `json:"carrier_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	IsActive  *bool  `json:"is_active"`
}

// ListCouriers 配送员列表
func (h *Handler) ListCouriers(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var carrierID uint
	if raw := strings.TrimSpace(c.Query("carrier_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			carrierID = uint(parsed)
		}
	}

	couriers, total, err := h.CourierService.List(t, repository.CourierListFilter{
		Page:       page,
		PageSize:   pageSize,
		CarrierID:  carrierID,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: c.Query("only_active") == "true",
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
	response.SuccessWithPage(c, couriers, pagination)
}

// GetCourier 配送员详情
func (h *Handler) GetCourier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	courier, err := h.CourierService.Get(t, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.courier_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, courier)
}

// CreateCourier 创建配送员
func (h *Handler) CreateCourier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	var req CourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	courier, err := h.CourierService.Create(t, service.CourierInput{
		CarrierID: req.CarrierID,
		Name:      req.Name,
		Phone:     req.Phone,
		IsActive:  req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.carrier_not_found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, courier)
}

// UpdateCourier 更新配送员
func (h *Handler) UpdateCourier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	courier, err := h.CourierService.Update(t, id, service.CourierInput{
		CarrierID: req.CarrierID,
		Name:      req.Name,
		Phone:     req.Phone,
		IsActive:  req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.courier_not_found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, courier)
}

// DeleteCourier 删除配送员
func (h *Handler) DeleteCourier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.CourierService.Delete(t, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.courier_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, nil)
}

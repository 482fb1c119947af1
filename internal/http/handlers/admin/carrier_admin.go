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

// CarrierRequest 承运商创建/更新请求
type CarrierRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"is_active"`
}

// ListCarriers 承运商列表
func (h *Handler) ListCarriers(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	carriers, total, err := h.CarrierService.List(t, repository.CarrierListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: c.Query("only_active") == "true",
		WithZones:  c.Query("with_zones") == "true",
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
	response.SuccessWithPage(c, carriers, pagination)
}

// GetCarrier 承运商详情
func (h *Handler) GetCarrier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	carrier, err := h.CarrierService.Get(t, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.carrier_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, carrier)
}

// CreateCarrier 创建承运商
func (h *Handler) CreateCarrier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	var req CarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	carrier, err := h.CarrierService.Create(t, service.CarrierInput{
		Name:     req.Name,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, carrier)
}

// UpdateCarrier 更新承运商
func (h *Handler) UpdateCarrier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	carrier, err := h.CarrierService.Update(t, id, service.CarrierInput{
		Name:     req.Name,
		Phone:    req.Phone,
		IsActive: req.IsActive,
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
	response.Success(c, carrier)
}

// DeleteCarrier 删除承运商（存在关联数据时拒绝）
func (h *Handler) DeleteCarrier(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.CarrierService.Delete(t, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.carrier_not_found", nil)
		case errors.Is(err, service.ErrCarrierHasReferences):
			respondError(c, response.CodeConflict, "error.carrier_has_refs", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, nil)
}

// ZoneRequest 配送区域创建/更新请求
type ZoneRequest struct {
	ZoneName string        `json:"zone_name" binding:"required"`
	Rate     *models.Money `json:"rate"`
	IsActive *bool         `json:"is_active"`
}

// ListCarrierZones 配送区域列表
func (h *Handler) ListCarrierZones(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	carrierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	zones, err := h.CarrierService.ListZones(t, carrierID, c.Query("only_active") == "true")
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.carrier_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, zones)
}

// CreateCarrierZone 创建配送区域
func (h *Handler) CreateCarrierZone(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	carrierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	zone, err := h.CarrierService.CreateZone(t, carrierID, service.ZoneInput{
		ZoneName: req.ZoneName,
		Rate:     req.Rate,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.carrier_not_found", nil)
		case errors.Is(err, service.ErrZoneConflict):
			respondError(c, response.CodeConflict, "error.zone_conflict", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, zone)
}

// UpdateCarrierZone 更新配送区域
func (h *Handler) UpdateCarrierZone(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	carrierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	zoneID, ok := parseIDParam(c, "zone_id")
	if !ok {
		return
	}
	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	zone, err := h.CarrierService.UpdateZone(t, carrierID, zoneID, service.ZoneInput{
		ZoneName: req.ZoneName,
		Rate:     req.Rate,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.zone_not_found", nil)
		case errors.Is(err, service.ErrZoneConflict):
			respondError(c, response.CodeConflict, "error.zone_conflict", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, zone)
}

// DeleteCarrierZone 删除配送区域
func (h *Handler) DeleteCarrierZone(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	carrierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	zoneID, ok := parseIDParam(c, "zone_id")
	if !ok {
		return
	}

	if err := h.CarrierService.DeleteZone(t, carrierID, zoneID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.zone_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, nil)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(parsed), true
}

package repository

import (
	"errors"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CarrierPendingRow 按承运商汇总的待结算行
type CarrierPendingRow struct {
	CarrierID      uint         `json:"carrier_id"`
	CarrierName    string       `json:"carrier_name"`
	Count          int64        `json:"count"`
	ExpectedTotal  models.Money `json:"expected_total"`
	CollectedTotal models.Money `json:"collected_total"`
}

// SettlementSummaryRow 结算汇总行
type SettlementSummaryRow struct {
	Status           string       `json:"status"`
	Count            int64        `json:"count"`
	ExpectedTotal    models.Money `json:"expected_total"`
	CollectedTotal   models.Money `json:"collected_total"`
	DiscrepancyTotal models.Money `json:"discrepancy_total"`
}

// SettlementRepository 结算单数据访问接口
type SettlementRepository interface {
	GetByID(storeID, id uint) (*models.Settlement, error)
	FindByID(id uint) (*models.Settlement, error)
	GetByKey(storeID, carrierID uint, settlementDate time.Time) (*models.Settlement, error)
	List(filter SettlementListFilter) ([]models.Settlement, int64, error)
	ListForExport(filter SettlementListFilter) ([]models.Settlement, error)
	PendingByCarrier(storeID uint) ([]CarrierPendingRow, error)
	Summary(storeID uint, from, to *time.Time) ([]SettlementSummaryRow, error)
	Create(settlement *models.Settlement) error
	Update(settlement *models.Settlement) error
	Delete(storeID, id uint) error
	AppendOrders(settlementID uint, orders []models.SettlementOrder) error
	WithTx(tx *gorm.DB) *GormSettlementRepository
}

// GormSettlementRepository GORM 实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算单仓库
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) *GormSettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// GetByID 获取店铺下结算单，包含结算订单明细
func (r *GormSettlementRepository) GetByID(storeID, id uint) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.Preload("Carrier").
		Preload("Orders").
		Preload("Orders.Order").
		Where("store_id = ?", storeID).
		First(&settlement, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// FindByID 跨店铺获取结算单（异步任务消费侧使用）
func (r *GormSettlementRepository) FindByID(id uint) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.Preload("Carrier").First(&settlement, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// GetByKey 根据结算键（店铺+承运商+日期）获取结算单
func (r *GormSettlementRepository) GetByKey(storeID, carrierID uint, settlementDate time.Time) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.Where("store_id = ? AND carrier_id = ? AND settlement_date = ?",
		storeID, carrierID, models.NormalizeSettlementDate(settlementDate)).
		First(&settlement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

func (r *GormSettlementRepository) listQuery(filter SettlementListFilter) *gorm.DB {
	query := r.db.Model(&models.Settlement{}).Where("store_id = ?", filter.StoreID)
	if filter.CarrierID > 0 {
		query = query.Where("carrier_id = ?", filter.CarrierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("settlement_date >= ?", models.NormalizeSettlementDate(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("settlement_date <= ?", models.NormalizeSettlementDate(*filter.DateTo))
	}
	return query
}

// List 获取结算单列表
func (r *GormSettlementRepository) List(filter SettlementListFilter) ([]models.Settlement, int64, error) {
	query := r.listQuery(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	settlements := make([]models.Settlement, 0)
	err := applyPagination(query.Preload("Carrier").Order("settlement_date DESC, id DESC"), filter.Page, filter.PageSize).
		Find(&settlements).Error
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// ListForExport 获取导出用结算单全量列表（不分页）
func (r *GormSettlementRepository) ListForExport(filter SettlementListFilter) ([]models.Settlement, error) {
	settlements := make([]models.Settlement, 0)
	err := r.listQuery(filter).
		Preload("Carrier").
		Order("settlement_date ASC, id ASC").
		Find(&settlements).Error
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

// PendingByCarrier 按承运商汇总未付款结算单
func (r *GormSettlementRepository) PendingByCarrier(storeID uint) ([]CarrierPendingRow, error) {
	rows := make([]CarrierPendingRow, 0)
	err := r.db.Model(&models.Settlement{}).
		Select("settlements.carrier_id",
			"carriers.name AS carrier_name",
			"COUNT(settlements.id) AS count",
			"SUM(settlements.expected_cash) AS expected_total",
			"SUM(settlements.collected_cash) AS collected_total").
		Joins("JOIN carriers ON carriers.id = settlements.carrier_id").
		Where("settlements.store_id = ? AND settlements.paid_at IS NULL", storeID).
		Group("settlements.carrier_id, carriers.name").
		Order("settlements.carrier_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Summary 按状态汇总结算金额
func (r *GormSettlementRepository) Summary(storeID uint, from, to *time.Time) ([]SettlementSummaryRow, error) {
	rows := make([]SettlementSummaryRow, 0)
	query := r.db.Model(&models.Settlement{}).
		Select("status",
			"COUNT(id) AS count",
			"SUM(expected_cash) AS expected_total",
			"SUM(collected_cash) AS collected_total",
			"SUM(discrepancy) AS discrepancy_total").
		Where("store_id = ?", storeID)
	if from != nil {
		query = query.Where("settlement_date >= ?", models.NormalizeSettlementDate(*from))
	}
	if to != nil {
		query = query.Where("settlement_date <= ?", models.NormalizeSettlementDate(*to))
	}
	err := query.Group("status").Order("status ASC").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create 创建结算单
func (r *GormSettlementRepository) Create(settlement *models.Settlement) error {
	return r.db.Create(settlement).Error
}

// Update 更新结算单
func (r *GormSettlementRepository) Update(settlement *models.Settlement) error {
	return r.db.Save(settlement).Error
}

// Delete 删除结算单并解除订单绑定
func (r *GormSettlementRepository) Delete(storeID, id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Order{}).
			Where("settlement_id = ?", id).
			Updates(map[string]interface{}{
				"settlement_id":  nil,
				"payment_status": constants.PaymentStatusPending,
			}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("settlement_id = ?", id).Delete(&models.SettlementOrder{}).Error; err != nil {
			return err
		}
		return tx.Where("store_id = ?", storeID).Delete(&models.Settlement{}, id).Error
	})
}

// AppendOrders 追加结算订单明细，忽略已存在的订单
func (r *GormSettlementRepository) AppendOrders(settlementID uint, orders []models.SettlementOrder) error {
	if len(orders) == 0 {
		return nil
	}
	for i := range orders {
		orders[i].SettlementID = settlementID
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&orders).Error
}

package main

import (
	"fmt"

	"github.com/T0MGL/0rdefy-sub018/internal/config"
	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"
	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认店铺与操作员
	if err := models.InitDefaultOperator("", ""); err != nil {
		stdLog.Fatalf("Failed to init default operator: %v", err)
	}
	var store models.Store
	if err := models.DB.Order("id asc").First(&store).Error; err != nil {
		stdLog.Fatalf("Failed to load default store: %v", err)
	}

	// 添加承运商
	carriers := []models.Carrier{
		{StoreID: store.ID, Name: "迅达速运", Phone: "0101234567", IsActive: true},
		{StoreID: store.ID, Name: "同城快送", Phone: "0107654321", IsActive: true},
	}
	for i := range carriers {
		carrier := &carriers[i]
		var existing models.Carrier
		if err := models.DB.Where("store_id = ? AND name = ?", carrier.StoreID, carrier.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(carrier).Error; err != nil {
				stdLog.Printf("Failed to create carrier %s: %v", carrier.Name, err)
			} else {
				stdLog.Printf("Created carrier: %s", carrier.Name)
			}
		} else {
			*carrier = existing
			stdLog.Printf("Carrier already exists: %s", carrier.Name)
		}
	}

	// 添加配送区域（固定运费）
	zones := []models.CarrierZone{
		{StoreID: store.ID, CarrierID: carriers[0].ID, ZoneName: "市中心", Rate: models.NewMoneyFromDecimal(decimal.NewFromFloat(8.00)), IsActive: true},
		{StoreID: store.ID, CarrierID: carriers[0].ID, ZoneName: "近郊", Rate: models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50)), IsActive: true},
		{StoreID: store.ID, CarrierID: carriers[1].ID, ZoneName: "市中心", Rate: models.NewMoneyFromDecimal(decimal.NewFromFloat(6.00)), IsActive: true},
	}
	for _, zone := range zones {
		var existing models.CarrierZone
		if err := models.DB.Where("carrier_id = ? AND zone_name = ?", zone.CarrierID, zone.ZoneName).First(&existing).Error; err != nil {
			if err := models.DB.Create(&zone).Error; err != nil {
				stdLog.Printf("Failed to create zone %s: %v", zone.ZoneName, err)
			} else {
				stdLog.Printf("Created zone: %s (carrier %d)", zone.ZoneName, zone.CarrierID)
			}
		} else {
			stdLog.Printf("Zone already exists: %s (carrier %d)", zone.ZoneName, zone.CarrierID)
		}
	}

	// 添加骑手
	couriers := []models.Courier{
		{StoreID: store.ID, CarrierID: carriers[0].ID, Name: "张伟", Phone: "13800000001", IsActive: true},
		{StoreID: store.ID, CarrierID: carriers[0].ID, Name: "李强", Phone: "13800000002", IsActive: true},
		{StoreID: store.ID, CarrierID: carriers[1].ID, Name: "王芳", Phone: "13800000003", IsActive: true},
	}
	for _, courier := range couriers {
		var existing models.Courier
		if err := models.DB.Where("carrier_id = ? AND name = ?", courier.CarrierID, courier.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&courier).Error; err != nil {
				stdLog.Printf("Failed to create courier %s: %v", courier.Name, err)
			} else {
				stdLog.Printf("Created courier: %s", courier.Name)
			}
		} else {
			stdLog.Printf("Courier already exists: %s", courier.Name)
		}
	}

	// 添加示例订单（已确认，可进入派送批次）
	firstCarrierID := carriers[0].ID
	orders := []models.Order{
		{
			StoreID:       store.ID,
			OrderNo:       "ORD-SEED-0001",
			CarrierID:     &firstCarrierID,
			CustomerName:  "陈晨",
			Address:       "人民路 12 号 3 单元 502",
			Phone:         "13900000001",
			Zone:          "市中心",
			Status:        constants.OrderStatusConfirmed,
			TotalPrice:    models.NewMoneyFromDecimal(decimal.NewFromFloat(159.00)),
			CODAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(159.00)),
			PaymentStatus: constants.PaymentStatusPending,
		},
		{
			StoreID:       store.ID,
			OrderNo:       "ORD-SEED-0002",
			CarrierID:     &firstCarrierID,
			CustomerName:  "刘洋",
			Address:       "建设大道 88 号",
			Phone:         "13900000002",
			Zone:          "近郊",
			Status:        constants.OrderStatusConfirmed,
			TotalPrice:    models.NewMoneyFromDecimal(decimal.NewFromFloat(249.50)),
			CODAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(249.50)),
			PaymentStatus: constants.PaymentStatusPending,
		},
		{
			StoreID:       store.ID,
			OrderNo:       "ORD-SEED-0003",
			CustomerName:  "赵敏",
			Address:       "光明街 5 号",
			Phone:         "13900000003",
			Zone:          "市中心",
			Status:        constants.OrderStatusConfirmed,
			TotalPrice:    models.NewMoneyFromDecimal(decimal.NewFromFloat(78.00)),
			CODAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(78.00)),
			PaymentStatus: constants.PaymentStatusPending,
		},
	}
	for _, order := range orders {
		var existing models.Order
		if err := models.DB.Where("store_id = ? AND order_no = ?", order.StoreID, order.OrderNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.OrderNo, err)
			} else {
				stdLog.Printf("Created order: %s", order.OrderNo)
			}
		} else {
			stdLog.Printf("Order already exists: %s", order.OrderNo)
		}
	}

	fmt.Println("Seed completed.")
}

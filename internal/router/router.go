package router

import (
	"fmt"
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/cache"
	"github.com/T0MGL/0rdefy-sub018/internal/config"
	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	adminhandlers "github.com/T0MGL/0rdefy-sub018/internal/http/handlers/admin"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"
	"github.com/T0MGL/0rdefy-sub018/internal/metrics"
	"github.com/T0MGL/0rdefy-sub018/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:operator_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	metrics.Init()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(metrics.GinMiddleware())

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), adminHandler.OperatorLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.OperatorRepo), OperatorRBACMiddleware(c.AuthzService))
			{
				authorized.PUT("/password", adminHandler.UpdateOperatorPassword)

				// 承运商与配送区域
				authorized.GET("/carriers", adminHandler.ListCarriers)
				authorized.GET("/carriers/:id", adminHandler.GetCarrier)
				authorized.POST("/carriers", adminHandler.CreateCarrier)
				authorized.PUT("/carriers/:id", adminHandler.UpdateCarrier)
				authorized.DELETE("/carriers/:id", adminHandler.DeleteCarrier)
				authorized.GET("/carriers/:id/zones", adminHandler.ListCarrierZones)
				authorized.POST("/carriers/:id/zones", adminHandler.CreateCarrierZone)
				authorized.PUT("/carriers/:id/zones/:zone_id", adminHandler.UpdateCarrierZone)
				authorized.DELETE("/carriers/:id/zones/:zone_id", adminHandler.DeleteCarrierZone)

				// 骑手管理
				authorized.GET("/couriers", adminHandler.ListCouriers)
				authorized.GET("/couriers/:id", adminHandler.GetCourier)
				authorized.POST("/couriers", adminHandler.CreateCourier)
				authorized.PUT("/couriers/:id", adminHandler.UpdateCourier)
				authorized.DELETE("/couriers/:id", adminHandler.DeleteCourier)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders", adminHandler.CreateOrder)
				authorized.PUT("/orders/:id", adminHandler.UpdateOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

				// 派送批次
				authorized.GET("/dispatch/orders-to-dispatch", adminHandler.GetOrdersToDispatch)
				authorized.POST("/dispatch/sessions", adminHandler.CreateDispatchSession)
				authorized.GET("/dispatch/sessions", adminHandler.ListDispatchSessions)
				authorized.GET("/dispatch/sessions/:id", adminHandler.GetDispatchSession)
				authorized.GET("/dispatch/sessions/:id/export", adminHandler.ExportDispatchSession)
				authorized.POST("/dispatch/sessions/:id/import", adminHandler.ImportDispatchResults)
				authorized.POST("/dispatch/sessions/:id/process", adminHandler.ProcessDispatchSession)

				// 结算单
				authorized.GET("/settlements", adminHandler.ListSettlements)
				authorized.GET("/settlements/shipped-orders-grouped", adminHandler.GetShippedOrdersGrouped)
				authorized.GET("/settlements/pending-by-carrier", adminHandler.GetPendingByCarrier)
				authorized.GET("/settlements/summary", adminHandler.GetSettlementSummary)
				authorized.GET("/settlements/export", adminHandler.ExportSettlements)
				authorized.POST("/settlements/manual-reconciliation", adminHandler.ManualReconciliation)
				authorized.GET("/settlements/:id", adminHandler.GetSettlement)
				authorized.POST("/settlements/:id/pay", adminHandler.PaySettlement)
				authorized.DELETE("/settlements/:id", adminHandler.DeleteSettlement)
			}
		}
	}

	// 健康检查与指标
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

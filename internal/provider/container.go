package provider

import (
	"github.com/T0MGL/0rdefy-sub018/internal/authz"
	"github.com/T0MGL/0rdefy-sub018/internal/cache"
	"github.com/T0MGL/0rdefy-sub018/internal/config"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/queue"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"
	"github.com/T0MGL/0rdefy-sub018/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OperatorRepo        repository.OperatorRepository
	StoreRepo           repository.StoreRepository
	CarrierRepo         repository.CarrierRepository
	CourierRepo         repository.CourierRepository
	OrderRepo           repository.OrderRepository
	DispatchSessionRepo repository.DispatchSessionRepository
	SettlementRepo      repository.SettlementRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	EmailService      *service.EmailService
	CarrierService    *service.CarrierService
	CourierService    *service.CourierService
	OrderService      *service.OrderService
	SettlementService *service.SettlementService
	DispatchService   *service.DispatchService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OperatorRepo = repository.NewOperatorRepository(db)
	c.StoreRepo = repository.NewStoreRepository(db)
	c.CarrierRepo = repository.NewCarrierRepository(db)
	c.CourierRepo = repository.NewCourierRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.DispatchSessionRepo = repository.NewDispatchSessionRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo)
	c.CarrierService = service.NewCarrierService(c.CarrierRepo)
	c.CourierService = service.NewCourierService(c.CourierRepo, c.CarrierRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CarrierRepo)

	// 队列未启用时 notifier 为空接口值，结算服务按未配置处理
	var notifier service.DiscrepancyNotifier
	if c.QueueClient != nil && c.QueueClient.Enabled() {
		notifier = c.QueueClient
	}
	c.SettlementService = service.NewSettlementService(
		c.SettlementRepo,
		c.OrderRepo,
		c.CarrierRepo,
		notifier,
		c.Config.Settlement.SummaryCacheTTLSeconds,
	)
	c.DispatchService = service.NewDispatchService(
		c.DispatchSessionRepo,
		c.OrderRepo,
		c.CarrierRepo,
		c.SettlementService,
		c.Config.Dispatch.CodePrefix,
		c.Config.Dispatch.ExportBOM,
	)
}

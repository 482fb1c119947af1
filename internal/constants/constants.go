package constants

// 订单配送状态常量（只允许向前推进）
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusReadyToShip    = "ready_to_ship"
	OrderStatusShipped        = "shipped"
	OrderStatusDelivered      = "delivered"
	OrderStatusDeliveryFailed = "delivery_failed"
)

// 订单收款状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCollected = "collected"
)

// 发货批次状态常量
const (
	DispatchStatusOpen      = "open"
	DispatchStatusExported  = "exported"
	DispatchStatusProcessed = "processed"
)

// 配送结果常量
const (
	DeliveryOutcomeDelivered = "delivered"
	DeliveryOutcomeFailed    = "failed"
	DeliveryOutcomeReturned  = "returned"
)

// 日结状态常量
const (
	SettlementStatusPending    = "pending"
	SettlementStatusCompleted  = "completed"
	SettlementStatusWithIssues = "with_issues"
)

// 批次编号前缀（如 DISP-29082026-01）
const DispatchCodePrefix = "DISP"

// 队列常量
const (
	QueueDefault              = "default"
	TaskSettlementDiscrepancy = "settlement:discrepancy_email"
)

// 缓存常量
const (
	RedisPrefixDefault               = "od"
	SettlementSummaryCacheKey        = "settlement:summary"
	SettlementSummaryCacheTTLSeconds = 60
)

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}

package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// AllowedOrderStatuses 允许写入的订单状态集合
var AllowedOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 履约记录本地状态常量
const (
	FulfillmentStatusSubmitting = "submitting"
	FulfillmentStatusPlaced     = "placed"
	FulfillmentStatusFailed     = "failed"
)

// 物流轨迹阶段常量（按常见推进顺序排列）
const (
	TrackingStageProcessing             = "processing"
	TrackingStageDispatched             = "dispatched"
	TrackingStageEnRoute                = "en_route"
	TrackingStageArrivedCourierFacility = "arrived_courier_facility"
	TrackingStageOutForDelivery         = "out_for_delivery"
	TrackingStageAvailableForPickup     = "available_for_pickup"
	TrackingStageUnsuccessfulDelivery   = "unsuccessful_delivery"
	TrackingStageDelivered              = "delivered"
)

// 清理任务常量
const (
	StaleOrderGraceMinutes     = 15
	TrackingSweepBatchSize     = 50
	TrackingSweepMaxConcurrent = 4
)

// 下单提交中断判定：供应商超时之外再留出的余量
const (
	PlacementStaleMarginSeconds = 60
)

// 默认国家编码
const (
	DefaultCountryCode = "ZA"
)

// 供应商计价币种
const (
	ProviderCurrencyDefault = "USD"
)

// 队列常量
const (
	QueueDefault          = "default"
	QueueCritical         = "critical"
	TaskOrderStatusEmail  = "order:status_email"
	TaskOrderPlace        = "order:place"
	TaskOrderTrackingSync = "order:tracking_sync"
	TaskOrderStaleReap    = "order:stale_reap"
	ReaperScheduleDefault = "@every 5m"
	ReaperLockKey         = "lock:order_stale_reap"
	ReaperLockTTLSeconds  = 600
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ds"
)

package provider

import (
	"time"

	"github.com/dropsync-next/internal/cache"
	"github.com/dropsync-next/internal/config"
	"github.com/dropsync-next/internal/dropship"
	"github.com/dropsync-next/internal/fxrate"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/metrics"
	"github.com/dropsync-next/internal/models"
	"github.com/dropsync-next/internal/queue"
	"github.com/dropsync-next/internal/repository"
	"github.com/dropsync-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Recorder
	Dropship    *dropship.Client
	FXRates     *fxrate.Cache

	// Repositories
	OrderRepo       repository.OrderRepository
	FulfillmentRepo repository.FulfillmentRepository
	ProductRepo     repository.ProductRepository
	UserRepo        repository.UserRepository

	// Services
	EmailService         *service.EmailService
	OrderStatusService   *service.OrderStatusService
	PlacementService     *service.PlacementService
	TrackingService      *service.TrackingService
	ShippingQuoteService *service.ShippingQuoteService
	ProductCostService   *service.ProductCostService
	ReaperService        *service.ReaperService
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
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.NewRecorder()
	}

	c.initClients()
	c.initRepositories(models.DB)
	c.initServices()
	return c
}

func (c *Container) initClients() {
	client := dropship.NewClient(dropship.Config{
		BaseURL: c.Config.Provider.BaseURL,
		APIKey:  c.Config.Provider.APIKey,
		Timeout: c.Config.Provider.Timeout(),
	}, nil)
	if c.Metrics != nil {
		client.WithObserver(c.Metrics)
	}
	c.Dropship = client

	if baseURL := c.Config.FXRate.BaseURL; baseURL != "" {
		ttl := time.Duration(c.Config.FXRate.TTLMinutes) * time.Minute
		c.FXRates = fxrate.NewCache(fxrate.NewHTTPFetcher(baseURL, nil), ttl)
	} else {
		logger.Infow("provider_fxrate_disabled", "reason", "base_url_empty")
	}
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.OrderRepo = repository.NewOrderRepository(db)
	c.FulfillmentRepo = repository.NewFulfillmentRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	dispatcher := service.NewStatusEmailDispatcher(c.QueueClient, c.EmailService)

	var rates service.RateProvider
	if c.FXRates != nil {
		rates = c.FXRates
	}

	c.OrderStatusService = service.NewOrderStatusService(c.OrderRepo, c.UserRepo, dispatcher, c.Metrics)
	c.PlacementService = service.NewPlacementService(c.OrderRepo, c.FulfillmentRepo, c.Dropship, c.OrderStatusService, c.Metrics).
		WithProviderTimeout(c.Config.Provider.Timeout())
	c.TrackingService = service.NewTrackingService(c.OrderRepo, c.FulfillmentRepo, c.Dropship, c.OrderStatusService, c.Metrics, c.Config.Provider.MaxConcurrency)
	c.ShippingQuoteService = service.NewShippingQuoteService(c.OrderRepo, c.ProductRepo, c.Dropship, rates, c.Config.Provider.Currency)
	c.ProductCostService = service.NewProductCostService(c.ProductRepo, c.Dropship)
	c.ReaperService = service.NewReaperService(c.OrderRepo, c.TrackingService, c.Config.Reaper, c.Metrics)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

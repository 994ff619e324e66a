package router

import (
	"fmt"
	"strings"

	"github.com/dropsync-next/internal/cache"
	"github.com/dropsync-next/internal/config"
	"github.com/dropsync-next/internal/constants"
	adminhandlers "github.com/dropsync-next/internal/http/handlers/admin"
	handlershared "github.com/dropsync-next/internal/http/handlers/shared"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
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
	operatorRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:operator", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, cfg.JWT.Issuer), RateLimitMiddleware(cache.Client(), operatorRule, KeyByOperator))
		{
			// 订单履约
			admin.POST("/orders/:id/placement", adminHandler.PlaceOrder)
			admin.POST("/orders/:id/placement/retry", adminHandler.RetryPlacement)
			admin.POST("/orders/:id/tracking/refresh", adminHandler.RefreshTracking)
			admin.GET("/orders/:id/shipping-quote", adminHandler.GetShippingQuote)
			admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)

			// 商品成本
			admin.POST("/products/:id/cost-sync", adminHandler.SyncProductCost)

			// 任务
			admin.POST("/jobs/stale-reap", adminHandler.RunStaleReap)
		}
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})
	if c != nil && c.Metrics != nil {
		r.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}

	return r
}

func requestLogger(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

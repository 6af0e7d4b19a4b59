package restapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine: CORS, request logging, recovery, the
// dashboard API under /api/v1 and the Prometheus endpoint.
func SetupRouter(h *DashboardHandler, zl *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(zl))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/session", h.GetSession)
		v1.POST("/session/connect", h.Connect)
		v1.POST("/session/disconnect", h.Disconnect)
		v1.POST("/session/account", h.ChangeAccount)
		v1.POST("/session/refresh", h.Refresh)

		v1.GET("/pools", h.ListPools)
		v1.GET("/pools/:address", h.GetPool)
		v1.POST("/pools/:address/swap", h.Swap)
		v1.POST("/pools/:address/stake", h.StakeInPool)

		v1.GET("/factory", h.GetFactory)
		v1.POST("/factory/pools", h.CreatePool)

		v1.GET("/staking", h.GetStaking)
		v1.GET("/receipts", h.GetReceipts)
		v1.POST("/staking/stake", h.Stake)
		v1.POST("/staking/unstake", h.Unstake)
		v1.POST("/staking/claim", h.Claim)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// ZapLoggerMiddleware logs one line per request.
func ZapLoggerMiddleware(zl *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			zl.Warn("Request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		zl.Debug("Request completed", fields...)
	}
}

package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter 建立 gin engine 並掛上所有路由
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/stores", h.OpenStore)
	r.GET("/stores/:id", h.GetStore)
	r.GET("/cash-desks/:id", h.GetCashDesk)

	articles := r.Group("/articles")
	{
		articles.POST("", h.CreateArticle)
		articles.GET("", h.ListArticles)
		articles.POST("/sell", h.Sell)
		articles.GET("/count", h.CountArticles)
		articles.GET("/:id", h.GetArticle)
		articles.PATCH("/:id", h.Replenish)
		articles.DELETE("/:id", h.RemoveArticle)
	}

	transactions := r.Group("/transactions")
	{
		transactions.POST("", h.RecordTransaction)
		transactions.GET("", h.ListTransactions)
		transactions.GET("/count", h.CountTransactions)
	}

	if logger != nil {
		logger.Info("router initialized")
	}
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if code, ok := c.Get(errorCodeKey); ok {
			fields = append(fields, zap.Any("code", code))
		}
		logger.Info("request completed", fields...)
	}
}

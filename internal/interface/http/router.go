package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/doctor-faq/internal/domain/auth"
	"github.com/yanqian/doctor-faq/internal/infra/config"
	"github.com/yanqian/doctor-faq/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *FAQHandler, authSvc auth.Service, recorder *metrics.FAQ) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(recorder.Handler()))

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	{
		api.POST("/faqs", handler.Save)
		api.GET("/faqs", handler.ListAll)
		api.GET("/faqs/single", handler.Get)
		api.POST("/faqs/filter", handler.Filter)
		api.PUT("/faqs/delete", handler.Delete)
		api.POST("/faqs/reply", authMiddleware(authSvc), handler.Reply)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDeps struct {
	Moderation *ModerationHandler
	Promotions *PromotionHandler
	Gatherer   prometheus.Gatherer
	Health     HealthCheck
	Logger     *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1", RequireOperator())

	moderation := api.Group("/moderation/:kind")
	moderation.GET("", deps.Moderation.List)
	moderation.POST("", deps.Moderation.Submit)
	moderation.GET("/:id", deps.Moderation.Get)
	moderation.POST("/:id/approve", deps.Moderation.Approve)
	moderation.POST("/:id/reject", deps.Moderation.Reject)

	requests := api.Group("/promotion-requests")
	requests.POST("", deps.Promotions.SubmitRequest)
	requests.POST("/:id/revoke", deps.Promotions.RevokeRequest)

	types := api.Group("/promotion-types")
	types.GET("", deps.Promotions.ListTypes)
	types.POST("", deps.Promotions.CreateType)
	types.GET("/:id", deps.Promotions.GetType)
	types.PUT("/:id", deps.Promotions.UpdateType)
	types.DELETE("/:id", deps.Promotions.DeactivateType)
	types.GET("/:id/availability", deps.Promotions.Availability)

	return router
}

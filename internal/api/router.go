package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"equipment-registry-backend/internal/mw"
)

// RouterConfig holds the HTTP-level settings for NewRouter.
type RouterConfig struct {
	JWTSecret       string
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
	// Gatherer serves /metrics when non-nil.
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID())

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Cache: flushed by every successful write, cleaned up every 10 minutes
	cacheStore := cache.New(cfg.CacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)
	invalidate := mw.InvalidateCache(cacheStore)
	authenticate := mw.Authenticate(cfg.JWTSecret)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Reads are public.
		api.GET("/equipment", caching, handler.ListEquipment)
		api.GET("/equipment/:id", caching, handler.GetEquipment)
		api.GET("/stats", caching, handler.GetStats)

		// Mutations require a bearer token naming the caller.
		api.POST("/equipment", invalidate, authenticate, handler.RegisterEquipment)
		api.PUT("/equipment/:id/status", invalidate, authenticate, handler.UpdateEquipmentStatus)
		api.PUT("/equipment/:id/details", invalidate, authenticate, handler.UpdateEquipmentDetails)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

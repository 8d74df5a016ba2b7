package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-status-backend/config"
	"parking-status-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), 5)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// Write path. The ingest guard does its own auth and rate limiting.
	r.POST("/update", handler.PostUpdate)

	// Read path, rate limited per client IP.
	read := r.Group("/")
	read.Use(rateLimiter)
	{
		read.GET("/status", caching, handler.GetStatus)

		read.GET("/analytics/stats", handler.GetAnalyticsStats)
		read.GET("/analytics/monthly", handler.GetAnalyticsMonthly)
		read.GET("/analytics/hourly", handler.GetAnalyticsHourly)
		read.GET("/analytics/weekly", handler.GetAnalyticsWeekly)
		read.GET("/analytics/best-times", handler.GetAnalyticsBestTimes)

		read.POST("/logs", handler.PostLog)
		read.PUT("/subscriptions", handler.PutSubscription)
		read.DELETE("/subscriptions", handler.DeleteSubscription)
		read.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	r.DELETE("/admin/events", handler.DeleteEvents)

	return r
}

package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"emergency-ops-backend/config"
	"emergency-ops-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. Aggregation reads
// are cached briefly; everything is rate limited per client IP.
func NewRouter(h *Handler, srvCfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(srvCfg.RateLimitPerSec), srvCfg.RateLimitBurst, srvCfg.RequestIPHeader)

	cacheTTL := time.Duration(srvCfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/cases", h.CreateCase)
		api.GET("/cases", h.ListCases)
		api.GET("/cases/critical", h.ListCriticalCases)
		api.GET("/cases/:id", h.GetCase)
		api.POST("/cases/:id/admit", h.AdmitCase)
		api.POST("/cases/:id/transition", h.TransitionCase)
		api.PATCH("/cases/:id", h.UpdateCase)

		api.POST("/beds", h.CreateBed)
		api.GET("/beds", h.ListBeds)
		api.GET("/beds/:id", h.GetBed)
		api.POST("/beds/:id/maintenance", h.SetBedMaintenance)

		api.GET("/dashboard", caching, h.GetDashboard)
		api.GET("/wards/stats", caching, h.GetWardStats)
		api.GET("/specialties/revenue", caching, h.GetSpecialtyRevenue)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}

package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"harvest-booking-backend/config"
	"harvest-booking-backend/internal/mw"
	"harvest-booking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.ServerConfig, webpushOptions *webpush.Options, notifier Dispatcher) *gin.Engine {
	r := gin.Default()

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	handler := NewHandler(s, cacheStore, webpushOptions, notifier)
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Harvest listings; the public list endpoint is cached, and the
		// write endpoints below flush that cache.
		api.GET("/harvests", caching, handler.GetHarvests)
		api.GET("/harvests/:id", handler.GetHarvestByID)
		api.PUT("/harvests/:id", handler.UpdateHarvest)

		// Reservations
		api.GET("/reservations", handler.GetReservations)
		api.POST("/reservations", handler.CreateReservation)
		api.GET("/reservations/counts", handler.GetReservationCounts)
		api.PUT("/reservations/:id/status", handler.UpdateReservationStatus)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

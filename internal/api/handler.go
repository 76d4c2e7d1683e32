package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"harvest-booking-backend/internal/store"
)

// Dispatcher hands a reservation id to the notification worker pool.
type Dispatcher interface {
	Dispatch(reservationID int64)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	cache    *cache.Cache
	webpush  *webpush.Options
	notifier Dispatcher
}

// NewHandler creates a new API handler. cacheStore and notifier may be nil;
// cache flushes and push dispatches are then skipped.
func NewHandler(s store.Store, cacheStore *cache.Cache, webpushOptions *webpush.Options, notifier Dispatcher) *Handler {
	return &Handler{
		store:    s,
		cache:    cacheStore,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}

// flushCache drops all cached GET responses. Called after writes that
// change what the read endpoints serve, so listings never report stale
// slot counts.
func (h *Handler) flushCache() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

// abortStoreError translates store failures into HTTP responses. Sentinel
// errors map to 404/400 with their message; anything else is an internal
// failure and returns a generic 500.
func (h *Handler) abortStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrHarvestNotFound), errors.Is(err, store.ErrReservationNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrSlotsUnavailable), errors.Is(err, store.ErrInvalidStatus):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

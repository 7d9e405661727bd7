package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"fitness-booking-backend/internal/booking"
	"fitness-booking-backend/internal/mw"
	"fitness-booking-backend/internal/store"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	bookings *booking.Service
	webpush  *webpush.Options
	cache    *mw.ResponseCache
}

// NewHandler creates a new API handler. webpushOptions and cache may be nil.
func NewHandler(s store.Store, bookings *booking.Service, webpushOptions *webpush.Options, cache *mw.ResponseCache) *Handler {
	return &Handler{
		store:    s,
		bookings: bookings,
		webpush:  webpushOptions,
		cache:    cache,
	}
}

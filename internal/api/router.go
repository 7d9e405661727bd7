package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"fitness-booking-backend/config"
	"fitness-booking-backend/internal/booking"
	"fitness-booking-backend/internal/mw"
	"fitness-booking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, svc *booking.Service, webpushOptions *webpush.Options, cfg config.ServerConfig) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(), mw.CORS())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Cached class lists expire when their first class starts.
	responseCache := mw.NewResponseCache(cfg.CacheTTL, svc.Now)
	handler := NewHandler(s, svc, webpushOptions, responseCache)

	r.GET("/", handler.GetRoot)
	r.GET("/health", handler.GetHealth)

	r.GET("/classes", responseCache.Middleware(), handler.GetClasses)

	bookings := r.Group("/bookings")
	{
		bookings.POST("/book", rateLimiter, handler.CreateBooking)
		bookings.GET("", handler.GetBookings)
	}

	r.GET("/subscriptions", handler.GetSubscription)
	r.PUT("/subscriptions", rateLimiter, handler.PutSubscription)
	r.DELETE("/subscriptions", rateLimiter, handler.DeleteSubscription)
	r.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	return r
}

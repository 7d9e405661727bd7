package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fitness-booking-backend/internal/booking"
	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint    string `json:"endpoint" binding:"required,url"`
	P256DH      string `json:"p256dh" binding:"required"`
	Auth        string `json:"auth" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email,max=255"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	subscription := model.PushSubscription{
		Endpoint:    req.Endpoint,
		P256DH:      req.P256DH,
		Auth:        req.Auth,
		ClientEmail: booking.NormalizeEmail(req.ClientEmail),
	}
	if err := h.store.SaveSubscription(c.Request.Context(), &subscription); err != nil {
		writeInternalError(c, err, "Failed to save subscription")
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		writeInternalError(c, err, "Failed to delete subscription")
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads a query value without URL decoding. Push endpoints
// carry their own escaping.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription reports which email a push endpoint is registered for.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		writeValidationError(c, &fieldError{field: "endpoint", message: "Endpoint field required"})
		return
	}

	sub, err := h.store.GetSubscription(c.Request.Context(), raw)
	if errors.Is(err, store.ErrNotFound) {
		detail(c, http.StatusNotFound, "Subscription not found")
		return
	}
	if err != nil {
		writeInternalError(c, err, "Failed to retrieve subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"endpoint": sub.Endpoint, "client_email": sub.ClientEmail})
}

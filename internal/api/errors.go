package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/mw"
)

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// writeBookingError maps a CreateBooking failure to its HTTP response.
func writeBookingError(c *gin.Context, classID int64, err error) {
	switch {
	case errors.Is(err, model.ErrClassNotFound):
		detail(c, http.StatusNotFound, fmt.Sprintf("Class with id %d not found", classID))
	case errors.Is(err, model.ErrClassAlreadyStarted):
		detail(c, http.StatusConflict, "Class is already over")
	case errors.Is(err, model.ErrDuplicateBooking):
		detail(c, http.StatusConflict, "You already have a booking for this class")
	case errors.Is(err, model.ErrNoSlotsAvailable):
		detail(c, http.StatusConflict, "No available slots for this class")
	default:
		logError(c, err, "error creating booking")
		detail(c, http.StatusInternalServerError, "Failed to create booking")
	}
}

// writeValidationError answers 422 for binding failures and 400 otherwise.
func writeValidationError(c *gin.Context, err error) {
	if msg, ok := validationMessage(err); ok {
		logrus.WithField("request_id", c.GetString(mw.RequestIDKey)).WithError(err).Debug("validation error")
		detail(c, http.StatusUnprocessableEntity, msg)
		return
	}
	detail(c, http.StatusBadRequest, "Invalid request")
}

// writeInternalError logs err with request context and hides it from the client.
func writeInternalError(c *gin.Context, err error, msg string) {
	logError(c, err, msg)
	detail(c, http.StatusInternalServerError, msg)
}

func logError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(mw.RequestIDKey),
		"path":       c.Request.URL.Path,
	}).WithError(err).Error(msg)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitness-booking-backend/internal/mw"
	"fitness-booking-backend/internal/timezone"
)

// ClassResponse represents the API response for a single class.
type ClassResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Instructor     string `json:"instructor"`
	ScheduledAt    string `json:"scheduled_at"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
}

// GetClasses handles GET /classes?time_zone=.
func (h *Handler) GetClasses(c *gin.Context) {
	tz, ok := requestTimezone(c)
	if !ok {
		return
	}

	classes, err := h.bookings.UpcomingClasses(c.Request.Context(), h.bookings.Now())
	if err != nil {
		writeInternalError(c, err, "Failed to retrieve classes")
		return
	}

	if len(classes) > 0 {
		c.Set(mw.CacheValidUntilKey, classes[0].ScheduledAt)
	}

	responses := make([]ClassResponse, 0, len(classes))
	for _, cl := range classes {
		local, err := timezone.FromUTC(cl.ScheduledAt, tz)
		if err != nil {
			writeInternalError(c, err, "Failed to retrieve classes")
			return
		}
		responses = append(responses, ClassResponse{
			ID:             cl.ID,
			Name:           cl.Name,
			Instructor:     cl.Instructor,
			ScheduledAt:    timezone.Format(local),
			TotalSlots:     cl.TotalSlots,
			AvailableSlots: cl.AvailableSlots,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// requestTimezone returns the time_zone query parameter, or the default zone
// when absent. On an unknown zone it writes the 400 and returns false.
func requestTimezone(c *gin.Context) (string, bool) {
	tz := c.Query("time_zone")
	if tz == "" {
		return timezone.Default(), true
	}
	if !timezone.IsValid(tz) {
		detail(c, http.StatusBadRequest, "Invalid timezone: "+tz)
		return "", false
	}
	return tz, true
}

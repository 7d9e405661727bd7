package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitness-booking-backend/internal/booking"
	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/timezone"
)

type createBookingRequest struct {
	ClassID     *int64 `json:"class_id" binding:"required,gte=1"`
	ClientName  string `json:"client_name" binding:"required,notblank,max=100"`
	ClientEmail string `json:"client_email" binding:"required,email,max=255"`
}

// BookingResponse is the body returned for a created booking.
type BookingResponse struct {
	ID          int64  `json:"id"`
	ClassID     int64  `json:"class_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ScheduledAt string `json:"scheduled_at"`
	BookingTime string `json:"booking_time"`
	Status      string `json:"status"`
}

// BookingDetailsResponse is one entry of a client's booking history.
type BookingDetailsResponse struct {
	ID          int64  `json:"id"`
	ClassID     int64  `json:"class_id"`
	ClassName   string `json:"class_name"`
	Instructor  string `json:"instructor"`
	ScheduledAt string `json:"scheduled_at"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	BookingTime string `json:"booking_time"`
	Status      string `json:"status"`
}

// CreateBooking handles POST /bookings/book.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}
	tz, ok := requestTimezone(c)
	if !ok {
		return
	}

	details, err := h.bookings.CreateBooking(c.Request.Context(), booking.BookingRequest{
		ClassID:     *req.ClassID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	})
	if err != nil {
		writeBookingError(c, *req.ClassID, err)
		return
	}

	// Available slots changed.
	if h.cache != nil {
		h.cache.Flush()
	}

	scheduledAt, bookingTime, err := localTimes(details, tz)
	if err != nil {
		writeInternalError(c, err, "Failed to create booking")
		return
	}
	c.JSON(http.StatusCreated, BookingResponse{
		ID:          details.Booking.ID,
		ClassID:     details.Booking.ClassID,
		ClientName:  details.Booking.ClientName,
		ClientEmail: details.Booking.ClientEmail,
		ScheduledAt: scheduledAt,
		BookingTime: bookingTime,
		Status:      string(details.Booking.Status),
	})
}

type listBookingsQuery struct {
	Email string `form:"email" binding:"required,email"`
}

// GetBookings handles GET /bookings?email=&time_zone=.
func (h *Handler) GetBookings(c *gin.Context) {
	var q listBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeValidationError(c, err)
		return
	}
	tz, ok := requestTimezone(c)
	if !ok {
		return
	}

	list, err := h.bookings.BookingsForEmail(c.Request.Context(), q.Email)
	if err != nil {
		writeInternalError(c, err, "Failed to retrieve bookings")
		return
	}
	if len(list) == 0 {
		detail(c, http.StatusNotFound, fmt.Sprintf("No bookings found for %s", booking.NormalizeEmail(q.Email)))
		return
	}

	responses := make([]BookingDetailsResponse, 0, len(list))
	for i := range list {
		d := &list[i]
		scheduledAt, bookingTime, err := localTimes(d, tz)
		if err != nil {
			writeInternalError(c, err, "Failed to retrieve bookings")
			return
		}
		responses = append(responses, BookingDetailsResponse{
			ID:          d.Booking.ID,
			ClassID:     d.Booking.ClassID,
			ClassName:   d.Class.Name,
			Instructor:  d.Class.Instructor,
			ScheduledAt: scheduledAt,
			ClientName:  d.Booking.ClientName,
			ClientEmail: d.Booking.ClientEmail,
			BookingTime: bookingTime,
			Status:      string(d.Booking.Status),
		})
	}
	c.JSON(http.StatusOK, responses)
}

func localTimes(d *model.BookingDetails, tz string) (scheduledAt, bookingTime string, err error) {
	s, err := timezone.FromUTC(d.Class.ScheduledAt, tz)
	if err != nil {
		return "", "", err
	}
	b, err := timezone.FromUTC(d.Booking.BookingTime, tz)
	if err != nil {
		return "", "", err
	}
	return timezone.Format(s), timezone.Format(b), nil
}

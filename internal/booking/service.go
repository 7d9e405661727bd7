// Package booking implements seat reservation and the read-side queries
// over the class catalog and booking ledger.
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/store"
	"fitness-booking-backend/internal/timezone"
)

// Notifier is told about each committed booking. It must not block.
type Notifier interface {
	BookingConfirmed(bookingID int64)
}

// BookingRequest is a validated request to reserve one seat.
type BookingRequest struct {
	ClassID     int64
	ClientName  string
	ClientEmail string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers n to receive committed booking ids.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs the admission checks and the atomic reservation.
type Service struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates a booking service on top of s.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store: s,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateBooking reserves a seat for the client. Checks run in a fixed order:
// class exists, class has not started, no confirmed booking for the email,
// a slot is free. The reservation itself re-checks under a transaction, so
// concurrent callers racing for the last slot get model.ErrNoSlotsAvailable.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*model.BookingDetails, error) {
	email := NormalizeEmail(req.ClientEmail)
	name := strings.TrimSpace(req.ClientName)
	log := logrus.WithFields(logrus.Fields{"class_id": req.ClassID, "client_email": email})

	class, err := s.store.GetClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	now := timezone.ToUTC(s.now())
	if class.HasStarted(now) {
		return nil, model.ErrClassAlreadyStarted
	}

	exists, err := s.store.HasConfirmedBooking(ctx, class.ID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateBooking
	}

	if class.AvailableSlots == 0 {
		return nil, model.ErrNoSlotsAvailable
	}

	booking := &model.Booking{
		ClassID:     class.ID,
		ClientName:  name,
		ClientEmail: email,
	}
	if err := s.store.ReserveSeat(ctx, booking, now); err != nil {
		return nil, err
	}

	log.WithField("booking_id", booking.ID).Info("booking created")
	if s.notifier != nil {
		s.notifier.BookingConfirmed(booking.ID)
	}

	class.AvailableSlots--
	class.UpdatedAt = now
	return &model.BookingDetails{Booking: *booking, Class: *class}, nil
}

// UpcomingClasses lists classes scheduled strictly after now, soonest first.
func (s *Service) UpcomingClasses(ctx context.Context, now time.Time) ([]model.FitnessClass, error) {
	return s.store.ListUpcomingClasses(ctx, timezone.ToUTC(now))
}

// BookingsForEmail returns the client's bookings, newest first. An empty
// email yields an empty result.
func (s *Service) BookingsForEmail(ctx context.Context, email string) ([]model.BookingDetails, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return []model.BookingDetails{}, nil
	}
	return s.store.ListBookingsByEmail(ctx, email)
}

// Now returns the service clock in UTC.
func (s *Service) Now() time.Time {
	return timezone.ToUTC(s.now())
}

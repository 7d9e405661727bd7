package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitness-booking-backend/internal/model"
)

// ErrNotFound is returned by lookups other than GetClass when no row matches.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	GetClass(ctx context.Context, id int64) (*model.FitnessClass, error)
	ListUpcomingClasses(ctx context.Context, now time.Time) ([]model.FitnessClass, error)
	CountClasses(ctx context.Context) (int64, error)
	InsertClasses(ctx context.Context, classes []model.FitnessClass) error

	HasConfirmedBooking(ctx context.Context, classID int64, email string) (bool, error)
	ReserveSeat(ctx context.Context, booking *model.Booking, now time.Time) error
	ListBookingsByEmail(ctx context.Context, email string) ([]model.BookingDetails, error)
	GetBookingDetails(ctx context.Context, id int64) (*model.BookingDetails, error)

	SubscriptionsForEmail(ctx context.Context, email string) ([]model.PushSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)

	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// GetClass returns model.ErrClassNotFound when the id is unknown.
func (s *gormStore) GetClass(ctx context.Context, id int64) (*model.FitnessClass, error) {
	var class model.FitnessClass
	err := s.db.WithContext(ctx).First(&class, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrClassNotFound
	}
	if err != nil {
		return nil, storeErr("get class", err)
	}
	class.ScheduledAt = class.ScheduledAt.UTC()
	return &class, nil
}

// ListUpcomingClasses returns classes strictly after now, soonest first.
func (s *gormStore) ListUpcomingClasses(ctx context.Context, now time.Time) ([]model.FitnessClass, error) {
	classes := []model.FitnessClass{}
	err := s.db.WithContext(ctx).
		Where("scheduled_at > ?", now.UTC()).
		Order("scheduled_at ASC, id ASC").
		Find(&classes).Error
	if err != nil {
		return nil, storeErr("list upcoming classes", err)
	}
	for i := range classes {
		classes[i].ScheduledAt = classes[i].ScheduledAt.UTC()
	}
	return classes, nil
}

func (s *gormStore) CountClasses(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.FitnessClass{}).Count(&n).Error; err != nil {
		return 0, storeErr("count classes", err)
	}
	return n, nil
}

// InsertClasses writes the whole catalog in one transaction.
func (s *gormStore) InsertClasses(ctx context.Context, classes []model.FitnessClass) error {
	if len(classes) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(&classes, 100).Error
	})
	if err != nil {
		return storeErr("insert classes", err)
	}
	return nil
}

func (s *gormStore) HasConfirmedBooking(ctx context.Context, classID int64, email string) (bool, error) {
	n, err := countConfirmed(s.db.WithContext(ctx), classID, email)
	if err != nil {
		return false, storeErr("check existing booking", err)
	}
	return n > 0, nil
}

func countConfirmed(tx *gorm.DB, classID int64, email string) (int64, error) {
	var n int64
	err := tx.Model(&model.Booking{}).
		Where("class_id = ? AND client_email = ? AND status = ?", classID, email, string(model.StatusConfirmed)).
		Count(&n).Error
	return n, err
}

// ReserveSeat takes one slot from the class and records the booking as a
// single transaction. On success booking.ID, BookingTime and Status are set.
// Either both writes commit or neither does.
func (s *gormStore) ReserveSeat(ctx context.Context, booking *model.Booking, now time.Time) error {
	now = now.UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := countConfirmed(tx, booking.ClassID, booking.ClientEmail)
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrDuplicateBooking
		}

		res := tx.Model(&model.FitnessClass{}).
			Where("id = ? AND available_slots > 0", booking.ClassID).
			Updates(map[string]interface{}{
				"available_slots": gorm.Expr("available_slots - 1"),
				"updated_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return model.ErrNoSlotsAvailable
		}

		booking.BookingTime = now
		booking.Status = model.StatusConfirmed
		if err := tx.Omit(clause.Associations).Create(booking).Error; err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateBooking
			}
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrDuplicateBooking), errors.Is(err, model.ErrNoSlotsAvailable):
		booking.ID = 0
		return err
	default:
		booking.ID = 0
		return storeErr("reserve seat", err)
	}
}

// ListBookingsByEmail returns every booking for the email, newest first.
func (s *gormStore) ListBookingsByEmail(ctx context.Context, email string) ([]model.BookingDetails, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Joins("Class").
		Where("bookings.client_email = ?", email).
		Order("bookings.booking_time DESC, bookings.id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, storeErr("list bookings", err)
	}

	details := make([]model.BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		details = append(details, toDetails(b))
	}
	return details, nil
}

func (s *gormStore) GetBookingDetails(ctx context.Context, id int64) (*model.BookingDetails, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).Joins("Class").First(&booking, "bookings.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get booking", err)
	}
	d := toDetails(booking)
	return &d, nil
}

func toDetails(b model.Booking) model.BookingDetails {
	var class model.FitnessClass
	if b.Class != nil {
		class = *b.Class
		class.ScheduledAt = class.ScheduledAt.UTC()
	}
	b.Class = nil
	b.BookingTime = b.BookingTime.UTC()
	return model.BookingDetails{Booking: b, Class: class}
}

func (s *gormStore) SubscriptionsForEmail(ctx context.Context, email string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("client_email = ?", email).Find(&subs).Error; err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	return subs, nil
}

// SaveSubscription creates the subscription or replaces the keys and email
// of an existing endpoint.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "client_email"}),
	}).Create(sub).Error
	if err != nil {
		return storeErr("save subscription", err)
	}
	return nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return storeErr("delete subscription", err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get subscription", err)
	}
	return &sub, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreFailure, err)
}

// isUniqueViolation covers drivers that do not translate errors into
// gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

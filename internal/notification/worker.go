package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/store"
	"fitness-booking-backend/internal/timezone"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON body delivered to the browser.
type Payload struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	BookingID   int64  `json:"booking_id"`
	ClassID     int64  `json:"class_id"`
	ScheduledAt string `json:"scheduled_at"`
}

// WorkerPool sends booking confirmations to the client's push subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan int64
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. queueSize bounds the number of
// pending booking ids; Dispatch drops ids once it is full.
func NewWorkerPool(size, queueSize int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, queueSize),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := logrus.WithField("worker", id)
	log.Debug("notification worker started")
	for {
		select {
		case bookingID := <-wp.jobs:
			log.WithField("booking_id", bookingID).Debug("processing booking confirmation")
			wp.sendNotificationsForBooking(ctx, bookingID)
		case <-ctx.Done():
			log.Debug("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a booking id without blocking. It reports whether the id
// was queued.
func (wp *WorkerPool) Dispatch(bookingID int64) bool {
	select {
	case wp.jobs <- bookingID:
		return true
	default:
		logrus.WithField("booking_id", bookingID).Warn("notification queue full; dropping confirmation")
		return false
	}
}

// BookingConfirmed lets the pool act as the booking service notifier.
func (wp *WorkerPool) BookingConfirmed(bookingID int64) {
	wp.Dispatch(bookingID)
}

func (wp *WorkerPool) sendNotificationsForBooking(ctx context.Context, bookingID int64) {
	log := logrus.WithField("booking_id", bookingID)

	details, err := wp.store.GetBookingDetails(ctx, bookingID)
	if err != nil {
		log.WithError(err).Error("failed to load booking for notification")
		return
	}

	subscriptions, err := wp.store.SubscriptionsForEmail(ctx, details.Booking.ClientEmail)
	if err != nil {
		log.WithError(err).Error("failed to load push subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := buildPayload(details)
	if err != nil {
		log.WithError(err).Error("failed to encode notification payload")
		return
	}

	log.WithField("subscriptions", len(subscriptions)).Info("sending booking confirmation")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func buildPayload(d *model.BookingDetails) ([]byte, error) {
	local, err := timezone.FromUTC(d.Class.ScheduledAt, "")
	if err != nil {
		return nil, err
	}
	return json.Marshal(Payload{
		Title:       "Booking confirmed",
		Body:        fmt.Sprintf("%s with %s on %s", d.Class.Name, d.Class.Instructor, local.Format("Mon Jan 2, 15:04 MST")),
		BookingID:   d.Booking.ID,
		ClassID:     d.Booking.ClassID,
		ScheduledAt: timezone.Format(local),
	})
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		logrus.WithError(err).WithField("endpoint", sub.Endpoint).Warn("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are removed.
	if resp.StatusCode == http.StatusGone {
		logrus.WithField("endpoint", sub.Endpoint).Info("subscription expired; deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			logrus.WithError(err).WithField("endpoint", sub.Endpoint).Error("failed to delete expired subscription")
		}
	}
}

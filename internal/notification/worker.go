package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"harvest-booking-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender implementation using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers that push reservation status updates
// to the subscribed browsers of the reservation's user.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case reservationID := <-wp.jobs:
			wp.notifyReservation(ctx, reservationID)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a reservation id for notification delivery.
func (wp *WorkerPool) Dispatch(reservationID int64) {
	wp.jobs <- reservationID
}

// notifyReservation loads the reservation and pushes its current status to
// every subscription registered for the reservation's user.
func (wp *WorkerPool) notifyReservation(ctx context.Context, reservationID int64) {
	var reservation model.Reservation
	if err := wp.db.WithContext(ctx).First(&reservation, reservationID).Error; err != nil {
		log.Printf("Error fetching reservation %d: %v", reservationID, err)
		return
	}
	if reservation.UserID == "" {
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("user_id = ?", reservation.UserID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for user %s: %v", reservation.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	harvestLabel := fmt.Sprintf("harvest %d", reservation.HarvestID)
	var harvest model.Harvest
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&harvest, reservation.HarvestID).Error; err != nil {
		log.Printf("Error fetching harvest %d: %v", reservation.HarvestID, err)
	} else if harvest.Name != "" {
		harvestLabel = harvest.Name
	}

	message := fmt.Sprintf("Your reservation for %s on %s is now %s.",
		harvestLabel, reservation.ReservationDate, reservation.Status)

	log.Printf("Sending %d notifications for reservation %d", len(subscriptions), reservationID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification and drops the
// subscription if the push service reports it expired.
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
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

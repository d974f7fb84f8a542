package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"equipment-registry-backend/internal/model"
	"equipment-registry-backend/internal/registry"
)

// Delivery results reported to the DeliveryRecorder.
const (
	ResultSent    = "sent"
	ResultExpired = "expired"
	ResultFailed  = "failed"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// DeliveryRecorder observes push delivery results.
type DeliveryRecorder interface {
	IncrementNotifications(result string)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON body pushed to subscribers.
type Payload struct {
	EquipmentID int64  `json:"equipmentId"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Previous    string `json:"previous"`
	Message     string `json:"message"`
}

// WorkerPool manages a pool of workers for sending status change notifications.
type WorkerPool struct {
	size     int
	jobs     chan registry.StatusChange
	db       *gorm.DB
	webpush  *webpush.Options
	sender   NotificationSender
	recorder DeliveryRecorder
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan registry.StatusChange, size*16), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// SetRecorder registers rec to observe delivery results.
func (wp *WorkerPool) SetRecorder(rec DeliveryRecorder) {
	wp.recorder = rec
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case event := <-wp.jobs:
			log.Printf("Worker %d processing equipment %d (%s -> %s)", id, event.EquipmentID, event.From, event.To)
			wp.sendNotificationsForEquipment(ctx, event)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a status change for delivery. It never blocks the caller:
// when the queue is full the event is dropped and logged.
func (wp *WorkerPool) Dispatch(event registry.StatusChange) {
	select {
	case wp.jobs <- event:
	default:
		log.Printf("Notification queue full; dropping status change for equipment %d", event.EquipmentID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan registry.StatusChange {
	return wp.jobs
}

// sendNotificationsForEquipment fetches subscriptions and sends notifications for a given status change.
func (wp *WorkerPool) sendNotificationsForEquipment(ctx context.Context, event registry.StatusChange) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_equipment_mapping sem ON sem.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sem.equipment_id = ?", event.EquipmentID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for equipment %d: %v", event.EquipmentID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for equipment %d", len(subscriptions), event.EquipmentID)

	payload, err := json.Marshal(buildPayload(event))
	if err != nil {
		log.Printf("Error encoding notification for equipment %d: %v", event.EquipmentID, err)
		return
	}
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func buildPayload(event registry.StatusChange) Payload {
	label := event.Name
	if label == "" {
		label = fmt.Sprintf("#%d", event.EquipmentID)
	}
	return Payload{
		EquipmentID: event.EquipmentID,
		Name:        event.Name,
		Status:      event.To,
		Previous:    event.From,
		Message:     fmt.Sprintf("Equipment %s is now %s", label, event.To),
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
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
		wp.record(ResultFailed)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		wp.record(ResultExpired)
		if err := wp.db.WithContext(ctx).Select("Equipment").Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return
	}
	wp.record(ResultSent)
}

func (wp *WorkerPool) record(result string) {
	if wp.recorder != nil {
		wp.recorder.IncrementNotifications(result)
	}
}

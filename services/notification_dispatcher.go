package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"vehicle-rental-server/models"
)

// Pusher delivers a payload to a connected user, best-effort. The websocket
// hub implements it; a nil Pusher just skips real-time delivery.
type Pusher interface {
	PushToUser(userID uint, messageType string, data interface{})
}

// NotificationDispatcher consumes domain events and writes notification
// records. It runs outside the transactional boundary of the operations that
// trigger it: every write is bounded by a short timeout, and a failed write is
// logged and dropped — it can never fail or roll back a booking or chat
// operation.
type NotificationDispatcher struct {
	db           *gorm.DB
	bus          *EventBus
	pusher       Pusher
	writeTimeout time.Duration
	done         chan struct{}
}

// NewNotificationDispatcher creates a dispatcher consuming from bus.
func NewNotificationDispatcher(db *gorm.DB, bus *EventBus, pusher Pusher) *NotificationDispatcher {
	return &NotificationDispatcher{
		db:           db,
		bus:          bus,
		pusher:       pusher,
		writeTimeout: 3 * time.Second,
		done:         make(chan struct{}),
	}
}

// Start begins consuming events in the background.
func (d *NotificationDispatcher) Start() {
	go d.run()
	log.Println("🚀 Notification dispatcher started")
}

// Wait blocks until the dispatcher has drained the bus after Close.
func (d *NotificationDispatcher) Wait() {
	<-d.done
}

func (d *NotificationDispatcher) run() {
	defer close(d.done)
	for event := range d.bus.Events() {
		d.handle(event)
	}
}

func (d *NotificationDispatcher) handle(event Event) {
	switch event.Type {
	case EventBookingCreated:
		b := event.Booking
		d.Notify(b.OwnerID, models.NotificationTypeBookingRequest,
			"New Booking Request",
			fmt.Sprintf("You have a new %d-day booking request for your vehicle.", b.RentalDays),
			b.ID, "booking")

	case EventBookingConfirmed:
		b := event.Booking
		d.Notify(b.RenterID, models.NotificationTypeBookingConfirmed,
			"Booking Confirmed",
			"The owner has confirmed your booking. Enjoy your trip!",
			b.ID, "booking")

	case EventBookingCancelled:
		b := event.Booking
		// Notify the counterparty of whoever cancelled.
		recipient := b.OwnerID
		if event.ActorID == b.OwnerID {
			recipient = b.RenterID
		}
		body := "The booking has been cancelled."
		if b.PaymentStatus == models.PaymentStatusRefunded {
			body = "The booking has been cancelled and the payment refunded."
		}
		d.Notify(recipient, models.NotificationTypeBookingCancelled,
			"Booking Cancelled", body, b.ID, "booking")

	case EventBookingCompleted:
		b := event.Booking
		d.Notify(b.RenterID, models.NotificationTypeBookingCompleted,
			"Booking Completed",
			"Your rental is complete. Thanks for riding with us!",
			b.ID, "booking")
		d.Notify(b.OwnerID, models.NotificationTypeBookingCompleted,
			"Booking Completed",
			fmt.Sprintf("Your rental is complete. You earned %.2f.", b.OwnerEarnings),
			b.ID, "booking")

	case EventMessageSent:
		if event.Suppress {
			// Receiver has the channel open; skip the notification.
			return
		}
		m := event.Message
		d.Notify(m.ReceiverID, models.NotificationTypeNewMessage,
			"New Message", truncateBody(m.Body, 120),
			event.ChannelID, "chat_channel")

	default:
		log.Printf("⚠️ Unknown event type: %s", event.Type)
	}
}

// Notify writes one notification record and pushes it to the user if they are
// connected. Fire-and-forget: errors are logged, never returned.
func (d *NotificationDispatcher) Notify(userID uint, notificationType, title, message string, relatedID uint, relatedType string) {
	notification := models.Notification{
		UserID:      userID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		RelatedID:   relatedID,
		RelatedType: relatedType,
		Read:        false,
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
		log.Printf("⚠️ Failed to write notification for user %d (%s): %v", userID, notificationType, err)
		return
	}

	if d.pusher != nil {
		d.pusher.PushToUser(userID, "notification", notification)
	}
}

func truncateBody(body string, max int) string {
	if len(body) <= max {
		return body
	}
	return body[:max] + "…"
}

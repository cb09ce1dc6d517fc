package services

import (
	"log"
	"time"

	"vehicle-rental-server/models"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking_created"
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingCancelled EventType = "booking_cancelled"
	EventBookingCompleted EventType = "booking_completed"
	EventMessageSent      EventType = "message_sent"
)

// Event is a domain event emitted by the booking engine or chat service
// after its transaction has committed. Events are delivery hints for the
// notification fan-out, not part of any transactional boundary.
type Event struct {
	Type       EventType
	Booking    *models.Booking
	Message    *models.ChatMessage
	ChannelID  uint
	ActorID    uint
	Suppress   bool // receiver has the chat channel open, skip the notification
	OccurredAt time.Time
}

// EventBus is the in-process channel between the synchronous core and the
// async notification dispatcher. Publish never blocks the caller: when the
// buffer is full the event is dropped and logged, matching the best-effort
// contract of the notification side channel.
type EventBus struct {
	ch chan Event
}

// NewEventBus creates a bus with the given buffer size.
func NewEventBus(size int) *EventBus {
	return &EventBus{ch: make(chan Event, size)}
}

// Publish queues an event for the dispatcher without blocking.
func (b *EventBus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case b.ch <- event:
	default:
		log.Printf("⚠️ Event bus is full, dropping %s event", event.Type)
	}
}

// Events returns the consumer side of the bus.
func (b *EventBus) Events() <-chan Event {
	return b.ch
}

// Close stops the bus; the dispatcher drains remaining events and exits.
func (b *EventBus) Close() {
	close(b.ch)
}

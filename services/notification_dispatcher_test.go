package services

import (
	"sync"
	"testing"

	"gorm.io/gorm"

	"vehicle-rental-server/models"
)

// recordingPusher captures real-time pushes for assertions.
type recordingPusher struct {
	mu     sync.Mutex
	pushes []uint
}

func (p *recordingPusher) PushToUser(userID uint, messageType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, userID)
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes)
}

func runDispatcher(t *testing.T, db *gorm.DB, pusher Pusher, events ...Event) {
	t.Helper()
	bus := NewEventBus(len(events) + 1)
	dispatcher := NewNotificationDispatcher(db, bus, pusher)
	dispatcher.Start()
	for _, event := range events {
		bus.Publish(event)
	}
	bus.Close()
	dispatcher.Wait()
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uint) []models.Notification {
	t.Helper()
	var notifications []models.Notification
	if err := db.Where("user_id = ?", userID).Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return notifications
}

func TestDispatcherBookingEvents(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner")
	renter := createTestUser(t, db, "Renter")

	booking := &models.Booking{
		ID:            42,
		RenterID:      renter.ID,
		OwnerID:       owner.ID,
		RentalDays:    3,
		OwnerEarnings: 54,
	}

	pusher := &recordingPusher{}
	runDispatcher(t, db, pusher,
		Event{Type: EventBookingCreated, Booking: booking, ActorID: renter.ID},
		Event{Type: EventBookingConfirmed, Booking: booking, ActorID: owner.ID},
		Event{Type: EventBookingCompleted, Booking: booking, ActorID: owner.ID},
	)

	ownerNotifs := notificationsFor(t, db, owner.ID)
	// Owner gets the request plus the completion summary
	if len(ownerNotifs) != 2 {
		t.Fatalf("owner has %d notifications, want 2", len(ownerNotifs))
	}
	if ownerNotifs[0].Type != models.NotificationTypeBookingRequest {
		t.Errorf("owner notification type = %s, want booking_request", ownerNotifs[0].Type)
	}
	if ownerNotifs[0].RelatedID != booking.ID || ownerNotifs[0].RelatedType != "booking" {
		t.Errorf("related = %d/%s, want %d/booking", ownerNotifs[0].RelatedID, ownerNotifs[0].RelatedType, booking.ID)
	}

	renterNotifs := notificationsFor(t, db, renter.ID)
	// Renter gets the confirmation plus the completion
	if len(renterNotifs) != 2 {
		t.Fatalf("renter has %d notifications, want 2", len(renterNotifs))
	}
	if renterNotifs[0].Type != models.NotificationTypeBookingConfirmed {
		t.Errorf("renter notification type = %s, want booking_confirmed", renterNotifs[0].Type)
	}

	if pusher.count() != 4 {
		t.Errorf("pushes = %d, want 4", pusher.count())
	}
}

func TestDispatcherCancellationNotifiesCounterparty(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner")
	renter := createTestUser(t, db, "Renter")

	booking := &models.Booking{
		ID:            7,
		RenterID:      renter.ID,
		OwnerID:       owner.ID,
		PaymentStatus: models.PaymentStatusRefunded,
	}

	// Renter cancelled, so the owner is notified
	runDispatcher(t, db, nil,
		Event{Type: EventBookingCancelled, Booking: booking, ActorID: renter.ID},
	)

	if n := notificationsFor(t, db, renter.ID); len(n) != 0 {
		t.Errorf("renter (the actor) got %d notifications, want 0", len(n))
	}
	ownerNotifs := notificationsFor(t, db, owner.ID)
	if len(ownerNotifs) != 1 {
		t.Fatalf("owner has %d notifications, want 1", len(ownerNotifs))
	}
	if ownerNotifs[0].Type != models.NotificationTypeBookingCancelled {
		t.Errorf("type = %s, want booking_cancelled", ownerNotifs[0].Type)
	}
}

func TestDispatcherMessageSuppression(t *testing.T) {
	db := newTestDB(t)
	sender := createTestUser(t, db, "Sender")
	receiver := createTestUser(t, db, "Receiver")

	message := &models.ChatMessage{
		ID:         1,
		ChannelID:  3,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Body:       "see you at noon",
	}

	runDispatcher(t, db, nil,
		Event{Type: EventMessageSent, Message: message, ChannelID: 3, ActorID: sender.ID, Suppress: true},
		Event{Type: EventMessageSent, Message: message, ChannelID: 3, ActorID: sender.ID},
	)

	notifs := notificationsFor(t, db, receiver.ID)
	// Suppressed event writes nothing; the unsuppressed one fans out
	if len(notifs) != 1 {
		t.Fatalf("receiver has %d notifications, want 1", len(notifs))
	}
	if notifs[0].Type != models.NotificationTypeNewMessage {
		t.Errorf("type = %s, want new_message", notifs[0].Type)
	}
	if notifs[0].RelatedID != 3 || notifs[0].RelatedType != "chat_channel" {
		t.Errorf("related = %d/%s, want 3/chat_channel", notifs[0].RelatedID, notifs[0].RelatedType)
	}
	if notifs[0].Message != "see you at noon" {
		t.Errorf("body = %q", notifs[0].Message)
	}
}

func TestDispatcherSwallowsWriteFailures(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "User")

	// Break the notifications table; the dispatcher must log and keep going
	if err := db.Migrator().DropTable(&models.Notification{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	booking := &models.Booking{ID: 1, RenterID: user.ID, OwnerID: user.ID}
	runDispatcher(t, db, nil,
		Event{Type: EventBookingConfirmed, Booking: booking, ActorID: user.ID},
	)
	// Reaching here without a panic or hang is the contract
}

func TestTruncateBody(t *testing.T) {
	if got := truncateBody("short", 120); got != "short" {
		t.Errorf("truncateBody(short) = %q", got)
	}
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateBody(string(long), 120)
	if len([]rune(got)) != 121 {
		t.Errorf("truncated length = %d runes, want 121", len([]rune(got)))
	}
}

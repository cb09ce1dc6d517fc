package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"vehicle-rental-server/models"
)

// Presence reports whether a user currently has a chat channel open in their
// client. The websocket hub implements it; a nil Presence means no suppression
// and every message fans out a notification.
type Presence interface {
	IsChannelOpen(userID, channelID uint) bool
}

// ChatService manages the per-booking chat channels: lazy channel creation,
// append-only message log, and read receipts.
type ChatService struct {
	db       *gorm.DB
	events   *EventBus
	presence Presence
}

// NewChatService creates a chat service bound to db and the event bus.
func NewChatService(db *gorm.DB, events *EventBus, presence Presence) *ChatService {
	return &ChatService{db: db, events: events, presence: presence}
}

// GetOrCreateChannel returns the channel for a booking, creating it on first
// access. Only the booking's renter or owner may open it. Creation is
// idempotent: the unique index on booking_id turns a concurrent duplicate
// create into a constraint violation, which is retried as a plain lookup.
func (s *ChatService) GetOrCreateChannel(bookingID, requesterID uint) (*models.ChatChannel, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if requesterID != booking.RenterID && requesterID != booking.OwnerID {
		return nil, ErrForbidden
	}

	var channel models.ChatChannel
	err := s.db.Where("booking_id = ?", bookingID).First(&channel).Error
	if err == nil {
		return &channel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	channel = models.ChatChannel{
		BookingID: bookingID,
		RenterID:  booking.RenterID,
		OwnerID:   booking.OwnerID,
	}
	if err := s.db.Create(&channel).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the creation race; the other request's channel wins.
			if lookupErr := s.db.Where("booking_id = ?", bookingID).First(&channel).Error; lookupErr == nil {
				return &channel, nil
			}
		}
		return nil, err
	}

	log.Printf("💬 Chat channel %d created for booking %d", channel.ID, bookingID)
	return &channel, nil
}

// SendMessage appends a message to the channel and updates the channel's
// last-message cache in the same transaction. Emits a MessageSent event with
// the suppression flag already resolved from websocket presence.
func (s *ChatService) SendMessage(channelID, senderID uint, body string) (*models.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	var channel models.ChatChannel
	if err := s.db.First(&channel, channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !channel.HasParticipant(senderID) {
		return nil, ErrForbidden
	}

	receiverID := channel.OtherParticipant(senderID)
	now := time.Now()
	message := models.ChatMessage{
		ChannelID:  channelID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		SentAt:     now,
		Read:       false,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatChannel{}).
			Where("id = ?", channelID).
			Updates(map[string]interface{}{
				"last_message":      body,
				"last_message_time": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	suppress := s.presence != nil && s.presence.IsChannelOpen(receiverID, channelID)
	s.events.Publish(Event{
		Type:      EventMessageSent,
		Message:   &message,
		ChannelID: channelID,
		ActorID:   senderID,
		Suppress:  suppress,
	})
	return &message, nil
}

// ListMessages returns the channel's messages in (sent_at, id) order for a
// participant. Ties within the same timestamp keep insertion order.
func (s *ChatService) ListMessages(channelID, userID uint) ([]models.ChatMessage, error) {
	channel, err := s.requireParticipant(channelID, userID)
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	err = s.db.
		Where("channel_id = ?", channel.ID).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead flips every unread message addressed to readerID in the channel to
// read and returns how many were flipped. Idempotent: a second call with
// nothing unread returns 0.
func (s *ChatService) MarkRead(channelID, readerID uint) (int64, error) {
	if _, err := s.requireParticipant(channelID, readerID); err != nil {
		return 0, err
	}

	now := time.Now()
	res := s.db.Model(&models.ChatMessage{}).
		Where("channel_id = ? AND sender_id <> ? AND read = ?", channelID, readerID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UnreadCount returns the number of unread messages addressed to userID in a
// single channel.
func (s *ChatService) UnreadCount(channelID, userID uint) (int64, error) {
	if _, err := s.requireParticipant(channelID, userID); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.Model(&models.ChatMessage{}).
		Where("channel_id = ? AND sender_id <> ? AND read = ?", channelID, userID, false).
		Count(&count).Error
	return count, err
}

// TotalUnreadAcrossChannels returns the badge count: unread messages addressed
// to userID over every channel they participate in.
func (s *ChatService) TotalUnreadAcrossChannels(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.ChatMessage{}).
		Joins("JOIN chat_channels ON chat_channels.id = chat_messages.channel_id").
		Where("chat_channels.renter_id = ? OR chat_channels.owner_id = ?", userID, userID).
		Where("chat_messages.sender_id <> ? AND chat_messages.read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// ListChannels returns every channel userID participates in, most recently
// active first.
func (s *ChatService) ListChannels(userID uint) ([]models.ChatChannel, error) {
	var channels []models.ChatChannel
	err := s.db.
		Where("renter_id = ? OR owner_id = ?", userID, userID).
		Order("last_message_time DESC").
		Find(&channels).Error
	return channels, err
}

func (s *ChatService) requireParticipant(channelID, userID uint) (*models.ChatChannel, error) {
	var channel models.ChatChannel
	if err := s.db.First(&channel, channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !channel.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return &channel, nil
}

// isUniqueViolation detects a unique-constraint failure from Postgres
// (error code 23505, surfaced as a typed error by lib/pq and as message text
// by pgx) or from the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

package models

import (
	"time"
)

// ChatChannel is the 1:1 conversation tied to exactly one booking. The unique
// index on BookingID is what makes lazy creation idempotent under concurrent
// first access. Participants are fixed at creation and never change.
type ChatChannel struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	BookingID       uint       `json:"booking_id" gorm:"uniqueIndex;not null"`
	RenterID        uint       `json:"renter_id" gorm:"not null;index"`
	OwnerID         uint       `json:"owner_id" gorm:"not null;index"`
	LastMessage     string     `json:"last_message" gorm:"type:text"`
	LastMessageTime *time.Time `json:"last_message_time"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relationships
	Booking Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	Renter  User    `json:"renter,omitempty" gorm:"foreignKey:RenterID"`
	Owner   User    `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// ChatMessage is one entry in a channel's append-only log. Messages are
// immutable once written except for the Read flag, which only ever moves
// false -> true. Read-back order is (sent_at, id).
type ChatMessage struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	ChannelID  uint       `json:"channel_id" gorm:"not null;index"`
	SenderID   uint       `json:"sender_id" gorm:"not null"`
	ReceiverID uint       `json:"receiver_id" gorm:"not null;index"`
	Body       string     `json:"body" gorm:"type:text;not null"`
	SentAt     time.Time  `json:"sent_at" gorm:"not null;index"`
	Read       bool       `json:"read" gorm:"default:false"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for ChatChannel
func (ChatChannel) TableName() string {
	return "chat_channels"
}

// TableName specifies the table name for ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// HasParticipant reports whether userID is one of the two channel parties.
func (ch *ChatChannel) HasParticipant(userID uint) bool {
	return userID == ch.RenterID || userID == ch.OwnerID
}

// OtherParticipant returns the counterparty of userID in this channel.
func (ch *ChatChannel) OtherParticipant(userID uint) uint {
	if userID == ch.RenterID {
		return ch.OwnerID
	}
	return ch.RenterID
}

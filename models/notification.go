package models

import (
	"time"
)

// Notification types written by the dispatcher.
const (
	NotificationTypeBookingRequest   = "booking_request"
	NotificationTypeBookingConfirmed = "booking_confirmed"
	NotificationTypeBookingCancelled = "booking_cancelled"
	NotificationTypeBookingCompleted = "booking_completed"
	NotificationTypeNewMessage       = "new_message"
	NotificationTypePickupReminder   = "pickup_reminder"
)

// Notification is a write-once record except for the Read flag (false -> true).
// These are best-effort: a failed write is logged and dropped, it never fails
// the booking or chat operation that triggered it.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Type        string    `json:"type" gorm:"type:varchar(40);not null"`
	Title       string    `json:"title" gorm:"not null"`
	Message     string    `json:"message" gorm:"not null"`
	RelatedID   uint      `json:"related_id"`
	RelatedType string    `json:"related_type" gorm:"type:varchar(40)"` // "booking", "chat_channel"
	Read        bool      `json:"read" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

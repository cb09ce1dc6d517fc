package models

import (
	"time"
)

// User is a marketplace member. The same account can act as a renter on one
// booking and as an owner on another; the booking rows record which side the
// user is on. Registration and credential management live in the external
// identity service — this server only resolves tokens to users.
type User struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	FullName          string    `json:"full_name" gorm:"size:255;not null"`
	PhoneNumber       string    `json:"phone_number" gorm:"size:20;uniqueIndex;not null"`
	PasswordHash      string    `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	ProfilePictureURL *string   `json:"profile_picture_url" gorm:"size:255"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:OwnerID"`
	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:RenterID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

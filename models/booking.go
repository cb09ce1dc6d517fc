package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking is a reservation of a vehicle for a date range. All pricing fields
// are computed once at creation from the vehicle's daily rate at that moment
// and never recomputed — later vehicle price changes do not touch them.
type Booking struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	Reference      string        `json:"reference" gorm:"size:36;uniqueIndex;not null"`
	RenterID       uint          `json:"renter_id" gorm:"not null;index"`
	OwnerID        uint          `json:"owner_id" gorm:"not null;index"`
	VehicleID      uint          `json:"vehicle_id" gorm:"not null;index"`
	PickupDate     time.Time     `json:"pickup_date" gorm:"not null"`
	ReturnDate     time.Time     `json:"return_date" gorm:"not null"`
	RentalDays     int           `json:"rental_days" gorm:"not null"`
	DailyRate      float64       `json:"daily_rate" gorm:"type:decimal(10,2);not null"`
	Subtotal       float64       `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	ServiceFee     float64       `json:"service_fee" gorm:"type:decimal(10,2);not null"`
	Commission     float64       `json:"commission" gorm:"type:decimal(10,2);not null"`
	CommissionRate float64       `json:"commission_rate" gorm:"type:decimal(5,4);not null"`
	OwnerEarnings  float64       `json:"owner_earnings" gorm:"type:decimal(10,2);not null"`
	TotalPrice     float64       `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Status         BookingStatus `json:"status" gorm:"type:varchar(20);default:'pending';check:status IN ('pending','confirmed','active','completed','cancelled')"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending';check:payment_status IN ('pending','paid','refunded')"`
	ReminderSentAt *time.Time    `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Renter  User    `json:"renter,omitempty" gorm:"foreignKey:RenterID"`
	Owner   User    `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Vehicle Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsTerminal reports whether the booking can no longer leave its status.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled
}

// HoldsVehicle reports whether this booking currently holds the vehicle's
// availability flag (exactly one such booking may exist per vehicle).
func (b *Booking) HoldsVehicle() bool {
	switch b.Status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusActive:
		return true
	default:
		return false
	}
}

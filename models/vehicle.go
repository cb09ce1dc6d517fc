package models

import (
	"time"
)

// Vehicle is a listed vehicle. Catalog fields (make, model, photos, search
// metadata) are owned by the listing service; this server cares about the
// availability ledger: Available may only be flipped by the booking engine's
// conditional updates, never written directly by handlers.
type Vehicle struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OwnerID      uint      `json:"owner_id" gorm:"not null;index"`
	Make         string    `json:"make" gorm:"size:100;not null"`
	Model        string    `json:"model" gorm:"size:100;not null"`
	Year         int       `json:"year"`
	LicensePlate string    `json:"license_plate" gorm:"size:20;uniqueIndex"`
	DailyRate    float64   `json:"daily_rate" gorm:"type:decimal(10,2);not null"`
	Available    bool      `json:"available" gorm:"default:true"`
	TotalRentals int       `json:"total_rentals" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// TableName specifies the table name for the Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}

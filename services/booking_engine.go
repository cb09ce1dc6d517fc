package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vehicle-rental-server/models"
)

// BookingEngine owns the booking state machine. Every status change and its
// paired vehicle-availability flip are applied in a single transaction using
// conditional updates, so two racing requests cannot both win: the loser's
// UPDATE matches zero rows and the whole transaction rolls back. All writes
// to Vehicle.Available in the codebase go through this engine.
type BookingEngine struct {
	db             *gorm.DB
	events         *EventBus
	commissionRate float64
	serviceFeeRate float64
}

// NewBookingEngine creates a booking engine bound to db and the event bus.
func NewBookingEngine(db *gorm.DB, events *EventBus, commissionRate, serviceFeeRate float64) *BookingEngine {
	return &BookingEngine{
		db:             db,
		events:         events,
		commissionRate: commissionRate,
		serviceFeeRate: serviceFeeRate,
	}
}

// transitionSources lists the statuses a booking may move to the key from.
var transitionSources = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusConfirmed: {models.BookingStatusPending},
	models.BookingStatusCancelled: {models.BookingStatusPending, models.BookingStatusConfirmed},
	models.BookingStatusCompleted: {models.BookingStatusConfirmed, models.BookingStatusActive},
	// active is idempotent: marking an already-active booking active is a no-op
	models.BookingStatusActive: {models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusActive},
}

// CreateBooking reserves a vehicle for the renter over [pickupDate, returnDate).
// Pricing is computed once from the vehicle's current daily rate and frozen on
// the booking. The availability flip is conditional on available=true, so of N
// concurrent attempts on one vehicle exactly one succeeds; the rest get
// ErrVehicleUnavailable and leave no partial writes.
func (e *BookingEngine) CreateBooking(renterID, vehicleID uint, pickupDate, returnDate time.Time) (*models.Booking, error) {
	if !returnDate.After(pickupDate) {
		return nil, ErrInvalidDates
	}

	var booking models.Booking
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var vehicle models.Vehicle
		if err := tx.First(&vehicle, vehicleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Conditional flip: only succeeds if the vehicle is still bookable.
		res := tx.Model(&models.Vehicle{}).
			Where("id = ? AND available = ?", vehicleID, true).
			Update("available", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVehicleUnavailable
		}

		rentalDays := RentalDays(pickupDate, returnDate)
		quote := CalculateQuote(vehicle.DailyRate, rentalDays, e.commissionRate, e.serviceFeeRate)

		booking = models.Booking{
			Reference:      uuid.NewString(),
			RenterID:       renterID,
			OwnerID:        vehicle.OwnerID,
			VehicleID:      vehicleID,
			PickupDate:     pickupDate,
			ReturnDate:     returnDate,
			RentalDays:     rentalDays,
			DailyRate:      vehicle.DailyRate,
			Subtotal:       quote.Subtotal,
			ServiceFee:     quote.ServiceFee,
			Commission:     quote.Commission,
			CommissionRate: e.commissionRate,
			OwnerEarnings:  quote.OwnerEarnings,
			TotalPrice:     quote.TotalPrice,
			Status:         models.BookingStatusPending,
			PaymentStatus:  models.PaymentStatusPending,
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📋 Booking %d created: vehicle %d, renter %d, %d day(s), total %.2f",
		booking.ID, vehicleID, renterID, booking.RentalDays, booking.TotalPrice)

	e.events.Publish(Event{Type: EventBookingCreated, Booking: &booking, ActorID: renterID})
	return &booking, nil
}

// TransitionStatus moves a booking to targetStatus on behalf of actorID.
// Guards are checked in order: existence, terminal state, actor authority,
// transition validity. The status write is conditional on the status the
// guards saw, so a concurrent transition on the same booking makes this one
// fail with ErrInvalidTransition instead of double-applying.
func (e *BookingEngine) TransitionStatus(bookingID, actorID uint, targetStatus models.BookingStatus) (*models.Booking, error) {
	var booking models.Booking
	if err := e.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if booking.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	switch targetStatus {
	case models.BookingStatusConfirmed, models.BookingStatusActive, models.BookingStatusCompleted:
		if actorID != booking.OwnerID {
			return nil, ErrForbidden
		}
	case models.BookingStatusCancelled:
		if actorID != booking.RenterID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrInvalidTransition
	}

	sources, ok := transitionSources[targetStatus]
	if !ok || !statusIn(booking.Status, sources) {
		return nil, ErrInvalidTransition
	}

	refunded := false
	err := e.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": targetStatus}
		if targetStatus == models.BookingStatusCancelled && booking.PaymentStatus == models.PaymentStatusPaid {
			updates["payment_status"] = models.PaymentStatusRefunded
			refunded = true
		}

		// CAS on the status the guards observed.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, booking.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		// Paired availability update. A failure here rolls the status back.
		switch targetStatus {
		case models.BookingStatusCancelled:
			return tx.Model(&models.Vehicle{}).
				Where("id = ?", booking.VehicleID).
				Update("available", true).Error
		case models.BookingStatusCompleted:
			return tx.Model(&models.Vehicle{}).
				Where("id = ?", booking.VehicleID).
				Updates(map[string]interface{}{
					"available":     true,
					"total_rentals": gorm.Expr("total_rentals + 1"),
				}).Error
		case models.BookingStatusActive:
			return tx.Model(&models.Vehicle{}).
				Where("id = ?", booking.VehicleID).
				Update("available", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.Status = targetStatus
	if refunded {
		booking.PaymentStatus = models.PaymentStatusRefunded
	}

	log.Printf("📋 Booking %d transitioned to %s by user %d", bookingID, targetStatus, actorID)

	switch targetStatus {
	case models.BookingStatusConfirmed:
		e.events.Publish(Event{Type: EventBookingConfirmed, Booking: &booking, ActorID: actorID})
	case models.BookingStatusCancelled:
		e.events.Publish(Event{Type: EventBookingCancelled, Booking: &booking, ActorID: actorID})
	case models.BookingStatusCompleted:
		e.events.Publish(Event{Type: EventBookingCompleted, Booking: &booking, ActorID: actorID})
	}
	return &booking, nil
}

// CancelBooking is the renter-facing wrapper over TransitionStatus. It
// distinguishes "too late to cancel" (completed/active) from a generic
// invalid transition.
func (e *BookingEngine) CancelBooking(bookingID, renterID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := e.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if booking.RenterID != renterID {
		return nil, ErrForbidden
	}
	switch booking.Status {
	case models.BookingStatusCompleted:
		return nil, ErrAlreadyCompleted
	case models.BookingStatusActive:
		return nil, ErrAlreadyActive
	case models.BookingStatusCancelled:
		return nil, ErrAlreadyTerminal
	}

	return e.TransitionStatus(bookingID, renterID, models.BookingStatusCancelled)
}

// HandlePaymentConfirmed consumes the payment provider's "payment confirmed"
// event: marks the booking paid and auto-confirms it if it is still pending.
// Both writes are CAS-guarded, so redelivered webhooks are no-ops.
func (e *BookingEngine) HandlePaymentConfirmed(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := e.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := e.db.Model(&models.Booking{}).
		Where("id = ? AND payment_status = ?", bookingID, models.PaymentStatusPending).
		Update("payment_status", models.PaymentStatusPaid)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Already paid or refunded; nothing to do.
		return &booking, nil
	}
	booking.PaymentStatus = models.PaymentStatusPaid

	if booking.Status == models.BookingStatusPending {
		confirmed, err := e.TransitionStatus(bookingID, booking.OwnerID, models.BookingStatusConfirmed)
		if err == nil {
			return confirmed, nil
		}
		// A concurrent transition beat us; the payment mark still stands.
		if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrAlreadyTerminal) {
			return nil, err
		}
	}
	return &booking, nil
}

// GetBooking returns a booking visible to userID (renter or owner only).
func (e *BookingEngine) GetBooking(bookingID, userID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := e.db.Preload("Vehicle").First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userID != booking.RenterID && userID != booking.OwnerID {
		return nil, ErrForbidden
	}
	return &booking, nil
}

// ListBookingsForUser returns every booking where userID is renter or owner,
// newest first.
func (e *BookingEngine) ListBookingsForUser(userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := e.db.
		Preload("Vehicle").
		Where("renter_id = ? OR owner_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func statusIn(status models.BookingStatus, list []models.BookingStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

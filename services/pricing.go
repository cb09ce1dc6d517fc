package services

import (
	"math"
	"time"
)

// Quote is the frozen pricing breakdown of a booking.
//
// The service fee is added to what the renter pays; the commission is
// subtracted from what the owner receives. The two never mix:
//
//	totalPrice    = subtotal + serviceFee
//	ownerEarnings = subtotal - commission
type Quote struct {
	Subtotal      float64 `json:"subtotal"`
	ServiceFee    float64 `json:"service_fee"`
	Commission    float64 `json:"commission"`
	OwnerEarnings float64 `json:"owner_earnings"`
	TotalPrice    float64 `json:"total_price"`
}

// CalculateQuote computes the pricing breakdown for a rental. Pure function,
// no I/O. Rounding (half-up, 2 decimal places) is applied once to each base
// figure at the end; the derived figures are built from the already-rounded
// bases so the invariants above hold exactly, with no cumulative drift.
func CalculateQuote(dailyRate float64, rentalDays int, commissionRate, serviceFeeRate float64) Quote {
	subtotal := roundMoney(dailyRate * float64(rentalDays))
	commission := roundMoney(subtotal * commissionRate)
	serviceFee := roundMoney(subtotal * serviceFeeRate)

	return Quote{
		Subtotal:      subtotal,
		ServiceFee:    serviceFee,
		Commission:    commission,
		OwnerEarnings: roundMoney(subtotal - commission),
		TotalPrice:    roundMoney(subtotal + serviceFee),
	}
}

// RentalDays derives the billable day count: ceil of the elapsed time in
// days, never less than 1. A 3-night range (Jan 1 -> Jan 4) is 3 days.
func RentalDays(pickupDate, returnDate time.Time) int {
	days := int(math.Ceil(returnDate.Sub(pickupDate).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// roundMoney rounds half-up to 2 decimal places.
func roundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

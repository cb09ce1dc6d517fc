package services

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateQuote(t *testing.T) {
	// $20/day for 3 days, 10% commission, 5% service fee
	q := CalculateQuote(20, 3, 0.10, 0.05)

	if !almostEqual(q.Subtotal, 60) {
		t.Errorf("subtotal = %v, want 60", q.Subtotal)
	}
	if !almostEqual(q.Commission, 6) {
		t.Errorf("commission = %v, want 6", q.Commission)
	}
	if !almostEqual(q.ServiceFee, 3) {
		t.Errorf("service fee = %v, want 3", q.ServiceFee)
	}
	if !almostEqual(q.OwnerEarnings, 54) {
		t.Errorf("owner earnings = %v, want 54", q.OwnerEarnings)
	}
	if !almostEqual(q.TotalPrice, 63) {
		t.Errorf("total price = %v, want 63", q.TotalPrice)
	}
}

func TestCalculateQuoteInvariants(t *testing.T) {
	cases := []struct {
		name           string
		dailyRate      float64
		days           int
		commissionRate float64
		serviceFeeRate float64
	}{
		{"round numbers", 20, 3, 0.10, 0.05},
		{"awkward rate", 33.33, 7, 0.10, 0.05},
		{"one day", 19.99, 1, 0.15, 0.03},
		{"long rental", 45.50, 30, 0.12, 0.05},
		{"zero fee", 100, 2, 0.10, 0},
		{"zero commission", 100, 2, 0, 0.05},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := CalculateQuote(tc.dailyRate, tc.days, tc.commissionRate, tc.serviceFeeRate)

			if !almostEqual(q.TotalPrice, q.Subtotal+q.ServiceFee) {
				t.Errorf("total %v != subtotal %v + fee %v", q.TotalPrice, q.Subtotal, q.ServiceFee)
			}
			if !almostEqual(q.OwnerEarnings, q.Subtotal-q.Commission) {
				t.Errorf("earnings %v != subtotal %v - commission %v", q.OwnerEarnings, q.Subtotal, q.Commission)
			}
			if q.Commission < 0 || q.ServiceFee < 0 {
				t.Errorf("negative fee in quote %+v", q)
			}
		})
	}
}

func TestCalculateQuoteRounding(t *testing.T) {
	// 3 * 33.33 = 99.99; 10% of that is 9.999, which rounds half-up to 10.00
	q := CalculateQuote(33.33, 3, 0.10, 0.05)

	if !almostEqual(q.Subtotal, 99.99) {
		t.Errorf("subtotal = %v, want 99.99", q.Subtotal)
	}
	if !almostEqual(q.Commission, 10.00) {
		t.Errorf("commission = %v, want 10.00", q.Commission)
	}
	if !almostEqual(q.ServiceFee, 5.00) {
		t.Errorf("service fee = %v, want 5.00", q.ServiceFee)
	}
	if !almostEqual(q.OwnerEarnings, 89.99) {
		t.Errorf("owner earnings = %v, want 89.99", q.OwnerEarnings)
	}
	if !almostEqual(q.TotalPrice, 104.99) {
		t.Errorf("total price = %v, want 104.99", q.TotalPrice)
	}
}

func TestRentalDays(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		pickup time.Time
		ret    time.Time
		want   int
	}{
		{"exact three days", base, base.AddDate(0, 0, 3), 3},
		{"partial day rounds up", base, base.AddDate(0, 0, 2).Add(6 * time.Hour), 3},
		{"few hours is one day", base, base.Add(4 * time.Hour), 1},
		{"exactly one day", base, base.AddDate(0, 0, 1), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RentalDays(tc.pickup, tc.ret); got != tc.want {
				t.Errorf("RentalDays = %d, want %d", got, tc.want)
			}
		})
	}
}

// Package cart holds the guest cart: pricing, pure mutators, totals and persistence.
package cart

import "github.com/shopspring/decimal"

// Guest count bounds for a single line item
const (
	MinGuests = 1
	MaxGuests = 20
)

// Price returns the line total for unit price and guest count.
// Callers clamp guests into [MinGuests, MaxGuests] first.
func Price(unit decimal.Decimal, guests int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(guests)))
}

// ClampGuests bounds n to [MinGuests, MaxGuests]
func ClampGuests(n int) int {
	if n < MinGuests {
		return MinGuests
	}
	if n > MaxGuests {
		return MaxGuests
	}
	return n
}

// ValidGuests reports whether n is within [MinGuests, MaxGuests]
func ValidGuests(n int) bool {
	return n >= MinGuests && n <= MaxGuests
}

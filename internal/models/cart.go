package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the guest's in-progress, unpaid selection for one browser session
type Cart struct {
	Items []CartItem `json:"items"`
}

// CartItem is one booked-but-unpaid upsell inside the cart.
// TotalPrice always equals Upsell.Price × GuestCount.
type CartItem struct {
	Upsell       Upsell          `json:"upsell"`
	GuestCount   int             `json:"guest_count"`
	SelectedDate *time.Time      `json:"selected_date,omitempty"`
	MenuOptions  string          `json:"menu_options"`
	SpecialNotes string          `json:"special_notes"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// IsEmpty reports whether the cart holds no items
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"guest-portal/internal/models"
)

// TotalAmount sums the line totals
func TotalAmount(c models.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// TotalGuests sums the guest counts
func TotalGuests(c models.Cart) int {
	total := 0
	for _, item := range c.Items {
		total += item.GuestCount
	}
	return total
}

// PaymentItems converts the cart into the payment wire shape
func PaymentItems(c models.Cart) []models.PaymentItem {
	items := make([]models.PaymentItem, 0, len(c.Items))
	for _, item := range c.Items {
		var date *string
		if item.SelectedDate != nil {
			s := item.SelectedDate.UTC().Format(time.RFC3339Nano)
			date = &s
		}
		items = append(items, models.PaymentItem{
			UpsellID:     item.Upsell.ID,
			GuestCount:   item.GuestCount,
			TotalPrice:   item.TotalPrice,
			SelectedDate: date,
			MenuOptions:  item.MenuOptions,
			SpecialNotes: item.SpecialNotes,
		})
	}
	return items
}

// NewPaymentRequest builds the payload for the card intent and bank transfer endpoints
func NewPaymentRequest(accessToken string, c models.Cart) models.PaymentRequest {
	return models.PaymentRequest{
		AccessToken: accessToken,
		CartItems:   PaymentItems(c),
	}
}

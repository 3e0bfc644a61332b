package cart

import (
	"time"

	"guest-portal/internal/models"
)

// AddItem appends a new line item for upsell. The same upsell may appear more
// than once; each booking keeps its own date and notes.
func AddItem(c models.Cart, upsell models.Upsell, guests int, date *time.Time, menuOptions, specialNotes string) models.Cart {
	items := make([]models.CartItem, len(c.Items), len(c.Items)+1)
	copy(items, c.Items)

	items = append(items, models.CartItem{
		Upsell:       upsell,
		GuestCount:   guests,
		SelectedDate: date,
		MenuOptions:  menuOptions,
		SpecialNotes: specialNotes,
		TotalPrice:   Price(upsell.Price, guests),
	})
	return models.Cart{Items: items}
}

// RemoveItem drops the line items for upsellID. Unknown ids leave the cart unchanged.
func RemoveItem(c models.Cart, upsellID int) models.Cart {
	items := make([]models.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Upsell.ID != upsellID {
			items = append(items, item)
		}
	}
	return models.Cart{Items: items}
}

// UpdateQuantity sets the guest count of the line items for upsellID, clamped to
// the allowed range, and reprices them in place. Unknown ids leave the cart unchanged.
func UpdateQuantity(c models.Cart, upsellID int, guests int) models.Cart {
	guests = ClampGuests(guests)

	items := make([]models.CartItem, len(c.Items))
	for i, item := range c.Items {
		if item.Upsell.ID == upsellID {
			item.GuestCount = guests
			item.TotalPrice = Price(item.Upsell.Price, guests)
		}
		items[i] = item
	}
	return models.Cart{Items: items}
}

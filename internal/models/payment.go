package models

import "github.com/shopspring/decimal"

// PaymentItem is the wire form of a cart line sent to the backend when paying
type PaymentItem struct {
	UpsellID     int             `json:"upsell_id"`
	GuestCount   int             `json:"guest_count"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SelectedDate *string         `json:"selected_date,omitempty"`
	MenuOptions  string          `json:"menu_options"`
	SpecialNotes string          `json:"special_notes"`
}

// PaymentRequest is the body of both the card intent and bank transfer order calls
type PaymentRequest struct {
	AccessToken string        `json:"access_token"`
	CartItems   []PaymentItem `json:"cart_items"`
}

// PaymentIntent is returned when a card payment intent was created
type PaymentIntent struct {
	ClientSecret string `json:"client_secret"`
}

// BankTransferOrder is returned when a bank transfer order was created.
// An empty PaymentURL means the guest completes the transfer manually.
type BankTransferOrder struct {
	PaymentURL string `json:"payment_url,omitempty"`
}

// PaymentResponse is the envelope the backend uses for payment endpoints
type PaymentResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	PaymentURL   string `json:"payment_url,omitempty"`
}

func init() {
	// The backend reads prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

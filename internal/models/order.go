package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a direct booking
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a single-service booking placed through the order form
type Order struct {
	ID            int             `json:"id"`
	PropertyID    int             `json:"property_id"`
	UpsellID      int             `json:"upsell_id"`
	VendorID      int             `json:"vendor_id"`
	GuestName     string          `json:"guest_name"`
	GuestEmail    string          `json:"guest_email"`
	GuestPhone    string          `json:"guest_phone,omitempty"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Notes         string          `json:"notes,omitempty"`
	ScheduledDate string          `json:"scheduled_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Upsell        *Upsell         `json:"upsell,omitempty"`
}

// OrderCreateRequest is what a guest submits on the order form
type OrderCreateRequest struct {
	UpsellID      int    `json:"upsell_id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
}

// BackendOrderRequest is the body posted to the backend orders endpoint
type BackendOrderRequest struct {
	PropertyID    int    `json:"property_id"`
	UpsellID      int    `json:"upsell_id"`
	VendorID      int    `json:"vendor_id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
)

// IsValidEmail validates email format
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPhone validates a loosely formatted international phone number
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// Validate checks the order form fields
func (r *OrderCreateRequest) Validate() error {
	errs := NewValidationError()

	name := strings.TrimSpace(r.GuestName)
	if name == "" {
		errs.Add("guest_name", "Full name is required")
	} else if len(name) < 2 {
		errs.Add("guest_name", "Name must be at least 2 characters")
	}

	email := strings.TrimSpace(r.GuestEmail)
	if email == "" {
		errs.Add("guest_email", "Email is required")
	} else if !IsValidEmail(email) {
		errs.Add("guest_email", "Please enter a valid email address")
	}

	if phone := strings.TrimSpace(r.GuestPhone); phone != "" && !IsValidPhone(phone) {
		errs.Add("guest_phone", "Please enter a valid phone number")
	}

	if r.ScheduledDate != "" {
		if _, err := time.Parse("2006-01-02", r.ScheduledDate); err != nil {
			errs.Add("scheduled_date", "Preferred date must be formatted as YYYY-MM-DD")
		}
	}

	if r.UpsellID <= 0 {
		errs.Add("upsell_id", "Service is required")
	}

	return errs.OrNil()
}

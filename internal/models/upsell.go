package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Upsell is a paid add-on service offered by a property. Owned by the backend.
type Upsell struct {
	ID                int             `json:"id"`
	PropertyID        int             `json:"property_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Category          string          `json:"category"`
	ImageURL          string          `json:"image_url,omitempty"`
	IsActive          bool            `json:"is_active"`
	SortOrder         int             `json:"sort_order"`
	PrimaryVendorID   int             `json:"primary_vendor_id"`
	SecondaryVendorID *int            `json:"secondary_vendor_id,omitempty"`
	PrimaryVendor     *Vendor         `json:"primary_vendor,omitempty"`
	SecondaryVendor   *Vendor         `json:"secondary_vendor,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Vendor fulfils upsell bookings
type Vendor struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	WhatsappNumber string `json:"whatsapp_number,omitempty"`
	ServiceType    string `json:"service_type"`
	Description    string `json:"description,omitempty"`
	IsActive       bool   `json:"is_active"`
}

package models

import (
	"strings"
	"time"
)

// CheckIn is a guest check-in record kept by the backend
type CheckIn struct {
	ID          int       `json:"id"`
	PropertyID  int       `json:"property_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	PassportURL string    `json:"passport_url,omitempty"`
	CheckInTime time.Time `json:"check_in_time"`
}

// CheckInForm is what the guest submits on the check-in page
type CheckInForm struct {
	FullName    string
	Email       string
	PhoneNumber string
}

// CheckInRequest is the body posted to the backend check-in endpoint
type CheckInRequest struct {
	AccessToken string    `json:"access_token"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	PassportURL string    `json:"passport_url,omitempty"`
	CheckInTime time.Time `json:"check_in_time"`
}

// CheckInResult reports the outcome of a check-in submission
type CheckInResult struct {
	AlreadyCheckedIn bool     `json:"already_checked_in"`
	CheckIn          *CheckIn `json:"check_in,omitempty"`
	PassportURL      string   `json:"passport_url,omitempty"`
}

// Validate checks the check-in form fields
func (f *CheckInForm) Validate() error {
	errs := NewValidationError()

	name := strings.TrimSpace(f.FullName)
	if name == "" {
		errs.Add("full_name", "Full name is required")
	} else if len(name) < 2 {
		errs.Add("full_name", "Name must be at least 2 characters")
	}

	email := strings.TrimSpace(f.Email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !IsValidEmail(email) {
		errs.Add("email", "Please enter a valid email address")
	}

	phone := strings.TrimSpace(f.PhoneNumber)
	if phone == "" {
		errs.Add("phone_number", "Phone number is required")
	} else if !IsValidPhone(phone) {
		errs.Add("phone_number", "Please enter a valid phone number")
	}

	return errs.OrNil()
}

package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced to the guest. Wrap with fmt.Errorf("...: %w") and match with errors.Is.
var (
	ErrPropertyNotFound  = errors.New("property not found or access token is invalid")
	ErrUpsellNotFound    = errors.New("service not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrCorruptState      = errors.New("corrupt state")
	ErrCorruptCart       = fmt.Errorf("saved cart could not be restored: %w", ErrCorruptState)
	ErrMalformedResponse = fmt.Errorf("malformed backend response: %w", ErrCorruptState)
	ErrEmptyCart         = errors.New("no items in cart")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrUpstream          = errors.New("backend unavailable")
)

// ValidationError carries per-field messages and unwraps to ErrValidation
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty validation error collector
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for field
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// OrNil returns nil when no field failed
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// PaymentError is a failed payment attempt. Reason is safe to show the guest.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed: %s: %v", e.Reason, e.Err)
	}
	return "payment failed: " + e.Reason
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Is makes every PaymentError match ErrPaymentFailed
func (e *PaymentError) Is(target error) bool {
	return target == ErrPaymentFailed
}

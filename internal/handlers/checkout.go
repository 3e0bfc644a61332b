package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"guest-portal/internal/checkout"
)

// CheckoutHandler handles the checkout flow
type CheckoutHandler struct {
	checkout *checkout.Service
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(svc *checkout.Service, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		logger:   logger,
	}
}

// FailPaymentRequest is the body of POST /checkout/fail
type FailPaymentRequest struct {
	Reason string `json:"reason"`
}

type stateResponse struct {
	State checkout.State `json:"state"`
}

// Summary returns the checkout page data
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	property, _ := propertyFromContext(r.Context())

	summary, err := h.checkout.Summary(r.Context(), property)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// BeginCardPayment creates a card payment intent
func (h *CheckoutHandler) BeginCardPayment(w http.ResponseWriter, r *http.Request) {
	property, token := propertyFromContext(r.Context())

	payment, err := h.checkout.BeginCardPayment(r.Context(), token, property)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// BeginBankTransfer creates a bank transfer order
func (h *CheckoutHandler) BeginBankTransfer(w http.ResponseWriter, r *http.Request) {
	property, token := propertyFromContext(r.Context())

	transfer, err := h.checkout.BeginBankTransfer(r.Context(), token, property)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, transfer)
}

// ConfirmPayment records that the payment provider reported success
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	state, err := h.checkout.ConfirmPayment(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{State: state})
}

// FailPayment records that the payment provider reported failure
func (h *CheckoutHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	var req FailPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	state, err := h.checkout.FailPayment(r.Context(), req.Reason)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{State: state})
}

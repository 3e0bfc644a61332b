package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"guest-portal/internal/cart"
	"guest-portal/internal/models"
)

const corruptCartNotice = "Your saved cart could not be restored and has been cleared."

// CartHandler handles the guest cart
type CartHandler struct {
	carts      *cart.Service
	properties PropertyService
	logger     *zap.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service, properties PropertyService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:      carts,
		properties: properties,
		logger:     logger,
	}
}

// CartResponse is the cart as returned to the client
type CartResponse struct {
	Items       []models.CartItem `json:"items"`
	ItemCount   int               `json:"item_count"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	TotalGuests int               `json:"total_guests"`
	Currency    string            `json:"currency"`
	Notice      string            `json:"notice,omitempty"`
}

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	UpsellID     int    `json:"upsell_id"`
	GuestCount   int    `json:"guest_count"`
	SelectedDate string `json:"selected_date"`
	MenuOptions  string `json:"menu_options"`
	SpecialNotes string `json:"special_notes"`
}

// UpdateItemRequest is the body of PATCH /cart/items/{upsellID}
type UpdateItemRequest struct {
	GuestCount int `json:"guest_count"`
}

// ViewCart returns the current cart
func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.writeCart(w, r, http.StatusOK, view)
}

// AddItem books an upsell into the cart at its current backend price
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	property, _ := propertyFromContext(r.Context())

	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	date, err := parseSelectedDate(req.SelectedDate)
	if err != nil {
		errs := models.NewValidationError()
		errs.Add("selected_date", "Please select a valid date")
		writeServiceError(w, r, h.logger, errs)
		return
	}

	upsell, err := h.properties.GetUpsell(r.Context(), property, req.UpsellID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	view, err := h.carts.Add(r.Context(), cart.AddRequest{
		Upsell:       *upsell,
		GuestCount:   req.GuestCount,
		SelectedDate: date,
		MenuOptions:  strings.TrimSpace(req.MenuOptions),
		SpecialNotes: strings.TrimSpace(req.SpecialNotes),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.writeCart(w, r, http.StatusCreated, view)
}

// UpdateItem changes the guest count of a cart line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	upsellID, err := strconv.Atoi(chi.URLParam(r, "upsellID"))
	if err != nil {
		writeBadRequest(w, r, "Invalid service ID")
		return
	}

	var req UpdateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	view, err := h.carts.UpdateQuantity(r.Context(), upsellID, req.GuestCount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.writeCart(w, r, http.StatusOK, view)
}

// RemoveItem drops a service from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	upsellID, err := strconv.Atoi(chi.URLParam(r, "upsellID"))
	if err != nil {
		writeBadRequest(w, r, "Invalid service ID")
		return
	}

	view, err := h.carts.Remove(r.Context(), upsellID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.writeCart(w, r, http.StatusOK, view)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, status int, view cart.View) {
	property, _ := propertyFromContext(r.Context())

	items := view.Cart.Items
	if items == nil {
		items = []models.CartItem{}
	}

	resp := CartResponse{
		Items:       items,
		ItemCount:   len(items),
		TotalAmount: cart.TotalAmount(view.Cart),
		TotalGuests: cart.TotalGuests(view.Cart),
	}
	if property != nil {
		resp.Currency = property.Currency
	}
	if view.Recovered {
		resp.Notice = corruptCartNotice
	}

	writeJSON(w, status, resp)
}

// parseSelectedDate accepts a calendar date or an RFC 3339 timestamp. Empty means no date.
func parseSelectedDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

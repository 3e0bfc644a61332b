package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guest-portal/internal/models"
)

// OrderService places and looks up single-service bookings
type OrderService interface {
	Create(ctx context.Context, property *models.Property, req models.OrderCreateRequest) (*models.Order, error)
	Get(ctx context.Context, property *models.Property, orderID int) (*models.Order, error)
}

// OrderHandler handles the direct booking form
type OrderHandler struct {
	orders OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// CreateOrder books a single service
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	property, _ := propertyFromContext(r.Context())

	var req models.OrderCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	order, err := h.orders.Create(r.Context(), property, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetOrder returns one of the property's orders
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	property, _ := propertyFromContext(r.Context())

	orderID, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil || orderID <= 0 {
		writeBadRequest(w, r, "Invalid order ID")
		return
	}

	order, err := h.orders.Get(r.Context(), property, orderID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

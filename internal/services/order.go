package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"guest-portal/internal/models"
)

// OrderBackend is the subset of the backend API used for direct bookings
type OrderBackend interface {
	CreateOrder(ctx context.Context, req models.BackendOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int) (*models.Order, error)
}

// UpsellLookup finds a bookable upsell of a property
type UpsellLookup interface {
	GetUpsell(ctx context.Context, property *models.Property, upsellID int) (*models.Upsell, error)
}

// OrderService books single upsells outside the cart
type OrderService struct {
	backend OrderBackend
	upsells UpsellLookup
	logger  *zap.Logger
}

// NewOrderService creates an order service
func NewOrderService(backend OrderBackend, upsells UpsellLookup, logger *zap.Logger) *OrderService {
	return &OrderService{
		backend: backend,
		upsells: upsells,
		logger:  logger,
	}
}

// Create validates the order form and books the upsell with its primary vendor
func (s *OrderService) Create(ctx context.Context, property *models.Property, req models.OrderCreateRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	upsell, err := s.upsells.GetUpsell(ctx, property, req.UpsellID)
	if err != nil {
		return nil, err
	}
	if upsell.PrimaryVendorID <= 0 {
		errs := models.NewValidationError()
		errs.Add("upsell_id", "This service cannot be booked right now")
		return nil, errs
	}

	order, err := s.backend.CreateOrder(ctx, models.BackendOrderRequest{
		PropertyID:    property.ID,
		UpsellID:      upsell.ID,
		VendorID:      upsell.PrimaryVendorID,
		GuestName:     strings.TrimSpace(req.GuestName),
		GuestEmail:    strings.TrimSpace(req.GuestEmail),
		GuestPhone:    strings.TrimSpace(req.GuestPhone),
		Notes:         strings.TrimSpace(req.Notes),
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if order.Upsell == nil {
		order.Upsell = upsell
	}

	s.logger.Info("order created",
		zap.Int("order_id", order.ID),
		zap.Int("property_id", property.ID),
		zap.Int("upsell_id", upsell.ID),
	)
	return order, nil
}

// Get returns an order that belongs to property
func (s *OrderService) Get(ctx context.Context, property *models.Property, orderID int) (*models.Order, error) {
	order, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	if order.PropertyID != property.ID {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

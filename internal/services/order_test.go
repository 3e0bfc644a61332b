package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guest-portal/internal/models"
)

type MockOrderBackend struct {
	mock.Mock
}

func (m *MockOrderBackend) CreateOrder(ctx context.Context, req models.BackendOrderRequest) (*models.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderBackend) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockUpsellLookup struct {
	mock.Mock
}

func (m *MockUpsellLookup) GetUpsell(ctx context.Context, property *models.Property, upsellID int) (*models.Upsell, error) {
	args := m.Called(ctx, property, upsellID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Upsell), args.Error(1)
}

func TestOrderService_Create(t *testing.T) {
	backend := new(MockOrderBackend)
	upsells := new(MockUpsellLookup)
	service := NewOrderService(backend, upsells, zap.NewNop())
	property := &models.Property{ID: 7}
	upsell := &models.Upsell{ID: 3, PropertyID: 7, Price: decimal.NewFromInt(40), PrimaryVendorID: 11, IsActive: true}

	upsells.On("GetUpsell", mock.Anything, property, 3).Return(upsell, nil)
	backend.On("CreateOrder", mock.Anything, models.BackendOrderRequest{
		PropertyID:    7,
		UpsellID:      3,
		VendorID:      11,
		GuestName:     "Ana Lima",
		GuestEmail:    "ana@example.com",
		Notes:         "gluten free",
		ScheduledDate: "2030-05-04",
	}).Return(&models.Order{ID: 55, PropertyID: 7, Status: models.OrderPending}, nil)

	order, err := service.Create(context.Background(), property, models.OrderCreateRequest{
		UpsellID:      3,
		GuestName:     "Ana Lima ",
		GuestEmail:    " ana@example.com",
		Notes:         "gluten free",
		ScheduledDate: "2030-05-04",
	})
	require.NoError(t, err)
	assert.Equal(t, 55, order.ID)
	assert.Equal(t, upsell, order.Upsell)
	backend.AssertExpectations(t)
}

func TestOrderService_CreateValidation(t *testing.T) {
	service := NewOrderService(new(MockOrderBackend), new(MockUpsellLookup), zap.NewNop())

	_, err := service.Create(context.Background(), &models.Property{ID: 7}, models.OrderCreateRequest{
		UpsellID:      3,
		GuestName:     "A",
		GuestEmail:    "ana@",
		GuestPhone:    "abc",
		ScheduledDate: "04/05/2030",
	})
	require.Error(t, err)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "guest_name")
	assert.Contains(t, verr.Fields, "guest_email")
	assert.Contains(t, verr.Fields, "guest_phone")
	assert.Contains(t, verr.Fields, "scheduled_date")
}

func TestOrderService_CreateUnknownUpsell(t *testing.T) {
	upsells := new(MockUpsellLookup)
	service := NewOrderService(new(MockOrderBackend), upsells, zap.NewNop())
	property := &models.Property{ID: 7}

	upsells.On("GetUpsell", mock.Anything, property, 9).Return(nil, models.ErrUpsellNotFound)

	_, err := service.Create(context.Background(), property, models.OrderCreateRequest{
		UpsellID: 9, GuestName: "Ana", GuestEmail: "ana@example.com",
	})
	assert.ErrorIs(t, err, models.ErrUpsellNotFound)
}

func TestOrderService_CreateWithoutVendor(t *testing.T) {
	upsells := new(MockUpsellLookup)
	backend := new(MockOrderBackend)
	service := NewOrderService(backend, upsells, zap.NewNop())
	property := &models.Property{ID: 7}

	upsells.On("GetUpsell", mock.Anything, property, 3).Return(&models.Upsell{ID: 3, PropertyID: 7}, nil)

	_, err := service.Create(context.Background(), property, models.OrderCreateRequest{
		UpsellID: 3, GuestName: "Ana", GuestEmail: "ana@example.com",
	})
	assert.ErrorIs(t, err, models.ErrValidation)
	backend.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderService_Get(t *testing.T) {
	backend := new(MockOrderBackend)
	service := NewOrderService(backend, new(MockUpsellLookup), zap.NewNop())
	property := &models.Property{ID: 7}

	backend.On("GetOrder", mock.Anything, 1).Return(&models.Order{ID: 1, PropertyID: 7}, nil)
	backend.On("GetOrder", mock.Anything, 2).Return(&models.Order{ID: 2, PropertyID: 8}, nil)
	backend.On("GetOrder", mock.Anything, 3).Return(nil, models.ErrOrderNotFound)

	order, err := service.Get(context.Background(), property, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, order.ID)

	_, err = service.Get(context.Background(), property, 2)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, err = service.Get(context.Background(), property, 3)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

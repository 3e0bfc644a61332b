package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guest-portal/internal/models"
)

type MockPropertyBackend struct {
	mock.Mock
}

func (m *MockPropertyBackend) GetPropertyByToken(ctx context.Context, accessToken string) (*models.Property, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyBackend) ListUpsells(ctx context.Context, propertyID int) ([]models.Upsell, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Upsell), args.Error(1)
}

func (m *MockPropertyBackend) GetUpsell(ctx context.Context, upsellID int) (*models.Upsell, error) {
	args := m.Called(ctx, upsellID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Upsell), args.Error(1)
}

func newTestPropertyService(t *testing.T) (*PropertyService, *MockPropertyBackend) {
	t.Helper()
	backend := new(MockPropertyBackend)
	service := NewPropertyService(backend, time.Minute, 100, zap.NewNop())
	t.Cleanup(service.Stop)
	return service, backend
}

func catalogue() []models.Upsell {
	return []models.Upsell{
		{ID: 1, PropertyID: 7, Title: "Boat trip", Price: decimal.NewFromInt(80), IsActive: true, SortOrder: 3},
		{ID: 2, PropertyID: 7, Title: "Retired", Price: decimal.NewFromInt(10), IsActive: false, SortOrder: 0},
		{ID: 3, PropertyID: 7, Title: "Breakfast", Price: decimal.NewFromInt(15), IsActive: true, SortOrder: 1},
		{ID: 4, PropertyID: 7, Title: "Late checkout", Price: decimal.NewFromInt(25), IsActive: true, SortOrder: 1},
	}
}

func TestPropertyService_ResolveTokenCaches(t *testing.T) {
	service, backend := newTestPropertyService(t)
	ctx := context.Background()

	backend.On("GetPropertyByToken", mock.Anything, "tok").Return(&models.Property{ID: 7}, nil).Once()

	for i := 0; i < 3; i++ {
		property, err := service.ResolveToken(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, 7, property.ID)
	}
	backend.AssertExpectations(t)
}

func TestPropertyService_ResolveTokenErrors(t *testing.T) {
	service, backend := newTestPropertyService(t)
	ctx := context.Background()

	_, err := service.ResolveToken(ctx, "  ")
	assert.ErrorIs(t, err, models.ErrPropertyNotFound)

	backend.On("GetPropertyByToken", mock.Anything, "bad").Return(nil, models.ErrPropertyNotFound).Twice()

	_, err = service.ResolveToken(ctx, "bad")
	assert.ErrorIs(t, err, models.ErrPropertyNotFound)
	_, err = service.ResolveToken(ctx, "bad")
	assert.ErrorIs(t, err, models.ErrPropertyNotFound)
	backend.AssertExpectations(t)
}

func TestPropertyService_ActiveUpsells(t *testing.T) {
	service, backend := newTestPropertyService(t)
	backend.On("ListUpsells", mock.Anything, 7).Return(catalogue(), nil).Once()

	upsells, err := service.ActiveUpsells(context.Background(), 7)
	require.NoError(t, err)

	ids := make([]int, 0, len(upsells))
	for _, u := range upsells {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []int{3, 4, 1}, ids)

	_, err = service.ActiveUpsells(context.Background(), 7)
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestPropertyService_Dashboard(t *testing.T) {
	service, backend := newTestPropertyService(t)
	backend.On("GetPropertyByToken", mock.Anything, "tok").Return(&models.Property{ID: 7, Name: "Sea View"}, nil)
	backend.On("ListUpsells", mock.Anything, 7).Return(catalogue(), nil)

	dashboard, err := service.Dashboard(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Sea View", dashboard.Property.Name)
	assert.Len(t, dashboard.Upsells, 3)
}

func TestPropertyService_GetUpsell(t *testing.T) {
	service, backend := newTestPropertyService(t)
	property := &models.Property{ID: 7}
	ctx := context.Background()

	backend.On("ListUpsells", mock.Anything, 7).Return(catalogue(), nil)
	backend.On("GetUpsell", mock.Anything, 2).Return(&catalogue()[1], nil)
	backend.On("GetUpsell", mock.Anything, 50).Return(&models.Upsell{ID: 50, PropertyID: 8, IsActive: true}, nil)
	backend.On("GetUpsell", mock.Anything, 51).Return(&models.Upsell{ID: 51, PropertyID: 7, IsActive: true}, nil)
	backend.On("GetUpsell", mock.Anything, 60).Return(nil, models.ErrUpsellNotFound)

	upsell, err := service.GetUpsell(ctx, property, 3)
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", upsell.Title)

	_, err = service.GetUpsell(ctx, property, 2)
	assert.ErrorIs(t, err, models.ErrUpsellNotFound, "inactive")

	_, err = service.GetUpsell(ctx, property, 50)
	assert.ErrorIs(t, err, models.ErrUpsellNotFound, "other property")

	_, err = service.GetUpsell(ctx, property, 60)
	assert.ErrorIs(t, err, models.ErrUpsellNotFound)

	upsell, err = service.GetUpsell(ctx, property, 51)
	require.NoError(t, err)
	assert.Equal(t, 51, upsell.ID)
}

func TestPropertyService_SharedLookupIgnoresCallerCancellation(t *testing.T) {
	service, backend := newTestPropertyService(t)
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

	backend.On("GetPropertyByToken", live, "tok").Return(&models.Property{ID: 7}, nil).Once()
	backend.On("ListUpsells", live, 7).Return(catalogue(), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	property, err := service.ResolveToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 7, property.ID)

	upsells, err := service.ActiveUpsells(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, upsells, 3)

	// a later caller is served from the cache
	_, err = service.ResolveToken(context.Background(), "tok")
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

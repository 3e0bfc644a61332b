package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guest-portal/internal/cart"
	"guest-portal/internal/checkout"
	"guest-portal/internal/middleware"
	"guest-portal/internal/models"
	"guest-portal/internal/services"
	"guest-portal/internal/session"
)

const (
	testToken      = "tok-123"
	corruptHeader  = "X-Test-Corrupt-Cart"
	testFutureDate = "2099-06-15"
)

type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) ResolveToken(ctx context.Context, accessToken string) (*models.Property, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Dashboard(ctx context.Context, accessToken string) (*services.Dashboard, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

func (m *MockPropertyService) GetUpsell(ctx context.Context, property *models.Property, upsellID int) (*models.Upsell, error) {
	args := m.Called(ctx, property, upsellID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Upsell), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) CreateBankTransferOrder(ctx context.Context, req models.PaymentRequest) (*models.BankTransferOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankTransferOrder), args.Error(1)
}

type MockCheckInService struct {
	mock.Mock
}

func (m *MockCheckInService) Status(ctx context.Context, accessToken string) (*models.CheckIn, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckIn), args.Error(1)
}

func (m *MockCheckInService) Submit(ctx context.Context, accessToken string, property *models.Property, form models.CheckInForm, passport []byte) (*models.CheckInResult, error) {
	args := m.Called(ctx, accessToken, property, form, passport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckInResult), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, property *models.Property, req models.OrderCreateRequest) (*models.Order, error) {
	args := m.Called(ctx, property, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, property *models.Property, orderID int) (*models.Order, error) {
	args := m.Called(ctx, property, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

// testEnv serves the guest API against a memory session backend, keeping
// the browser's session cookie between requests
type testEnv struct {
	router     http.Handler
	property   *models.Property
	properties *MockPropertyService
	gateway    *MockPaymentGateway
	checkIns   *MockCheckInService
	orders     *MockOrderService
	cookies    []*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	backend := session.NewMemoryBackend(100, time.Hour)
	t.Cleanup(backend.Stop)
	manager := session.NewManager(session.NewCookieStore([]byte("test-secret-0123456789abcdef0123"), false), "guest_session", logger)

	env := &testEnv{
		property: &models.Property{
			ID:               7,
			Name:             "Sea View",
			Currency:         "EUR",
			PaymentProcessor: models.ProcessorStripe,
		},
		properties: new(MockPropertyService),
		gateway:    new(MockPaymentGateway),
		checkIns:   new(MockCheckInService),
		orders:     new(MockOrderService),
	}

	env.properties.On("ResolveToken", mock.Anything, testToken).Return(env.property, nil).Maybe()
	env.properties.On("ResolveToken", mock.Anything, mock.Anything).Return(nil, models.ErrPropertyNotFound).Maybe()

	carts := cart.NewStore(backend, logger)
	states := checkout.NewStateStore(backend)

	guest := NewGuestHandler(env.properties, logger)
	cartHandler := NewCartHandler(cart.NewService(carts, states, logger), env.properties, logger)
	checkoutHandler := NewCheckoutHandler(checkout.NewService(carts, states, env.gateway, logger), logger)
	checkInHandler := NewCheckInHandler(env.checkIns, 5<<20, logger)
	orderHandler := NewOrderHandler(env.orders, logger)

	// Lets tests plant an unreadable cart record in the caller's session
	seedCorruptCart := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(corruptHeader) != "" {
				require.NoError(t, backend.Set(r.Context(), cart.StorageKey, "{not json"))
			}
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/guest/{accessToken}", func(r chi.Router) {
		r.Use(manager.Middleware)
		r.Use(seedCorruptCart)
		r.Use(guest.ResolveProperty)

		r.Get("/", guest.Dashboard)
		r.Get("/cart", cartHandler.ViewCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Patch("/cart/items/{upsellID}", cartHandler.UpdateItem)
		r.Delete("/cart/items/{upsellID}", cartHandler.RemoveItem)
		r.Get("/checkout", checkoutHandler.Summary)
		r.Post("/checkout/card", checkoutHandler.BeginCardPayment)
		r.Post("/checkout/bank-transfer", checkoutHandler.BeginBankTransfer)
		r.Post("/checkout/confirm", checkoutHandler.ConfirmPayment)
		r.Post("/checkout/fail", checkoutHandler.FailPayment)
		r.Get("/check-in", checkInHandler.Status)
		r.Post("/check-in", checkInHandler.Submit)
		r.Post("/orders", orderHandler.CreateOrder)
		r.Get("/orders/{orderID}", orderHandler.GetOrder)
	})
	env.router = r

	return env
}

func (e *testEnv) path(suffix string) string {
	return "/api/guest/" + testToken + suffix
}

func (e *testEnv) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		e.cookies = cookies
	}
	return rec
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req)
}

// stubUpsell makes the property service return an active upsell at price
func (e *testEnv) stubUpsell(id int, price int64) *models.Upsell {
	upsell := &models.Upsell{
		ID:         id,
		PropertyID: e.property.ID,
		Title:      "Service",
		Price:      decimal.NewFromInt(price),
		IsActive:   true,
	}
	e.properties.On("GetUpsell", mock.Anything, e.property, id).Return(upsell, nil).Maybe()
	return upsell
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func assertDecimal(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.NewFromInt(expected).Equal(actual), "expected %d, got %s", expected, actual)
}

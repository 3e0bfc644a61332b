package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	appconfig "guest-portal/internal/config"
	"guest-portal/internal/models"
)

// BackendClient calls the property management backend REST API
type BackendClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// NewBackendClient creates a backend client. Consecutive upstream failures open a
// circuit breaker so later calls fail fast until the cooldown elapses.
func NewBackendClient(cfg appconfig.BackendConfig, logger *zap.Logger) *BackendClient {
	threshold := uint32(cfg.BreakerThreshold)
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "backend-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BackendClient{
		baseURL: cfg.URL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// APIError represents an error response from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto a portal error kind
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return models.ErrAccessDenied
	case e.StatusCode == http.StatusNotFound:
		return models.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return models.ErrConflict
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return models.ErrValidation
	case e.StatusCode >= http.StatusInternalServerError:
		return models.ErrUpstream
	default:
		return nil
	}
}

// GetPropertyByToken resolves a guest access token to its property
func (c *BackendClient) GetPropertyByToken(ctx context.Context, accessToken string) (*models.Property, error) {
	var resp struct {
		Property *models.Property `json:"property"`
	}
	if err := c.do(ctx, http.MethodGet, "/properties/access/"+url.PathEscape(accessToken), nil, &resp); err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrAccessDenied) {
			return nil, fmt.Errorf("%w: %w", models.ErrPropertyNotFound, err)
		}
		return nil, err
	}
	if resp.Property == nil || resp.Property.ID <= 0 {
		return nil, fmt.Errorf("%w: property missing", models.ErrMalformedResponse)
	}
	return resp.Property, nil
}

// ListUpsells returns every upsell of a property, active or not
func (c *BackendClient) ListUpsells(ctx context.Context, propertyID int) ([]models.Upsell, error) {
	var resp struct {
		Upsells []models.Upsell `json:"upsells"`
	}
	if err := c.do(ctx, http.MethodGet, "/properties/"+strconv.Itoa(propertyID)+"/upsells", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Upsells, nil
}

// GetUpsell fetches one upsell by id
func (c *BackendClient) GetUpsell(ctx context.Context, upsellID int) (*models.Upsell, error) {
	var resp struct {
		Upsell *models.Upsell `json:"upsell"`
	}
	if err := c.do(ctx, http.MethodGet, "/upsells/"+strconv.Itoa(upsellID), nil, &resp); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", models.ErrUpsellNotFound, err)
		}
		return nil, err
	}
	if resp.Upsell == nil || resp.Upsell.ID <= 0 {
		return nil, fmt.Errorf("%w: upsell missing", models.ErrMalformedResponse)
	}
	return resp.Upsell, nil
}

// CreatePaymentIntent starts a card payment for the cart
func (c *BackendClient) CreatePaymentIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	resp, err := c.payment(ctx, "/guest/payments/create-intent", req, "Failed to initialize payment")
	if err != nil {
		return nil, err
	}
	if resp.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret missing", models.ErrMalformedResponse)
	}
	return &models.PaymentIntent{ClientSecret: resp.ClientSecret}, nil
}

// CreateBankTransferOrder starts a bank transfer payment for the cart
func (c *BackendClient) CreateBankTransferOrder(ctx context.Context, req models.PaymentRequest) (*models.BankTransferOrder, error) {
	resp, err := c.payment(ctx, "/guest/payments/wise", req, "Failed to create payment order")
	if err != nil {
		return nil, err
	}
	return &models.BankTransferOrder{PaymentURL: resp.PaymentURL}, nil
}

// CheckInStatus returns the check-in for a token, or nil when the guest has not checked in
func (c *BackendClient) CheckInStatus(ctx context.Context, accessToken string) (*models.CheckIn, error) {
	return c.checkIn(ctx, "/guest/check-in-status/"+url.PathEscape(accessToken))
}

// CheckInStatusForEmail returns the check-in for a token and guest email, or nil
func (c *BackendClient) CheckInStatusForEmail(ctx context.Context, accessToken, email string) (*models.CheckIn, error) {
	path := "/guest/check-specific-status/" + url.PathEscape(accessToken) + "?email=" + url.QueryEscape(email)
	return c.checkIn(ctx, path)
}

// SubmitCheckIn records a guest check-in. A 409 unwraps to ErrConflict.
func (c *BackendClient) SubmitCheckIn(ctx context.Context, req models.CheckInRequest) (*models.CheckIn, error) {
	var resp struct {
		CheckIn *models.CheckIn `json:"check_in"`
	}
	if err := c.do(ctx, http.MethodPost, "/guest/check-in", req, &resp); err != nil {
		return nil, err
	}
	return resp.CheckIn, nil
}

// CreateOrder books a single upsell
func (c *BackendClient) CreateOrder(ctx context.Context, req models.BackendOrderRequest) (*models.Order, error) {
	var resp struct {
		Order *models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("%w: order missing", models.ErrMalformedResponse)
	}
	return resp.Order, nil
}

// GetOrder fetches a booking by id
func (c *BackendClient) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	var resp struct {
		Order *models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+strconv.Itoa(orderID), nil, &resp); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", models.ErrOrderNotFound, err)
		}
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("%w: order missing", models.ErrMalformedResponse)
	}
	return resp.Order, nil
}

func (c *BackendClient) checkIn(ctx context.Context, path string) (*models.CheckIn, error) {
	var resp struct {
		CheckIn *models.CheckIn `json:"check_in"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.CheckIn, nil
}

// payment posts to a payment endpoint. Rejections become a PaymentError carrying
// the backend's message; outages keep their upstream kind.
func (c *BackendClient) payment(ctx context.Context, path string, req models.PaymentRequest, fallback string) (*models.PaymentResponse, error) {
	var resp models.PaymentResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return nil, &models.PaymentError{Reason: messageOr(apiErr.Message, fallback), Err: err}
		}
		return nil, err
	}
	if !resp.Success {
		return nil, &models.PaymentError{Reason: messageOr(resp.Message, fallback)}
	}
	return &resp, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %v", models.ErrUpstream, err)
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, handleAPIError(resp.StatusCode, bodyBytes)
		}
		return bodyBytes, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", models.ErrUpstream, err)
		}
		c.logger.Debug("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	return nil
}

// handleAPIError extracts the backend's message from an error body
func handleAPIError(statusCode int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	message := http.StatusText(statusCode)
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			message = payload.Message
		case payload.Error != "":
			message = payload.Error
		case payload.Detail != "":
			message = payload.Detail
		}
	}
	return &APIError{StatusCode: statusCode, Message: message}
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

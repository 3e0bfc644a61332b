package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guest-portal/internal/middleware"
	"guest-portal/internal/models"
	"guest-portal/internal/services"
)

// PropertyService resolves access tokens and their upsells
type PropertyService interface {
	ResolveToken(ctx context.Context, accessToken string) (*models.Property, error)
	Dashboard(ctx context.Context, accessToken string) (*services.Dashboard, error)
	GetUpsell(ctx context.Context, property *models.Property, upsellID int) (*models.Upsell, error)
}

type guestContextKey struct{}

type guestContext struct {
	accessToken string
	property    *models.Property
}

// propertyFromContext returns the property resolved by GuestHandler.ResolveProperty
func propertyFromContext(ctx context.Context) (*models.Property, string) {
	gc, ok := ctx.Value(guestContextKey{}).(*guestContext)
	if !ok {
		return nil, ""
	}
	return gc.property, gc.accessToken
}

func dashboardPath(r *http.Request) string {
	if _, token := propertyFromContext(r.Context()); token != "" {
		return "/guest/" + token
	}
	return "/"
}

// GuestHandler serves the guest landing data and resolves access tokens
type GuestHandler struct {
	properties PropertyService
	logger     *zap.Logger
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(properties PropertyService, logger *zap.Logger) *GuestHandler {
	return &GuestHandler{
		properties: properties,
		logger:     logger,
	}
}

// ResolveProperty loads the property for the {accessToken} URL parameter.
// Unknown tokens count toward the caller's rate limit.
func (h *GuestHandler) ResolveProperty(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "accessToken")

		property, err := h.properties.ResolveToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrPropertyNotFound) || errors.Is(err, models.ErrAccessDenied) {
				middleware.MarkTokenRejected(r.Context())
			}
			writeServiceError(w, r, h.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), guestContextKey{}, &guestContext{
			accessToken: token,
			property:    property,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Dashboard returns the property and its bookable services
func (h *GuestHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	_, token := propertyFromContext(r.Context())

	dashboard, err := h.properties.Dashboard(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// Health reports that the process is serving
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

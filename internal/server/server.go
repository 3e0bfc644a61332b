// Package server assembles the guest portal router and HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"guest-portal/internal/config"
	"guest-portal/internal/handlers"
	"guest-portal/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Guest    *handlers.GuestHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	CheckIn  *handlers.CheckInHandler
	Orders   *handlers.OrderHandler
}

// Deps is everything the router needs besides the handlers
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Sessions    func(http.Handler) http.Handler
	RateLimiter *middleware.TokenRateLimiter
}

// NewRouter builds the portal's chi router
func NewRouter(deps Deps, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(deps.Config.CORS.AllowedOrigins)))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", handlers.Health)

	r.Route("/api/guest/{accessToken}", func(r chi.Router) {
		r.Use(middleware.TokenRateLimit(deps.RateLimiter))
		r.Use(deps.Sessions)
		r.Use(h.Guest.ResolveProperty)

		r.Get("/", h.Guest.Dashboard)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.ViewCart)
			r.Post("/items", h.Cart.AddItem)
			r.Patch("/items/{upsellID}", h.Cart.UpdateItem)
			r.Delete("/items/{upsellID}", h.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.Checkout.Summary)
			r.Post("/card", h.Checkout.BeginCardPayment)
			r.Post("/bank-transfer", h.Checkout.BeginBankTransfer)
			r.Post("/confirm", h.Checkout.ConfirmPayment)
			r.Post("/fail", h.Checkout.FailPayment)
		})

		r.Get("/check-in", h.CheckIn.Status)
		r.Post("/check-in", h.CheckIn.Submit)

		r.Post("/orders", h.Orders.CreateOrder)
		r.Get("/orders/{orderID}", h.Orders.GetOrder)
	})

	return r
}

// Server is the portal HTTP server
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// New creates a server listening on the configured address
func New(cfg *config.Config, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		logger:          logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"guest-portal/internal/cart"
	"guest-portal/internal/checkout"
	"guest-portal/internal/config"
	"guest-portal/internal/handlers"
	"guest-portal/internal/logging"
	"guest-portal/internal/middleware"
	"guest-portal/internal/server"
	"guest-portal/internal/services"
	"guest-portal/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Session backend
	sessionBackend, closeSessions, err := newSessionBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	cookieStore := session.NewCookieStore([]byte(cfg.Session.Secret), cfg.Session.Secure)
	sessionManager := session.NewManager(cookieStore, cfg.Session.CookieName, logger)

	// Backend API and lookups
	backend := services.NewBackendClient(cfg.Backend, logger)
	propertyService := services.NewPropertyService(backend, cfg.Cache.PropertyTTL, int64(cfg.Cache.MaxEntries), logger)
	defer propertyService.Stop()

	// Passport storage (R2 or local disk)
	storage, err := services.NewStorageService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	maxPassport := int64(cfg.Uploads.MaxPassportMB) << 20
	passportService := services.NewPassportService(storage, maxPassport, logger)
	checkInService := services.NewCheckInService(backend, passportService, logger)
	orderService := services.NewOrderService(backend, propertyService, logger)

	// Cart and checkout share the session backend
	cartStore := cart.NewStore(sessionBackend, logger)
	stateStore := checkout.NewStateStore(sessionBackend)
	cartService := cart.NewService(cartStore, stateStore, logger)
	checkoutService := checkout.NewService(cartStore, stateStore, backend, logger)

	rateLimiter := middleware.NewTokenRateLimiter(cfg.RateLimit.MaxFailures, cfg.RateLimit.Window, cfg.RateLimit.Block)
	defer rateLimiter.Stop()

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Logger:      logger,
		Sessions:    sessionManager.Middleware,
		RateLimiter: rateLimiter,
	}, server.Handlers{
		Guest:    handlers.NewGuestHandler(propertyService, logger),
		Cart:     handlers.NewCartHandler(cartService, propertyService, logger),
		Checkout: handlers.NewCheckoutHandler(checkoutService, logger),
		CheckIn:  handlers.NewCheckInHandler(checkInService, maxPassport, logger),
		Orders:   handlers.NewOrderHandler(orderService, logger),
	})

	logger.Info("guest portal starting",
		zap.String("env", cfg.Server.Env),
		zap.String("backend", cfg.Backend.URL),
		zap.String("session_backend", cfg.Session.Backend))

	return server.New(cfg, router, logger).Run(ctx)
}

// newSessionBackend builds the configured session value store and its cleanup func
func newSessionBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Backend, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		opts, err := redisOptions(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("redis session store connected", zap.String("addr", opts.Addr))
		return session.NewRedisBackend(client, cfg.Session.IdleTimeout), func() { _ = client.Close() }, nil

	case config.SessionBackendCookie:
		logger.Warn("cart stored in session cookie; large carts may exceed browser limits")
		return session.NewCookieBackend(), func() {}, nil

	default:
		memory := session.NewMemoryBackend(int64(cfg.Session.MaxEntries), cfg.Session.IdleTimeout)
		return memory, memory.Stop, nil
	}
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}


package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guest-portal/internal/config"
)

// NewStorageService builds document storage: R2 with a local fallback when R2 is
// configured and reachable, local disk otherwise.
func NewStorageService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (StorageService, error) {
	local, err := NewLocalStorageService(cfg.Uploads.Dir, cfg.Server.PublicURL+"/uploads", logger)
	if err != nil {
		return nil, err
	}

	if !cfg.R2Enabled() {
		logger.Info("R2 not configured, storing documents locally", zap.String("dir", cfg.Uploads.Dir))
		return local, nil
	}

	r2, err := NewR2Service(ctx, cfg.R2, logger)
	if err != nil {
		logger.Warn("R2 service unavailable, using local storage only", zap.Error(err))
		return local, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := r2.HealthCheck(checkCtx); err != nil {
		logger.Warn("R2 health check failed, using local storage only", zap.Error(err))
		return local, nil
	}

	logger.Info("R2 storage initialized", zap.String("bucket", cfg.R2.BucketName))
	return NewStorageServiceWithFallback(r2, local, logger), nil
}

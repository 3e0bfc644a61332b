package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"guest-portal/internal/config"
	"guest-portal/internal/logging"
	"guest-portal/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.R2Enabled() {
		fmt.Println("R2 is not configured; passports are stored in", cfg.Uploads.Dir)
		fmt.Println("Set R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY to use R2.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r2, err := services.NewR2Service(ctx, cfg.R2, logger)
	if err != nil {
		logger.Fatal("R2 configuration is invalid", zap.Error(err))
	}

	fmt.Printf("Storage Information:\n")
	fmt.Printf("  Bucket Name: %s\n", r2.BucketName())
	fmt.Printf("  Sample URL: %s\n", r2.GetURL("passports/1/example.jpg"))
	fmt.Printf("  Fallback Path: %s\n", cfg.Uploads.Dir)

	// Check if we should set up the bucket
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		fmt.Println("\nSetting up R2 bucket...")

		created, err := r2.EnsureBucket(ctx)
		if err != nil {
			logger.Fatal("failed to set up R2 bucket", zap.Error(err))
		}
		if created {
			fmt.Println("R2 bucket created.")
		} else {
			fmt.Println("R2 bucket already exists.")
		}
		return
	}

	if err := r2.HealthCheck(ctx); err != nil {
		logger.Fatal("R2 bucket is not reachable", zap.Error(err))
	}
	fmt.Println("\nR2 bucket is reachable. To create a missing bucket, run: go run ./cmd/setup-r2 setup")
}

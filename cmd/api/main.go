// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adiadia/event-ledger/internal/blob"
	"github.com/adiadia/event-ledger/internal/config"
	"github.com/adiadia/event-ledger/internal/logging"
	"github.com/adiadia/event-ledger/internal/persistence/postgres"
	"github.com/adiadia/event-ledger/internal/repository"
	httptransport "github.com/adiadia/event-ledger/internal/transport/http"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env)

	if cfg.APIKey == "" {
		logger.Warn("API_KEY is not set; authentication is disabled")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			log.Fatalf("schema bootstrap failed: %v", err)
		}
	}

	eventRepo := repository.NewEventRepository(pool, logger)

	var blobStore httptransport.BlobStore
	if cfg.BlobBucket != "" {
		s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:   cfg.BlobBucket,
			Region:   cfg.BlobRegion,
			Endpoint: cfg.BlobEndpoint,
			Prefix:   cfg.BlobPrefix,
		})
		if err != nil {
			log.Fatalf("blob store init failed: %v", err)
		}
		blobStore = s3Store
		logger.Info("blob offload enabled",
			"bucket", cfg.BlobBucket,
			"inline_max_bytes", cfg.BlobInlineMaxBytes,
		)
	} else {
		logger.Info("blob offload disabled; payloads stored inline only")
	}

	handler := httptransport.NewRouter(httptransport.Deps{
		Events:        eventRepo,
		Blobs:         blobStore,
		Health:        postgres.NewSchemaHealthChecker(pool),
		Logger:        logger,
		APIKey:        cfg.APIKey,
		BlobInlineMax: cfg.BlobInlineMaxBytes,
		Version:       Version,
		Commit:        Commit,
		BuildDate:     BuildDate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			"addr", cfg.HTTPAddr,
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}

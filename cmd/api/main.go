package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadform/internal/automation"
	"leadform/internal/config"
	"leadform/internal/handler"
	"leadform/internal/media"
	"leadform/internal/repository/blob"
	"leadform/internal/repository/record"
	"leadform/internal/repository/survey"
	"leadform/internal/server"
	"leadform/internal/session"
	"leadform/internal/submit"
	"leadform/internal/token"
	"leadform/internal/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	surveys, err := newSurveyStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open survey store: %v", err)
	}
	records, err := newRecordStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	blobs, err := newBlobStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	trigger := newTrigger(cfg, logger)

	engine := validate.New(validate.StrategyByName(cfg.PhoneFormat))
	resolver := token.NewResolver(surveys, cfg.ResolveTimeout, logger)
	adapter := media.NewAdapter(blobs, nil, logger)
	coordinator := submit.NewCoordinator(records, trigger, logger)
	sessions := session.NewRegistry()

	h := handler.New(resolver, surveys, sessions, adapter, coordinator, engine, cfg.OwnerKey, logger)
	srv := server.New(cfg.Port, server.NewMux(h), logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server exiting")
}

func newSurveyStore(cfg *config.Config, logger *slog.Logger) (survey.Store, error) {
	var inner survey.Store
	if cfg.DB.DSN != "" {
		pg, err := survey.NewPostgres(cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		inner = pg
	} else {
		logger.Warn("no DATABASE_URL set, using in-memory survey store")
		inner = survey.NewMemoryStore()
	}
	return survey.NewCached(inner, cfg.CacheSize)
}

func newRecordStore(cfg *config.Config, logger *slog.Logger) (record.Store, error) {
	if cfg.DB.DSN != "" {
		return record.NewPostgres(cfg.DB.DSN)
	}
	logger.Warn("no DATABASE_URL set, using in-memory record store")
	return record.NewMemoryStore(), nil
}

func newBlobStore(cfg *config.Config, logger *slog.Logger) (blob.Store, error) {
	if cfg.Blob.Enabled {
		return blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.Blob.Endpoint,
			Region:    cfg.Blob.Region,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
		})
	}
	logger.Warn("no blob endpoint configured, media uploads stay in memory")
	return blob.NewMemoryStore(), nil
}

func newTrigger(cfg *config.Config, logger *slog.Logger) automation.Trigger {
	if !cfg.Automation.Enabled {
		return &automation.Noop{Logger: logger}
	}
	g, err := automation.NewGemini(context.Background(), cfg.Automation.Model, logger)
	if err != nil {
		logger.Error("automation disabled, gemini init failed", "err", err)
		return &automation.Noop{Logger: logger}
	}
	return g
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/contact"
	"github.com/accelrix/intern-service/internal/interns"
	"github.com/accelrix/intern-service/internal/logger"
	"github.com/accelrix/intern-service/internal/notify"
	"github.com/accelrix/intern-service/internal/ratelimit"
	"github.com/accelrix/intern-service/internal/server"
	"github.com/accelrix/intern-service/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}

	if err := run(cfg, zl); err != nil {
		zl.Error("service stopped with error", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

// run owns every resource it opens so they are closed on all exit paths
func run(cfg *config.Config, zl *zap.Logger) error {
	// Initialize storage
	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Storage.ConnectTimeout)
	store, err := storage.NewStorage(connectCtx, cfg.Storage)
	connectCancel()
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Type, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zl.Warn("failed to close storage", zap.Error(err))
		}
	}()

	// Mail
	mailer, err := notify.NewMailer(cfg.Mail, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	banner, err := notify.LoadBanner(cfg.Mail.BannerPath)
	if err != nil {
		zl.Warn("auto-reply banner unavailable", zap.Error(err))
	}
	if banner == nil {
		zl.Info("sending auto-replies without banner", zap.String("path", cfg.Mail.BannerPath))
	}

	// Rate limiting is optional
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zl.Warn("redis not reachable, rate limiter will fail open", zap.String("addr", cfg.RateLimit.RedisAddr), zap.Error(err))
		}
		limiter = ratelimit.NewLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, zl)
	}

	internService := interns.NewService(store, zl)
	contactService := contact.NewService(cfg.Mail, store, mailer, banner, zl)

	// Initialize HTTP server for API endpoints
	httpServer := server.NewServer(cfg.Server, store, internService, contactService, limiter, zl)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("starting HTTP server",
			zap.Int("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Type),
			zap.String("mail", cfg.Mail.Provider),
			zap.Bool("rate_limit", limiter != nil),
		)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	var runErr error
	select {
	case sig := <-sigChan:
		zl.Info("shutdown signal received, gracefully shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server shutdown error", zap.Error(err))
	}

	zl.Info("shutdown complete")
	return runErr
}

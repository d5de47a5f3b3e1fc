package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/consultorios/booking-chat/internal/api"
	"github.com/consultorios/booking-chat/internal/clinics"
	"github.com/consultorios/booking-chat/internal/config"
	"github.com/consultorios/booking-chat/internal/fallback"
	"github.com/consultorios/booking-chat/internal/funnel"
	"github.com/consultorios/booking-chat/pkg/logging"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("chat-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort,
		"clinics_api", cfg.ClinicsAPIBaseURL, "fallback_configured", cfg.FallbackChatURL != "")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clinicsClient := clinics.NewClient(cfg.ClinicsAPIBaseURL, cfg.HTTPClientTimeout)
	resolver := funnel.NewResolver(clinicsClient, logger)

	var fb api.Fallback
	if cfg.FallbackChatURL != "" {
		fb = fallback.NewClient(cfg.FallbackChatURL, cfg.HTTPClientTimeout)
	}

	router := api.NewRouter(api.RouterConfig{
		Resolver:      resolver,
		Fallback:      fb,
		Clinics:       clinicsClient,
		Logger:        logger,
		Env:           cfg.Env,
		Version:       version,
		ChatRateLimit: cfg.ChatRateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	logger.Info("chat-server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"todoapp/internal/config"
	"todoapp/internal/handlers"
	"todoapp/internal/store"
	"todoapp/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todo-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Configuration
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("loaded config",
		zap.String("addr", cfg.Addr()),
		zap.String("cors_origin", cfg.CORSOrigin),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("trace_exporter", cfg.TraceExporter),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := telemetry.NewTracerProvider(cfg.TraceExporter, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	// Initialize store
	s, err := store.Open(cfg.DatabaseURL,
		store.WithLogger(logger),
		store.WithConnectRetry(ctx, 20, 3*time.Second),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	logger.Info("store ready")

	// Router
	opts := handlers.RouterOptions{
		CORSOrigin:     cfg.CORSOrigin,
		TracerProvider: tp,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = telemetry.NewMetrics()
	}
	router := handlers.NewRouter(handlers.New(s, logger), opts)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

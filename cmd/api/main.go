// cmd/api/main.go
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

	"weaponledger/internal/infra/config"
	"weaponledger/internal/platform/di"
	"weaponledger/internal/platform/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[boot] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ─────────────────────────────────────────────────────────────
	// Config & logger
	// ─────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flush, err := logging.Init(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer flush()

	// ─────────────────────────────────────────────────────────────
	// DI container (store / collaborators / usecases / router)
	// ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cont, err := di.Build(ctx, cfg)
	if err != nil {
		zap.S().Errorf("[boot] di build failed: %v", err)
		return err
	}
	defer cont.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cont.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown for Cloud Run
	// ─────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infof("[boot] listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zap.S().Errorf("[boot] server error: %v", err)
			return err
		}
	case <-ctx.Done():
		zap.S().Infof("[boot] received signal; shutting down (timeout=%s)", cfg.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Warnf("[boot] server shutdown error: %v", err)
	}

	zap.S().Infof("[boot] server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scorekit/scorekit"
)

func main() {
	ctx := context.Background()
	app, err := BuildApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	cfg := app.Config
	logger := app.Logger

	logger.Info("starting scorekit server",
		"environment", cfg.Environment,
		"profile", cfg.Profile,
		"address", cfg.Server.Address,
		"backend", app.Service.Describe(),
		"available", app.Service.Available())

	go serve(app.Server, "api")
	if app.Metrics.Server != nil {
		go serve(app.Metrics.Server, "metrics")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	code := 0
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
		code = 1
	}
	if app.Metrics.Server != nil {
		_ = app.Metrics.Server.Shutdown(shutdownCtx)
	}
	app.Service.Close()
	if err := scorekit.CloseStore(app.Store); err != nil {
		logger.Warn("close store", "error", err)
	}
	if err := app.Tracer(shutdownCtx); err != nil {
		logger.Warn("flush traces", "error", err)
	}

	logger.Info("server stopped")
	os.Exit(code)
}

func serve(srv *http.Server, name string) {
	logger := slog.With("listener", name)
	logger.Info("listening", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

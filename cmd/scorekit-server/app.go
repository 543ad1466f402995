package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scorekit/api/httpapi"
	"scorekit/config"
	"scorekit/engine"
	"scorekit/identity"
	"scorekit/scorekit"
	"scorekit/telemetry"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tracer  TracerShutdown
	Store   engine.RankingStore
	Service *engine.ScoreService
	Handler http.Handler
	Server  *http.Server
	Metrics *MetricsServer
}

// TracerShutdown flushes and stops the trace exporter.
type TracerShutdown func(context.Context) error

// MetricsServer serves Prometheus metrics on a dedicated listener. Server is nil unless
// metrics are enabled; the API port always exposes them too.
type MetricsServer struct {
	Server *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	logger := telemetry.NewLogger(telemetry.LoggerOptions{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Attributes: cfg.Logging.Attributes,
	})
	slog.SetDefault(logger)
	return logger
}

func provideTracer(ctx context.Context, cfg *config.Config, logger *slog.Logger) TracerShutdown {
	noop := func(context.Context) error { return nil }
	if !cfg.Tracing.Enabled {
		return noop
	}
	shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerOptions{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: string(cfg.Environment),
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		return noop
	}
	return shutdown
}

func provideStore(cfg *config.Config, logger *slog.Logger) (engine.RankingStore, error) {
	return scorekit.OpenStore(cfg.Storage, logger)
}

func provideIdentity(cfg *config.Config, logger *slog.Logger) (engine.IdentityProvider, error) {
	path := cfg.Identity.Path
	if path == "" {
		p, err := identity.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return identity.NewFileProvider(path, identity.WithLogger(logger)), nil
}

// provideService probes the store once; an unreachable store leaves the server running
// in degraded mode.
func provideService(ctx context.Context, store engine.RankingStore, id engine.IdentityProvider, logger *slog.Logger) *engine.ScoreService {
	svc := scorekit.New(
		scorekit.WithStore(store),
		scorekit.WithIdentity(id),
		scorekit.WithDispatchMode(engine.DispatchAsync),
		scorekit.WithLogger(logger),
	)
	svc.Start(ctx)
	return svc
}

func provideHandler(svc *engine.ScoreService, cfg *config.Config) http.Handler {
	api := httpapi.NewMux(svc, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		RateLimitIdle:    cfg.Security.RateLimit.CleanupInterval,
		ServiceName:      cfg.Tracing.ServiceName,
	})
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	mux.Handle("/", api)
	return mux
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func provideMetricsServer(cfg *config.Config) *MetricsServer {
	if !cfg.Metrics.Enabled {
		return &MetricsServer{}
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	return &MetricsServer{Server: &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}}
}

package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"covid-dashboard/internal/config"
	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/middleware"
	"covid-dashboard/internal/observability"
	"covid-dashboard/internal/server"
	"covid-dashboard/internal/services"
)

const loadTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_url", cfg.Data.URL,
		"cache_file", cfg.Data.CacheFile,
	)

	metrics := observability.NewMetrics()
	analytics := newAnalytics(cfg, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	err = analytics.Load(ctx, dataset.NewConfiguredLoader(cfg.Data, logger, metrics))
	cancel()
	if err != nil {
		if stderrors.Is(err, dataset.ErrDataUnavailable) {
			logger.Error("dataset unavailable and no cache to fall back on", "error", err)
		} else {
			logger.Error("failed to load dataset", "error", err)
		}
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger, metrics, promhttp.Handler()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("analytics stats at shutdown", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

func newAnalytics(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *services.Analytics {
	return services.NewAnalytics(services.Options{
		PivotWindowDays:    cfg.Analysis.PivotWindowDays,
		ExtendedWindowDays: cfg.Analysis.ExtendedWindowDays,
		FocusLocation:      cfg.Analysis.FocusLocation,
		Logger:             logger,
		Metrics:            metrics,
	})
}

// newHandler wraps the routes in the middleware chain. Metrics sits innermost
// so it sees the matched route pattern.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics, metricsHandler http.Handler) http.Handler {
	srv := server.NewServer(analytics, logger, metricsHandler)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Security, nil), logger),
		middleware.Metrics(metrics),
	)
	return chain(srv)
}

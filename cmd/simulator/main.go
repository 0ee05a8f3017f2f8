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
	"time"

	"golang.org/x/sync/errgroup"

	"fraud_simulator/internal/api"
	"fraud_simulator/internal/config"
	"fraud_simulator/internal/logging"
	"fraud_simulator/internal/processor"
	"fraud_simulator/internal/ratelimit"
	"fraud_simulator/internal/repository/memory"
	"fraud_simulator/internal/service"
	"fraud_simulator/pkg/clock"
	"fraud_simulator/pkg/crypto"
	"fraud_simulator/pkg/metrics"
	"fraud_simulator/pkg/tracing"
)

const (
	appName         = "fraud_simulator"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("env", cfg.Env),
		slog.Bool("development", cfg.IsDevelopment()),
		slog.Int("workers", cfg.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, appName, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	metricsCollector := metrics.NewMetricsCollector(logger)

	publisher, err := setupPublisher(cfg, logger)
	if err != nil {
		return err
	}
	notifier := service.NewAlertNotifier(publisher, cfg.AlertQueueSize, cfg.Workers, metricsCollector, logger)

	limiter := ratelimit.New(cfg.RateLimitPerMin, ratelimit.DefaultWindow, clock.Real{})
	logger.Info("Rate limiter configured",
		slog.Int("max_requests", limiter.MaxRequests()),
		slog.Duration("window", limiter.Window()))

	alerts := memory.NewAlertRepository()
	pipeline := processor.NewPipeline(
		limiter,
		processor.DefaultScorer(),
		alerts,
		metricsCollector,
		logger,
		processor.WithNotifier(notifier),
	)
	apiHandler := api.NewAPIHandler(pipeline, cfg.Workers, logger)

	httpServer := newHTTPServer(cfg.Addr(), apiHandler)
	metricsServer := metricsCollector.MetricsServer(cfg.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listen(logger, "HTTP server", httpServer) })
	g.Go(func() error { return listen(logger, "Metrics server", metricsServer) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		return shutdown(logger, httpServer, metricsServer, notifier, shutdownTracing)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if n, err := alerts.Count(context.Background()); err == nil {
		logger.Info("Alerts held at shutdown", slog.Int("count", n))
	}
	logger.Info("Application shutdown complete")
	return nil
}

func setupPublisher(cfg *config.Config, logger *slog.Logger) (service.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("No Kafka brokers configured, alerts will be logged")
		return service.NewLogPublisher(logger), nil
	}

	signer := crypto.NewSigner(cfg.AlertSigningKey, logger)
	publisher, err := service.DialKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, signer)
	if err != nil {
		return nil, err
	}
	logger.Info("Publishing alerts to Kafka",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.KafkaAlertTopic),
		slog.Bool("signed", signer.Enabled()))
	return publisher, nil
}

func newHTTPServer(addr string, apiHandler *api.APIHandler) *http.Server {
	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func listen(logger *slog.Logger, name string, server *http.Server) error {
	logger.Info("Starting "+name, slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func shutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	notifier *service.AlertNotifier,
	shutdownTracing func(context.Context) error,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	// After the HTTP server so that in-flight alerts are queued before draining.
	if err := notifier.Shutdown(ctx); err != nil {
		logger.Error("Alert notifier shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracer shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

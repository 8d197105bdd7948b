package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rawpurplesmurf/qso-map/internal/adapter/geojson"
	httpadapter "github.com/rawpurplesmurf/qso-map/internal/adapter/http"
	kafkaadapter "github.com/rawpurplesmurf/qso-map/internal/adapter/kafka"
	"github.com/rawpurplesmurf/qso-map/internal/config"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
	"github.com/rawpurplesmurf/qso-map/internal/pipeline"
	"github.com/rawpurplesmurf/qso-map/internal/render"
	"github.com/rawpurplesmurf/qso-map/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(shutdownTracing, cfg.ShutdownTimeout, logger)

	opts, err := renderOptions(cfg)
	if err != nil {
		logger.Error("invalid render settings", "error", err)
		os.Exit(1)
	}

	client := geojson.NewClient(cfg.GeometryURL, cfg.GeometryTimeout, metrics, logger)
	geometry := geojson.NewCachedSource(client, cfg.GeometryCacheSize, metrics)

	// Contact publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher domain.ContactPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("contact publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("contact publishing disabled")
	}

	p := pipeline.New(store.New(cfg.UploadCacheSize), geometry, publisher, opts, logger, metrics)
	srv := httpadapter.NewServer(cfg, p, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm the base map cache in the background; /readyz reports until it lands.
	go func() {
		_ = p.WarmUp(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// renderOptions applies the canvas and zoom settings from the environment to
// the default map style.
func renderOptions(cfg *config.Config) (render.Options, error) {
	opts := render.DefaultOptions()
	opts.Width = cfg.CanvasWidth
	opts.Height = cfg.CanvasHeight
	opts.Projection = cfg.Projection
	opts.Zoom.Min = cfg.ZoomMin
	opts.Zoom.Max = cfg.ZoomMax
	return opts, opts.Validate()
}

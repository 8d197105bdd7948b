package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultGeometryURL is the world country outlines the map is drawn over.
const DefaultGeometryURL = "https://raw.githubusercontent.com/holtzy/D3-graph-gallery/master/DATA/world.geojson"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Base map source.
	GeometryURL       string
	GeometryTimeout   time.Duration
	GeometryCacheSize int

	// Upload handling.
	UploadCacheSize int
	MaxUploadBytes  int64
	CORSOrigins     []string

	// Rendering defaults, overridable per request.
	CanvasWidth  int
	CanvasHeight int
	ZoomMin      float64
	ZoomMax      float64
	Projection   string

	// Optional contact publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	TracingEnabled     bool
	TracingServiceName string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var errs []error
	durationVar := func(name, def string) time.Duration {
		d, err := parseDuration(name, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	intVar := func(name string, def int) int {
		n, err := parsePositiveInt(name, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	floatVar := func(name string, def float64) float64 {
		f, err := parsePositiveFloat(name, def)
		if err != nil {
			errs = append(errs, err)
		}
		return f
	}

	brokers := parseList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: durationVar("SHUTDOWN_TIMEOUT", "10s"),

		GeometryURL:       envOrDefault("GEOMETRY_URL", DefaultGeometryURL),
		GeometryTimeout:   durationVar("GEOMETRY_TIMEOUT", "10s"),
		GeometryCacheSize: intVar("GEOMETRY_CACHE_SIZE", 4),

		UploadCacheSize: intVar("UPLOAD_CACHE_SIZE", 128),
		MaxUploadBytes:  int64(intVar("MAX_UPLOAD_BYTES", 10<<20)),
		CORSOrigins:     parseList(envOrDefault("CORS_ORIGINS", "*")),

		CanvasWidth:  intVar("CANVAS_WIDTH", 800),
		CanvasHeight: intVar("CANVAS_HEIGHT", 500),
		ZoomMin:      floatVar("ZOOM_MIN", 0.5),
		ZoomMax:      floatVar("ZOOM_MAX", 5),
		Projection:   envOrDefault("PROJECTION", "equal-earth"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "qso-contacts"),

		TracingEnabled:     os.Getenv("TRACING_ENABLED") == "true",
		TracingServiceName: envOrDefault("TRACING_SERVICE_NAME", "qso-map"),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	switch cfg.Projection {
	case "equal-earth", "equirectangular":
	default:
		return nil, fmt.Errorf("invalid PROJECTION %q", cfg.Projection)
	}
	if cfg.ZoomMin > 1 || cfg.ZoomMax < 1 {
		return nil, errors.New("ZOOM_MIN must be <= 1 and ZOOM_MAX >= 1")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func parsePositiveFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return f, nil
}

// parseList splits a comma-separated value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

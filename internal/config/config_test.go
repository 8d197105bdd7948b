package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultGeometryURL, cfg.GeometryURL)
	assert.Equal(t, 10*time.Second, cfg.GeometryTimeout)
	assert.Equal(t, 4, cfg.GeometryCacheSize)
	assert.Equal(t, 128, cfg.UploadCacheSize)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 800, cfg.CanvasWidth)
	assert.Equal(t, 500, cfg.CanvasHeight)
	assert.Equal(t, 0.5, cfg.ZoomMin)
	assert.Equal(t, 5.0, cfg.ZoomMax)
	assert.Equal(t, "equal-earth", cfg.Projection)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "qso-contacts", cfg.KafkaTopic)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, "qso-map", cfg.TracingServiceName)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("GEOMETRY_URL", "file:///srv/world.geojson")
	t.Setenv("GEOMETRY_TIMEOUT", "3s")
	t.Setenv("GEOMETRY_CACHE_SIZE", "2")
	t.Setenv("UPLOAD_CACHE_SIZE", "16")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CANVAS_WIDTH", "1200")
	t.Setenv("CANVAS_HEIGHT", "700")
	t.Setenv("ZOOM_MIN", "0.25")
	t.Setenv("ZOOM_MAX", "8")
	t.Setenv("PROJECTION", "equirectangular")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "contacts")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SERVICE_NAME", "qso-map-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "file:///srv/world.geojson", cfg.GeometryURL)
	assert.Equal(t, 3*time.Second, cfg.GeometryTimeout)
	assert.Equal(t, 2, cfg.GeometryCacheSize)
	assert.Equal(t, 16, cfg.UploadCacheSize)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 1200, cfg.CanvasWidth)
	assert.Equal(t, 700, cfg.CanvasHeight)
	assert.Equal(t, 0.25, cfg.ZoomMin)
	assert.Equal(t, 8.0, cfg.ZoomMax)
	assert.Equal(t, "equirectangular", cfg.Projection)
	assert.True(t, cfg.KafkaEnabled, "brokers imply publishing")
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "contacts", cfg.KafkaTopic)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "qso-map-test", cfg.TracingServiceName)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SHUTDOWN_TIMEOUT":    "not-a-duration",
		"GEOMETRY_TIMEOUT":    "-1s",
		"GEOMETRY_CACHE_SIZE": "0",
		"UPLOAD_CACHE_SIZE":   "many",
		"MAX_UPLOAD_BYTES":    "-5",
		"CANVAS_WIDTH":        "wide",
		"ZOOM_MAX":            "-2",
		"LOG_LEVEL":           "verbose",
		"LOG_FORMAT":          "xml",
		"PROJECTION":          "mercator",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_ZoomRangeMustContainOne(t *testing.T) {
	t.Setenv("ZOOM_MIN", "2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZOOM_MIN")
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList(""))
	assert.Equal(t, []string{"a", "b"}, parseList(" a, ,b ,"))
}

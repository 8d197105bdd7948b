package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/rawpurplesmurf/qso-map/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
}

// NewCLILogger builds the logger for command-line tools. LOG_LEVEL and
// LOG_FORMAT apply as for the service, but output goes to stderr so stdout
// can carry the tool's result, the format defaults to text, and verbose
// forces debug.
func NewCLILogger(verbose bool) *slog.Logger {
	return cliLogger(os.Stderr, verbose, os.Getenv)
}

func cliLogger(w io.Writer, verbose bool, getenv func(string) string) *slog.Logger {
	level := getenv("LOG_LEVEL")
	if verbose {
		level = "debug"
	}
	format := getenv("LOG_FORMAT")
	if format == "" {
		format = "text"
	}
	return newLogger(w, level, format)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", "qso-map")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package geojson loads the world base map from a URL or a local file.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
)

// maxGeometryBytes caps how much of a response is decoded.
const maxGeometryBytes = 64 << 20

// Client implements domain.GeometrySource over HTTP(S) and the local filesystem.
type Client struct {
	defaultLocation string
	httpClient      *http.Client
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewClient creates a geometry client. defaultLocation is used when a caller
// passes an empty location.
func NewClient(defaultLocation string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		defaultLocation: defaultLocation,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Geometry fetches and decodes a FeatureCollection. Every failure is a
// *domain.BoundaryError.
func (c *Client) Geometry(ctx context.Context, location string) (*domain.FeatureCollection, error) {
	if location == "" {
		location = c.defaultLocation
	}

	start := time.Now()
	fc, err := c.load(ctx, location)
	if err != nil {
		c.metrics.GeometryRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geometry load failed", "location", location, "error", err)
		return nil, err
	}

	c.metrics.GeometryRequests.WithLabelValues("success").Inc()
	c.logger.Debug("geometry loaded", "location", location, "features", len(fc.Features), "duration", time.Since(start))
	return fc, nil
}

func (c *Client) load(ctx context.Context, location string) (*domain.FeatureCollection, error) {
	body, err := c.open(ctx, location)
	if err != nil {
		return nil, &domain.BoundaryError{Op: "fetch geometry", Err: err}
	}
	defer body.Close()

	fc, err := Decode(io.LimitReader(body, maxGeometryBytes))
	if err != nil {
		return nil, &domain.BoundaryError{Op: "decode geometry", Err: err}
	}
	return fc, nil
}

func (c *Client) open(ctx context.Context, location string) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		path := location
		if err == nil && u.Scheme == "file" {
			path = u.Path
		}
		return os.Open(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geometry request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("geometry source error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// Decode reads a GeoJSON FeatureCollection. A document of another type, or
// one without a features array, is rejected with domain.ErrInvalidGeometry.
func Decode(r io.Reader) (*domain.FeatureCollection, error) {
	var raw struct {
		Type     string            `json:"type"`
		Features *[]domain.Feature `json:"features"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
	}
	if raw.Type != "FeatureCollection" || raw.Features == nil {
		return nil, fmt.Errorf("%w: want a FeatureCollection with features, got type %q", domain.ErrInvalidGeometry, raw.Type)
	}
	return &domain.FeatureCollection{Type: raw.Type, Features: *raw.Features}, nil
}

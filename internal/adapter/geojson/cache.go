package geojson

import (
	"context"

	"github.com/rawpurplesmurf/qso-map/internal/cache"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
)

// CachedSource wraps a GeometrySource with an in-memory LRU cache keyed by
// location.
type CachedSource struct {
	inner   domain.GeometrySource
	cache   *cache.LRU[string, *domain.FeatureCollection]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a geometry source.
func NewCachedSource(inner domain.GeometrySource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   cache.New[string, *domain.FeatureCollection](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Geometry(ctx context.Context, location string) (*domain.FeatureCollection, error) {
	if fc, ok := c.cache.Get(location); ok {
		c.metrics.GeometryCache.WithLabelValues("hit").Inc()
		return fc, nil
	}
	c.metrics.GeometryCache.WithLabelValues("miss").Inc()

	fc, err := c.inner.Geometry(ctx, location)
	if err != nil {
		return nil, err
	}
	// Only successes are cached so a failed fetch is retried next time.
	c.cache.Put(location, fc)
	return fc, nil
}

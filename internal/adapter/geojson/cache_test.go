package geojson

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingSource struct {
	calls map[string]int
	err   error
}

func (m *countingSource) Geometry(_ context.Context, location string) (*domain.FeatureCollection, error) {
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[location]++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.FeatureCollection{Type: "FeatureCollection", Features: []domain.Feature{{Type: "Feature"}}}, nil
}

// --- CachedSource tests ---

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{}
	m := observability.NewMetricsForTesting()
	cached := NewCachedSource(inner, 4, m)

	fc1, err := cached.Geometry(context.Background(), "")
	require.NoError(t, err)
	fc2, err := cached.Geometry(context.Background(), "")
	require.NoError(t, err)

	assert.Same(t, fc1, fc2)
	assert.Equal(t, 1, inner.calls[""], "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeometryCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeometryCache.WithLabelValues("miss")), 0)
}

func TestCachedSource_DifferentLocationsMiss(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 4, observability.NewMetricsForTesting())

	_, _ = cached.Geometry(context.Background(), "a.geojson")
	_, _ = cached.Geometry(context.Background(), "b.geojson")

	assert.Equal(t, 1, inner.calls["a.geojson"])
	assert.Equal(t, 1, inner.calls["b.geojson"])
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	inner := &countingSource{err: &domain.BoundaryError{Op: "fetch geometry", Err: errors.New("timeout")}}
	cached := NewCachedSource(inner, 4, observability.NewMetricsForTesting())

	_, err := cached.Geometry(context.Background(), "")
	require.Error(t, err)
	assert.True(t, domain.IsBoundary(err))

	inner.err = nil
	fc, err := cached.Geometry(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, fc)
	assert.Equal(t, 2, inner.calls[""])
}

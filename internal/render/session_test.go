package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	tl := timeline.Build([]domain.Record{
		contact("DL1ABC", "20220115", "CN86rx", "JO65"),
		contact("VK2AAA", "20220115", "CN86rx", "QF56"),
		contact("G0XYZ", "20220120", "CN86rx", "IO91"),
		contact("NOGRID", "20220120", "", ""),
	}, nil)

	s, err := NewSession(tl, DefaultOptions(), "W7ABC")
	require.NoError(t, err)
	return s
}

func midpoint(seg Segment) (float64, float64) {
	return (seg.From.X + seg.To.X) / 2, (seg.From.Y + seg.To.Y) / 2
}

func TestSession_StartsOnInitialDay(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), s.Day())
	assert.Len(t, s.Scene().Segments, 2)
	assert.Equal(t, 1.0, s.View().Zoom)
	assert.Zero(t, s.Percent())
}

func TestSession_SelectDayAndPercent(t *testing.T) {
	s := newTestSession(t)

	s.SelectDay(time.Date(2022, 1, 20, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2022, 1, 20, 0, 0, 0, 0, time.UTC), s.Day())
	require.Len(t, s.Scene().Segments, 1)
	assert.Equal(t, "G0XYZ", s.Scene().Segments[0].Record().Call())
	assert.Equal(t, 1, s.Scene().Unresolved)

	s.SelectPercent(0)
	assert.Len(t, s.Scene().Segments, 2)

	s.SelectPercent(100)
	assert.Equal(t, time.Date(2022, 1, 20, 0, 0, 0, 0, time.UTC), s.Day())
	assert.InDelta(t, 100, s.Percent(), 1e-9)

	s.SelectDay(time.Date(2022, 1, 17, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, s.Scene().Segments)
}

func TestSession_HoverAndResize(t *testing.T) {
	s := newTestSession(t)
	x, y := midpoint(s.Scene().Segments[0])

	v := s.Handle(Event{Kind: PointerMove, X: x, Y: y})
	require.Equal(t, HoverActive, v.Mode)
	rec, ok := s.Hovered()
	require.True(t, ok)
	assert.Equal(t, "DL1ABC", rec.Call())

	proj := s.Projection()
	require.NoError(t, s.Resize(800, 500))
	assert.Same(t, proj, s.Projection(), "same size keeps the projection")
	assert.Equal(t, Idle, s.View().Mode)
	_, ok = s.Hovered()
	assert.False(t, ok)

	require.NoError(t, s.Resize(800, 500))
	assert.Same(t, proj, s.Projection(), "resize is idempotent")

	require.NoError(t, s.Resize(1024, 768))
	assert.NotSame(t, proj, s.Projection())
	w, h := s.Projection().Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
	assert.Equal(t, 1024, s.Scene().Width)

	require.Error(t, s.Resize(0, 768))
	assert.Equal(t, 1024, s.Scene().Width, "a failed resize keeps the last good state")
}

func TestSession_SelectDayClearsHover(t *testing.T) {
	s := newTestSession(t)
	x, y := midpoint(s.Scene().Segments[1])
	s.Handle(Event{Kind: PointerMove, X: x, Y: y})
	require.Equal(t, 1, s.View().Hover)

	s.SelectDay(time.Date(2022, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, -1, s.View().Hover)
}

func TestSession_RenderWithGeometryFailure(t *testing.T) {
	s := newTestSession(t)
	s.SetGeometry(nil, &domain.BoundaryError{Op: "fetch geometry", Err: errors.New("503")})

	var out strings.Builder
	require.NoError(t, s.Render(&out))
	svg := out.String()
	assert.Contains(t, svg, geometryErrorText)
	assert.Contains(t, svg, "Station: W7ABC")
	assert.Equal(t, 2, strings.Count(svg, "<line "))

	s.SetGeometry(decodeGeometry(t, twoCountries), nil)
	out.Reset()
	require.NoError(t, s.Render(&out))
	assert.NotContains(t, out.String(), geometryErrorText)
	assert.Equal(t, 2, strings.Count(out.String(), "<path "))
}

func TestSession_EmptyTimeline(t *testing.T) {
	tl := timeline.Build(nil, nil)
	s, err := NewSession(tl, DefaultOptions(), "")
	require.NoError(t, err)
	assert.Empty(t, s.Scene().Segments)

	var out strings.Builder
	require.NoError(t, s.Render(&out))
	assert.Contains(t, out.String(), "0 QSOs")
}

func TestNewSession_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Projection = "mercator"
	_, err := NewSession(timeline.Build(nil, nil), opts, "")
	require.Error(t, err)
}

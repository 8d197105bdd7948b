package render

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contact(call, date, home, contacted string) domain.Record {
	fields := []domain.Field{
		{Name: domain.FieldCall, Value: call},
		{Name: domain.FieldQSODate, Value: date},
		{Name: domain.FieldTimeOn, Value: "123456"},
		{Name: domain.FieldBand, Value: "20m"},
		{Name: domain.FieldMode, Value: "SSB"},
	}
	if home != "" {
		fields = append(fields, domain.Field{Name: domain.FieldMyGridsquare, Value: home})
	}
	if contacted != "" {
		fields = append(fields, domain.Field{Name: domain.FieldGridsquare, Value: contacted})
	}
	return domain.NewRecord(fields...)
}

func testProjection(t *testing.T) Projection {
	t.Helper()
	p, err := NewProjection(ProjectionEquirectangular, 800, 500, 10)
	require.NoError(t, err)
	return p
}

func decodeGeometry(t *testing.T, raw string) *domain.FeatureCollection {
	t.Helper()
	var fc domain.FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(raw), &fc))
	return &fc
}

const twoCountries = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Squareland"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
    {"type": "Feature", "properties": {"name": "Islands"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[20,20],[25,20],[25,25],[20,20]]],
       [[[30,30],[35,30],[35,35],[30,30]], [[31,31],[32,31],[32,32],[31,31]]]
     ]}},
    {"type": "Feature", "properties": {"name": "Broken"},
     "geometry": {"type": "Polygon", "coordinates": "nope"}},
    {"type": "Feature", "properties": {"name": "Capital"},
     "geometry": {"type": "Point", "coordinates": [1, 1]}}
  ]
}`

func TestEndToEnd_SelectedDayDrawsOneConnection(t *testing.T) {
	records := []domain.Record{
		contact("DL1ABC", "20220115", "CN86rx", "JO65"),
		contact("G0XYZ", "20220116", "CN86rx", "IO91"),
	}

	tl := timeline.Build(records, nil)
	day, err := timeline.ParseDate("20220115")
	require.NoError(t, err)

	filtered := tl.On(day)
	require.Len(t, filtered, 1)
	assert.Equal(t, "DL1ABC", filtered[0].Call())

	scene := BuildScene(filtered, nil, nil, testProjection(t), 4)
	require.Len(t, scene.Segments, 1)
	assert.Zero(t, scene.Unresolved)

	seg := scene.Segments[0]
	assert.NotEqual(t, seg.Connection.From, seg.Connection.To)
	assert.NotEqual(t, seg.From, seg.To)

	var out strings.Builder
	require.NoError(t, WriteSVG(&out, Frame{Scene: scene, View: defaultView(), Day: day}, DefaultOptions()))
	assert.Equal(t, 1, strings.Count(out.String(), "<line "))
	assert.Equal(t, 2, strings.Count(out.String(), "<circle "))
}

func TestBuildScene_OmitsUnresolvedAndKeepsOrder(t *testing.T) {
	records := []domain.Record{
		contact("FIRST", "20220115", "CN86rx", "JO65"),
		contact("NOHOME", "20220115", "", "JO65"),
		contact("SECOND", "20220115", "CN86rx", "PM95"),
		contact("BADGRID", "20220115", "CN86rx", "ZZ99"),
		contact("THIRD", "20220115", "FN31", "QF22"),
	}

	scene := BuildScene(records, nil, nil, testProjection(t), 4)

	var calls []string
	for _, s := range scene.Segments {
		calls = append(calls, s.Record().Call())
	}
	assert.Equal(t, []string{"FIRST", "SECOND", "THIRD"}, calls)
	assert.Equal(t, 2, scene.Unresolved)
	assert.Equal(t, 800, scene.Width)
	assert.Equal(t, 500, scene.Height)
}

func TestBuildScene_ProjectsLand(t *testing.T) {
	fc := decodeGeometry(t, twoCountries)
	scene := BuildScene(nil, fc, nil, testProjection(t), 4)

	require.Len(t, scene.Land, 2, "broken and point features are left out")
	assert.Equal(t, "Squareland", scene.Land[0].Name)
	assert.Len(t, scene.Land[0].Rings, 1)
	assert.Equal(t, "Islands", scene.Land[1].Name)
	assert.Len(t, scene.Land[1].Rings, 3)
	assert.Empty(t, scene.Segments)
}

func TestBuildScene_GeometryFailureStillDrawsConnections(t *testing.T) {
	fetchErr := &domain.BoundaryError{Op: "fetch geometry", Err: errors.New("connection refused")}
	fc := decodeGeometry(t, twoCountries)

	scene := BuildScene([]domain.Record{contact("DL1ABC", "20220115", "CN86rx", "JO65")}, fc, fetchErr, testProjection(t), 4)

	assert.Empty(t, scene.Land)
	assert.Len(t, scene.Segments, 1)
	assert.True(t, domain.IsBoundary(scene.GeometryErr))
}

func TestScene_HitTestNil(t *testing.T) {
	var s *Scene
	assert.Equal(t, -1, s.HitTest(Point{}, defaultView()))
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 0}
	assert.InDelta(t, 3, distanceToSegment(Point{X: 5, Y: 3}, a, b), 1e-12)
	assert.InDelta(t, 5, distanceToSegment(Point{X: -3, Y: 4}, a, b), 1e-12, "beyond an endpoint")
	assert.InDelta(t, 5, distanceToSegment(Point{X: 3, Y: 4}, a, a), 1e-12, "degenerate segment")
}

func TestEndToEnd_SliderReachesBothDays(t *testing.T) {
	records := []domain.Record{
		contact("DL1ABC", "20220115", "CN86rx", "JO65"),
		contact("G0XYZ", "20220116", "CN86rx", "IO91"),
	}
	tl := timeline.Build(records, nil)

	assert.Equal(t, time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), tl.DayAt(0))
	assert.Equal(t, time.Date(2022, 1, 16, 0, 0, 0, 0, time.UTC), tl.DayAt(100))
	assert.Equal(t, "G0XYZ", tl.On(tl.DayAt(100))[0].Call())
}

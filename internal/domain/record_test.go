package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_LookupIgnoresCase(t *testing.T) {
	rec := NewRecord(
		Field{Name: "call", Value: "K1ABC"},
		Field{Name: "Qso_Date", Value: "20220115"},
	)

	assert.Equal(t, "K1ABC", rec.Get("CALL"))
	assert.Equal(t, "K1ABC", rec.Call())
	assert.Equal(t, "20220115", rec.Get(FieldQSODate))

	_, ok := rec.Lookup("BAND")
	assert.False(t, ok)
	assert.Empty(t, rec.Get("BAND"))
}

func TestRecord_DuplicateKeepsFirstPositionLastValue(t *testing.T) {
	rec := NewRecord(
		Field{Name: "CALL", Value: "K1ABC"},
		Field{Name: "BAND", Value: "20m"},
		Field{Name: "call", Value: "W1AW"},
	)

	require.Equal(t, 2, rec.Len())
	fields := rec.Fields()
	assert.Equal(t, Field{Name: "CALL", Value: "W1AW"}, fields[0])
	assert.Equal(t, Field{Name: "BAND", Value: "20m"}, fields[1])
}

func TestRecord_FieldsIsACopy(t *testing.T) {
	rec := NewRecord(Field{Name: "CALL", Value: "K1ABC"})
	fields := rec.Fields()
	fields[0].Value = "changed"

	assert.Equal(t, "K1ABC", rec.Call())
}

func TestRecord_JSONPreservesOrderAndNames(t *testing.T) {
	rec := NewRecord(
		Field{Name: "QSO_DATE", Value: "20220115"},
		Field{Name: "call", Value: "K1ABC"},
		Field{Name: "COMMENT", Value: `said "hi"`},
	)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"QSO_DATE":"20220115","call":"K1ABC","COMMENT":"said \"hi\""}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Fields(), back.Fields())
	assert.Equal(t, "K1ABC", back.Call())
}

func TestRecord_UnmarshalRejectsNonObject(t *testing.T) {
	var rec Record
	require.Error(t, json.Unmarshal([]byte(`["CALL"]`), &rec))
	require.Error(t, json.Unmarshal([]byte(`{"CALL":5}`), &rec))
}

func TestCoordinate_Valid(t *testing.T) {
	assert.True(t, Coordinate{Lat: 90, Lon: -180}.Valid())
	assert.False(t, Coordinate{Lat: 90.1, Lon: 0}.Valid())
	assert.False(t, Coordinate{Lat: 0, Lon: 180.5}.Valid())
}

func TestGeometry_Polygons(t *testing.T) {
	t.Run("polygon", func(t *testing.T) {
		g := &Geometry{Type: "Polygon", Coordinates: json.RawMessage(`[[[0,0],[10,0],[10,5],[0,0]]]`)}
		polys, err := g.Polygons()
		require.NoError(t, err)
		require.Len(t, polys, 1)
		require.Len(t, polys[0], 1)
		assert.Equal(t, Coordinate{Lat: 5, Lon: 10}, polys[0][0][2])
	})

	t.Run("multipolygon", func(t *testing.T) {
		g := &Geometry{Type: "MultiPolygon", Coordinates: json.RawMessage(`[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]`)}
		polys, err := g.Polygons()
		require.NoError(t, err)
		assert.Len(t, polys, 2)
	})

	t.Run("point is ignored", func(t *testing.T) {
		g := &Geometry{Type: "Point", Coordinates: json.RawMessage(`[1,2]`)}
		polys, err := g.Polygons()
		require.NoError(t, err)
		assert.Empty(t, polys)
	})

	t.Run("short position", func(t *testing.T) {
		g := &Geometry{Type: "Polygon", Coordinates: json.RawMessage(`[[[0]]]`)}
		_, err := g.Polygons()
		require.Error(t, err)
	})

	t.Run("nil geometry", func(t *testing.T) {
		var g *Geometry
		polys, err := g.Polygons()
		require.NoError(t, err)
		assert.Nil(t, polys)
	})
}

func TestBoundaryError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("render: %w", &BoundaryError{Op: "fetch geometry", Err: cause})

	assert.True(t, IsBoundary(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch geometry: connection refused")
	assert.False(t, IsBoundary(cause))
}

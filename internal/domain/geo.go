package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within [-90,90]×[-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Side selects which station of a QSO a coordinate belongs to.
type Side int

const (
	// Home is the operator's own station (MY_* fields).
	Home Side = iota
	// Contacted is the remote station.
	Contacted
)

func (s Side) String() string {
	switch s {
	case Home:
		return "home"
	case Contacted:
		return "contacted"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Connection pairs the home and contacted coordinates of one record.
// Connections are rebuilt for every frame and never stored.
type Connection struct {
	From   Coordinate
	To     Coordinate
	Record Record
}

// GeometrySource loads the base map drawn behind the connections. location
// selects the source (URL or file path); empty means the configured default.
type GeometrySource interface {
	Geometry(ctx context.Context, location string) (*FeatureCollection, error)
}

// FeatureCollection is the subset of GeoJSON the base map needs.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one country/region of the base map.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Geometry   *Geometry      `json:"geometry"`
}

// Name returns the feature's "name" property when present.
func (f Feature) Name() string {
	if f.Properties == nil {
		return ""
	}
	s, _ := f.Properties["name"].(string)
	return s
}

// Geometry is a raw GeoJSON geometry; coordinates stay undecoded until drawn.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Ring is a closed sequence of coordinates; Polygon is an outer ring followed by holes.
type (
	Ring    []Coordinate
	Polygon []Ring
)

// Polygons decodes Polygon and MultiPolygon geometries. Other geometry types
// yield no polygons and no error, since the base map only fills areas.
func (g *Geometry) Polygons() ([]Polygon, error) {
	if g == nil {
		return nil, nil
	}
	switch g.Type {
	case "Polygon":
		var raw [][][]float64
		if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		p, err := toPolygon(raw)
		if err != nil {
			return nil, err
		}
		return []Polygon{p}, nil
	case "MultiPolygon":
		var raw [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
			return nil, fmt.Errorf("decode multipolygon: %w", err)
		}
		out := make([]Polygon, 0, len(raw))
		for _, rp := range raw {
			p, err := toPolygon(rp)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	default:
		return nil, nil
	}
}

func toPolygon(raw [][][]float64) (Polygon, error) {
	p := make(Polygon, 0, len(raw))
	for _, rr := range raw {
		ring := make(Ring, 0, len(rr))
		for _, pos := range rr {
			// GeoJSON positions are [lon, lat, (alt)].
			if len(pos) < 2 {
				return nil, fmt.Errorf("decode position: want at least 2 values, got %d", len(pos))
			}
			ring = append(ring, Coordinate{Lat: pos[1], Lon: pos[0]})
		}
		p = append(p, ring)
	}
	return p, nil
}

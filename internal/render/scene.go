package render

import (
	"math"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/locator"
)

// Segment is one drawn connection in untransformed canvas space.
type Segment struct {
	From, To   Point
	Connection domain.Connection
}

// Record is the QSO the segment was drawn for.
func (s Segment) Record() domain.Record { return s.Connection.Record }

// LandShape is one projected base-map feature. Each ring is a closed outline;
// holes are drawn with the even-odd fill rule.
type LandShape struct {
	Name  string
	Rings [][]Point
}

// Scene is everything a frame draws, before the viewport transform.
type Scene struct {
	Width, Height int
	Land          []LandShape
	Segments      []Segment

	// GeometryErr is set when the base map could not be loaded. Land is
	// empty then, but Segments are still drawn.
	GeometryErr error

	// Unresolved counts records left out because a side had no coordinate.
	Unresolved int

	// Tolerance is the hit-test radius in screen pixels at zoom 1.
	Tolerance float64
}

// BuildScene projects the base map and one segment per resolvable record.
// Records keep their input order; unresolvable ones are skipped.
func BuildScene(records []domain.Record, geometry *domain.FeatureCollection, geometryErr error, proj Projection, tolerance float64) *Scene {
	w, h := proj.Size()
	s := &Scene{
		Width:       w,
		Height:      h,
		GeometryErr: geometryErr,
		Tolerance:   tolerance,
	}

	if geometryErr == nil && geometry != nil {
		s.Land = projectLand(geometry, proj)
	}

	s.Segments = make([]Segment, 0, len(records))
	for _, rec := range records {
		conn, err := locator.ResolveConnection(rec)
		if err != nil {
			s.Unresolved++
			continue
		}
		s.Segments = append(s.Segments, Segment{
			From:       proj.Project(conn.From),
			To:         proj.Project(conn.To),
			Connection: conn,
		})
	}
	return s
}

func projectLand(fc *domain.FeatureCollection, proj Projection) []LandShape {
	out := make([]LandShape, 0, len(fc.Features))
	for _, f := range fc.Features {
		polys, err := f.Geometry.Polygons()
		if err != nil || len(polys) == 0 {
			// A broken feature only loses its own outline.
			continue
		}
		shape := LandShape{Name: f.Name()}
		for _, poly := range polys {
			for _, ring := range poly {
				if len(ring) < 3 {
					continue
				}
				pts := make([]Point, len(ring))
				for i, c := range ring {
					pts[i] = proj.Project(c)
				}
				shape.Rings = append(shape.Rings, pts)
			}
		}
		if len(shape.Rings) > 0 {
			out = append(out, shape)
		}
	}
	return out
}

// HitTest returns the index of the first segment within tolerance of the
// canvas pixel p under view, or -1.
func (s *Scene) HitTest(p Point, view ViewState) int {
	if s == nil || view.Zoom <= 0 {
		return -1
	}
	local := view.ToCanvas(p)
	tol := s.Tolerance / view.Zoom
	for i, seg := range s.Segments {
		if distanceToSegment(local, seg.From, seg.To) <= tol {
			return i
		}
	}
	return -1
}

func distanceToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

package locator

import (
	"errors"
	"fmt"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
)

// Source records which field set produced a resolved coordinate.
type Source string

const (
	SourceSexagesimal Source = "sexagesimal"
	SourceGrid        Source = "grid"
)

type sideFields struct {
	lat, lon, grid string
}

var fieldsBySide = map[domain.Side]sideFields{
	domain.Home:      {lat: domain.FieldMyLat, lon: domain.FieldMyLon, grid: domain.FieldMyGridsquare},
	domain.Contacted: {lat: domain.FieldLat, lon: domain.FieldLon, grid: domain.FieldGridsquare},
}

// Resolve picks the coordinate for one side of a record. A LAT/LON pair wins
// when both parts parse; otherwise the grid square is used. When neither
// yields a coordinate the error wraps domain.ErrUnresolved together with the
// conversion failures that led there.
func Resolve(rec domain.Record, side domain.Side) (domain.Coordinate, Source, error) {
	f, ok := fieldsBySide[side]
	if !ok {
		return domain.Coordinate{}, "", fmt.Errorf("%w: unknown side %s", domain.ErrUnresolved, side)
	}

	var causes []error

	lat, lon := rec.Get(f.lat), rec.Get(f.lon)
	if lat != "" && lon != "" {
		c, err := FromSexagesimal(lat, lon)
		if err == nil {
			return c, SourceSexagesimal, nil
		}
		causes = append(causes, err)
	}

	if grid := rec.Get(f.grid); grid != "" {
		c, err := FromGrid(grid)
		if err == nil {
			return c, SourceGrid, nil
		}
		causes = append(causes, err)
	}

	unresolved := fmt.Errorf("%w: %s station", domain.ErrUnresolved, side)
	return domain.Coordinate{}, "", errors.Join(append([]error{unresolved}, causes...)...)
}

// ResolveConnection resolves both sides of a record. The record is unusable
// for drawing when either side fails.
func ResolveConnection(rec domain.Record) (domain.Connection, error) {
	from, _, err := Resolve(rec, domain.Home)
	if err != nil {
		return domain.Connection{}, err
	}
	to, _, err := Resolve(rec, domain.Contacted)
	if err != nil {
		return domain.Connection{}, err
	}
	return domain.Connection{From: from, To: to, Record: rec}, nil
}

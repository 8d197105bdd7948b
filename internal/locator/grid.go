// Package locator converts station location fields into coordinates.
//
// Both conversions are pure. Failures are returned as errors wrapping
// domain.ErrInvalidLocator or domain.ErrInvalidSexagesimal; callers treat them
// as "side unresolved", never as fatal.
package locator

import (
	"fmt"
	"math"
	"strings"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
)

const (
	fieldCount     = 18 // A–R
	subsquareCount = 24 // A–X

	subsquareLonDeg = 5.0 / 60
	subsquareLatDeg = 2.5 / 60
)

// FromGrid decodes a 4- or 6-character Maidenhead locator to the south-west
// corner of its cell. Letters are case-insensitive.
func FromGrid(locator string) (domain.Coordinate, error) {
	g := strings.ToUpper(strings.TrimSpace(locator))
	if len(g) != 4 && len(g) != 6 {
		return domain.Coordinate{}, fmt.Errorf("%w %q: want 4 or 6 characters", domain.ErrInvalidLocator, locator)
	}

	fieldLon, ok1 := letterIndex(g[0], fieldCount)
	fieldLat, ok2 := letterIndex(g[1], fieldCount)
	squareLon, ok3 := digitValue(g[2])
	squareLat, ok4 := digitValue(g[3])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.Coordinate{}, fmt.Errorf("%w %q", domain.ErrInvalidLocator, locator)
	}

	var subLon, subLat int
	if len(g) == 6 {
		var ok5, ok6 bool
		subLon, ok5 = letterIndex(g[4], subsquareCount)
		subLat, ok6 = letterIndex(g[5], subsquareCount)
		if !ok5 || !ok6 {
			return domain.Coordinate{}, fmt.Errorf("%w %q", domain.ErrInvalidLocator, locator)
		}
	}

	return domain.Coordinate{
		Lat: -90 + 10*float64(fieldLat) + float64(squareLat) + subsquareLatDeg*float64(subLat),
		Lon: -180 + 20*float64(fieldLon) + 2*float64(squareLon) + subsquareLonDeg*float64(subLon),
	}, nil
}

// GridCenter decodes a locator to the centre of its cell rather than the corner.
func GridCenter(locator string) (domain.Coordinate, error) {
	c, err := FromGrid(locator)
	if err != nil {
		return c, err
	}
	if len(strings.TrimSpace(locator)) == 6 {
		c.Lat += subsquareLatDeg / 2
		c.Lon += subsquareLonDeg / 2
		return c, nil
	}
	c.Lat += 0.5
	c.Lon += 1
	return c, nil
}

// ToGrid encodes a coordinate as the locator of the cell containing it.
// precision is 4 or 6; subsquare letters are written lower-case.
func ToGrid(c domain.Coordinate, precision int) (string, error) {
	if precision != 4 && precision != 6 {
		return "", fmt.Errorf("%w: precision %d not supported", domain.ErrInvalidLocator, precision)
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: coordinate %v out of range", domain.ErrInvalidLocator, c)
	}

	lon := c.Lon + 180
	lat := c.Lat + 90

	fieldLon := clampIndex(int(math.Floor(lon/20)), fieldCount)
	fieldLat := clampIndex(int(math.Floor(lat/10)), fieldCount)
	lon -= 20 * float64(fieldLon)
	lat -= 10 * float64(fieldLat)

	squareLon := clampIndex(int(math.Floor(lon/2)), 10)
	squareLat := clampIndex(int(math.Floor(lat)), 10)
	lon -= 2 * float64(squareLon)
	lat -= float64(squareLat)

	b := []byte{
		byte('A' + fieldLon),
		byte('A' + fieldLat),
		byte('0' + squareLon),
		byte('0' + squareLat),
	}
	if precision == 6 {
		subLon := clampIndex(int(math.Floor(lon/subsquareLonDeg)), subsquareCount)
		subLat := clampIndex(int(math.Floor(lat/subsquareLatDeg)), subsquareCount)
		b = append(b, byte('a'+subLon), byte('a'+subLat))
	}
	return string(b), nil
}

func letterIndex(ch byte, limit int) (int, bool) {
	if ch < 'A' || ch > 'Z' {
		return 0, false
	}
	i := int(ch - 'A')
	return i, i < limit
}

func digitValue(ch byte) (int, bool) {
	if ch < '0' || ch > '9' {
		return 0, false
	}
	return int(ch - '0'), true
}

// clampIndex keeps the eastern/northern edge (lon 180, lat 90) in the last cell.
func clampIndex(i, limit int) int {
	if i < 0 {
		return 0
	}
	if i >= limit {
		return limit - 1
	}
	return i
}

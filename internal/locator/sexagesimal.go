package locator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
)

// sexagesimalRe matches the ADIF location type: hemisphere, three-digit
// degrees, a space, then minutes with a fractional part ("N045 26.250").
var sexagesimalRe = regexp.MustCompile(`^([NSEWnsew])(\d{3}) (\d{2}\.\d+)$`)

// FromSexagesimal converts an ADIF latitude ("N045 26.250") and longitude
// ("W122 40.500") into a decimal coordinate.
func FromSexagesimal(lat, lon string) (domain.Coordinate, error) {
	latVal, err := parseAxis(lat, 'N', 'S', 90)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lonVal, err := parseAxis(lon, 'E', 'W', 180)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Lat: latVal, Lon: lonVal}, nil
}

func parseAxis(s string, positive, negative byte, limit float64) (float64, error) {
	m := sexagesimalRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w %q", domain.ErrInvalidSexagesimal, s)
	}

	hemisphere := strings.ToUpper(m[1])[0]
	if hemisphere != positive && hemisphere != negative {
		return 0, fmt.Errorf("%w %q: hemisphere must be %c or %c", domain.ErrInvalidSexagesimal, s, positive, negative)
	}

	degrees, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", domain.ErrInvalidSexagesimal, s, err)
	}
	minutes, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", domain.ErrInvalidSexagesimal, s, err)
	}
	if minutes >= 60 {
		return 0, fmt.Errorf("%w %q: minutes out of range", domain.ErrInvalidSexagesimal, s)
	}

	value := float64(degrees) + minutes/60
	if value > limit {
		return 0, fmt.Errorf("%w %q: exceeds %g degrees", domain.ErrInvalidSexagesimal, s, limit)
	}
	if hemisphere == negative {
		value = -value
	}
	return value, nil
}

// FormatSexagesimal renders a coordinate as ADIF LAT and LON strings with
// minutes to three decimal places.
func FormatSexagesimal(c domain.Coordinate) (lat, lon string) {
	return formatAxis(c.Lat, 'N', 'S'), formatAxis(c.Lon, 'E', 'W')
}

func formatAxis(v float64, positive, negative byte) string {
	hemisphere := positive
	if v < 0 {
		hemisphere = negative
		v = -v
	}
	// Work in thousandths of a minute so rounding can carry into degrees.
	total := int64(math.Round(v * 60 * 1000))
	degrees := total / 60000
	minutes := float64(total%60000) / 1000
	return fmt.Sprintf("%c%03d %06.3f", hemisphere, degrees, minutes)
}

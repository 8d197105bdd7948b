package render

import (
	"fmt"
	"math"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
)

// Point is a position on the canvas in pixels, y growing downwards.
type Point struct {
	X, Y float64
}

// Projection maps geographic coordinates onto a canvas of fixed size.
type Projection interface {
	Project(c domain.Coordinate) Point
	Kind() string
	Size() (width, height int)
}

// rawProjection maps radians to unscaled plane coordinates with y up.
type rawProjection func(lambda, phi float64) (x, y float64)

// Equal Earth polynomial coefficients (Šavrič, Patterson, Jenny 2018).
const (
	eeA1 = 1.340264
	eeA2 = -0.081106
	eeA3 = 0.000893
	eeA4 = 0.003796
)

var eeM = math.Sqrt(3) / 2

func equalEarth(lambda, phi float64) (float64, float64) {
	theta := math.Asin(eeM * math.Sin(phi))
	t2 := theta * theta
	t6 := t2 * t2 * t2
	x := lambda * math.Cos(theta) / (eeM * (eeA1 + 3*eeA2*t2 + t6*(7*eeA3+9*eeA4*t2)))
	y := theta * (eeA1 + eeA2*t2 + t6*(eeA3+eeA4*t2))
	return x, y
}

func equirectangular(lambda, phi float64) (float64, float64) {
	return lambda, phi
}

// fitted scales a raw projection so the whole globe fits inside the canvas
// minus the margin, centred.
type fitted struct {
	kind          string
	raw           rawProjection
	width, height int
	scale         float64
	cx, cy        float64
}

// NewProjection builds a projection of the given kind fitted to a
// width x height canvas.
func NewProjection(kind string, width, height int, margin float64) (Projection, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("projection: canvas size must be positive, got %dx%d", width, height)
	}

	var raw rawProjection
	switch kind {
	case ProjectionEqualEarth, "":
		kind = ProjectionEqualEarth
		raw = equalEarth
	case ProjectionEquirectangular:
		raw = equirectangular
	default:
		return nil, fmt.Errorf("projection: unknown kind %q", kind)
	}

	// The widest point is the equator at ±180°, the tallest the poles.
	halfW, _ := raw(math.Pi, 0)
	_, halfH := raw(0, math.Pi/2)

	availW := math.Max(float64(width)-2*margin, 1)
	availH := math.Max(float64(height)-2*margin, 1)
	scale := math.Min(availW/(2*halfW), availH/(2*halfH))

	return &fitted{
		kind:   kind,
		raw:    raw,
		width:  width,
		height: height,
		scale:  scale,
		cx:     float64(width) / 2,
		cy:     float64(height) / 2,
	}, nil
}

func (f *fitted) Project(c domain.Coordinate) Point {
	x, y := f.raw(c.Lon*math.Pi/180, c.Lat*math.Pi/180)
	return Point{X: f.cx + f.scale*x, Y: f.cy - f.scale*y}
}

func (f *fitted) Kind() string { return f.kind }

func (f *fitted) Size() (int, int) { return f.width, f.height }

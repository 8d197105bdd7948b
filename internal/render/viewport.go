package render

import "math"

// Mode is the interaction state of a map view.
type Mode int

const (
	// Idle: no button held and nothing hovered.
	Idle Mode = iota
	// Panning: a pointer is held down and drags move the map.
	Panning
	// HoverActive: the pointer rests on a drawn connection.
	HoverActive
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case HoverActive:
		return "hover"
	default:
		return "unknown"
	}
}

// EventKind enumerates the inputs a view reacts to.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
	Wheel
	ZoomIn
	ZoomOut
	ZoomTo
	ZoomReset
)

// Event is one user input. X and Y are canvas pixels for pointer events;
// DeltaY is the wheel delta (positive scrolls away); Zoom is the target of ZoomTo.
type Event struct {
	Kind   EventKind
	X, Y   float64
	DeltaY float64
	Zoom   float64
}

// ZoomLimits bounds and steps the zoom factor.
type ZoomLimits struct {
	Min, Max float64
	WheelIn  float64
	WheelOut float64
	Button   float64
}

func (l ZoomLimits) clamp(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Max(l.Min, math.Min(l.Max, z))
}

// ViewState is the full interaction state: zoom, pan, hover and the last
// pointer position. Values are immutable; Step returns a new one.
type ViewState struct {
	Mode    Mode
	Zoom    float64
	Pan     Point
	Hover   int // index into Scene.Segments, -1 when nothing is hovered
	Pointer Point
	Limits  ZoomLimits
}

// NewViewState returns the reset view: zoom 1, no pan, nothing hovered.
func NewViewState(limits ZoomLimits) ViewState {
	return ViewState{Mode: Idle, Zoom: 1, Hover: -1, Limits: limits}
}

// ZoomPercent is the zoom factor as shown to the user.
func (v ViewState) ZoomPercent() int {
	return int(math.Round(v.Zoom * 100))
}

// ToCanvas maps a canvas pixel back into untransformed scene space.
func (v ViewState) ToCanvas(p Point) Point {
	return Point{X: (p.X - v.Pan.X) / v.Zoom, Y: (p.Y - v.Pan.Y) / v.Zoom}
}

// Step applies one event and returns the next state. It has no side effects;
// scene may be nil, in which case nothing can be hovered.
func Step(v ViewState, e Event, scene *Scene) ViewState {
	switch e.Kind {
	case PointerDown:
		v.Mode = Panning
		v.Hover = -1
		v.Pointer = Point{X: e.X, Y: e.Y}

	case PointerMove:
		p := Point{X: e.X, Y: e.Y}
		if v.Mode == Panning {
			v.Pan.X += p.X - v.Pointer.X
			v.Pan.Y += p.Y - v.Pointer.Y
			v.Pointer = p
			return v
		}
		v.Pointer = p
		v = hover(v, scene)

	case PointerUp:
		v.Pointer = Point{X: e.X, Y: e.Y}
		v.Mode = Idle
		v = hover(v, scene)

	case PointerLeave:
		v.Mode = Idle
		v.Hover = -1

	case Wheel:
		if e.DeltaY > 0 {
			v = zoomBy(v, v.Limits.WheelOut, scene)
		} else if e.DeltaY < 0 {
			v = zoomBy(v, v.Limits.WheelIn, scene)
		}

	case ZoomIn:
		v = zoomBy(v, v.Limits.Button, scene)

	case ZoomOut:
		v = zoomBy(v, 1/v.Limits.Button, scene)

	case ZoomTo:
		v.Zoom = v.Limits.clamp(e.Zoom)
		v = rehover(v, scene)

	case ZoomReset:
		v.Zoom = 1
		v.Pan = Point{}
		v = rehover(v, scene)
	}
	return v
}

func zoomBy(v ViewState, factor float64, scene *Scene) ViewState {
	v.Zoom = v.Limits.clamp(v.Zoom * factor)
	return rehover(v, scene)
}

// rehover refreshes the hover target after the transform changed under a
// stationary pointer. A drag in progress keeps hover suppressed.
func rehover(v ViewState, scene *Scene) ViewState {
	if v.Mode == Panning {
		return v
	}
	if v.Mode == Idle && v.Hover < 0 {
		return v
	}
	return hover(v, scene)
}

func hover(v ViewState, scene *Scene) ViewState {
	idx := -1
	if scene != nil {
		idx = scene.HitTest(v.Pointer, v)
	}
	v.Hover = idx
	if idx >= 0 {
		v.Mode = HoverActive
	} else {
		v.Mode = Idle
	}
	return v
}

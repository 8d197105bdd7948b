package render

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Projection kinds accepted by NewProjection.
const (
	ProjectionEqualEarth      = "equal-earth"
	ProjectionEquirectangular = "equirectangular"
)

// Options controls canvas geometry, interaction limits and styling of a
// rendered map. A YAML file may override any subset of DefaultOptions.
type Options struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Projection string  `yaml:"projection"`
	Margin     float64 `yaml:"margin"` // Padding between the projected globe and the canvas edge, in pixels

	Zoom struct {
		Min        float64 `yaml:"min"`
		Max        float64 `yaml:"max"`
		WheelIn    float64 `yaml:"wheel_in"`      // Multiplier per wheel notch towards the user
		WheelOut   float64 `yaml:"wheel_out"`     // Multiplier per wheel notch away from the user
		ButtonStep float64 `yaml:"button_factor"` // The +/- controls multiply or divide by this
	} `yaml:"zoom"`

	HitTolerance float64 `yaml:"hit_tolerance"` // Screen pixels around a segment that count as hovering it

	Colors Colors `yaml:"colors"`

	LineWidth    float64 `yaml:"line_width"`
	MarkerRadius float64 `yaml:"marker_radius"`

	Font struct {
		Family string `yaml:"family"`
		Size   int    `yaml:"size"`
	} `yaml:"font"`
}

// Colors is the palette of a rendered map.
type Colors struct {
	Background string `yaml:"background"`
	Land       string `yaml:"land"`
	Border     string `yaml:"border"`
	Line       string `yaml:"line"`
	Highlight  string `yaml:"highlight"`
	Home       string `yaml:"home"`
	Contacted  string `yaml:"contacted"`
	Marker     string `yaml:"marker_stroke"`
	Text       string `yaml:"text"`
	Tooltip    string `yaml:"tooltip"`
	Error      string `yaml:"error"`
}

// DefaultOptions returns the dark map palette at 800x500.
func DefaultOptions() Options {
	var o Options
	o.Width = 800
	o.Height = 500
	o.Projection = ProjectionEqualEarth
	o.Margin = 10

	o.Zoom.Min = 0.5
	o.Zoom.Max = 5
	o.Zoom.WheelIn = 1.1
	o.Zoom.WheelOut = 0.9
	o.Zoom.ButtonStep = 1.2

	o.HitTolerance = 4

	o.Colors = Colors{
		Background: "#0F141B",
		Land:       "#2C3440",
		Border:     "#1A1F28",
		Line:       "#FF6B6B",
		Highlight:  "#FFD166",
		Home:       "#4CC9F0",
		Contacted:  "#F72585",
		Marker:     "#FFFFFF",
		Text:       "#E6E6E6",
		Tooltip:    "#1F2630",
		Error:      "#FF6B6B",
	}

	o.LineWidth = 1.5
	o.MarkerRadius = 4

	o.Font.Family = "Arial, sans-serif"
	o.Font.Size = 12
	return o
}

// LoadOptions reads a YAML file on top of DefaultOptions. An empty path
// returns the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read render options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parse render options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate reports every inconsistent setting.
func (o Options) Validate() error {
	var errs []error
	if o.Width <= 0 || o.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size must be positive, got %dx%d", o.Width, o.Height))
	}
	switch o.Projection {
	case ProjectionEqualEarth, ProjectionEquirectangular:
	default:
		errs = append(errs, fmt.Errorf("unknown projection %q", o.Projection))
	}
	if o.Zoom.Min <= 0 || o.Zoom.Min > 1 || o.Zoom.Max < 1 {
		errs = append(errs, fmt.Errorf("zoom range [%g, %g] must be positive and contain 1", o.Zoom.Min, o.Zoom.Max))
	}
	if o.Zoom.WheelIn <= 1 || o.Zoom.ButtonStep <= 1 {
		errs = append(errs, errors.New("zoom-in factors must be greater than 1"))
	}
	if o.Zoom.WheelOut <= 0 || o.Zoom.WheelOut >= 1 {
		errs = append(errs, errors.New("wheel zoom-out factor must be in (0, 1)"))
	}
	if o.HitTolerance < 0 {
		errs = append(errs, errors.New("hit tolerance must not be negative"))
	}
	return errors.Join(errs...)
}

// Limits returns the zoom clamp configured by o.
func (o Options) Limits() ZoomLimits {
	return ZoomLimits{
		Min:      o.Zoom.Min,
		Max:      o.Zoom.Max,
		WheelIn:  o.Zoom.WheelIn,
		WheelOut: o.Zoom.WheelOut,
		Button:   o.Zoom.ButtonStep,
	}
}

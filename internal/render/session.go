package render

import (
	"fmt"
	"io"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

// Session is one displayed map: a timeline, the selected day, the base map,
// the canvas size and the interaction state. A Session is not safe for
// concurrent use; each viewer owns its own.
type Session struct {
	opts     Options
	timeline *timeline.Timeline
	station  string

	geometry    *domain.FeatureCollection
	geometryErr error

	proj  Projection
	day   time.Time
	view  ViewState
	scene *Scene
}

// NewSession opens a session on the timeline's initial day at the canvas
// size from opts. station labels the legend and may be empty.
func NewSession(tl *timeline.Timeline, opts Options, station string) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s := &Session{
		opts:     opts,
		timeline: tl,
		station:  station,
		day:      tl.Initial(),
		view:     NewViewState(opts.Limits()),
	}
	if err := s.Resize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	return s, nil
}

// SetGeometry installs the base map, or the error that prevented loading it.
func (s *Session) SetGeometry(fc *domain.FeatureCollection, err error) {
	s.geometry, s.geometryErr = fc, err
	s.rebuild()
}

// Resize adapts the session to a new canvas size. The projection is only
// recomputed when the size actually changes; hover is always cleared since
// segment positions may have moved under the pointer.
func (s *Session) Resize(width, height int) error {
	if s.proj != nil {
		if w, h := s.proj.Size(); w == width && h == height {
			s.clearHover()
			return nil
		}
	}
	proj, err := NewProjection(s.opts.Projection, width, height, s.opts.Margin)
	if err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	s.proj = proj
	s.clearHover()
	s.rebuild()
	return nil
}

// SelectDay shows the records of d's calendar day.
func (s *Session) SelectDay(d time.Time) {
	s.day = timeline.Truncate(d)
	s.clearHover()
	s.rebuild()
}

// SelectPercent moves the slider to percent of the timeline range.
func (s *Session) SelectPercent(percent float64) {
	s.SelectDay(s.timeline.DayAt(percent))
}

// Handle feeds one input event through the view state machine.
func (s *Session) Handle(e Event) ViewState {
	s.view = Step(s.view, e, s.scene)
	return s.view
}

// Day is the selected day.
func (s *Session) Day() time.Time { return s.day }

// Percent is the slider position of the selected day.
func (s *Session) Percent() float64 { return s.timeline.PercentOf(s.day) }

// View is the current interaction state.
func (s *Session) View() ViewState { return s.view }

// Scene is the current frame content.
func (s *Session) Scene() *Scene { return s.scene }

// Projection is the projection for the current canvas size.
func (s *Session) Projection() Projection { return s.proj }

// Hovered returns the record under the pointer, if any.
func (s *Session) Hovered() (domain.Record, bool) {
	if s.view.Hover < 0 || s.view.Hover >= len(s.scene.Segments) {
		return domain.Record{}, false
	}
	return s.scene.Segments[s.view.Hover].Record(), true
}

// Render writes the current frame as SVG.
func (s *Session) Render(w io.Writer) error {
	return WriteSVG(w, Frame{
		Scene:   s.scene,
		View:    s.view,
		Day:     s.day,
		Station: s.station,
	}, s.opts)
}

func (s *Session) clearHover() {
	s.view.Hover = -1
	if s.view.Mode == HoverActive {
		s.view.Mode = Idle
	}
}

func (s *Session) rebuild() {
	if s.proj == nil {
		return
	}
	s.scene = BuildScene(s.timeline.On(s.day), s.geometry, s.geometryErr, s.proj, s.opts.HitTolerance)
}

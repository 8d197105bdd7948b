// Package pipeline orchestrates the two flows of the service: ingesting an
// ADIF upload (parse, index by day, store, publish) and rendering a map frame
// for a stored upload.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rawpurplesmurf/qso-map/internal/adif"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/locator"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
	"github.com/rawpurplesmurf/qso-map/internal/render"
	"github.com/rawpurplesmurf/qso-map/internal/store"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pipeline wires parsing, storage, publishing and rendering together.
type Pipeline struct {
	store     *store.Store
	geometry  domain.GeometrySource
	publisher domain.ContactPublisher
	opts      render.Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	ready     atomic.Bool
}

// New creates a Pipeline. publisher may be nil when contact publishing is
// disabled.
func New(st *store.Store, geometry domain.GeometrySource, publisher domain.ContactPublisher, opts render.Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:     st,
		geometry:  geometry,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer(observability.TracerName),
	}
}

// CheckReadiness returns nil once the base map has been loaded at least once.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("base map has not been loaded yet")
	}
	return nil
}

// WarmUp fetches the default base map so the first render does not pay for
// the download. A failure is logged and returned; rendering still works and
// shows the geometry error until a later fetch succeeds.
func (p *Pipeline) WarmUp(ctx context.Context) error {
	fc, err := p.geometry.Geometry(ctx, "")
	if err != nil {
		p.logger.Warn("base map warm-up failed", "error", err)
		return err
	}
	p.ready.Store(true)
	p.logger.Info("base map loaded", "features", len(fc.Features))
	return nil
}

// Parse runs the parser only. It backs the stateless upload endpoint.
func (p *Pipeline) Parse(ctx context.Context, r io.Reader) ([]domain.Record, error) {
	_, span := p.tracer.Start(ctx, "parse")
	defer span.End()

	text, err := io.ReadAll(r)
	if err != nil {
		p.metrics.Uploads.WithLabelValues("read_error").Inc()
		return nil, p.fail(span, &domain.BoundaryError{Op: "read upload", Err: err})
	}
	records, err := adif.Parse(string(text))
	if err != nil {
		p.metrics.Uploads.WithLabelValues("invalid").Inc()
		return nil, p.fail(span, err)
	}
	p.metrics.Uploads.WithLabelValues("ok").Inc()
	p.metrics.RecordsParsed.Add(float64(len(records)))
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

// Ingest parses an upload, builds its timeline, stores it and publishes its
// contacts. Only a missing header or an unreadable body fails the upload; a
// publish failure is logged and counted but the upload is kept.
func (p *Pipeline) Ingest(ctx context.Context, filename string, r io.Reader) (*store.Upload, error) {
	ctx, span := p.tracer.Start(ctx, "ingest", trace.WithAttributes(attribute.String("filename", filename)))
	defer span.End()

	text, err := io.ReadAll(r)
	if err != nil {
		p.metrics.Uploads.WithLabelValues("read_error").Inc()
		return nil, p.fail(span, &domain.BoundaryError{Op: "read upload", Err: err})
	}
	log, err := adif.ParseLog(string(text))
	if err != nil {
		p.metrics.Uploads.WithLabelValues("invalid").Inc()
		return nil, p.fail(span, err)
	}

	tl := timeline.Build(log.Records, p.logger)
	upload := p.store.Add(filename, log, tl)

	p.metrics.Uploads.WithLabelValues("ok").Inc()
	p.metrics.RecordsParsed.Add(float64(len(log.Records)))
	p.metrics.RecordsSkipped.Add(float64(tl.Skipped()))
	span.SetAttributes(
		attribute.String("upload_id", upload.ID.String()),
		attribute.Int("records", len(log.Records)),
		attribute.Int("skipped", tl.Skipped()),
	)

	p.publish(ctx, upload)

	p.logger.Info("upload ingested",
		"upload_id", upload.ID,
		"filename", filename,
		"records", len(log.Records),
		"dated", tl.Len(),
	)
	return upload, nil
}

func (p *Pipeline) publish(ctx context.Context, upload *store.Upload) {
	if p.publisher == nil {
		return
	}
	events := ContactEvents(upload.ID, upload.Log.Records)
	if err := p.publisher.Publish(ctx, events); err != nil {
		p.logger.Error("publish contacts failed", "error", err, "upload_id", upload.ID)
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(events)))
}

// Upload returns a stored upload.
func (p *Pipeline) Upload(id uuid.UUID) (*store.Upload, error) {
	return p.store.Get(id)
}

// Forget drops a stored upload.
func (p *Pipeline) Forget(id uuid.UUID) {
	p.store.Delete(id)
}

// ContactEvents converts records into publishable events, resolving each
// side independently so a half-located contact still carries what is known.
func ContactEvents(uploadID uuid.UUID, records []domain.Record) []domain.ContactEvent {
	events := make([]domain.ContactEvent, 0, len(records))
	for i, rec := range records {
		ev := domain.ContactEvent{
			UploadID: uploadID.String(),
			Index:    i,
			Call:     rec.Call(),
			QSODate:  rec.Get(domain.FieldQSODate),
			Record:   rec,
		}
		if c, _, err := locator.Resolve(rec, domain.Home); err == nil {
			ev.From = &c
		}
		if c, _, err := locator.Resolve(rec, domain.Contacted); err == nil {
			ev.To = &c
		}
		events = append(events, ev)
	}
	return events
}

// View selects what a rendered frame shows. Zero values mean defaults: the
// timeline's initial day, the configured canvas size, zoom 1 and no pan.
type View struct {
	Day      time.Time
	Percent  *float64
	Width    int
	Height   int
	Zoom     float64
	Pan      render.Point
	Hover    *render.Point
	Geometry string
}

// Session opens a render session for a stored upload and drives it to the
// requested view. Pan and hover are applied through the same pointer events
// an interactive viewer would send.
func (p *Pipeline) Session(ctx context.Context, id uuid.UUID, v View) (*render.Session, error) {
	upload, err := p.store.Get(id)
	if err != nil {
		return nil, err
	}
	return p.open(ctx, upload.Timeline, upload.Station(), v)
}

// SessionFor is Session for a timeline that is not in the store.
func (p *Pipeline) SessionFor(ctx context.Context, tl *timeline.Timeline, station string, v View) (*render.Session, error) {
	return p.open(ctx, tl, station, v)
}

func (p *Pipeline) open(ctx context.Context, tl *timeline.Timeline, station string, v View) (*render.Session, error) {
	sess, err := render.NewSession(tl, p.opts, station)
	if err != nil {
		return nil, err
	}
	if v.Width > 0 || v.Height > 0 {
		w, h := sess.Projection().Size()
		if v.Width > 0 {
			w = v.Width
		}
		if v.Height > 0 {
			h = v.Height
		}
		if err := sess.Resize(w, h); err != nil {
			return nil, err
		}
	}

	switch {
	case !v.Day.IsZero():
		sess.SelectDay(v.Day)
	case v.Percent != nil:
		sess.SelectPercent(*v.Percent)
	}

	fc, gerr := p.geometry.Geometry(ctx, v.Geometry)
	if gerr != nil {
		p.logger.Warn("base map unavailable, rendering without it", "error", gerr)
	} else if v.Geometry == "" {
		p.ready.Store(true)
	}
	sess.SetGeometry(fc, gerr)

	if v.Zoom != 0 {
		sess.Handle(render.Event{Kind: render.ZoomTo, Zoom: v.Zoom})
	}
	if v.Pan != (render.Point{}) {
		sess.Handle(render.Event{Kind: render.PointerDown})
		sess.Handle(render.Event{Kind: render.PointerMove, X: v.Pan.X, Y: v.Pan.Y})
		sess.Handle(render.Event{Kind: render.PointerLeave})
	}
	if v.Hover != nil {
		sess.Handle(render.Event{Kind: render.PointerMove, X: v.Hover.X, Y: v.Hover.Y})
	}
	return sess, nil
}

// Render writes one SVG frame for a stored upload.
func (p *Pipeline) Render(ctx context.Context, w io.Writer, id uuid.UUID, v View) error {
	ctx, span := p.tracer.Start(ctx, "render", trace.WithAttributes(attribute.String("upload_id", id.String())))
	defer span.End()

	start := time.Now()
	sess, err := p.Session(ctx, id, v)
	if err != nil {
		return p.fail(span, err)
	}
	if err := p.write(w, sess); err != nil {
		return p.fail(span, err)
	}
	p.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("day", timeline.FormatDate(sess.Day())),
		attribute.Int("segments", len(sess.Scene().Segments)),
	)
	return nil
}

func (p *Pipeline) write(w io.Writer, sess *render.Session) error {
	if sess.Scene() != nil {
		p.metrics.ConnectionsUnresolved.Add(float64(sess.Scene().Unresolved))
	}
	if err := sess.Render(w); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	return nil
}

// fail marks the span as failed and hands the error back.
func (p *Pipeline) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

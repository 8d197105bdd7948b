// Command render draws QSO map frames from an ADIF file without running the
// HTTP service.
//
// Usage:
//
//	go run ./cmd/render -in log.adi -out map.svg -day 20220115
//	go run ./cmd/render -in log.adi -frames frames/ -options style.yaml
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawpurplesmurf/qso-map/internal/adapter/geojson"
	"github.com/rawpurplesmurf/qso-map/internal/config"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
	"github.com/rawpurplesmurf/qso-map/internal/pipeline"
	"github.com/rawpurplesmurf/qso-map/internal/render"
	"github.com/rawpurplesmurf/qso-map/internal/store"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

type flags struct {
	in, out, frames, options, geometry string
	day                                string
	percent                            float64
	width, height                      int
	zoom, panX, panY                   float64
	hoverX, hoverY                     float64
	verbose                            bool
}

func main() {
	var f flags
	flag.StringVar(&f.in, "in", "", "ADIF file to draw (required)")
	flag.StringVar(&f.out, "out", "", "SVG output path (default stdout)")
	flag.StringVar(&f.frames, "frames", "", "write one SVG per logged day into this directory")
	flag.StringVar(&f.options, "options", "", "YAML render options overriding the defaults")
	flag.StringVar(&f.geometry, "geometry", config.DefaultGeometryURL, "GeoJSON base map URL or file path")
	flag.StringVar(&f.day, "day", "", "day to draw as YYYYMMDD (default first logged day)")
	flag.Float64Var(&f.percent, "percent", -1, "slider position 0-100, used when -day is empty")
	flag.IntVar(&f.width, "width", 0, "canvas width override")
	flag.IntVar(&f.height, "height", 0, "canvas height override")
	flag.Float64Var(&f.zoom, "zoom", 0, "zoom factor")
	flag.Float64Var(&f.panX, "pan-x", 0, "horizontal pan in pixels")
	flag.Float64Var(&f.panY, "pan-y", 0, "vertical pan in pixels")
	flag.Float64Var(&f.hoverX, "hover-x", -1, "pointer x for a tooltip")
	flag.Float64Var(&f.hoverY, "hover-y", -1, "pointer y for a tooltip")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.Parse()

	if f.in == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.NewCLILogger(f.verbose)

	if err := run(context.Background(), f, logger); err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, logger *slog.Logger) error {
	opts, err := render.LoadOptions(f.options)
	if err != nil {
		return err
	}
	view, err := f.view()
	if err != nil {
		return err
	}

	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	geometry := geojson.NewClient(f.geometry, 30*time.Second, metrics, logger)
	// Frames share one base map download.
	cached := geojson.NewCachedSource(geometry, 1, metrics)
	p := pipeline.New(store.New(1), cached, nil, opts, logger, metrics)

	in, err := os.Open(f.in)
	if err != nil {
		return err
	}
	defer in.Close()

	upload, err := p.Ingest(ctx, filepath.Base(f.in), in)
	if err != nil {
		return err
	}
	if upload.Timeline.Empty() {
		logger.Warn("no dated records; drawing an empty map")
	}

	if f.frames != "" {
		return writeFrames(ctx, p, upload, view, f.frames, logger)
	}

	sess, err := p.Session(ctx, upload.ID, view)
	if err != nil {
		return err
	}
	if rec, ok := sess.Hovered(); ok {
		for _, line := range render.TooltipLines(rec) {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	return writeTo(f.out, sess.Render)
}

func (f flags) view() (pipeline.View, error) {
	v := pipeline.View{
		Width:  f.width,
		Height: f.height,
		Zoom:   f.zoom,
		Pan:    render.Point{X: f.panX, Y: f.panY},
	}
	if f.day != "" {
		d, err := timeline.ParseDate(f.day)
		if err != nil {
			return v, fmt.Errorf("-day: %w", err)
		}
		v.Day = d
	} else if f.percent >= 0 {
		v.Percent = &f.percent
	}
	if f.hoverX >= 0 && f.hoverY >= 0 {
		v.Hover = &render.Point{X: f.hoverX, Y: f.hoverY}
	}
	return v, nil
}

// writeFrames draws every logged day, which is the time scrub as a sequence
// of files.
func writeFrames(ctx context.Context, p *pipeline.Pipeline, upload *store.Upload, base pipeline.View, dir string, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	days := upload.Timeline.Days()
	for _, d := range days {
		v := base
		v.Day = d
		v.Percent = nil
		path := filepath.Join(dir, timeline.FormatDate(d)+".svg")
		err := writeTo(path, func(w io.Writer) error {
			return p.Render(ctx, w, upload.ID, v)
		})
		if err != nil {
			return fmt.Errorf("frame %s: %w", timeline.FormatDate(d), err)
		}
	}
	logger.Info("frames written", "dir", dir, "count", len(days))
	return nil
}

// writeTo runs draw against path, or stdout when path is empty.
func writeTo(path string, draw func(io.Writer) error) (err error) {
	if path == "" {
		bw := bufio.NewWriter(os.Stdout)
		if err := draw(bw); err != nil {
			return err
		}
		return bw.Flush()
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	bw := bufio.NewWriter(out)
	if err := draw(bw); err != nil {
		return err
	}
	return bw.Flush()
}

package http

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/pipeline"
	"github.com/rawpurplesmurf/qso-map/internal/render"
	"github.com/rawpurplesmurf/qso-map/internal/store"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

const (
	// uploadField is the multipart form field carrying the ADIF file.
	uploadField = "adifFile"
	// multipartMemory is how much of a multipart body is held in memory
	// before spilling to temporary files.
	multipartMemory = 1 << 20
	// maxCanvas bounds the requested map width and height.
	maxCanvas = 8192
)

// logSummary describes a stored upload.
type logSummary struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	Station    string    `json:"station,omitempty"`
	Records    int       `json:"records"`
	Dated      int       `json:"dated"`
	Skipped    int       `json:"skipped"`
	FirstDay   string    `json:"first_day"`
	LastDay    string    `json:"last_day"`
}

func summarize(u *store.Upload) logSummary {
	first, last := u.Timeline.Range()
	return logSummary{
		ID:         u.ID,
		Filename:   u.Filename,
		UploadedAt: u.UploadedAt,
		Station:    u.Station(),
		Records:    len(u.Log.Records),
		Dated:      u.Timeline.Len(),
		Skipped:    u.Timeline.Skipped(),
		FirstDay:   timeline.FormatDate(first),
		LastDay:    timeline.FormatDate(last),
	}
}

// handleParse returns the parsed records of an uploaded file without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	file, _, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	records, err := s.svc.Parse(r.Context(), file)
	if err != nil {
		s.writeParseError(w, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	upload, err := s.svc.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		s.writeParseError(w, err)
		return
	}
	w.Header().Set("Location", "/api/logs/"+upload.ID.String())
	writeJSON(w, http.StatusCreated, summarize(upload))
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summarize(upload))
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log id")
		return
	}
	s.svc.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRecords lists all records, or only those dated ?day=YYYYMMDD.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.lookup(w, r)
	if !ok {
		return
	}
	records := upload.Log.Records
	if day := r.URL.Query().Get("day"); day != "" {
		d, err := timeline.ParseDate(day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day: want YYYYMMDD")
			return
		}
		records = upload.Timeline.On(d)
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.lookup(w, r)
	if !ok {
		return
	}
	days := upload.Timeline.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = timeline.FormatDate(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log id")
		return
	}
	view, err := parseView(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Render(r.Context(), &buf, id, view); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("render failed", "error", err, "upload_id", id)
		writeError(w, http.StatusInternalServerError, "failed to render map")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

// uploadedFile extracts the ADIF file from a multipart request, writing the
// error response itself when there is none.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.Uploads.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, nil, false
		}
		s.metrics.Uploads.WithLabelValues("no_file").Inc()
		writeError(w, http.StatusBadRequest, "No file provided")
		return nil, nil, false
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("no_file").Inc()
		writeError(w, http.StatusBadRequest, "No file provided")
		return nil, nil, false
	}
	return file, header, true
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*store.Upload, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log id")
		return nil, false
	}
	upload, err := s.svc.Upload(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return upload, true
}

func (s *Server) writeParseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingHeader):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case domain.IsBoundary(err):
		writeError(w, http.StatusBadRequest, "Failed to read ADIF file")
	default:
		s.logger.Error("parse upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to parse ADIF file")
	}
}

// parseView reads the map query parameters. day wins over percent; hover
// needs both coordinates.
func parseView(q url.Values) (pipeline.View, error) {
	var v pipeline.View
	var err error

	if s := q.Get("day"); s != "" {
		if v.Day, err = timeline.ParseDate(s); err != nil {
			return v, errors.New("invalid day: want YYYYMMDD")
		}
	} else if s := q.Get("percent"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(p) {
			return v, errors.New("invalid percent")
		}
		v.Percent = &p
	}

	if v.Width, err = intParam(q, "width"); err != nil {
		return v, err
	}
	if v.Height, err = intParam(q, "height"); err != nil {
		return v, err
	}
	if v.Zoom, err = floatParam(q, "zoom"); err != nil {
		return v, err
	}
	if v.Pan.X, err = floatParam(q, "pan_x"); err != nil {
		return v, err
	}
	if v.Pan.Y, err = floatParam(q, "pan_y"); err != nil {
		return v, err
	}

	if q.Has("hover_x") || q.Has("hover_y") {
		hx, err := floatParam(q, "hover_x")
		if err != nil {
			return v, err
		}
		hy, err := floatParam(q, "hover_y")
		if err != nil {
			return v, err
		}
		if !q.Has("hover_x") || !q.Has("hover_y") {
			return v, errors.New("hover_x and hover_y must be given together")
		}
		v.Hover = &render.Point{X: hx, Y: hy}
	}
	return v, nil
}

func intParam(q url.Values, name string) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > maxCanvas {
		return 0, fmt.Errorf("invalid %s: must be between 1 and %d", name, maxCanvas)
	}
	return n, nil
}

func floatParam(q url.Values, name string) (float64, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return f, nil
}

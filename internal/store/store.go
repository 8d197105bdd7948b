// Package store keeps parsed uploads in memory so the map can be rendered
// for them without re-uploading the file.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rawpurplesmurf/qso-map/internal/adif"
	"github.com/rawpurplesmurf/qso-map/internal/cache"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

// ErrNotFound is returned for an unknown or evicted upload id.
var ErrNotFound = errors.New("upload not found")

// Upload is one parsed ADIF log with its timeline.
type Upload struct {
	ID         uuid.UUID
	Filename   string
	UploadedAt time.Time
	Log        adif.Log
	Timeline   *timeline.Timeline
}

// Station is the home callsign taken from the first record's STATION_CALLSIGN.
func (u *Upload) Station() string {
	if len(u.Log.Records) == 0 {
		return ""
	}
	return u.Log.Records[0].Get(domain.FieldStationCallsign)
}

// Store is a bounded, thread-safe set of uploads. The least recently used
// upload is dropped when the store is full.
type Store struct {
	uploads *cache.LRU[uuid.UUID, *Upload]
	clock   clockwork.Clock
}

// New creates a store holding at most maxUploads.
func New(maxUploads int) *Store {
	return NewWithClock(maxUploads, clockwork.NewRealClock())
}

// NewWithClock is New with an injectable clock for upload timestamps.
func NewWithClock(maxUploads int, clock clockwork.Clock) *Store {
	return &Store{
		uploads: cache.New[uuid.UUID, *Upload](maxUploads),
		clock:   clock,
	}
}

// Add stores a parsed log under a fresh id.
func (s *Store) Add(filename string, log adif.Log, tl *timeline.Timeline) *Upload {
	u := &Upload{
		ID:         uuid.New(),
		Filename:   filename,
		UploadedAt: s.clock.Now().UTC(),
		Log:        log,
		Timeline:   tl,
	}
	s.uploads.Put(u.ID, u)
	return u
}

// Get returns the upload stored under id.
func (s *Store) Get(id uuid.UUID) (*Upload, error) {
	u, ok := s.uploads.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// Delete drops an upload. Deleting an unknown id is not an error.
func (s *Store) Delete(id uuid.UUID) {
	s.uploads.Delete(id)
}

// Len is the number of stored uploads.
func (s *Store) Len() int { return s.uploads.Len() }

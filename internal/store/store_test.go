package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rawpurplesmurf/qso-map/internal/adif"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `header <EOH>
<CALL:6>DL1ABC<QSO_DATE:8>20220115<STATION_CALLSIGN:5>W7ABC<EOR>
<CALL:5>G0XYZ<QSO_DATE:8>20220116<STATION_CALLSIGN:5>W7ABC<EOR>`

func parsed(t *testing.T) (adif.Log, *timeline.Timeline) {
	t.Helper()
	log, err := adif.ParseLog(sampleLog)
	require.NoError(t, err)
	return log, timeline.Build(log.Records, nil)
}

func TestStore_AddAndGet(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s := NewWithClock(4, clk)
	log, tl := parsed(t)

	u := s.Add("log.adi", log, tl)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), u.UploadedAt)
	assert.Equal(t, "W7ABC", u.Station())

	got, err := s.Get(u.ID)
	require.NoError(t, err)
	assert.Same(t, u, got)
	assert.Equal(t, 1, s.Len())
}

func TestStore_UnknownID(t *testing.T) {
	s := New(4)
	_, err := s.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := New(2)
	log, tl := parsed(t)

	a := s.Add("a.adi", log, tl)
	b := s.Add("b.adi", log, tl)

	_, err := s.Get(a.ID)
	require.NoError(t, err)

	c := s.Add("c.adi", log, tl)

	_, err = s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound, "b was least recently used")
	_, err = s.Get(a.ID)
	assert.NoError(t, err)
	_, err = s.Get(c.ID)
	assert.NoError(t, err)
}

func TestStore_Delete(t *testing.T) {
	s := New(2)
	log, tl := parsed(t)
	u := s.Add("a.adi", log, tl)

	s.Delete(u.ID)
	s.Delete(u.ID)
	_, err := s.Get(u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestUpload_StationEmpty(t *testing.T) {
	u := &Upload{}
	assert.Empty(t, u.Station())
}

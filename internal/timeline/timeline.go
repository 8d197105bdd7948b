// Package timeline indexes QSO records by their contact date and answers the
// day-by-day queries behind the map's time slider.
package timeline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// Entry is one dated record. Index is the record's position in the parsed log.
type Entry struct {
	Date   time.Time
	Index  int
	Record domain.Record
}

// Timeline is an immutable, date-sorted view over a record sequence.
// Records whose QSO_DATE is missing or malformed are not part of it.
type Timeline struct {
	entries  []Entry
	min, max time.Time
	skipped  int
}

// ParseDate parses an ADIF YYYYMMDD date into UTC midnight. Month and day are
// range-checked (1–12, 1–31) and then calendar-normalized, so "20220230"
// becomes March 2.
func ParseDate(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("%w %q: want 8 digits", domain.ErrInvalidDate, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, fmt.Errorf("%w %q: want 8 digits", domain.ErrInvalidDate, s)
		}
	}

	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[4:6])
	dom, _ := strconv.Atoi(s[6:8])
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w %q: month out of range", domain.ErrInvalidDate, s)
	}
	if dom < 1 || dom > 31 {
		return time.Time{}, fmt.Errorf("%w %q: day out of range", domain.ErrInvalidDate, s)
	}
	return time.Date(year, time.Month(month), dom, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return Truncate(t).Format("20060102")
}

// Truncate reduces t to midnight UTC of its own calendar date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Build indexes records by QSO_DATE. Order among records sharing a date is the
// order they appear in records. Undated records are logged and counted.
func Build(records []domain.Record, logger *slog.Logger) *Timeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &Timeline{entries: make([]Entry, 0, len(records))}
	for i, rec := range records {
		raw, ok := rec.Lookup(domain.FieldQSODate)
		if !ok {
			t.skipped++
			logger.Debug("skipping record without QSO_DATE", "index", i, "call", rec.Call())
			continue
		}
		date, err := ParseDate(raw)
		if err != nil {
			t.skipped++
			logger.Debug("skipping record with invalid QSO_DATE", "index", i, "call", rec.Call(), "error", err)
			continue
		}
		t.entries = append(t.entries, Entry{Date: date, Index: i, Record: rec})
	}

	sort.SliceStable(t.entries, func(a, b int) bool {
		return t.entries[a].Date.Before(t.entries[b].Date)
	})

	if len(t.entries) > 0 {
		t.min = t.entries[0].Date
		t.max = t.entries[len(t.entries)-1].Date
		return t
	}

	// Nothing dated: show the month containing "now".
	now := clock.Now().UTC()
	t.min = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	t.max = t.min.AddDate(0, 1, -1)
	return t
}

// Len is the number of dated records.
func (t *Timeline) Len() int { return len(t.entries) }

// Empty reports whether no record had a usable date.
func (t *Timeline) Empty() bool { return len(t.entries) == 0 }

// Skipped is the number of records left out for date problems.
func (t *Timeline) Skipped() int { return t.skipped }

// Entries returns the dated records in timeline order.
func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Range returns the first and last day of the timeline, or the current
// calendar month when the timeline is empty.
func (t *Timeline) Range() (time.Time, time.Time) { return t.min, t.max }

// Initial is the day selected before the user touches the slider.
func (t *Timeline) Initial() time.Time { return t.min }

// TotalDays is the number of whole days between the range ends.
func (t *Timeline) TotalDays() int {
	return daysBetween(t.min, t.max)
}

// daysBetween counts whole days from a to b on Unix seconds; time.Duration
// saturates past roughly 292 years and one mistyped QSO year gets there.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

// DayAt maps a slider position in [0,100] to a day in the range. Values
// outside the interval are clamped.
func (t *Timeline) DayAt(percent float64) time.Time {
	if math.IsNaN(percent) || percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	offset := int(math.Round(percent / 100 * float64(t.TotalDays())))
	return t.min.AddDate(0, 0, offset)
}

// PercentOf maps a day back to a slider position, clamped to [0,100].
func (t *Timeline) PercentOf(d time.Time) float64 {
	total := t.TotalDays()
	if total == 0 {
		return 0
	}
	p := float64(daysBetween(t.min, Truncate(d))) / float64(total) * 100
	return math.Max(0, math.Min(100, p))
}

// On returns the records dated exactly on d's calendar day, in log order.
func (t *Timeline) On(d time.Time) []domain.Record {
	target := Truncate(d)
	i := sort.Search(len(t.entries), func(i int) bool {
		return !t.entries[i].Date.Before(target)
	})

	var out []domain.Record
	for ; i < len(t.entries) && t.entries[i].Date.Equal(target); i++ {
		out = append(out, t.entries[i].Record)
	}
	return out
}

// Between returns records dated within [from, to], inclusive, in timeline order.
func (t *Timeline) Between(from, to time.Time) []domain.Record {
	lo, hi := Truncate(from), Truncate(to)
	if hi.Before(lo) {
		return nil
	}
	i := sort.Search(len(t.entries), func(i int) bool {
		return !t.entries[i].Date.Before(lo)
	})

	var out []domain.Record
	for ; i < len(t.entries) && !t.entries[i].Date.After(hi); i++ {
		out = append(out, t.entries[i].Record)
	}
	return out
}

// Days lists each distinct day that has at least one record, ascending.
func (t *Timeline) Days() []time.Time {
	var out []time.Time
	for _, e := range t.entries {
		if len(out) == 0 || !out[len(out)-1].Equal(e.Date) {
			out = append(out, e.Date)
		}
	}
	return out
}

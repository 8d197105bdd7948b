package render

import (
	"fmt"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

// TooltipLines lays out the hover card for a record: callsign first, then
// date, time, band and mode, any descriptive fields present, and the reports.
func TooltipLines(rec domain.Record) []string {
	lines := []string{
		rec.Call(),
		"Date: " + FormatQSODate(rec.Get(domain.FieldQSODate)),
		"Time: " + FormatQSOTime(rec.Get(domain.FieldTimeOn)),
		fmt.Sprintf("Band: %s - Mode: %s", rec.Get(domain.FieldBand), rec.Get(domain.FieldMode)),
	}

	optional := []struct{ label, field string }{
		{"Name", domain.FieldName},
		{"QTH", domain.FieldQTH},
		{"Country", domain.FieldCountry},
		{"Comment", domain.FieldComment},
	}
	for _, o := range optional {
		if v := rec.Get(o.field); v != "" {
			lines = append(lines, o.label+": "+v)
		}
	}

	lines = append(lines, fmt.Sprintf("RST: %s/%s", rec.Get(domain.FieldRSTSent), rec.Get(domain.FieldRSTRcvd)))
	return lines
}

// FormatQSODate renders YYYYMMDD as "Jan 2, 2006".
func FormatQSODate(s string) string {
	d, err := timeline.ParseDate(s)
	if err != nil {
		return "Invalid date"
	}
	return d.Format("Jan 2, 2006")
}

// FormatQSOTime renders HHMMSS as "HH:MM:SS". ADIF also allows HHMM, shown
// with zero seconds. Anything else is returned unchanged.
func FormatQSOTime(s string) string {
	if !allDigits(s) {
		return s
	}
	switch len(s) {
	case 6:
		return s[0:2] + ":" + s[2:4] + ":" + s[4:6]
	case 4:
		return s[0:2] + ":" + s[2:4] + ":00"
	default:
		return s
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

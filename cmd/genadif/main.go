// Command genadif writes a synthetic ADIF log whose contact locations are
// known, plus an optional JSON manifest of the expected coordinates. The
// manifest lets cmd/validate check the parser and locator end to end.
//
// Usage:
//
//	go run ./cmd/genadif -out testdata/synthetic.adi -manifest testdata/synthetic.json \
//	  -start 20240101 -days 14 -per-day 5 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/adif"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/locator"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

const programID = "qso-map-genadif"

var (
	bands = []struct{ band, freq string }{
		{"160m", "1.840"}, {"80m", "3.573"}, {"40m", "7.074"}, {"20m", "14.074"},
		{"15m", "21.074"}, {"10m", "28.074"},
	}
	modes    = []string{"FT8", "SSB", "CW", "FT4", "RTTY"}
	prefixes = []string{"DL", "G", "JA", "VK", "K", "W", "PY", "ZS", "EA", "OH", "LU", "VE"}
)

// expected is one manifest entry: what the map should draw for a record.
type expected struct {
	Index     int                `json:"index"`
	Call      string             `json:"call"`
	QSODate   string             `json:"qso_date"`
	Source    locator.Source     `json:"source,omitempty"` // empty when no locator was written
	Home      domain.Coordinate  `json:"home"`
	Contacted *domain.Coordinate `json:"contacted,omitempty"`
	Dated     bool               `json:"dated"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the ADIF log")
	manifest := flag.String("manifest", "", "optional output path for the expected-coordinates manifest")
	start := flag.String("start", "20240101", "first QSO date (YYYYMMDD)")
	days := flag.Int("days", 14, "number of consecutive days")
	perDay := flag.Int("per-day", 5, "contacts per day")
	station := flag.String("station", "W7ABC", "home station callsign")
	home := flag.String("home", "CN86rx", "home grid locator")
	seed := flag.Uint64("seed", 1, "random seed for reproducible output")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	first, err := timeline.ParseDate(*start)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	homeCoord, err := locator.FromGrid(*home)
	if err != nil {
		return fmt.Errorf("-home: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	records, entries, err := generate(rng, first, *days, *perDay, *station, *home, homeCoord)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := adif.Format(f, programID, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %d records to %s", len(records), *out)

	if *manifest != "" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*manifest, data, 0o644); err != nil {
			return err
		}
		log.Printf("wrote manifest to %s", *manifest)
	}
	return nil
}

// generate builds the log. Roughly one contact in ten has no locator and one
// in twenty an unusable date, so both recovery paths show up in the output.
func generate(rng *rand.Rand, first time.Time, days, perDay int, station, home string, homeCoord domain.Coordinate) ([]domain.Record, []expected, error) {
	records := make([]domain.Record, 0, days*perDay)
	entries := make([]expected, 0, days*perDay)

	for d := range days {
		date := timeline.FormatDate(first.AddDate(0, 0, d))
		for range perDay {
			i := len(records)
			call := fmt.Sprintf("%s%d%c%c%c", prefixes[rng.IntN(len(prefixes))], rng.IntN(10),
				'A'+rng.IntN(26), 'A'+rng.IntN(26), 'A'+rng.IntN(26))
			band := bands[rng.IntN(len(bands))]

			entry := expected{Index: i, Call: call, QSODate: date, Home: homeCoord, Dated: true}
			qsoDate := date
			if rng.IntN(20) == 0 {
				qsoDate = date[:6]
				entry.QSODate = qsoDate
				entry.Dated = false
			}

			fields := []domain.Field{
				{Name: domain.FieldCall, Value: call},
				{Name: domain.FieldQSODate, Value: qsoDate},
				{Name: domain.FieldTimeOn, Value: fmt.Sprintf("%02d%02d%02d", rng.IntN(24), rng.IntN(60), rng.IntN(60))},
				{Name: domain.FieldBand, Value: band.band},
				{Name: domain.FieldFreq, Value: band.freq},
				{Name: domain.FieldMode, Value: modes[rng.IntN(len(modes))]},
				{Name: domain.FieldRSTSent, Value: fmt.Sprintf("5%d", 5+rng.IntN(5))},
				{Name: domain.FieldRSTRcvd, Value: fmt.Sprintf("5%d", 5+rng.IntN(5))},
				{Name: domain.FieldStationCallsign, Value: station},
				{Name: domain.FieldMyGridsquare, Value: home},
			}

			target := domain.Coordinate{
				Lat: rng.Float64()*160 - 80,
				Lon: rng.Float64()*360 - 180,
			}
			switch n := rng.IntN(10); {
			case n == 0:
			case n < 5:
				grid, err := locator.ToGrid(target, 6)
				if err != nil {
					return nil, nil, err
				}
				c, err := locator.FromGrid(grid)
				if err != nil {
					return nil, nil, err
				}
				fields = append(fields, domain.Field{Name: domain.FieldGridsquare, Value: grid})
				entry.Source, entry.Contacted = locator.SourceGrid, &c
			default:
				lat, lon := locator.FormatSexagesimal(target)
				c, err := locator.FromSexagesimal(lat, lon)
				if err != nil {
					return nil, nil, err
				}
				fields = append(fields,
					domain.Field{Name: domain.FieldLat, Value: lat},
					domain.Field{Name: domain.FieldLon, Value: lon},
				)
				entry.Source, entry.Contacted = locator.SourceSexagesimal, &c
			}

			records = append(records, domain.NewRecord(fields...))
			entries = append(entries, entry)
		}
	}
	return records, entries, nil
}

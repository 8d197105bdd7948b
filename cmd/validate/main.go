// Command validate lints an ADIF log the way the map will consume it: file
// structure, QSO dates, station coordinates and the day index. Given the
// manifest written by cmd/genadif it also checks every decoded coordinate
// against the value the generator intended.
//
// Usage:
//
//	go run ./cmd/validate -adif testdata/synthetic.adi -manifest testdata/synthetic.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/rawpurplesmurf/qso-map/internal/adif"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/locator"
	"github.com/rawpurplesmurf/qso-map/internal/timeline"
)

// coordTolerance is how far a decoded coordinate may drift from the manifest,
// in degrees. Sexagesimal minutes carry three decimals.
const coordTolerance = 1e-4

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// expected mirrors the manifest entries written by cmd/genadif.
type expected struct {
	Index     int                `json:"index"`
	Call      string             `json:"call"`
	QSODate   string             `json:"qso_date"`
	Source    locator.Source     `json:"source,omitempty"`
	Home      domain.Coordinate  `json:"home"`
	Contacted *domain.Coordinate `json:"contacted,omitempty"`
	Dated     bool               `json:"dated"`
}

func main() {
	adifPath := flag.String("adif", "", "path to the ADIF log to lint")
	manifestPath := flag.String("manifest", "", "optional cmd/genadif manifest to compare against")
	strict := flag.Bool("strict", false, "treat undated and unlocated records as failures")
	flag.Parse()

	if *adifPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*adifPath, *manifestPath, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(adifPath, manifestPath string, strict bool) int {
	fmt.Println("=== ADIF Log Validation ===")
	fmt.Println()

	data, err := os.ReadFile(adifPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read ADIF: %v\n", err)
		return 1
	}
	log, err := adif.ParseLog(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse ADIF: %v\n", err)
		return 1
	}

	var manifest []expected
	if manifestPath != "" {
		if manifest, err = loadJSON[expected](manifestPath); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load manifest: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateStructure(log),
		validateDates(log.Records, strict),
		validateCoordinates(log.Records, strict),
		validateTimeline(log.Records),
	}
	if manifest != nil {
		phases = append(phases, validateManifest(log.Records, manifest))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Printf("      %s\n", n)
		}
	}

	fmt.Println()
	fmt.Printf("Records: %d parsed, %d header fields\n", len(log.Records), log.Header.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Structure ──
// Every record needs a callsign; an empty log is allowed but noted.

func validateStructure(log adif.Log) *phase {
	p := &phase{name: "Phase 1: Structure"}
	if len(log.Records) == 0 {
		p.notef("log has a header but no records")
	}
	for i, rec := range log.Records {
		if rec.Call() == "" {
			p.errorf("record %d: missing %s", i, domain.FieldCall)
		}
	}
	if v := log.Header.Get("ADIF_VER"); v != "" {
		p.notef("ADIF version %s", v)
	}
	return p
}

// ── Phase 2: Dates ──
// Records without a usable QSO_DATE never reach the timeline.

func validateDates(records []domain.Record, strict bool) *phase {
	p := &phase{name: "Phase 2: QSO Dates"}
	undated := 0
	for i, rec := range records {
		if _, err := timeline.ParseDate(rec.Get(domain.FieldQSODate)); err != nil {
			undated++
			if strict {
				p.errorf("record %d (%s): %v", i, rec.Call(), err)
			}
		}
	}
	if undated > 0 {
		p.notef("%d of %d records are undated and will not be drawn", undated, len(records))
	}
	return p
}

// ── Phase 3: Coordinates ──
// A locator field that is present but malformed is always an error; a side
// with no locator at all is only noted unless -strict is set.

func validateCoordinates(records []domain.Record, strict bool) *phase {
	p := &phase{name: "Phase 3: Station Coordinates"}
	counts := map[locator.Source]int{}
	unresolved := 0

	for i, rec := range records {
		for _, side := range []domain.Side{domain.Home, domain.Contacted} {
			_, src, err := locator.Resolve(rec, side)
			if err == nil {
				counts[src]++
				continue
			}
			unresolved++
			if malformed(err) || strict {
				p.errorf("record %d (%s) %s: %v", i, rec.Call(), side, err)
			}
		}
	}
	p.notef("resolved sides: %d grid, %d sexagesimal, %d unresolved",
		counts[locator.SourceGrid], counts[locator.SourceSexagesimal], unresolved)
	return p
}

func malformed(err error) bool {
	return errors.Is(err, domain.ErrInvalidLocator) || errors.Is(err, domain.ErrInvalidSexagesimal)
}

// ── Phase 4: Timeline ──
// Every dated record must be reachable through exactly one logged day.

func validateTimeline(records []domain.Record) *phase {
	p := &phase{name: "Phase 4: Day Index"}
	tl := timeline.Build(records, nil)

	reachable := 0
	for _, d := range tl.Days() {
		n := len(tl.On(d))
		if n == 0 {
			p.errorf("day %s is listed but has no records", timeline.FormatDate(d))
		}
		reachable += n
	}
	if reachable != tl.Len() {
		p.errorf("days cover %d records, timeline holds %d", reachable, tl.Len())
	}
	if tl.Len()+tl.Skipped() != len(records) {
		p.errorf("timeline holds %d + %d skipped, log has %d", tl.Len(), tl.Skipped(), len(records))
	}
	if !tl.Empty() {
		first, last := tl.Range()
		p.notef("%s to %s, %d days with contacts", timeline.FormatDate(first), timeline.FormatDate(last), len(tl.Days()))
	}
	return p
}

// ── Phase 5: Manifest ──
// Decoded coordinates must match what the generator encoded.

func validateManifest(records []domain.Record, manifest []expected) *phase {
	p := &phase{name: "Phase 5: Manifest Agreement"}
	if len(records) != len(manifest) {
		p.errorf("record count: log has %d, manifest has %d", len(records), len(manifest))
		return p
	}

	for i, want := range manifest {
		rec := records[i]
		if rec.Call() != want.Call {
			p.errorf("record %d: call %q, manifest %q", i, rec.Call(), want.Call)
		}
		_, dateErr := timeline.ParseDate(rec.Get(domain.FieldQSODate))
		if (dateErr == nil) != want.Dated {
			p.errorf("record %d (%s): dated=%t, manifest dated=%t", i, want.Call, dateErr == nil, want.Dated)
		}

		home, _, err := locator.Resolve(rec, domain.Home)
		if err != nil {
			p.errorf("record %d (%s): home: %v", i, want.Call, err)
		} else if !near(home, want.Home) {
			p.errorf("record %d (%s): home %v, manifest %v", i, want.Call, home, want.Home)
		}

		got, src, err := locator.Resolve(rec, domain.Contacted)
		switch {
		case want.Contacted == nil:
			if err == nil {
				p.errorf("record %d (%s): contacted resolved to %v, manifest has no locator", i, want.Call, got)
			}
		case err != nil:
			p.errorf("record %d (%s): contacted: %v", i, want.Call, err)
		case src != want.Source:
			p.errorf("record %d (%s): contacted source %s, manifest %s", i, want.Call, src, want.Source)
		case !near(got, *want.Contacted):
			p.errorf("record %d (%s): contacted %v, manifest %v", i, want.Call, got, *want.Contacted)
		}
	}
	return p
}

func near(a, b domain.Coordinate) bool {
	return math.Abs(a.Lat-b.Lat) <= coordTolerance && math.Abs(a.Lon-b.Lon) <= coordTolerance
}

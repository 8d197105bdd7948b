// Package adif parses ADIF tagged-text contact logs into records.
package adif

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rawpurplesmurf/qso-map/internal/domain"
)

var (
	eohRe = regexp.MustCompile(`(?i)<eoh>`)
	eorRe = regexp.MustCompile(`(?i)<eor>`)

	// tagRe matches <NAME:LENGTH[:TYPE]> and captures the payload up to the
	// next '<'. The declared length is not trusted for slicing.
	tagRe = regexp.MustCompile(`<([^:<>]+):(\d+)(?::[^>]*)?>([^<]*)`)
)

// Log is a parsed file: the optional header fields plus the QSO records.
type Log struct {
	Header  domain.Record
	Records []domain.Record
}

// Parse returns the records of an ADIF document in file order.
// A missing <EOH> marker fails with domain.ErrMissingHeader; a document with
// no record blocks yields an empty, non-nil slice.
func Parse(text string) ([]domain.Record, error) {
	log, err := ParseLog(text)
	if err != nil {
		return nil, err
	}
	return log.Records, nil
}

// ParseLog is Parse plus the header fields that precede <EOH>.
func ParseLog(text string) (Log, error) {
	loc := eohRe.FindStringIndex(text)
	if loc == nil {
		return Log{}, domain.ErrMissingHeader
	}

	header := domain.NewRecord(extractFields(text[:loc[0]])...)
	blocks := eorRe.Split(text[loc[1]:], -1)

	records := make([]domain.Record, 0, len(blocks))
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		fields := extractFields(block)
		if len(fields) == 0 {
			continue
		}
		records = append(records, domain.NewRecord(fields...))
	}

	return Log{Header: header, Records: records}, nil
}

// ParseReader reads the whole document from r and parses it. Read failures are
// reported as boundary errors since they belong to the upload, not the log.
func ParseReader(r io.Reader) ([]domain.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.BoundaryError{Op: "read log", Err: err}
	}
	return Parse(string(data))
}

func extractFields(block string) []domain.Field {
	matches := tagRe.FindAllStringSubmatch(block, -1)
	fields := make([]domain.Field, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		fields = append(fields, domain.Field{Name: name, Value: strings.TrimSpace(m[3])})
	}
	return fields
}

// Format renders records back into ADIF text with a minimal header. Field
// names are written as stored; lengths are recomputed from the values.
func Format(w io.Writer, programID string, records []domain.Record) error {
	if _, err := fmt.Fprintf(w, "Generated by %s\n<ADIF_VER:5>3.1.4\n<PROGRAMID:%d>%s\n<EOH>\n", programID, len(programID), programID); err != nil {
		return err
	}
	for _, rec := range records {
		var b strings.Builder
		for _, f := range rec.Fields() {
			fmt.Fprintf(&b, "<%s:%d>%s ", f.Name, len(f.Value), f.Value)
		}
		b.WriteString("<EOR>\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

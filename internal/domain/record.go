package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Conventional ADIF field names relied on by the timeline and the map.
const (
	FieldCall            = "CALL"
	FieldQSODate         = "QSO_DATE"
	FieldTimeOn          = "TIME_ON"
	FieldFreq            = "FREQ"
	FieldMode            = "MODE"
	FieldBand            = "BAND"
	FieldRSTSent         = "RST_SENT"
	FieldRSTRcvd         = "RST_RCVD"
	FieldGridsquare      = "GRIDSQUARE"
	FieldLat             = "LAT"
	FieldLon             = "LON"
	FieldMyGridsquare    = "MY_GRIDSQUARE"
	FieldMyLat           = "MY_LAT"
	FieldMyLon           = "MY_LON"
	FieldStationCallsign = "STATION_CALLSIGN"
	FieldName            = "NAME"
	FieldQTH             = "QTH"
	FieldCountry         = "COUNTRY"
	FieldComment         = "COMMENT"
)

// Field is a single tag/value pair as it appeared in the source log.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one parsed QSO. Field names keep their source spelling; lookups
// are case-insensitive. A Record is immutable once built.
type Record struct {
	fields []Field
	index  map[string]int // upper-cased name -> position in fields
}

// NewRecord builds a Record from fields in source order. When a name repeats
// (ignoring case) the later value wins and the first position is kept.
func NewRecord(fields ...Field) Record {
	r := Record{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		key := strings.ToUpper(f.Name)
		if i, ok := r.index[key]; ok {
			r.fields[i].Value = f.Value
			continue
		}
		r.index[key] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r
}

// Lookup returns the value stored under name, ignoring case.
func (r Record) Lookup(name string) (string, bool) {
	i, ok := r.index[strings.ToUpper(name)]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Get returns the value stored under name, or "" when absent.
func (r Record) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Len reports the number of distinct fields.
func (r Record) Len() int { return len(r.fields) }

// Fields returns a copy of the fields in source order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Call is shorthand for the contacted station's callsign.
func (r Record) Call() string { return r.Get(FieldCall) }

// MarshalJSON encodes the record as a flat object in source field order,
// matching the shape the upload endpoint has always returned.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat string-valued object, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode record: expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode record field %q: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	*r = NewRecord(fields...)
	return nil
}

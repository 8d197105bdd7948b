// Package domain models amateur-radio contact (QSO) logs exchanged in the
// ADIF tagged-text format.
//
// # Data Source
//
// Logs are exported by station logging programs as .adi/.adif files and
// uploaded by the operator. Everything before the end-of-header marker is
// free text plus optional header fields; everything after it is a sequence of
// records separated by end-of-record markers.
//
// # ADIF Conventions
//
// Field format:
//
//	<NAME:LENGTH[:TYPE]>VALUE  →  e.g. <CALL:5>K1ABC  or  <FREQ:6:N>14.074
//	Markers <EOH> and <EOR> are case-insensitive.
//	The declared LENGTH is advisory; the value runs to the next '<' and is trimmed.
//
// Field names:
//
//	Tag names are case-insensitive in the format, but real logs mix cases
//	("call", "CALL", "Call"). A [Record] keeps each name as written and
//	looks names up case-insensitively.
//
// Date and time:
//
//	QSO_DATE is YYYYMMDD (e.g. "20220115"). TIME_ON is HHMMSS or HHMM in UTC.
//	Out-of-range days are normalized by calendar arithmetic (20220230 → Mar 2).
//
// Location sources, per side:
//
//	Home station:      MY_LAT + MY_LON, falling back to MY_GRIDSQUARE.
//	Contacted station: LAT + LON, falling back to GRIDSQUARE.
//	LAT/LON use "<N|S|E|W><DDD> <MM.MMM>", e.g. "N045 26.250" = 45.4375°.
//	Grid squares are Maidenhead locators, 4 or 6 characters (e.g. "CN86rx").
//
// Maidenhead decoding (south-west corner of the cell):
//
//	lon = -180 + 20·field + 2·square + (5/60)·subsquare
//	lat =  -90 + 10·field + 1·square + (2.5/60)·subsquare
//	Field letters A–R (0–17), square digits 0–9, subsquare letters A–X (0–23).
//
// # Error Taxonomy
//
// Only a missing header aborts parsing ([ErrMissingHeader]). Bad locators,
// bad coordinates, and bad dates are recovered by leaving the record (or one
// side of it) out of the map. Failures talking to external collaborators are
// wrapped in [BoundaryError].
package domain

package domain

import "errors"

var (
	// ErrMissingHeader is the only fatal parse error: without <EOH> nothing
	// in the file can be trusted to be record data.
	ErrMissingHeader = errors.New("invalid ADIF format: missing EOH tag")

	// ErrInvalidLocator reports a grid locator that cannot be decoded.
	ErrInvalidLocator = errors.New("invalid grid locator")

	// ErrInvalidSexagesimal reports a malformed "N045 26.250" style coordinate.
	ErrInvalidSexagesimal = errors.New("invalid sexagesimal coordinate")

	// ErrInvalidDate reports a QSO_DATE that is missing or not YYYYMMDD.
	ErrInvalidDate = errors.New("invalid QSO date")

	// ErrUnresolved reports a record side with no usable coordinate source.
	ErrUnresolved = errors.New("coordinates unresolved")

	// ErrInvalidGeometry reports a base map that is not a GeoJSON FeatureCollection.
	ErrInvalidGeometry = errors.New("invalid map geometry")
)

// BoundaryError wraps a failure at an external boundary (upload read,
// geometry fetch). Callers surface it to the user as retryable.
type BoundaryError struct {
	Op  string
	Err error
}

func (e *BoundaryError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *BoundaryError) Unwrap() error { return e.Err }

// IsBoundary reports whether err came from an external boundary.
func IsBoundary(err error) bool {
	var be *BoundaryError
	return errors.As(err, &be)
}

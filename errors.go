package opengtap

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors shared across the codec and the solution reader.
var (
	// ErrInvalidData indicates malformed binary framing or payload data:
	// frame-length mismatch, missing padding, unknown type code,
	// label-count mismatch or a dimensional-product disagreement.
	ErrInvalidData = errors.New("opengtap: invalid data")

	// ErrUnexpectedEOF indicates the stream ended in the middle of a
	// record or an array.
	ErrUnexpectedEOF = errors.New("opengtap: unexpected end of stream")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("opengtap: unsupported file format")

	// ErrDuplicateHeader indicates two arrays in one file carry the same
	// four-character header.
	ErrDuplicateHeader = errors.New("opengtap: duplicate header")

	// ErrHeaderNotFound indicates a required header array is absent.
	ErrHeaderNotFound = errors.New("opengtap: header not found")
)

// DataValidationError reports a cross-check failure while assembling a
// solution, e.g. a VARS entry disagreeing with its VCNM entry.
type DataValidationError struct {
	Field    string
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *DataValidationError) Error() string {
	return fmt.Sprintf("opengtap: validation of %s failed: expected %v, got %v", e.Field, e.Expected, e.Actual)
}

// SetMismatch reports that two arrays in one file declare the same set
// name with different element lists. It is collected by the set validator
// and never aborts a read.
type SetMismatch struct {
	SetName   string
	FirstSeen []string
	Found     []string
}

// Error implements the error interface.
func (m SetMismatch) Error() string {
	return fmt.Sprintf("opengtap: set %q redefined: first seen [%s], found [%s]",
		m.SetName, strings.Join(m.FirstSeen, " "), strings.Join(m.Found, " "))
}

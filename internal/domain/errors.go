package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrApplicationNotFound signals an unknown application name.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrFieldNotFound signals a field display name that matches no active field.
	ErrFieldNotFound = errors.New("field not found")
	// ErrValueNotFound signals a values-list display value with no matching entry.
	ErrValueNotFound = errors.New("values list value not found")
	// ErrAmbiguousMatch signals an input value that matched two or more records.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrTransport signals a network, deadline, or unexpected status failure.
	ErrTransport = errors.New("transport failure")
	// ErrProtocolDecode signals a response body with an unexpected shape.
	ErrProtocolDecode = errors.New("protocol decode failure")
	// ErrUnsupportedField signals a field type that cannot be searched by equality.
	ErrUnsupportedField = errors.New("unsupported field type")
	// ErrInvalidInput signals a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMetadataConflict signals two active fields sharing a display name after case-folding.
	ErrMetadataConflict = errors.New("metadata conflict")
)

// AmbiguousMatch is one input value together with every record id it matched.
type AmbiguousMatch struct {
	Value string
	IDs   []int
}

// AmbiguousMatchError wraps ErrAmbiguousMatch with every conflicting value.
// Single lookups carry one entry; bulk lookups carry one entry per ambiguous input.
type AmbiguousMatchError struct {
	Matches []AmbiguousMatch
}

func (e *AmbiguousMatchError) Error() string {
	if len(e.Matches) == 1 {
		m := e.Matches[0]
		return fmt.Sprintf("%s: value %q matched %d records %v",
			ErrAmbiguousMatch.Error(), m.Value, len(m.IDs), m.IDs)
	}
	values := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		values[i] = fmt.Sprintf("%q", m.Value)
	}
	return fmt.Sprintf("%s: %d values matched multiple records: %s",
		ErrAmbiguousMatch.Error(), len(e.Matches), strings.Join(values, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }

// NewAmbiguousMatch creates an ambiguity error for the given matches.
func NewAmbiguousMatch(matches ...AmbiguousMatch) error {
	return &AmbiguousMatchError{Matches: matches}
}

// TransportError wraps ErrTransport with the failed operation and HTTP status.
// Status is zero when the request never produced a response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(ErrTransport.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports ErrTransport for errors.Is while Unwrap keeps the cause reachable.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError creates a transport failure for op.
func NewTransportError(op string, status int, err error) error {
	return &TransportError{Op: op, Status: status, Err: err}
}

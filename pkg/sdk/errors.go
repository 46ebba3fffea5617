package grclookup

import "github.com/kailas-cloud/grclookup/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrApplicationNotFound = domain.ErrApplicationNotFound
	ErrFieldNotFound       = domain.ErrFieldNotFound
	ErrValueNotFound       = domain.ErrValueNotFound
	ErrAmbiguousMatch      = domain.ErrAmbiguousMatch
	ErrTransport           = domain.ErrTransport
	ErrProtocolDecode      = domain.ErrProtocolDecode
	ErrUnsupportedField    = domain.ErrUnsupportedField
	ErrInvalidInput        = domain.ErrInvalidInput
	ErrMetadataConflict    = domain.ErrMetadataConflict
)

// Typed errors re-exported from the domain layer. Use errors.As() to inspect them.
type (
	// AmbiguousMatchError lists every input value that matched more than one record.
	AmbiguousMatchError = domain.AmbiguousMatchError
	// AmbiguousMatch is one ambiguous value with all of its record ids.
	AmbiguousMatch = domain.AmbiguousMatch
	// TransportError carries the failed operation and HTTP status.
	TransportError = domain.TransportError
)

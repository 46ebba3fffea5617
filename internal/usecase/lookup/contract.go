package lookup

import (
	"context"

	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
)

// MetadataResolver resolves application and field names from cached metadata.
type MetadataResolver interface {
	Application(ctx context.Context, name string) (application.Application, error)
	Field(ctx context.Context, appID int, displayName string) (field.Definition, error)
}

// ValueTranslator maps a values-list display value to its internal id.
type ValueTranslator interface {
	ValueID(ctx context.Context, fld field.Definition, display string) (int, error)
}

// CapabilityProbe reports whether the fast search protocol is available.
type CapabilityProbe interface {
	SupportsFastSearch(ctx context.Context, moduleID int) bool
}

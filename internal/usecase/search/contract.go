package search

import (
	"context"
	"net/url"

	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
	"github.com/kailas-cloud/grclookup/internal/domain/search/query"
	"github.com/kailas-cloud/grclookup/internal/domain/search/result"
)

// Transport issues one platform request and returns status and raw body.
type Transport interface {
	Do(ctx context.Context, op, method, path string, query url.Values, body any) (int, []byte, error)
}

// EndpointResolver returns the (cached) content API endpoint of an application.
type EndpointResolver interface {
	Endpoint(ctx context.Context, appName string) (application.Endpoint, error)
}

// Strategy runs one equality lookup over a specific query protocol.
type Strategy interface {
	Protocol() protocol.Protocol
	Search(ctx context.Context, q query.Query) (result.IDs, error)
}

// BatchStrategy can answer many values of one field in a single request.
type BatchStrategy interface {
	Strategy
	// CanBatch reports whether results for fld can be attributed back by value.
	CanBatch(fld field.Definition) bool
	// SearchBatch returns matched ids keyed by raw input value, with an entry for every value.
	SearchBatch(ctx context.Context, base query.Query, values []string) (map[string]result.IDs, error)
}

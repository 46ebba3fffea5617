package capability

import (
	"context"
	"net/url"
)

// Transport issues one platform request and returns status and raw body.
type Transport interface {
	Do(ctx context.Context, op, method, path string, query url.Values, body any) (int, []byte, error)
}

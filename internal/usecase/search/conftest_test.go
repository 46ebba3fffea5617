package search

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
)

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

type response struct {
	status int
	body   string
	err    error
}

// scriptedTransport answers requests from a queue, or from fn when set.
type scriptedTransport struct {
	mu        sync.Mutex
	calls     []call
	responses []response
	fn        func(c call) response
}

func (s *scriptedTransport) Do(
	_ context.Context, op, method, path string, query url.Values, body any,
) (int, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := call{op: op, method: method, path: path, query: query, body: body}
	s.calls = append(s.calls, c)

	var r response
	switch {
	case s.fn != nil:
		r = s.fn(c)
	case len(s.responses) > 0:
		r = s.responses[0]
		s.responses = s.responses[1:]
	default:
		r = response{status: 200, body: `[]`}
	}
	return r.status, []byte(r.body), r.err
}

type staticEndpoints struct {
	ep    application.Endpoint
	err   error
	calls int
}

func (s *staticEndpoints) Endpoint(_ context.Context, _ string) (application.Endpoint, error) {
	s.calls++
	return s.ep, s.err
}

func mustField(t *testing.T, id int, name string, ft field.Type) field.Definition {
	t.Helper()
	d, err := field.New(id, name, ft, true)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

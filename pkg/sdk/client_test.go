package grclookup

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, f *fakeArcher, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithArcher(f.srv.URL, "Prod"),
		WithCredentials("svc", "", "secret"),
	}
	c, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(context.Background(), WithCredentials("u", "", "p"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), WithArcher("http://127.0.0.1:1", "Prod"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNew_LoginFailure(t *testing.T) {
	_, err := New(context.Background(),
		WithArcher("http://127.0.0.1:1", "Prod"),
		WithCredentials("u", "", "p"),
	)
	require.ErrorIs(t, err, ErrTransport)
}

func TestNew_SessionTokenSkipsLogin(t *testing.T) {
	f := newFakeArcher(t, true)
	c, err := New(context.Background(), WithArcher(f.srv.URL, "Prod"), WithSessionToken(fakeToken))
	require.NoError(t, err)
	assert.Zero(t, f.logins.Load())

	id, found, err := c.LookupOne(context.Background(), "Incidents", "Ticket Number", "INC-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 555, id)
}

func TestLookupOne_FastSearch(t *testing.T) {
	f := newFakeArcher(t, true)
	c := newTestClient(t, f)
	ctx := context.Background()

	p, err := c.Protocol(ctx, "Incidents")
	require.NoError(t, err)
	assert.Equal(t, ProtocolFast, p)

	id, found, err := c.LookupOne(ctx, "Incidents", "ticket NUMBER", "INC-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 555, id)

	_, found, err = c.LookupOne(ctx, "Incidents", "Ticket Number", "missing")
	require.NoError(t, err)
	assert.False(t, found)

	id, found, err = c.LookupOne(ctx, "Incidents", "Priority", "High")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, id)

	assert.EqualValues(t, 1, f.logins.Load())
	assert.EqualValues(t, 1, f.fieldLoads.Load(), "field metadata is cached for the session")
	assert.Zero(t, f.unauthorized.Load())
}

func TestLookupOne_AmbiguousListsEveryRecord(t *testing.T) {
	c := newTestClient(t, newFakeArcher(t, true))

	_, _, err := c.LookupOne(context.Background(), "Incidents", "Ticket Number", "DUP")
	require.ErrorIs(t, err, ErrAmbiguousMatch)

	var amb *AmbiguousMatchError
	require.True(t, errors.As(err, &amb))
	require.Len(t, amb.Matches, 1)
	assert.Equal(t, []int{1, 2, 3}, amb.Matches[0].IDs)
}

func TestLookupOne_Errors(t *testing.T) {
	c := newTestClient(t, newFakeArcher(t, true))
	ctx := context.Background()

	_, _, err := c.LookupOne(ctx, "Unknown", "Ticket Number", "x")
	require.ErrorIs(t, err, ErrApplicationNotFound)

	_, _, err = c.LookupOne(ctx, "Incidents", "Nope", "x")
	require.ErrorIs(t, err, ErrFieldNotFound)

	_, _, err = c.LookupOne(ctx, "Incidents", "Priority", "Urgent")
	require.ErrorIs(t, err, ErrValueNotFound)
}

func TestLookupOne_LegacyFallback(t *testing.T) {
	c := newTestClient(t, newFakeArcher(t, false))
	ctx := context.Background()

	p, err := c.Protocol(ctx, "Incidents")
	require.NoError(t, err)
	assert.Equal(t, ProtocolLegacy, p)

	id, found, err := c.LookupOne(ctx, "Incidents", "Ticket Number", "INC-12345")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 222, id)
}

func TestLookupMany_Legacy(t *testing.T) {
	c := newTestClient(t, newFakeArcher(t, false))

	res, err := c.LookupMany(context.Background(), "Incidents", "Ticket Number",
		[]string{"INC-12345", "INC-0", "INC-12345"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())
	assert.Equal(t, 1, res.Found())
	assert.Equal(t, []string{"INC-12345", "INC-0"}, res.Values())

	id, ok := res.Get("INC-12345")
	assert.True(t, ok)
	assert.Equal(t, 222, id)
	_, ok = res.Get("INC-0")
	assert.False(t, ok)

	m := res.Map()
	require.Contains(t, m, "INC-0")
	assert.Nil(t, m["INC-0"])
}

func TestLookupMany_FastAmbiguity(t *testing.T) {
	c := newTestClient(t, newFakeArcher(t, true), WithConcurrency(2), WithChunkSize(1))

	res, err := c.LookupMany(context.Background(), "Incidents", "Ticket Number",
		[]string{"INC-1", "DUP", "missing"})
	require.ErrorIs(t, err, ErrAmbiguousMatch)
	assert.Nil(t, res)
}

func TestInvalidate_ReloadsMetadata(t *testing.T) {
	f := newFakeArcher(t, true)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, _, err := c.LookupOne(ctx, "Incidents", "Ticket Number", "INC-1")
	require.NoError(t, err)
	c.Invalidate()
	_, _, err = c.LookupOne(ctx, "Incidents", "Ticket Number", "INC-1")
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.fieldLoads.Load())
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, newFakeArcher(t, true))

	h := c.Health(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Checks["platform"])
	assert.Equal(t, "ok", h.Checks["session"])
	assert.True(t, h.Usable())
	assert.True(t, h.SessionActive())
}

func TestWithPrometheus_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, newFakeArcher(t, true), WithPrometheus(reg))

	_, _, err := c.LookupOne(context.Background(), "Incidents", "Ticket Number", "INC-1")
	require.NoError(t, err)
	_, _, err = c.LookupOne(context.Background(), "Incidents", "Ticket Number", "DUP")
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("lookup_one", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("lookup_one", "ambiguous")), 0)

	// A second client on the same registry reuses the collectors.
	other := newFakeArcher(t, true)
	_, err = New(context.Background(),
		WithArcher(other.srv.URL, "Prod"), WithSessionToken(fakeToken), WithPrometheus(reg))
	require.NoError(t, err)
}

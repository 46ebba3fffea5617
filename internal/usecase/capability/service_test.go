package capability

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeTransport struct {
	mu     sync.Mutex
	status int
	err    error
	calls  int
	body   any
}

func (f *fakeTransport) Do(_ context.Context, _, _, _ string, _ url.Values, body any) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.body = body
	return f.status, []byte(`{}`), f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, true},
		{http.StatusBadRequest, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusInternalServerError, true},
		{http.StatusNotFound, false},
		{http.StatusMethodNotAllowed, false},
	}
	for _, tc := range tests {
		if got := Classify(tc.status); got != tc.want {
			t.Errorf("Classify(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestSupportsFastSearch_Memoized(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_probe_total"}, []string{"result"})
	svc := New(tr, counter, nil)

	for range 5 {
		if !svc.SupportsFastSearch(context.Background(), 100) {
			t.Fatal("expected fast search supported")
		}
	}
	if tr.calls != 1 {
		t.Errorf("probe calls = %d, want 1", tr.calls)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("supported")); v != 1 {
		t.Errorf("supported count = %f, want 1", v)
	}

	req, ok := tr.body.(probeRequest)
	if !ok {
		t.Fatalf("probe body = %T", tr.body)
	}
	if req.ModuleID != 100 || req.Page.Size != 1 || len(req.Filters) != 1 {
		t.Errorf("unexpected probe body: %+v", req)
	}
}

func TestSupportsFastSearch_NotFoundIsUnsupported(t *testing.T) {
	svc := New(&fakeTransport{status: http.StatusNotFound}, nil, nil)
	if svc.SupportsFastSearch(context.Background(), 100) {
		t.Error("404 must mean unsupported")
	}
}

func TestSupportsFastSearch_TransportFailureIsUnsupported(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	svc := New(tr, nil, nil)

	if svc.SupportsFastSearch(context.Background(), 100) {
		t.Error("transport failure must mean unsupported")
	}
	svc.SupportsFastSearch(context.Background(), 100)
	if tr.calls != 1 {
		t.Errorf("probe calls = %d, want 1 (failure is memoized)", tr.calls)
	}
}

func TestSupportsFastSearch_CanceledCallerNotMemoized(t *testing.T) {
	tr := &fakeTransport{err: context.Canceled}
	svc := New(tr, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if svc.SupportsFastSearch(ctx, 100) {
		t.Error("canceled probe must report unsupported")
	}

	tr.err = nil
	tr.status = http.StatusOK
	if !svc.SupportsFastSearch(context.Background(), 100) {
		t.Error("next probe should run again and succeed")
	}
	if tr.calls != 2 {
		t.Errorf("probe calls = %d, want 2", tr.calls)
	}
}

func TestInvalidate_Reprobes(t *testing.T) {
	tr := &fakeTransport{status: http.StatusMethodNotAllowed}
	svc := New(tr, nil, nil)

	if svc.SupportsFastSearch(context.Background(), 1) {
		t.Fatal("expected unsupported")
	}
	svc.Invalidate()
	tr.status = http.StatusOK
	if !svc.SupportsFastSearch(context.Background(), 1) {
		t.Error("expected supported after invalidate")
	}
	if tr.calls != 2 {
		t.Errorf("probe calls = %d, want 2", tr.calls)
	}
}

// blockingTransport holds the first request until its context ends, then answers with status.
type blockingTransport struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	status  int
}

func (b *blockingTransport) Do(ctx context.Context, _, _, _ string, _ url.Values, _ any) (int, []byte, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()
	if first {
		close(b.started)
		<-ctx.Done()
		return 0, nil, ctx.Err()
	}
	return b.status, []byte(`{}`), nil
}

func TestSupportsFastSearch_CancelledCallerDoesNotDecideForOthers(t *testing.T) {
	tr := &blockingTransport{started: make(chan struct{}), status: http.StatusOK}
	svc := New(tr, nil, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	firstDone := make(chan bool)
	go func() { firstDone <- svc.SupportsFastSearch(cancelled, 100) }()
	<-tr.started

	secondDone := make(chan bool)
	go func() { secondDone <- svc.SupportsFastSearch(context.Background(), 100) }()
	time.Sleep(20 * time.Millisecond) // let the second caller join the running probe
	cancel()

	if <-firstDone {
		t.Error("cancelled caller: expected unsupported")
	}
	if !<-secondDone {
		t.Error("live caller: expected fast search after probing again")
	}
	if !svc.SupportsFastSearch(context.Background(), 100) {
		t.Error("expected the completed probe to be memoized")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.calls != 2 {
		t.Errorf("probe calls = %d, want 2", tr.calls)
	}
}

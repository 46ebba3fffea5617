package capability

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SearchPath is the structured record search endpoint.
const SearchPath = "api/core/content/record/search"

var errProbeInterrupted = errors.New("capability probe interrupted")

// probeValue never matches a real record; field 0 does not exist.
const probeValue = "__grclookup_probe__"

type probeRequest struct {
	ModuleID int           `json:"ModuleId"`
	Page     probePage     `json:"Page"`
	Filters  []probeFilter `json:"Filters"`
}

type probePage struct {
	Start int `json:"Start"`
	Size  int `json:"Size"`
}

type probeFilter struct {
	FieldID  int    `json:"FieldId"`
	Operator string `json:"Operator"`
	Value    string `json:"Value"`
}

// Service detects whether the server supports fast search.
// The outcome is memoized for the session; Invalidate forces a new probe.
type Service struct {
	transport  Transport
	probeTotal *prometheus.CounterVec
	logger     *zap.Logger
	group      singleflight.Group

	mu    sync.RWMutex
	known bool
	fast  bool
}

// New creates a capability probe.
// probeTotal is a counter vec with label "result"; nil disables it.
func New(t Transport, probeTotal *prometheus.CounterVec, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{transport: t, probeTotal: probeTotal, logger: logger}
}

// SupportsFastSearch reports whether the fast search endpoint is available.
// Unsupported is a normal outcome, never an error. A probe interrupted by the
// caller's own context is reported as unsupported but not memoized; callers that
// shared it with a live context probe again rather than inherit that answer.
func (s *Service) SupportsFastSearch(ctx context.Context, moduleID int) bool {
	for {
		s.mu.RLock()
		known, fast := s.known, s.fast
		s.mu.RUnlock()
		if known {
			return fast
		}

		v, err, _ := s.group.Do("probe", func() (any, error) {
			supported, conclusive := s.probe(ctx, moduleID)
			if !conclusive {
				return false, errProbeInterrupted
			}
			s.mu.Lock()
			s.known, s.fast = true, supported
			s.mu.Unlock()
			return supported, nil
		})
		if err == nil {
			return v.(bool)
		}
		if ctx.Err() != nil {
			return false
		}
	}
}

// Invalidate forgets the memoized outcome.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.known, s.fast = false, false
	s.mu.Unlock()
}

func (s *Service) probe(ctx context.Context, moduleID int) (supported, conclusive bool) {
	body := probeRequest{
		ModuleID: moduleID,
		Page:     probePage{Start: 0, Size: 1},
		Filters:  []probeFilter{{FieldID: 0, Operator: "Equals", Value: probeValue}},
	}
	status, _, err := s.transport.Do(ctx, "probe", http.MethodPost, SearchPath, nil, body)
	switch {
	case err != nil && ctx.Err() != nil:
		s.logger.Debug("capability probe interrupted", zap.Error(err))
		return false, false
	case err != nil:
		s.logger.Info("fast search probe failed, using legacy filter search", zap.Error(err))
		supported = false
	default:
		supported = Classify(status)
		s.logger.Info("fast search probe completed",
			zap.Int("status", status),
			zap.Bool("supported", supported),
		)
	}
	s.record(supported)
	return supported, true
}

// Classify maps a probe response status to support.
// 404 and 405 mean the endpoint does not exist; any other answer,
// including a validation rejection, means the protocol is understood.
func Classify(status int) bool {
	return status != http.StatusNotFound && status != http.StatusMethodNotAllowed
}

func (s *Service) record(supported bool) {
	if s.probeTotal == nil {
		return
	}
	if supported {
		s.probeTotal.WithLabelValues("supported").Inc()
		return
	}
	s.probeTotal.WithLabelValues("unsupported").Inc()
}

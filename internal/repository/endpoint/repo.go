package endpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/grclookup/internal/domain/application"
)

type discoverer interface {
	DiscoverEndpoint(ctx context.Context, appName string) (application.Endpoint, error)
}

// Repo caches content API endpoints per application name.
type Repo struct {
	src        discoverer
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	group      singleflight.Group

	mu        sync.RWMutex
	endpoints map[string]application.Endpoint
}

// New creates an endpoint repository.
func New(src discoverer, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		src:        src,
		cacheTotal: cacheTotal,
		logger:     logger,
		endpoints:  make(map[string]application.Endpoint),
	}
}

// Endpoint returns the cached endpoint for appName, discovering it on first use.
func (r *Repo) Endpoint(ctx context.Context, appName string) (application.Endpoint, error) {
	r.mu.RLock()
	ep, ok := r.endpoints[appName]
	r.mu.RUnlock()
	if ok {
		r.inc("hit")
		return ep, nil
	}
	r.inc("miss")

	v, err, _ := r.group.Do(appName, func() (any, error) {
		ep, err := r.src.DiscoverEndpoint(ctx, appName)
		if err != nil {
			return nil, fmt.Errorf("discover endpoint: %w", err)
		}
		r.mu.Lock()
		r.endpoints[appName] = ep
		r.mu.Unlock()
		r.logger.Debug("content endpoint cached",
			zap.String("application", appName),
			zap.String("endpoint", ep.URL),
			zap.String("id_property", ep.IDProperty()),
		)
		return ep, nil
	})
	if err != nil {
		return application.Endpoint{}, err //nolint:wrapcheck // wrapped inside the flight
	}
	return v.(application.Endpoint), nil
}

// Invalidate drops every cached endpoint.
func (r *Repo) Invalidate() {
	r.mu.Lock()
	r.endpoints = make(map[string]application.Endpoint)
	r.mu.Unlock()
}

func (r *Repo) inc(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues("endpoints", result).Inc()
	}
}

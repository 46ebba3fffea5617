package metadata

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
)

// source is the consumer interface for platform metadata (ISP).
type source interface {
	Applications(ctx context.Context) ([]application.Application, error)
	ActiveFields(ctx context.Context, appID int) ([]field.Definition, error)
}

// fieldIndex maps case-folded display names to fields of one application.
type fieldIndex struct {
	byName    map[string]field.Definition
	conflicts map[string][]int
}

// Repo resolves application and field names against session-scoped metadata caches.
// Each cache is filled on first miss and kept until Invalidate.
type Repo struct {
	src        source
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	group      singleflight.Group

	mu     sync.RWMutex
	apps   map[string]application.Application
	fields map[int]*fieldIndex
}

// New creates a metadata repository.
// cacheTotal is a counter vec with labels "cache" and "result" ("hit"/"miss"); nil disables it.
func New(src source, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		src:        src,
		cacheTotal: cacheTotal,
		logger:     logger,
		fields:     make(map[int]*fieldIndex),
	}
}

// Application resolves an application by exact, case-sensitive name.
func (r *Repo) Application(ctx context.Context, name string) (application.Application, error) {
	apps, err := r.applications(ctx)
	if err != nil {
		return application.Application{}, err
	}
	app, ok := apps[name]
	if !ok {
		return application.Application{}, fmt.Errorf("application %q: %w", name, domain.ErrApplicationNotFound)
	}
	return app, nil
}

// Field resolves a display name to an active field of the application, ignoring case.
func (r *Repo) Field(ctx context.Context, appID int, displayName string) (field.Definition, error) {
	idx, err := r.fieldIndex(ctx, appID)
	if err != nil {
		return field.Definition{}, err
	}
	key := field.FoldKey(displayName)
	if ids, ok := idx.conflicts[key]; ok {
		return field.Definition{}, fmt.Errorf("field %q in application %d shared by fields %v: %w",
			displayName, appID, ids, domain.ErrMetadataConflict)
	}
	def, ok := idx.byName[key]
	if !ok {
		return field.Definition{}, fmt.Errorf("field %q in application %d: %w",
			displayName, appID, domain.ErrFieldNotFound)
	}
	return def, nil
}

// Invalidate drops every cached application and field.
func (r *Repo) Invalidate() {
	r.mu.Lock()
	r.apps = nil
	r.fields = make(map[int]*fieldIndex)
	r.mu.Unlock()
}

func (r *Repo) applications(ctx context.Context) (map[string]application.Application, error) {
	r.mu.RLock()
	apps := r.apps
	r.mu.RUnlock()
	if apps != nil {
		r.inc("applications", "hit")
		return apps, nil
	}
	r.inc("applications", "miss")

	v, err, _ := r.group.Do("applications", func() (any, error) {
		list, err := r.src.Applications(ctx)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		byName := make(map[string]application.Application, len(list))
		for _, a := range list {
			if _, dup := byName[a.Name()]; !dup {
				byName[a.Name()] = a
			}
		}
		r.mu.Lock()
		r.apps = byName
		r.mu.Unlock()
		r.logger.Debug("application metadata cached", zap.Int("applications", len(byName)))
		return byName, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the flight
	}
	return v.(map[string]application.Application), nil
}

func (r *Repo) fieldIndex(ctx context.Context, appID int) (*fieldIndex, error) {
	r.mu.RLock()
	idx, ok := r.fields[appID]
	r.mu.RUnlock()
	if ok {
		r.inc("fields", "hit")
		return idx, nil
	}
	r.inc("fields", "miss")

	v, err, _ := r.group.Do("fields:"+strconv.Itoa(appID), func() (any, error) {
		defs, err := r.src.ActiveFields(ctx, appID)
		if err != nil {
			return nil, fmt.Errorf("list fields of application %d: %w", appID, err)
		}
		idx := buildFieldIndex(defs)
		r.mu.Lock()
		r.fields[appID] = idx
		r.mu.Unlock()
		r.logger.Debug("field metadata cached",
			zap.Int("application_id", appID),
			zap.Int("fields", len(idx.byName)),
			zap.Int("conflicts", len(idx.conflicts)),
		)
		return idx, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the flight
	}
	return v.(*fieldIndex), nil
}

func buildFieldIndex(defs []field.Definition) *fieldIndex {
	idx := &fieldIndex{
		byName:    make(map[string]field.Definition, len(defs)),
		conflicts: make(map[string][]int),
	}
	for _, d := range defs {
		if !d.IsActive() {
			continue
		}
		key := field.FoldKey(d.DisplayName())
		if ids, ok := idx.conflicts[key]; ok {
			idx.conflicts[key] = append(ids, d.ID())
			continue
		}
		if prev, ok := idx.byName[key]; ok && prev.ID() != d.ID() {
			idx.conflicts[key] = []int{prev.ID(), d.ID()}
			delete(idx.byName, key)
			continue
		}
		idx.byName[key] = d
	}
	return idx
}

func (r *Repo) inc(cache, result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(cache, result).Inc()
	}
}

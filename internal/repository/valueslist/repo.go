package valueslist

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
	domvl "github.com/kailas-cloud/grclookup/internal/domain/valueslist"
)

type source interface {
	ValuesListEntries(ctx context.Context, listID int) ([]domvl.Entry, error)
}

// Repo translates values-list display values to internal value ids.
// Entries are cached per field for the lifetime of the session.
type Repo struct {
	src        source
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	group      singleflight.Group

	mu      sync.RWMutex
	entries map[int][]domvl.Entry
}

// New creates a values-list repository.
func New(src source, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		src:        src,
		cacheTotal: cacheTotal,
		logger:     logger,
		entries:    make(map[int][]domvl.Entry),
	}
}

// ValueID returns the internal id of display within the field's values list.
// Matching is exact and case-sensitive.
func (r *Repo) ValueID(ctx context.Context, fld field.Definition, display string) (int, error) {
	if !fld.IsValuesList() {
		return 0, fmt.Errorf("field %q is %s, not a values list: %w",
			fld.DisplayName(), fld.FieldType(), domain.ErrInvalidInput)
	}
	entries, err := r.load(ctx, fld)
	if err != nil {
		return 0, err
	}
	id, ok := domvl.Find(entries, display)
	if !ok {
		return 0, fmt.Errorf("value %q in field %q: %w", display, fld.DisplayName(), domain.ErrValueNotFound)
	}
	return id, nil
}

// Invalidate drops every cached values list.
func (r *Repo) Invalidate() {
	r.mu.Lock()
	r.entries = make(map[int][]domvl.Entry)
	r.mu.Unlock()
}

func (r *Repo) load(ctx context.Context, fld field.Definition) ([]domvl.Entry, error) {
	r.mu.RLock()
	entries, ok := r.entries[fld.ID()]
	r.mu.RUnlock()
	if ok {
		r.inc("hit")
		return entries, nil
	}
	r.inc("miss")

	if fld.ValuesListID() == 0 {
		return nil, fmt.Errorf("field %q has no related values list: %w", fld.DisplayName(), domain.ErrProtocolDecode)
	}

	v, err, _ := r.group.Do(strconv.Itoa(fld.ID()), func() (any, error) {
		list, err := r.src.ValuesListEntries(ctx, fld.ValuesListID())
		if err != nil {
			return nil, fmt.Errorf("load values list %d: %w", fld.ValuesListID(), err)
		}
		r.mu.Lock()
		r.entries[fld.ID()] = list
		r.mu.Unlock()
		r.logger.Debug("values list cached",
			zap.Int("field_id", fld.ID()),
			zap.Int("values_list_id", fld.ValuesListID()),
			zap.Int("entries", len(list)),
		)
		return list, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the flight
	}
	return v.([]domvl.Entry), nil
}

func (r *Repo) inc(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues("values", result).Inc()
	}
}

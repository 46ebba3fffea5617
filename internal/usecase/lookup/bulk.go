package lookup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
	domlookup "github.com/kailas-cloud/grclookup/internal/domain/lookup"
	"github.com/kailas-cloud/grclookup/internal/domain/search/query"
	"github.com/kailas-cloud/grclookup/internal/domain/search/result"
	"github.com/kailas-cloud/grclookup/internal/logger"
	"github.com/kailas-cloud/grclookup/internal/usecase/search"
)

// merger collects finished chunks into the shared mapping.
type merger struct {
	mu        sync.Mutex
	res       *domlookup.Result
	ambiguous []domain.AmbiguousMatch
}

// add merges one complete chunk. Partial chunks are never merged.
func (m *merger) add(chunk map[string]result.IDs) []domain.AmbiguousMatch {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found []domain.AmbiguousMatch
	for value, ids := range chunk {
		outcome := result.Classify(result.Dedup(ids))
		switch outcome.Kind() {
		case result.Unique:
			id, _ := outcome.ID()
			m.res.Set(value, id)
		case result.Ambiguous:
			found = append(found, domain.AmbiguousMatch{Value: value, IDs: outcome.IDs()})
		}
	}
	m.ambiguous = append(m.ambiguous, found...)
	return found
}

// LookupMany resolves every distinct value of values. The mapping holds one entry
// per distinct input. When any value is ambiguous the call fails with a single
// *domain.AmbiguousMatchError listing all of them and no mapping is returned.
// A failed request aborts the whole batch.
func (s *Service) LookupMany(
	ctx context.Context, appName, fieldName string, values []string,
) (*domlookup.Result, error) {
	app, fld, err := s.resolve(ctx, appName, fieldName)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLookup(ctx, app.Name(), fld.DisplayName())

	distinct := domlookup.Distinct(values)
	m := &merger{res: domlookup.NewResult(distinct)}
	if len(distinct) == 0 {
		return m.res, nil
	}

	translated, err := s.translateAll(ctx, fld, distinct)
	if err != nil {
		return nil, err
	}

	strat := s.Strategy(ctx, app)
	base := query.Query{App: app, Field: fld}
	chunks := domlookup.Chunk(distinct, s.chunkSize)

	log := logger.FromContext(ctx)
	log.Debug("bulk lookup started",
		zap.String("protocol", string(strat.Protocol())),
		zap.Int("values", len(distinct)),
		zap.Int("chunks", len(chunks)),
	)

	if bs, ok := strat.(search.BatchStrategy); ok && bs.CanBatch(fld) {
		err = s.runBatched(ctx, bs, base, chunks, m)
	} else {
		err = s.runPerValue(ctx, strat, base, chunks, translated, m)
	}
	if err != nil {
		return nil, fmt.Errorf("bulk %s search: %w", strat.Protocol(), err)
	}

	if len(m.ambiguous) > 0 {
		s.sortByInput(m.ambiguous, distinct)
		for _, a := range m.ambiguous {
			s.reportAmbiguous(ctx, app, fld, a.Value, a.IDs)
		}
		return nil, domain.NewAmbiguousMatch(m.ambiguous...)
	}

	log.Debug("bulk lookup completed",
		zap.Int("values", m.res.Len()),
		zap.Int("found", m.res.Found()),
	)
	return m.res, nil
}

// runBatched issues one disjunctive request per chunk, at most s.concurrency at a time.
func (s *Service) runBatched(
	ctx context.Context, bs search.BatchStrategy, base query.Query, chunks [][]string, m *merger,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			res, err := bs.SearchBatch(gctx, base, chunk)
			if err != nil {
				return err //nolint:wrapcheck // wrapped by LookupMany
			}
			m.add(res)
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // wrapped by LookupMany
}

// runPerValue walks chunks in order; the values of one chunk are searched
// concurrently and merged only after every one of them has returned.
func (s *Service) runPerValue(
	ctx context.Context, strat search.Strategy, base query.Query,
	chunks [][]string, translated map[string]query.Value, m *merger,
) error {
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return domain.NewTransportError("bulk_lookup", 0, err)
		}

		ids := make([]result.IDs, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i, value := range chunk {
			g.Go(func() error {
				q := base
				q.Value = translated[value]
				found, err := strat.Search(gctx, q)
				if err != nil {
					return fmt.Errorf("value %q: %w", value, err)
				}
				ids[i] = found
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err //nolint:wrapcheck // wrapped by LookupMany
		}

		done := make(map[string]result.IDs, len(chunk))
		for i, value := range chunk {
			done[value] = ids[i]
		}
		m.add(done)
	}
	return nil
}

// translateAll builds the comparison value of every input before any search runs,
// so a values-list miss fails the batch without touching the search endpoint.
func (s *Service) translateAll(
	ctx context.Context, fld field.Definition, values []string,
) (map[string]query.Value, error) {
	out := make(map[string]query.Value, len(values))
	for _, v := range values {
		qv, err := s.comparisonValue(ctx, fld, v)
		if err != nil {
			return nil, err
		}
		out[v] = qv
	}
	return out, nil
}

func (s *Service) sortByInput(matches []domain.AmbiguousMatch, order []string) {
	pos := make(map[string]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	sort.Slice(matches, func(i, j int) bool {
		return pos[matches[i].Value] < pos[matches[j].Value]
	})
}

package lookup

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
	"github.com/kailas-cloud/grclookup/internal/domain/search/query"
	"github.com/kailas-cloud/grclookup/internal/domain/search/result"
	"github.com/kailas-cloud/grclookup/internal/logger"
	"github.com/kailas-cloud/grclookup/internal/usecase/search"
)

// Default bulk limits.
const (
	DefaultConcurrency = 4
	DefaultChunkSize   = 50
)

// Service resolves record ids by application name, field display name and value.
type Service struct {
	meta   MetadataResolver
	values ValueTranslator
	probe  CapabilityProbe
	fast   search.Strategy
	legacy search.Strategy

	concurrency int
	chunkSize   int
	ambiguous   prometheus.Counter
}

// New creates a lookup service. The probe picks fast or legacy per call from
// its memoized outcome, so selection stays fixed for the session.
func New(
	meta MetadataResolver, values ValueTranslator, probe CapabilityProbe,
	fast, legacy search.Strategy,
) *Service {
	return &Service{
		meta: meta, values: values, probe: probe,
		fast: fast, legacy: legacy,
		concurrency: DefaultConcurrency,
		chunkSize:   DefaultChunkSize,
	}
}

// WithConcurrency configures the maximum number of in-flight requests of a bulk lookup.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithChunkSize configures how many distinct values one bulk chunk holds.
func (s *Service) WithChunkSize(n int) *Service {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// WithAmbiguityCounter counts every ambiguous input value.
func (s *Service) WithAmbiguityCounter(c prometheus.Counter) *Service {
	s.ambiguous = c
	return s
}

// LookupOne returns the single record whose field equals value.
// found is false when no record matches; two or more matches fail with
// *domain.AmbiguousMatchError.
func (s *Service) LookupOne(ctx context.Context, appName, fieldName, value string) (id int, found bool, err error) {
	app, fld, err := s.resolve(ctx, appName, fieldName)
	if err != nil {
		return 0, false, err
	}
	ctx = logger.WithLookup(ctx, app.Name(), fld.DisplayName())
	v, err := s.comparisonValue(ctx, fld, value)
	if err != nil {
		return 0, false, err
	}

	strat := s.Strategy(ctx, app)
	ids, err := strat.Search(ctx, query.Query{App: app, Field: fld, Value: v})
	if err != nil {
		return 0, false, fmt.Errorf("%s search: %w", strat.Protocol(), err)
	}

	outcome := result.Classify(result.Dedup(ids))
	switch outcome.Kind() {
	case result.Unique:
		id, _ := outcome.ID()
		return id, true, nil
	case result.Ambiguous:
		s.reportAmbiguous(ctx, app, fld, value, outcome.IDs())
		return 0, false, domain.NewAmbiguousMatch(domain.AmbiguousMatch{Value: value, IDs: outcome.IDs()})
	default:
		return 0, false, nil
	}
}

// Strategy returns the search variant selected for the session.
func (s *Service) Strategy(ctx context.Context, app application.Application) search.Strategy {
	if s.probe.SupportsFastSearch(ctx, app.ID()) {
		return s.fast
	}
	return s.legacy
}

// Protocol reports which protocol lookups against appName use.
func (s *Service) Protocol(ctx context.Context, appName string) (protocol.Protocol, error) {
	app, err := s.meta.Application(ctx, appName)
	if err != nil {
		return "", err //nolint:wrapcheck // resolver errors carry context
	}
	return s.Strategy(ctx, app).Protocol(), nil
}

func (s *Service) resolve(
	ctx context.Context, appName, fieldName string,
) (application.Application, field.Definition, error) {
	if appName == "" || fieldName == "" {
		return application.Application{}, field.Definition{},
			fmt.Errorf("application and field are required: %w", domain.ErrInvalidInput)
	}
	app, err := s.meta.Application(ctx, appName)
	if err != nil {
		return application.Application{}, field.Definition{}, err //nolint:wrapcheck // resolver errors carry context
	}
	fld, err := s.meta.Field(ctx, app.ID(), fieldName)
	if err != nil {
		return application.Application{}, field.Definition{}, err //nolint:wrapcheck // resolver errors carry context
	}
	if !fld.FieldType().Searchable() {
		return application.Application{}, field.Definition{}, fmt.Errorf(
			"field %q is %s: %w", fld.DisplayName(), fld.FieldType(), domain.ErrUnsupportedField)
	}
	return app, fld, nil
}

// comparisonValue translates values-list input to its internal id.
func (s *Service) comparisonValue(ctx context.Context, fld field.Definition, value string) (query.Value, error) {
	if !fld.IsValuesList() {
		return query.Plain(value), nil
	}
	id, err := s.values.ValueID(ctx, fld, value)
	if err != nil {
		return query.Value{}, err //nolint:wrapcheck // translator errors carry context
	}
	return query.Translated(value, id), nil
}

func (s *Service) reportAmbiguous(
	ctx context.Context, app application.Application, fld field.Definition, value string, ids result.IDs,
) {
	if s.ambiguous != nil {
		s.ambiguous.Inc()
	}
	logger.FromContext(ctx).Warn("ambiguous lookup",
		zap.Int("module_id", app.ID()),
		zap.Int("field_id", fld.ID()),
		zap.String("value", value),
		zap.Ints("record_ids", ids),
	)
}

package grclookup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/domain"
	domlookup "github.com/kailas-cloud/grclookup/internal/domain/lookup"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
	"github.com/kailas-cloud/grclookup/internal/logger"
	"github.com/kailas-cloud/grclookup/internal/metrics"
	endpointrepo "github.com/kailas-cloud/grclookup/internal/repository/endpoint"
	metadatarepo "github.com/kailas-cloud/grclookup/internal/repository/metadata"
	valueslistrepo "github.com/kailas-cloud/grclookup/internal/repository/valueslist"
	"github.com/kailas-cloud/grclookup/internal/transport/archer"
	"github.com/kailas-cloud/grclookup/internal/usecase/capability"
	healthuc "github.com/kailas-cloud/grclookup/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/grclookup/internal/usecase/lookup"
	"github.com/kailas-cloud/grclookup/internal/usecase/search"
)

// Internal seams, replaced by mocks in tests.
type lookupUseCase interface {
	LookupOne(ctx context.Context, appName, fieldName, value string) (int, bool, error)
	LookupMany(ctx context.Context, appName, fieldName string, values []string) (*domlookup.Result, error)
	Protocol(ctx context.Context, appName string) (protocol.Protocol, error)
}

type invalidator interface {
	Invalidate()
}

// Client is the grclookup SDK entry point. It is safe for concurrent use.
type Client struct {
	lookupSvc lookupUseCase
	healthSvc healthUseCase
	caches    []invalidator
	obs       *observer
	logger    *zap.Logger
}

// New creates a Client and opens the platform session.
// The provided context is used for the login request.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, fmt.Errorf("grclookup: platform url required (use WithArcher): %w", domain.ErrInvalidInput)
	}
	if cfg.session == "" && (cfg.username == "" || cfg.password == "") {
		return nil, fmt.Errorf(
			"grclookup: credentials required (use WithCredentials or WithSessionToken): %w", domain.ErrInvalidInput)
	}

	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}

	ac, err := archer.NewClient(archer.Config{
		BaseURL:            cfg.baseURL,
		Instance:           cfg.instance,
		Username:           cfg.username,
		UserDomain:         cfg.userDomain,
		Password:           cfg.password,
		SessionToken:       cfg.session,
		Timeout:            cfg.timeout,
		InsecureSkipVerify: cfg.insecure,
		HTTPClient:         cfg.httpClient,
		Logger:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("grclookup: %w", err)
	}
	if err := ac.Login(ctx); err != nil {
		return nil, fmt.Errorf("grclookup: login: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(ac, cfg, obs, log), nil
}

func wireClient(ac *archer.Client, cfg *clientConfig, obs *observer, log *zap.Logger) *Client {
	metaRepo := metadatarepo.New(ac, metrics.MetadataCacheTotal, log)
	valuesRepo := valueslistrepo.New(ac, metrics.MetadataCacheTotal, log)
	endpointRepo := endpointrepo.New(ac, metrics.MetadataCacheTotal, log)
	probe := capability.New(ac, metrics.ProbeTotal, log)

	fast := search.NewFast(ac).WithPageSize(cfg.pageSize)
	legacy := search.NewLegacy(ac, endpointRepo).WithMaxQueryLength(cfg.maxQueryLength)

	lookupSvc := lookupuc.New(metaRepo, valuesRepo, probe, fast, legacy).
		WithConcurrency(cfg.concurrency).
		WithChunkSize(cfg.chunkSize).
		WithAmbiguityCounter(metrics.AmbiguousMatchesTotal)

	return &Client{
		lookupSvc: lookupSvc,
		healthSvc: healthuc.New(ac, ac),
		caches:    []invalidator{metaRepo, valuesRepo, endpointRepo, probe},
		obs:       obs,
		logger:    log,
	}
}

// LookupOne returns the id of the single record of appName whose fieldName equals value.
// found is false when no record matches. Two or more matches fail with *AmbiguousMatchError.
func (c *Client) LookupOne(
	ctx context.Context, appName, fieldName, value string,
) (id int, found bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("lookup_one", start, err) }()

	id, found, err = c.lookupSvc.LookupOne(c.withLogger(ctx), appName, fieldName, value)
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s.%s: %w", appName, fieldName, err)
	}
	return id, found, nil
}

// LookupMany resolves every distinct value of values. When any value is ambiguous
// the call fails with one *AmbiguousMatchError listing all of them.
func (c *Client) LookupMany(
	ctx context.Context, appName, fieldName string, values []string,
) (_ *BulkResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("lookup_many", start, err) }()

	res, err := c.lookupSvc.LookupMany(c.withLogger(ctx), appName, fieldName, values)
	if err != nil {
		return nil, fmt.Errorf("bulk lookup %s.%s: %w", appName, fieldName, err)
	}
	return newBulkResult(res), nil
}

// Protocol reports which search variant lookups against appName use.
// The first call may probe the platform; the outcome is kept for the session.
func (c *Client) Protocol(ctx context.Context, appName string) (_ Protocol, err error) {
	start := time.Now()
	defer func() { c.obs.observe("protocol", start, err) }()

	p, err := c.lookupSvc.Protocol(c.withLogger(ctx), appName)
	if err != nil {
		return "", fmt.Errorf("protocol %s: %w", appName, err)
	}
	return Protocol(p), nil
}

// Invalidate drops every cached application, field, values list and endpoint,
// and forgets the capability probe outcome.
func (c *Client) Invalidate() {
	for _, inv := range c.caches {
		inv.Invalidate()
	}
	c.logger.Debug("session caches invalidated")
}

// withLogger keeps a request logger the caller already placed in ctx.
func (c *Client) withLogger(ctx context.Context) context.Context {
	return logger.ContextWithLogger(ctx, logger.FromContextOr(ctx, c.logger))
}

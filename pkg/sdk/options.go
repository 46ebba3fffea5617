package grclookup

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL  string
	instance string

	username   string
	userDomain string
	password   string
	session    string

	timeout    time.Duration
	insecure   bool
	httpClient *http.Client

	concurrency    int
	chunkSize      int
	pageSize       int
	maxQueryLength int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithArcher sets the platform base URL and instance name.
func WithArcher(baseURL, instance string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
		c.instance = instance
	})
}

// WithCredentials sets the user the session is opened with.
// userDomain may be empty for local accounts.
func WithCredentials(username, userDomain, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.userDomain = userDomain
		c.password = password
	})
}

// WithSessionToken reuses an already-issued session instead of logging in.
func WithSessionToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.session = token
	})
}

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Only for lab instances with self-signed certificates.
func WithInsecureSkipVerify() Option {
	return optionFunc(func(c *clientConfig) {
		c.insecure = true
	})
}

// WithHTTPClient replaces the HTTP client used for platform requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithConcurrency bounds in-flight requests of one bulk lookup. Default: 4.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithChunkSize sets how many distinct values one bulk chunk holds. Default: 50.
func WithChunkSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = n
	})
}

// WithPageSize sets the fast search page size (minimum 2).
func WithPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = n
	})
}

// WithMaxQueryLength caps the encoded query string of a legacy bulk request.
// Default: 2000.
func WithMaxQueryLength(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxQueryLength = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

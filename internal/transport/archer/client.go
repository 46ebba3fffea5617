package archer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512

	applicationsPath = "api/core/system/application"
)

// SessionAuthPrefix starts the Authorization header of every platform request.
const SessionAuthPrefix = "Archer session-id="

// Config holds the platform connection settings.
type Config struct {
	BaseURL string
	// Credentials; ignored when SessionToken is set.
	Instance   string
	Username   string
	UserDomain string
	Password   string
	// SessionToken reuses an already-issued session.
	SessionToken       string
	Timeout            time.Duration
	InsecureSkipVerify bool
	// HTTPClient overrides the default client (tests, custom transports).
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is an authenticated JSON transport for the platform REST and content APIs.
type Client struct {
	base   *url.URL
	http   *http.Client
	cfg    Config
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a platform client. It does not contact the server;
// call Login before issuing requests unless a session token was supplied.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("archer: base url is required: %w", domain.ErrInvalidInput)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("archer: parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed lab instances
		}
		hc = &http.Client{Transport: tr}
	}

	return &Client{
		base:   base,
		http:   hc,
		cfg:    cfg,
		logger: cfg.Logger,
		token:  cfg.SessionToken,
	}, nil
}

type loginRequest struct {
	InstanceName string `json:"InstanceName"`
	Username     string `json:"Username"`
	UserDomain   string `json:"UserDomain"`
	Password     string `json:"Password"`
}

type loginResponse struct {
	IsSuccessful    bool `json:"IsSuccessful"`
	RequestedObject struct {
		SessionToken string `json:"SessionToken"`
	} `json:"RequestedObject"`
}

// Login opens a session with the configured credentials.
// It is a no-op when a session token is already held.
func (c *Client) Login(ctx context.Context) error {
	if c.Token() != "" {
		return nil
	}
	body := loginRequest{
		InstanceName: c.cfg.Instance,
		Username:     c.cfg.Username,
		UserDomain:   c.cfg.UserDomain,
		Password:     c.cfg.Password,
	}
	var resp loginResponse
	if err := c.postJSON(ctx, "login", "api/core/security/login", body, &resp); err != nil {
		return err
	}
	if !resp.IsSuccessful || resp.RequestedObject.SessionToken == "" {
		return domain.NewTransportError("login", http.StatusUnauthorized,
			errors.New("platform rejected credentials"))
	}

	c.mu.Lock()
	c.token = resp.RequestedObject.SessionToken
	c.mu.Unlock()
	c.logger.Info("archer session opened", zap.String("instance", c.cfg.Instance))
	return nil
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Ping checks that the platform answers an authenticated request.
func (c *Client) Ping(ctx context.Context) error {
	status, raw, err := c.Do(ctx, "ping", http.MethodGet, applicationsPath, nil, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return domain.NewTransportError("ping", status, errors.New(truncate(raw)))
	}
	return nil
}

// Do issues one request and returns the status code and raw body.
// Non-2xx statuses are not errors here; only failures to get a response are.
func (c *Client) Do(
	ctx context.Context, op, method, path string, query url.Values, body any,
) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json,text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", SessionAuthPrefix+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	metrics.ArcherRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		metrics.ArcherRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Debug("archer request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("latency", duration),
			zap.Error(err),
		)
		return 0, nil, domain.NewTransportError(op, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ArcherRequestsTotal.WithLabelValues(op, "error").Inc()
		return resp.StatusCode, nil, domain.NewTransportError(op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	metrics.ArcherRequestsTotal.WithLabelValues(op, statusClass(resp.StatusCode)).Inc()
	c.logger.Debug("archer request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
	)
	return resp.StatusCode, raw, nil
}

// getJSON issues a GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	status, raw, err := c.Do(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(op, status, raw, out)
}

// postJSON issues a POST and decodes a 2xx body into out.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	status, raw, err := c.Do(ctx, op, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return decode(op, status, raw, out)
}

func decode(op string, status int, raw []byte, out any) error {
	if status >= http.StatusBadRequest {
		return domain.NewTransportError(op, status, errors.New(truncate(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrProtocolDecode, err)
	}
	return nil
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "ok"
	}
}

func truncate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

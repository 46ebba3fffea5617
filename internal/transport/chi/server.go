package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/domain"
	domlookup "github.com/kailas-cloud/grclookup/internal/domain/lookup"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
	"github.com/kailas-cloud/grclookup/internal/logger"
	gen "github.com/kailas-cloud/grclookup/internal/transport/generated"
	healthuc "github.com/kailas-cloud/grclookup/internal/usecase/health"
)

const defaultMaxBulkItems = 1000

// LookupService resolves record ids. Implemented by usecase/lookup.Service.
type LookupService interface {
	LookupOne(ctx context.Context, appName, fieldName, value string) (int, bool, error)
	LookupMany(ctx context.Context, appName, fieldName string, values []string) (*domlookup.Result, error)
	Protocol(ctx context.Context, appName string) (protocol.Protocol, error)
}

// HealthChecker reports component health. Implemented by usecase/health.Service.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements generated.ServerInterface for the chi router.
type Server struct {
	gen.Unimplemented
	lookup        LookupService
	health        HealthChecker
	logger        *zap.Logger
	maxBulkItems  int
	errorHandlers []errorHandler
}

var _ gen.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(lookup LookupService, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		lookup:       lookup,
		health:       health,
		logger:       logger,
		maxBulkItems: defaultMaxBulkItems,
	}
	s.errorHandlers = []errorHandler{
		ambiguousMatchHandler,
		transportHandler,
		sentinelHandler(domain.ErrApplicationNotFound, http.StatusNotFound, gen.ErrorResponseCodeApplicationNotFound),
		sentinelHandler(domain.ErrFieldNotFound, http.StatusNotFound, gen.ErrorResponseCodeFieldNotFound),
		sentinelHandler(domain.ErrValueNotFound, http.StatusUnprocessableEntity, gen.ErrorResponseCodeValueNotFound),
		sentinelHandler(domain.ErrUnsupportedField, http.StatusUnprocessableEntity, gen.ErrorResponseCodeUnsupportedField),
		sentinelHandler(domain.ErrMetadataConflict, http.StatusConflict, gen.ErrorResponseCodeMetadataConflict),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrProtocolDecode, http.StatusBadGateway, gen.ErrorResponseCodeProtocolError),
	}
	return s
}

// WithMaxBulkItems caps the number of values one bulk request may carry.
func (s *Server) WithMaxBulkItems(n int) *Server {
	if n > 0 {
		s.maxBulkItems = n
	}
	return s
}

// Lookup handles GET /v1/lookup.
func (s *Server) Lookup(w http.ResponseWriter, r *http.Request, params gen.LookupParams) {
	if params.Application == "" || params.Field == "" {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed,
			"application and field are required")
		return
	}

	id, found, err := s.lookup.LookupOne(r.Context(), params.Application, params.Field, params.Value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := gen.LookupResponse{
		Application: params.Application,
		Field:       params.Field,
		Value:       params.Value,
		Found:       found,
		Protocol:    s.protocol(r.Context(), params.Application),
	}
	if found {
		resp.RecordId = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

// BulkLookup handles POST /v1/lookup/bulk.
func (s *Server) BulkLookup(w http.ResponseWriter, r *http.Request) {
	var req gen.BulkLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Application == "" || req.Field == "" {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed,
			"application and field are required")
		return
	}
	if len(req.Values) > s.maxBulkItems {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed,
			fmt.Sprintf("values count must be at most %d", s.maxBulkItems))
		return
	}

	res, err := s.lookup.LookupMany(r.Context(), req.Application, req.Field, req.Values)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, gen.BulkLookupResponse{
		Application: req.Application,
		Field:       req.Field,
		Protocol:    s.protocol(r.Context(), req.Application),
		Results:     res.Map(),
		Found:       res.Found(),
		Total:       res.Len(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]gen.HealthResponseChecks)
	for k, v := range report.Checks {
		checks[k] = gen.HealthResponseChecks(v)
	}

	status := gen.HealthResponseStatus(report.Status)
	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, gen.HealthResponse{
		Status: status,
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// protocol is informational; a failure here never fails the lookup that already succeeded.
func (s *Server) protocol(ctx context.Context, app string) string {
	p, err := s.lookup.Protocol(ctx, app)
	if err != nil {
		return ""
	}
	return string(p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code gen.ErrorResponseCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrApplicationNotFound,
		domain.ErrFieldNotFound,
		domain.ErrValueNotFound,
		domain.ErrAmbiguousMatch,
		domain.ErrUnsupportedField,
		domain.ErrMetadataConflict,
		domain.ErrInvalidInput,
		domain.ErrProtocolDecode,
		domain.ErrTransport,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// ambiguousMatchHandler lists every ambiguous value with its record ids.
func ambiguousMatchHandler(w http.ResponseWriter, err error, msg string) bool {
	var ame *domain.AmbiguousMatchError
	if !errors.As(err, &ame) {
		return false
	}
	matches := make([]gen.AmbiguousValue, len(ame.Matches))
	for i, m := range ame.Matches {
		matches[i] = gen.AmbiguousValue{Value: m.Value, RecordIds: m.IDs}
	}
	writeJSON(w, http.StatusConflict, gen.AmbiguousMatchResponse{
		Code:    gen.ErrorResponseCodeAmbiguousMatch,
		Message: msg,
		Matches: matches,
	})
	return true
}

// transportHandler maps platform failures to 502, or 504 when the platform timed out.
func transportHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrTransport) {
		return false
	}
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, gen.ErrorResponseCodePlatformError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError, "internal error")
}

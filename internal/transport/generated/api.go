// Package generated holds the HTTP API types, the ServerInterface and the chi
// wrapper that binds request parameters before calling it.
package generated

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode classifies an API error.
type ErrorResponseCode string

// Defines values for ErrorResponseCode.
const (
	ErrorResponseCodeAmbiguousMatch      ErrorResponseCode = "ambiguous_match"
	ErrorResponseCodeApplicationNotFound ErrorResponseCode = "application_not_found"
	ErrorResponseCodeBadRequest          ErrorResponseCode = "bad_request"
	ErrorResponseCodeFieldNotFound       ErrorResponseCode = "field_not_found"
	ErrorResponseCodeInternalError       ErrorResponseCode = "internal_error"
	ErrorResponseCodeMetadataConflict    ErrorResponseCode = "metadata_conflict"
	ErrorResponseCodePlatformError       ErrorResponseCode = "platform_error"
	ErrorResponseCodeProtocolError       ErrorResponseCode = "protocol_error"
	ErrorResponseCodeUnauthorized        ErrorResponseCode = "unauthorized"
	ErrorResponseCodeUnsupportedField    ErrorResponseCode = "unsupported_field"
	ErrorResponseCodeValidationFailed    ErrorResponseCode = "validation_failed"
	ErrorResponseCodeValueNotFound       ErrorResponseCode = "value_not_found"
)

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// Defines values for HealthResponseStatus.
const (
	HealthResponseStatusDegraded HealthResponseStatus = "degraded"
	HealthResponseStatusError    HealthResponseStatus = "error"
	HealthResponseStatusOk       HealthResponseStatus = "ok"
)

// HealthResponseChecks defines model for HealthResponse.Checks.
type HealthResponseChecks string

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// AmbiguousValue defines model for AmbiguousValue.
type AmbiguousValue struct {
	RecordIds []int  `json:"record_ids"`
	Value     string `json:"value"`
}

// AmbiguousMatchResponse defines model for AmbiguousMatchResponse.
type AmbiguousMatchResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Matches []AmbiguousValue  `json:"matches"`
	Message string            `json:"message"`
}

// LookupResponse defines model for LookupResponse.
type LookupResponse struct {
	Application string `json:"application"`
	Field       string `json:"field"`
	Found       bool   `json:"found"`
	Protocol    string `json:"protocol"`
	RecordId    *int   `json:"record_id"`
	Value       string `json:"value"`
}

// BulkLookupRequest defines model for BulkLookupRequest.
type BulkLookupRequest struct {
	Application string   `json:"application"`
	Field       string   `json:"field"`
	Values      []string `json:"values"`
}

// BulkLookupResponse defines model for BulkLookupResponse.
type BulkLookupResponse struct {
	Application string          `json:"application"`
	Field       string          `json:"field"`
	Found       int             `json:"found"`
	Protocol    string          `json:"protocol"`
	Results     map[string]*int `json:"results"`
	Total       int             `json:"total"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Checks map[string]HealthResponseChecks `json:"checks"`
	Status HealthResponseStatus            `json:"status"`
}

// LookupParams defines parameters for Lookup.
type LookupParams struct {
	Application string `form:"application" json:"application"`
	Field       string `form:"field" json:"field"`
	Value       string `form:"value" json:"value"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Resolve one value to a record id
	// (GET /v1/lookup)
	Lookup(w http.ResponseWriter, r *http.Request, params LookupParams)
	// Resolve many values of one field
	// (POST /v1/lookup/bulk)
	BulkLookup(w http.ResponseWriter, r *http.Request)
	// Health check
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Prometheus metrics
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// Unimplemented responds 501 for every operation.
type Unimplemented struct{}

// Lookup (GET /v1/lookup)
func (Unimplemented) Lookup(w http.ResponseWriter, _ *http.Request, _ LookupParams) {
	w.WriteHeader(http.StatusNotImplemented)
}

// BulkLookup (POST /v1/lookup/bulk)
func (Unimplemented) BulkLookup(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// HealthCheck (GET /health)
func (Unimplemented) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// Metrics (GET /metrics)
func (Unimplemented) Metrics(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts requests to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// Lookup operation middleware
func (siw *ServerInterfaceWrapper) Lookup(w http.ResponseWriter, r *http.Request) {
	var params LookupParams
	query := r.URL.Query()

	for _, p := range []struct {
		name string
		dest *string
	}{
		{"application", &params.Application},
		{"field", &params.Field},
		{"value", &params.Value},
	} {
		if err := runtime.BindQueryParameter("form", true, true, p.name, query, p.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: p.name, Err: err})
			return
		}
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.Lookup(w, r, params)
	}))
	siw.wrap(handler).ServeHTTP(w, r)
}

// BulkLookup operation middleware
func (siw *ServerInterfaceWrapper) BulkLookup(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.BulkLookup)).ServeHTTP(w, r)
}

// HealthCheck operation middleware
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.HealthCheck)).ServeHTTP(w, r)
}

// Metrics operation middleware
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.Metrics)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) wrap(h http.Handler) http.Handler {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	return h
}

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/v1/lookup", wrapper.Lookup)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/v1/lookup/bulk", wrapper.BulkLookup)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})
	return r
}

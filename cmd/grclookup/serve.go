package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/config"
	logpkg "github.com/kailas-cloud/grclookup/internal/logger"
	"github.com/kailas-cloud/grclookup/internal/metrics"
	endpointrepo "github.com/kailas-cloud/grclookup/internal/repository/endpoint"
	metadatarepo "github.com/kailas-cloud/grclookup/internal/repository/metadata"
	valueslistrepo "github.com/kailas-cloud/grclookup/internal/repository/valueslist"
	"github.com/kailas-cloud/grclookup/internal/transport/archer"
	chiTransport "github.com/kailas-cloud/grclookup/internal/transport/chi"
	gen "github.com/kailas-cloud/grclookup/internal/transport/generated"
	"github.com/kailas-cloud/grclookup/internal/usecase/capability"
	healthuc "github.com/kailas-cloud/grclookup/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/grclookup/internal/usecase/lookup"
	"github.com/kailas-cloud/grclookup/internal/usecase/search"
	"github.com/kailas-cloud/grclookup/internal/version"
)

func newServeCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP lookup API",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(*env)
		},
	}
}

func runServe(env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting grclookup API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("archer_url", cfg.Archer.BaseURL),
	)

	// Register platform metrics explicitly (no init())
	metrics.RegisterArcherMetrics()

	ac, err := archer.NewClient(archer.Config{
		BaseURL:            cfg.Archer.BaseURL,
		Instance:           cfg.Archer.Instance,
		Username:           cfg.Archer.Username,
		UserDomain:         cfg.Archer.UserDomain,
		Password:           cfg.Archer.Password,
		SessionToken:       cfg.Archer.SessionToken,
		Timeout:            time.Duration(cfg.Archer.TimeoutSec) * time.Second,
		InsecureSkipVerify: cfg.Archer.InsecureSkipVerify,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("create platform client: %w", err)
	}

	loginCtx, cancelLogin := context.WithTimeout(context.Background(),
		time.Duration(cfg.Archer.TimeoutSec)*time.Second)
	err = ac.Login(loginCtx)
	cancelLogin()
	if err != nil {
		return fmt.Errorf("platform login: %w", err)
	}
	logger.Info("Platform session established")

	// Repositories cache per process; restart to pick up metadata changes.
	metaRepo := metadatarepo.New(ac, metrics.MetadataCacheTotal, logger)
	valuesRepo := valueslistrepo.New(ac, metrics.MetadataCacheTotal, logger)
	endpointRepo := endpointrepo.New(ac, metrics.MetadataCacheTotal, logger)
	probe := capability.New(ac, metrics.ProbeTotal, logger)

	fast := search.NewFast(ac).WithPageSize(cfg.Lookup.PageSize)
	legacy := search.NewLegacy(ac, endpointRepo).WithMaxQueryLength(cfg.Legacy.MaxQueryLength)

	lookupSvc := lookupuc.New(metaRepo, valuesRepo, probe, fast, legacy).
		WithConcurrency(cfg.Lookup.Concurrency).
		WithChunkSize(cfg.Lookup.ChunkSize).
		WithAmbiguityCounter(metrics.AmbiguousMatchesTotal)
	healthSvc := healthuc.New(ac, ac)

	server := chiTransport.NewServer(lookupSvc, healthSvc, logger).
		WithMaxBulkItems(cfg.Lookup.MaxBulkItems)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	gen.HandlerWithOptions(server, gen.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(gen.ErrorResponse{
				Code:    gen.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(gen.ErrorResponse{
						Code:    gen.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

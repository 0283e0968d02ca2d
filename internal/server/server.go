// Package server provides the HTTP API that triggers portfolio generation runs and serves the
// job-status read model.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/logging"
	"github.com/jonathan/portfolio-generator/internal/pipeline"
	"github.com/jonathan/portfolio-generator/internal/server/middleware"
	"github.com/jonathan/portfolio-generator/internal/server/ratelimit"
	"github.com/jonathan/portfolio-generator/internal/types"
)

// Generator runs a generation job
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request, opts pipeline.RunOptions) (*pipeline.Result, error)
}

// JobReader reads generation jobs
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*types.GenerationJob, error)
	LatestJob(ctx context.Context, portfolioID uuid.UUID) (*types.GenerationJob, error)
}

// PortfolioReader reads portfolios for ownership checks
type PortfolioReader interface {
	GetPortfolio(ctx context.Context, id uuid.UUID) (*types.Portfolio, error)
}

// Config holds server configuration
type Config struct {
	Port int
}

// Dependencies holds the collaborators of a Server
type Dependencies struct {
	Generator   Generator
	Jobs        JobReader
	Portfolios  PortfolioReader
	JWT         *JWTService
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
	// OnShutdown runs after the listener has drained, e.g. to close the database pool
	OnShutdown func()
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	generator   Generator
	jobs        JobReader
	portfolios  PortfolioReader
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
	onShutdown  func()
	handler     http.Handler

	// background tracks runs started by the non-streaming trigger
	background chan struct{}
}

// New creates a new server instance
func New(cfg Config, deps Dependencies) *Server {
	s := &Server{
		generator:   deps.Generator,
		jobs:        deps.Jobs,
		portfolios:  deps.Portfolios,
		jwtService:  deps.JWT,
		rateLimiter: deps.RateLimiter,
		logger:      logging.OrNop(deps.Logger),
		onShutdown:  deps.OnShutdown,
		background:  make(chan struct{}, maxBackgroundRuns),
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /portfolios/{id}/generate", auth(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("POST /portfolios/{id}/generate/stream", auth(http.HandlerFunc(s.handleGenerateStream)))
	mux.Handle("GET /portfolios/{id}/jobs/latest", auth(http.HandlerFunc(s.handleLatestJob)))
	mux.Handle("GET /jobs/{id}", auth(http.HandlerFunc(s.handleGetJob)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // streamed generation runs hold the connection
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled or the process receives SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.waitBackground(shutdownCtx)

	s.rateLimiter.Stop()
	if s.onShutdown != nil {
		s.onShutdown()
	}
	s.logger.Info("server stopped")
	return nil
}

// waitBackground blocks until every background run has finished or ctx is done.
func (s *Server) waitBackground(ctx context.Context) {
	for i := 0; i < cap(s.background); i++ {
		select {
		case s.background <- struct{}{}:
		case <-ctx.Done():
			s.logger.Warn("shutdown timed out with generation runs in flight",
				zap.Int("in_flight", cap(s.background)-i))
			return
		}
	}
}

// ---- Middleware

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// ---- Responses

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes err with the status HTTPStatus maps it to
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.jsonResponse(w, status, errorBody(err))
}

// errorBody is the JSON error payload, carrying the pipeline error kind when there is one
func errorBody(err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		body["error_kind"] = string(pe.Kind)
	}
	return body
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// Package server provides the HTTP REST API for the job board.
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

	"github.com/jonathan/career-code/internal/config"
	"github.com/jonathan/career-code/internal/jobboard"
	"github.com/jonathan/career-code/internal/server/middleware"
	"github.com/jonathan/career-code/internal/server/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes bounds request bodies accepted by write endpoints
const maxBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	jobs           *jobboard.JobService
	applications   *jobboard.ApplicationService
	jwtService     *JWTService
	jwtConfig      *config.JWTConfig
	identities     middleware.IdentityVerifier
	auth           *middleware.Authenticator
	rateLimiter    *ratelimit.Limiter
	metrics        *metrics
	tracer         trace.Tracer
	allowedOrigins map[string]bool
	onShutdown     []func(context.Context) error
}

// Config holds server configuration and its collaborators
type Config struct {
	Address        string
	AllowedOrigins []string
	JWT            *config.JWTConfig
	RateLimit      *ratelimit.Config
	Jobs           *jobboard.JobService
	Applications   *jobboard.ApplicationService
	// Identities verifies bearer identity tokens; nil disables POST /jwt
	// and bearer authentication
	Identities middleware.IdentityVerifier
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Jobs == nil || cfg.Applications == nil {
		return nil, fmt.Errorf("job and application services are required")
	}
	if cfg.JWT == nil {
		return nil, fmt.Errorf("JWT configuration is required")
	}

	s := &Server{
		jobs:           cfg.Jobs,
		applications:   cfg.Applications,
		jwtConfig:      cfg.JWT,
		jwtService:     NewJWTService(cfg.JWT),
		identities:     cfg.Identities,
		rateLimiter:    ratelimit.NewLimiter(cfg.RateLimit),
		metrics:        newMetrics(),
		tracer:         otel.Tracer("github.com/jonathan/career-code/internal/server"),
		allowedOrigins: make(map[string]bool, len(cfg.AllowedOrigins)),
	}
	for _, origin := range cfg.AllowedOrigins {
		s.allowedOrigins[origin] = true
	}
	s.auth = middleware.NewAuthenticator(cfg.JWT.CookieName, s.jwtService.AsTokenValidator(), cfg.Identities)

	requireAuth := middleware.AuthMiddleware(s.auth)
	optionalAuth := middleware.OptionalAuthMiddleware(s.auth)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.metricsHandler())

	// Session endpoints
	mux.HandleFunc("POST /jwt", s.handleIssueToken)
	mux.HandleFunc("POST /logout", s.handleLogout)

	// Job endpoints
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.Handle("GET /jobs/applications", requireAuth(http.HandlerFunc(s.handleListOwnerJobs)))
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.Handle("POST /jobs", optionalAuth(http.HandlerFunc(s.handleCreateJob)))

	// Application endpoints
	mux.Handle("GET /applications", requireAuth(http.HandlerFunc(s.handleListApplications)))
	mux.Handle("GET /applications/job/{job_id}", requireAuth(http.HandlerFunc(s.handleListJobApplications)))
	mux.HandleFunc("POST /applications", s.handleSubmitApplication)
	mux.Handle("PATCH /applications/{id}", optionalAuth(http.HandlerFunc(s.handleUpdateApplicationStatus)))

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.withTracing(s.metrics.withHTTPMetrics(s.withLogging(s.withRateLimit(s.withCORS(mux))))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// OnShutdown registers fn to run after the HTTP server has drained
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()

	for _, fn := range s.onShutdown {
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown hook failed")
		}
	}
	log.Info().Msg("server stopped")
	return nil
}

// withCORS allows credentialed requests from the configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Route templates keep unmatched paths like /jobs/{id} to one bucket per client
		route := routeLabel(r.URL.Path)
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), route, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.metrics.rateLimitRejected.WithLabelValues(route).Inc()
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging attaches a request-scoped zerolog logger and writes one
// access log line per request
func (s *Server) withLogging(next http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
	chain := hlog.NewHandler(log.Logger)(
		hlog.RemoteAddrHandler("ip")(
			hlog.RequestIDHandler("req_id", "X-Request-Id")(
				access(next),
			),
		),
	)
	return chain
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, code, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: code, Message: message})
}

// decodeJSON decodes a bounded request body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &jobboard.ErrValidation{Field: "(root)", Message: "invalid JSON body"}
	}
	return nil
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr.
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
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	zerolog.Ctx(r.Context()).Warn().
		Str("client", s.extractClientID(r)).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

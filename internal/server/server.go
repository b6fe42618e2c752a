// Package server provides the HTTP REST API for the provider matcher.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/config"
	"github.com/jonathan/provider-matcher/internal/matching"
	"github.com/jonathan/provider-matcher/internal/observability"
	"github.com/jonathan/provider-matcher/internal/server/middleware"
	"github.com/jonathan/provider-matcher/internal/server/ratelimit"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	matcher     *matching.Matcher
	rateLimiter *ratelimit.Limiter
	authHandler *AuthHandler
	jwtService  *JWTService
	origins     []string
	logger      *zap.Logger
}

// Config holds server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
	// Access is the shared-secret gate; nil or disabled leaves the API open.
	Access *config.AccessConfig
	// JWT is required when Access is enabled.
	JWT       *config.JWTConfig
	RateLimit *ratelimit.Config
	// WriteTimeout must exceed the LLM request timeout.
	WriteTimeout time.Duration
}

// New creates a new server instance
func New(cfg Config, matcher *matching.Matcher, logger *zap.Logger) (*Server, error) {
	if matcher == nil {
		return nil, fmt.Errorf("matcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Access.Enabled() && cfg.JWT == nil {
		return nil, fmt.Errorf("JWT configuration is required when the access gate is enabled")
	}

	s := &Server{
		matcher:     matcher,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		origins:     cfg.AllowedOrigins,
		logger:      logger,
	}
	if cfg.Access.Enabled() {
		s.jwtService = NewJWTService(cfg.JWT)
		s.authHandler = NewAuthHandler(cfg.Access, s.jwtService, logger)
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = matching.DefaultRequestTimeout + 30*time.Second
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	protect := func(h http.HandlerFunc) http.Handler { return h }
	if s.jwtService != nil {
		auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
		protect = func(h http.HandlerFunc) http.Handler { return auth(h) }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.authHandler != nil {
		mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	}
	mux.Handle("GET /stats", protect(s.handleStats))
	mux.Handle("GET /directors", protect(s.handleListDirectors))
	mux.Handle("GET /nurses", protect(s.handleListNurses))
	mux.Handle("POST /match/director", protect(s.handleMatchDirector))
	mux.Handle("POST /match/nurse", protect(s.handleMatchNurse))
	mux.Handle("POST /match/manual", protect(s.handleMatchManual))

	return s.withRequestID(s.withLogging(s.withRateLimit(s.withCORS(mux))))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()), zap.Bool("access_gate", s.jwtService != nil))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withRequestID assigns a request id and a request-scoped logger.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := s.logger.With(zap.String("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(observability.WithLogger(r.Context(), logger)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging logs one structured line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_ip", clientIP(r)),
		}
		logger := observability.FromContext(r.Context())
		if status >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
		} else {
			logger.Info("request completed", fields...)
		}
	})
}

// withCORS adds CORS headers for allowed origins ("*" allows any).
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their token bucket with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(info.RetryAfter.Seconds()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		observability.FromContext(r.Context()).Warn("rate limit exceeded",
			zap.String("path", r.URL.Path),
			zap.Int("limit", info.Limit),
			zap.Int("retry_after_seconds", retryAfter),
		)
		writeJSON(w, s.logger, http.StatusTooManyRequests, ErrorResponse{
			Error:   "rate_limit_exceeded",
			Message: "Rate limit exceeded. Please try again later.",
		})
	})
}

// clientIP uses the connection address; forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps err to a status and error body.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	writeJSON(w, logger, HTTPStatus(err), toErrorResponse(err))
}

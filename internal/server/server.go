package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/cranium/internal/advisory"
	"github.com/jonathan/cranium/internal/config"
	"github.com/jonathan/cranium/internal/db"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/server/middleware"
	"github.com/jonathan/cranium/internal/server/ratelimit"
)

// Options carries the collaborators a Server may use. Every field is optional.
type Options struct {
	// DB lets sessions load a stored profile by user id.
	DB *db.DB
	// Cache mirrors session state; without it sessions cannot be restored.
	Cache persistence.Cache
	// Advisor enables advisory evaluation for every session.
	Advisor advisory.Advisor
	// JWT identifies session owners. Without it every caller is anonymous.
	JWT       *JWTService
	RateLimit *ratelimit.Config
	Logger    *log.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         config.Config
	db          *db.DB
	cache       persistence.Cache
	advisor     advisory.Advisor
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	sessions    *sessionRegistry
	logger      *log.Logger
}

// New creates a new server instance
func New(cfg config.Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.RateLimit == nil {
		rl, err := ratelimit.FromEnv()
		if err != nil {
			opts.Logger.Printf("Using default rate limits: %v", err)
			rl = ratelimit.DefaultConfig()
		}
		opts.RateLimit = rl
	}

	s := &Server{
		cfg:         cfg,
		db:          opts.DB,
		cache:       opts.Cache,
		advisor:     opts.Advisor,
		jwtService:  opts.JWT,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		sessions:    newSessionRegistry(cfg.SessionTTL()),
		logger:      opts.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Sessions
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetState)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("PUT /sessions/{id}/target-role", s.handleSetTargetRole)
	mux.HandleFunc("POST /sessions/{id}/restore", s.handleRestore)
	mux.HandleFunc("GET /sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /sessions/{id}/export", s.handleExport)

	// Drag protocol
	mux.HandleFunc("POST /sessions/{id}/drag/start", s.handleDragStart)
	mux.HandleFunc("POST /sessions/{id}/drag/over", s.handleDragOver)
	mux.HandleFunc("POST /sessions/{id}/drag/end", s.handleDragEnd)
	mux.HandleFunc("POST /sessions/{id}/drag/cancel", s.handleDragCancel)
	mux.HandleFunc("POST /sessions/{id}/move", s.handleMove)

	// Edits
	mux.HandleFunc("GET /sessions/{id}/items/{item_id}", s.handleGetItem)
	mux.HandleFunc("PATCH /sessions/{id}/items/{item_id}", s.handleSetEdit)
	mux.HandleFunc("POST /sessions/{id}/items/{item_id}/save", s.handleSaveEdit)
	mux.HandleFunc("DELETE /sessions/{id}/items/{item_id}/edit", s.handleDiscardEdit)
	mux.HandleFunc("GET /sessions/{id}/items/{item_id}/advice-request", s.handleAdviceRequest)

	// Custom sections
	mux.HandleFunc("POST /sessions/{id}/sections", s.handleAddSection)
	mux.HandleFunc("POST /sessions/{id}/sections/{section_id}/items", s.handleAddSectionItem)
	mux.HandleFunc("PUT /sessions/{id}/sections/{section_id}/items/{item_id}", s.handleEditSectionItem)
	mux.HandleFunc("DELETE /sessions/{id}/sections/{section_id}", s.handleRequestDeleteSection)
	mux.HandleFunc("DELETE /sessions/{id}/sections/{section_id}/items/{item_id}", s.handleRequestDeleteItem)
	mux.HandleFunc("POST /sessions/{id}/delete/confirm", s.handleConfirmDelete)
	mux.HandleFunc("POST /sessions/{id}/delete/cancel", s.handleCancelDelete)

	// Alerts
	mux.HandleFunc("GET /sessions/{id}/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /sessions/{id}/alerts/{item_id}/toggle", s.handleToggleAlert)
	mux.HandleFunc("DELETE /sessions/{id}/alerts/{item_id}", s.handleDismissAlert)

	var handler http.Handler = mux
	if s.jwtService != nil {
		handler = middleware.OptionalAuth(s.jwtService.AsTokenValidator())(handler)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(handler))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	s.logger.Println("Server stopped")
	return nil
}

// Close ends every session, draining pending advisory and cache work, and
// stops the rate limiter.
func (s *Server) Close() {
	for _, ws := range s.sessions.closeAll() {
		ws.Wait()
		ws.Close()
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
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
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.cfg.Verbose {
			s.logger.Printf("[%s] %s %s completed in %v", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.len(),
	}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure writes err with the status HTTPStatus assigns it. Server-side
// failures are logged and their detail withheld.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Printf("[%s] %s failed: %v", r.Method, r.URL.Path, err)
		s.errorResponse(w, status, "internal error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
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
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests. Please try again later.",
		"retry_after": retryAfter,
	})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/notify"
	"github.com/jonathan/medcontent/internal/observability"
	"github.com/jonathan/medcontent/internal/persuasion"
	"github.com/jonathan/medcontent/internal/pipeline"
	"github.com/jonathan/medcontent/internal/repair"
	"github.com/jonathan/medcontent/internal/server/middleware"
	"github.com/jonathan/medcontent/internal/server/ratelimit"
	"github.com/jonathan/medcontent/internal/types"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 20
	maxListLimit     = 100
)

// PostService runs pipelines and reads posts on behalf of an owner.
// *pipeline.Orchestrator implements it.
type PostService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req types.CreateRequest, opts ...pipeline.RunOption) (*types.Post, error)
	Rewrite(ctx context.Context, ownerID, postID uuid.UUID, cfg *types.GenerationConfig, opts ...pipeline.RunOption) (*types.Post, error)
	GetPost(ctx context.Context, ownerID, postID uuid.UUID) (*types.Post, error)
	ListPosts(ctx context.Context, ownerID uuid.UUID, limit uint64) ([]types.Post, error)
	ListVersions(ctx context.Context, ownerID, postID uuid.UUID) ([]types.Version, error)
	UpdateStatus(ctx context.Context, ownerID, postID uuid.UUID, status types.Status) error
	Profile(ctx context.Context, ownerID uuid.UUID) (*types.StyleProfile, error)
	SaveProfile(ctx context.Context, profile *types.StyleProfile) error
}

// Deps are the collaborators of a Server. Posts, Registry and Tokens are required.
type Deps struct {
	Posts    PostService
	Registry *notify.Registry
	Tokens   middleware.TokenValidator

	Scanner *compliance.Scanner
	Fixer   *repair.Fixer
	Scorer  *persuasion.Scorer
	Limiter *ratelimit.Limiter
	Metrics *observability.Metrics
	// Gatherer backs /metrics; the endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// Health reports whether dependencies (the database) are reachable.
	Health func(ctx context.Context) error

	BatchLimit int
	QueueSize  int
	// HeartbeatInterval spaces keep-alives on event streams.
	HeartbeatInterval time.Duration
	// AllowedOrigins are websocket origin patterns besides the request host.
	AllowedOrigins []string
}

// Server is the HTTP API.
type Server struct {
	posts     PostService
	registry  *notify.Registry
	scanner   *compliance.Scanner
	fixer     *repair.Fixer
	scorer    *persuasion.Scorer
	limiter   *ratelimit.Limiter
	metrics   *observability.Metrics
	logger    *slog.Logger
	health    func(ctx context.Context) error
	batch     int
	queueSize int
	heartbeat time.Duration
	origins   []string

	handler http.Handler
	// background tracks pipelines started by async requests.
	background sync.WaitGroup
}

// New creates a server and its routes.
func New(d Deps) *Server {
	s := &Server{
		posts:     d.Posts,
		registry:  d.Registry,
		scanner:   d.Scanner,
		fixer:     d.Fixer,
		scorer:    d.Scorer,
		limiter:   d.Limiter,
		metrics:   d.Metrics,
		logger:    d.Logger,
		health:    d.Health,
		batch:     d.BatchLimit,
		queueSize: d.QueueSize,
		heartbeat: d.HeartbeatInterval,
		origins:   d.AllowedOrigins,
	}
	if s.scanner == nil {
		s.scanner = compliance.NewScanner(nil)
	}
	if s.fixer == nil {
		s.fixer = repair.NewFixer(s.scanner)
	}
	if s.scorer == nil {
		s.scorer = persuasion.NewScorer()
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{})
	}
	if s.logger == nil {
		s.logger = observability.NopLogger()
	}
	if s.queueSize < 1 {
		s.queueSize = 64
	}
	if s.heartbeat <= 0 {
		s.heartbeat = 25 * time.Second
	}

	api := http.NewServeMux()

	// Posts
	api.HandleFunc("POST /posts", s.limited(s.handleCreatePost))
	api.HandleFunc("GET /posts", s.handleListPosts)
	api.HandleFunc("GET /posts/{id}", s.handleGetPost)
	api.HandleFunc("POST /posts/{id}/rewrite", s.limited(s.handleRewritePost))
	api.HandleFunc("GET /posts/{id}/versions", s.handleListVersions)
	api.HandleFunc("PATCH /posts/{id}/status", s.handleUpdateStatus)

	// Writing-style profile
	api.HandleFunc("GET /profile", s.handleGetProfile)
	api.HandleFunc("PUT /profile", s.handlePutProfile)

	// Stateless checks
	api.HandleFunc("POST /compliance/scan", s.handleScan)
	api.HandleFunc("POST /compliance/fix", s.handleFix)
	api.HandleFunc("POST /compliance/batch", s.handleBatchScan)
	api.HandleFunc("POST /persuasion/score", s.handleScore)

	// Progress
	api.HandleFunc("GET /events", s.handleEvents)
	api.HandleFunc("GET /ws", s.handleWebSocket)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.handleHealth)
	if d.Gatherer != nil {
		root.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	root.Handle("/", middleware.AuthMiddleware(d.Tokens)(api))

	s.handler = s.withLogging(s.withCORS(s.metrics.Instrument(root)))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully and waits
// for background pipelines, both bounded by shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, readTimeout, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: ?wait=true requests and event streams are long-lived.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.Wait(shutdownCtx); err != nil {
		s.logger.Warn("background pipelines still running at shutdown", "error", err)
	}
	s.limiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// Wait blocks until background pipelines finish or ctx is done.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runAsync starts fn detached from the request so a disconnecting client does not abort it.
func (s *Server) runAsync(r *http.Request, taskID string, fn func(ctx context.Context) error) {
	ctx := context.WithoutCancel(r.Context())
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := fn(ctx); err != nil {
			s.logger.Warn("background pipeline failed", "task_id", taskID, "error", err)
		}
	}()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
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
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

// limited applies the per-owner rate limit to a generation endpoint.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := middleware.GetOwnerID(r)
		if err != nil {
			s.jsonResponse(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}

		info := s.limiter.Allow(ownerID.String())
		s.setRateLimitHeaders(w, info)
		if !info.Allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next(w, r)
	}
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Rate limit exceeded. Please try again later.",
		"limit":       info.Limit,
		"retry_after": retryAfter,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes err with the status HTTPStatus assigns it.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.jsonResponse(w, status, newErrorBody(err))
}

// decodeJSON reads a JSON body into v. An empty body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return &pipeline.ValidationError{Message: "invalid JSON body", Cause: err}
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &pipeline.ValidationError{
			Message: "invalid post id",
			Fields:  []pipeline.FieldError{{Field: "id", Rule: "uuid"}},
			Cause:   err,
		}
	}
	return id, nil
}

// listLimit reads ?limit=, defaulting and capping it.
func listLimit(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, &pipeline.ValidationError{
			Message: "invalid limit",
			Fields:  []pipeline.FieldError{{Field: "limit", Rule: "min=1"}},
		}
	}
	return min(n, maxListLimit), nil
}

// waitRequested reports whether the client asked to block until the pipeline finishes.
func waitRequested(r *http.Request) bool {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return wait
}

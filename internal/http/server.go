// Package http is the local JSON gateway: it exposes the write path and
// the aggregate views over a small REST surface for whatever UI sits in
// front of it.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "moneta/internal/log"
	"moneta/internal/ledger"
	"moneta/internal/session"
	"moneta/internal/views"
)

// Recorder is the transaction write path.
type Recorder interface {
	Record(ctx context.Context, input ledger.Input, lookup ledger.Lookup) (ledger.Result, error)
}

// SnapshotLoader fetches the aggregate snapshot from the backend.
type SnapshotLoader interface {
	Load(ctx context.Context, userUUID uuid.UUID, accountUUIDs []uuid.UUID) (*views.Snapshot, error)
}

// SnapshotStore persists the last good snapshot so views keep rendering
// while the backend is down.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *views.Snapshot) error
	LoadSnapshot(ctx context.Context) (*views.Snapshot, error)
}

type Server struct {
	http.Server
	logger   *applog.Logger
	sessions *session.Store
	recorder Recorder
	loader   SnapshotLoader
	store    SnapshotStore // nil disables the durable fallback

	rateLimiter *rateLimiter
	snapCache   *lruCache[*views.Snapshot]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, logger *applog.Logger, sessions *session.Store, recorder Recorder, loader SnapshotLoader, store SnapshotStore) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:           logger.WithComponent(applog.ComponentHTTP),
		sessions:         sessions,
		recorder:         recorder,
		loader:           loader,
		store:            store,
		rateLimiter:      newRateLimiter(),
		snapCache:        newLRUCache[*views.Snapshot](10, 2*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /views/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("GET /views/budgets", s.withMiddleware(s.handleBudgets))
	mux.HandleFunc("GET /views/goals", s.withMiddleware(s.handleGoals))
	mux.HandleFunc("GET /views/recurring", s.withMiddleware(s.handleRecurring))
	mux.HandleFunc("GET /reports/{year}/{month}", s.withMiddleware(s.handleReport))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.snapCache.CleanExpired(); cleaned > 0 {
				s.logger.Debug("Snapshot cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting for writes, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		applog.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once a session is hydrated: without one no
// backend call can be authenticated.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Current(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no session"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// snapshot returns the current aggregate snapshot: in-memory cache
// first, then a backend load, then the durable store as a stale
// fallback when the backend is unreachable.
func (s *Server) snapshot(ctx context.Context, refresh bool) (*views.Snapshot, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}

	key := sess.UserUUID.String()
	if !refresh {
		if snap, ok := s.snapCache.Get(key); ok {
			return snap, nil
		}
	}

	snap, err := s.loader.Load(ctx, sess.UserUUID, sess.AccountUUIDs)
	if err != nil {
		if s.store == nil {
			return nil, err
		}
		stale, loadErr := s.store.LoadSnapshot(ctx)
		if loadErr != nil {
			return nil, err
		}
		s.logger.WarnContext(ctx, "Serving stale snapshot, backend unreachable",
			applog.FieldError, err.Error(),
			"fetched_at", stale.FetchedAt.Format(time.RFC3339))
		return stale, nil
	}

	s.snapCache.Set(key, snap)
	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "Failed to persist snapshot", applog.FieldError, err.Error())
		}
	}
	return snap, nil
}

// invalidateSnapshot drops the cached snapshot after a write so the
// next view reflects it.
func (s *Server) invalidateSnapshot() {
	sess, err := s.sessions.Current()
	if err != nil {
		return
	}
	s.snapCache.Delete(sess.UserUUID.String())
}

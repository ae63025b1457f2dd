// Package server exposes the explore core over HTTP.
//
// Every request carries a navigable location as its query string, the
// same parameters the CLI "url" command prints. Requests that share an
// X-Houndview-Session header share one executor, so a newer request in a
// session supersedes an older one still in flight.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/houndview/pkg/cache"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graph"
)

// SessionHeader groups requests onto one executor.
const SessionHeader = "X-Houndview-Session"

// maxSessions bounds the session table. The oldest session is dropped
// when it is full.
const maxSessions = 256

// ItemFetcher loads a single graph item directly from the graph store.
type ItemFetcher interface {
	FetchItem(ctx context.Context, itemID string) (graph.GraphData, error)
}

// Options configures [New]. Transport is required.
type Options struct {
	Addr      string
	Transport explore.Transport
	Cache     cache.Cache
	TTL       time.Duration
	Retry     int

	// Keyer scopes cache keys. Defaults to [cache.DefaultKeyer].
	Keyer cache.Keyer

	// Items enables ?fetch=true on /api/items. Optional.
	Items ItemFetcher

	// Gatherer serves /metrics. Defaults to the Prometheus default registry.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// Server is the HTTP service.
type Server struct {
	opts   Options
	logger *log.Logger
	keyer  cache.Keyer

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	exec     *explore.Executor
	lastUsed time.Time
}

// New creates a server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	return &Server{
		opts:     opts,
		logger:   logger,
		keyer:    opts.Keyer,
		sessions: make(map[string]*session),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/explore", s.handleExplore)
		r.Get("/explore/table", s.handleSectionTable)
		r.Get("/items/{itemID}", s.handleItem)
		r.Get("/edge-filters", s.handleEdgeFilters)
		r.Get("/sections/{kind}", s.handleSections)
	})
	return r
}

// Serve listens on Options.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info("listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// executor returns the session's executor, or a fresh one when the
// request names no session.
func (s *Server) executor(r *http.Request) *explore.Executor {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return s.newExecutor()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastUsed = time.Now()
		return sess.exec
	}
	if len(s.sessions) >= maxSessions {
		s.evictOldestLocked()
	}
	sess := &session{exec: s.newExecutor(), lastUsed: time.Now()}
	s.sessions[id] = sess
	return sess.exec
}

func (s *Server) evictOldestLocked() {
	var oldest string
	var at time.Time
	for id, sess := range s.sessions {
		if oldest == "" || sess.lastUsed.Before(at) {
			oldest, at = id, sess.lastUsed
		}
	}
	if sess, ok := s.sessions[oldest]; ok {
		sess.exec.Cancel()
		delete(s.sessions, oldest)
	}
}

func (s *Server) newExecutor() *explore.Executor {
	e := explore.NewExecutor(s.opts.Transport, s.opts.Cache, s.keyer, s.logger)
	e.TTL = s.opts.TTL
	return e
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Package server exposes the pipeline over HTTP.
//
// # Routes
//
//	POST   /api/view               layout JSON (+ interaction view) for posted options
//	POST   /api/render/{format}    one artifact for posted options
//	GET    /api/datasets           list stored datasets
//	POST   /api/datasets           store a dataset
//	GET    /api/datasets/{id}      fetch a dataset
//	PUT    /api/datasets/{id}      replace a dataset and notify live pages
//	DELETE /api/datasets/{id}      delete a dataset
//	GET    /datasets/{id}          rendered dataset, HTML by default
//	GET    /ws?dataset={id}        live update stream
//	GET    /metrics                Prometheus metrics
//	GET    /healthz                liveness
//
// With rate_limit.requests_per_second set, /api routes are throttled per
// client address and answer 429 with code RATE_LIMITED when over the limit.
//
// Request bodies for /api/view and /api/render mirror the widget attributes
// (see pipeline.Options); absent fields keep their defaults. Errors are
// returned as {"error": ..., "code": ...} with 400 for validation failures,
// 404 for missing datasets and 500 otherwise.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/entitygraph/pkg/buildinfo"
	"github.com/matzehuels/entitygraph/pkg/cache"
	"github.com/matzehuels/entitygraph/pkg/observability"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
	"github.com/matzehuels/entitygraph/pkg/store"
	"github.com/matzehuels/entitygraph/pkg/style"
)

// Server serves views, artifacts and datasets.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	store   store.Store
	hub     *Hub
	metrics *Metrics
	logger  *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRunner sets the pipeline runner.
func WithRunner(r *pipeline.Runner) Option { return func(s *Server) { s.runner = r } }

// WithStore sets the dataset store.
func WithStore(st store.Store) Option { return func(s *Server) { s.store = st } }

// WithMetrics sets the metrics registry.
func WithMetrics(m *Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// New creates a server. Without options it uses an uncached runner, an
// in-memory store and a private metrics registry.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.hub = NewHub(cfg.AllowedOrigins, s.logger)
	return s
}

// Open creates a server with the cache and store backends named in cfg and
// registers its metrics as the global observability hooks.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	c, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		c.Close()
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Scope+":")
	}
	m := NewMetrics()
	m.Register()
	return New(cfg,
		WithRunner(pipeline.NewRunner(c, keyer, logger)),
		WithStore(st),
		WithMetrics(m),
		WithLogger(logger),
	), nil
}

func openCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cfg.RedisURL, cache.WithRedisPrefix("entitygraph:"))
	case "none":
		return cache.NewNullCache(), nil
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := cache.DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}

func openStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI,
			store.WithDatabase(cfg.Database),
			store.WithCollection(cfg.Collection))
	case "file":
		return store.NewFileStore(cfg.Dir)
	default:
		return store.NewMemoryStore(), nil
	}
}

// Hub returns the live update hub.
func (s *Server) Hub() *Hub { return s.hub }

// Store returns the dataset store.
func (s *Server) Store() store.Store { return s.store }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(s.limit(newClientLimiter(s.cfg.RateLimit)))
		}
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/view", s.handleView)
		r.Post("/render/{format}", s.handleRender)

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", s.handleListDatasets)
			r.Post("/", s.handleCreateDataset)
			r.Get("/{id}", s.handleGetDataset)
			r.Put("/{id}", s.handleUpdateDataset)
			r.Delete("/{id}", s.handleDeleteDataset)
		})
	})
	r.Get("/datasets/{id}", s.handlePage)
	return r
}

// instrument reports each request to the server hooks, labelled by route
// pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Server().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully. When
// a watched data file is configured it is published first and republished
// on every change.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.cfg.Watch.DataFile != "" {
		if err := s.publishWatched(ctx); err != nil {
			return err
		}
		w, err := NewWatcher(
			[]string{s.cfg.Watch.DataFile, s.cfg.Watch.ConfigFile},
			s.cfg.Watch.Debounce, s.logger,
			func() {
				if err := s.publishWatched(ctx); err != nil {
					s.logger.Warn("republish failed", "err", err)
				}
			})
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// publishWatched stores the watched files as the watched dataset and
// notifies its live pages.
func (s *Server) publishWatched(ctx context.Context) error {
	data, err := os.ReadFile(s.cfg.Watch.DataFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.cfg.Watch.DataFile, err)
	}
	var configurations string
	if s.cfg.Watch.ConfigFile != "" {
		cfg, err := style.LoadFile(s.cfg.Watch.ConfigFile)
		if err != nil {
			s.logger.Warn("invalid configurations, using defaults", "file", s.cfg.Watch.ConfigFile, "err", err)
		} else {
			b, _ := cfg.Marshal()
			configurations = string(b)
		}
	}

	ds := &store.Dataset{
		ID:             s.cfg.Watch.DatasetID,
		Name:           s.cfg.Watch.DataFile,
		Data:           string(data),
		Configurations: configurations,
	}
	if err := s.store.Save(ctx, ds); err != nil {
		return err
	}
	n := s.hub.Broadcast(ds.ID)
	s.logger.Info("published dataset", "id", ds.ID, "file", s.cfg.Watch.DataFile, "clients", n)
	return nil
}

// Close releases the runner's cache and the store.
func (s *Server) Close() error {
	s.hub.Close()
	return stderrors.Join(s.runner.Close(), s.store.Close())
}

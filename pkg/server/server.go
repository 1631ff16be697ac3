// Package server exposes the studio over HTTP.
//
// Routes mirror the CLI: catalogue listing, normalization, the content
// panel, batched layout operations, exports, presets and apply. Errors
// are returned as {"error": CODE, "message": "...", "requestId": "..."}
// with the status derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/orchard/pkg/export"
	"github.com/matzehuels/orchard/pkg/normalize"
	"github.com/matzehuels/orchard/pkg/render"
	"github.com/matzehuels/orchard/pkg/store"
	"github.com/matzehuels/orchard/pkg/studio"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 60 * time.Second
	// DefaultMaxBody caps request bodies; records may embed data-URI images.
	DefaultMaxBody = 32 << 20
)

// Deps are the collaborators a server needs. Studio is required; the
// rest fall back to in-memory defaults.
type Deps struct {
	Studio     *studio.Studio
	Layouts    store.LayoutStore
	Exporter   *export.Exporter
	Normalizer *normalize.Normalizer
	Compositor *render.Compositor
	Logger     *log.Logger
}

// Server handles API requests.
type Server struct {
	studio     *studio.Studio
	layouts    store.LayoutStore
	exporter   *export.Exporter
	normalizer *normalize.Normalizer
	compositor *render.Compositor
	logger     *log.Logger
	maxBody    int64
	timeout    time.Duration
}

// Option customises a Server.
type Option func(*Server)

// WithMaxBody sets the request body limit in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a server.
func New(d Deps, opts ...Option) (*Server, error) {
	if d.Studio == nil {
		return nil, errors.New("server: studio is required")
	}
	s := &Server{
		studio:     d.Studio,
		layouts:    d.Layouts,
		exporter:   d.Exporter,
		normalizer: d.Normalizer,
		compositor: d.Compositor,
		logger:     d.Logger,
		maxBody:    DefaultMaxBody,
		timeout:    defaultTimeout,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.exporter == nil {
		s.exporter = export.NewExporter(nil, nil, s.logger)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.NewNormalizer(nil, nil, s.logger)
	}
	if s.compositor == nil {
		s.compositor = render.New(render.WithLogger(s.logger))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeErrorCode(w, req, http.StatusNotFound, "ROUTE_NOT_FOUND", "no route for "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeErrorCode(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method "+req.Method+" not allowed on "+req.URL.Path)
	})

	r.Get("/healthz", s.healthz)
	r.Route(apiPrefix, func(api chi.Router) {
		api.Get("/catalogue", s.catalogue)
		api.Post("/normalize", s.normalize)
		api.Post("/panel", s.panel)
		api.Post("/layout/apply", s.applyOps)
		api.Post("/export", s.export)
		api.Post("/export/preview", s.exportPreview)
		api.Get("/config", s.config)
		api.Route("/presets", func(p chi.Router) {
			p.Get("/", s.listPresets)
			p.Post("/", s.savePreset)
			p.Delete("/{id}", s.deletePreset)
		})
		api.Post("/apply", s.apply)
		api.Get("/apply/{reviewID}", s.getApplied)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

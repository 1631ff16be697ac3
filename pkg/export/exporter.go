package export

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/orchard/pkg/cache"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/observability"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/render"
)

// Default capture timings.
const (
	// DefaultSettleDelay is waited before a surface is captured.
	DefaultSettleDelay = 100 * time.Millisecond
	// DefaultCleanupDelay is waited after encoding before an off-screen
	// frame is released.
	DefaultCleanupDelay = time.Second
)

// SurfaceMissingMessage is the user-facing error for an absent surface.
const SurfaceMissingMessage = "Conteneur d'aperçu introuvable"

// Exporter runs export requests with caching.
//
// Exports on one Exporter are serialized; identical concurrent raster
// requests share a single capture. Both CLI and API use the same
// Exporter so that artifact cache keys agree.
type Exporter struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	settle  time.Duration
	cleanup time.Duration
	now     func() time.Time

	mu    sync.Mutex
	group singleflight.Group
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithSettleDelay sets the wait before capture. Negative values are
// treated as zero.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Exporter) { e.settle = max(d, 0) }
}

// WithCleanupDelay sets the wait before frames are released.
func WithCleanupDelay(d time.Duration) Option {
	return func(e *Exporter) { e.cleanup = max(d, 0) }
}

// WithClock sets the time source used for filenames and pdf dates.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExporter creates an exporter with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewExporter(c cache.Cache, keyer cache.Keyer, logger *log.Logger, opts ...Option) *Exporter {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Exporter{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		settle:  DefaultSettleDelay,
		cleanup: DefaultCleanupDelay,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export produces the artifact for r. Markdown is built from rec alone;
// other formats capture the surface selected by the scope.
func (e *Exporter) Export(ctx context.Context, r Request, surfaces SurfaceSet, rec record.Record) (*Artifact, error) {
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	hooks := observability.Export()
	start := time.Now()
	hooks.OnExportStart(ctx, string(r.Format), string(r.Scope))

	a, err := e.export(ctx, r, surfaces, rec)
	size := 0
	if a != nil {
		size = a.Size()
	}
	hooks.OnExportComplete(ctx, string(r.Format), string(r.Scope), size, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	e.Logger.Debug("export complete", "format", r.Format, "scope", r.Scope, "bytes", size, "cached", a.Cached)
	return a, nil
}

// ExportTo exports and delivers the artifact through sink.
func (e *Exporter) ExportTo(ctx context.Context, r Request, surfaces SurfaceSet, rec record.Record, sink Sink) (*Artifact, string, error) {
	a, err := e.Export(ctx, r, surfaces, rec)
	if err != nil {
		return nil, "", err
	}
	loc, err := sink.Deliver(ctx, a)
	if err != nil {
		return nil, "", err
	}
	return a, loc, nil
}

func (e *Exporter) export(ctx context.Context, r Request, surfaces SurfaceSet, rec record.Record) (*Artifact, error) {
	at := e.now()
	a := &Artifact{
		Filename:    Filename(rec, r, at),
		ContentType: r.Format.ContentType(),
		Format:      r.Format,
		Scope:       r.Scope,
	}
	if r.Format == FormatMarkdown {
		a.Data = Markdown(rec)
		return a, nil
	}

	surface, ok := surfaces.Lookup(r.SurfaceID())
	if !ok {
		return nil, errs.New(errs.ErrCodeSurfaceNotFound, SurfaceMissingMessage)
	}
	meta := DocumentMeta{Title: Title(rec, "Review"), Author: Author(rec), Created: at}

	fp := surface.Fingerprint()
	if fp == "" {
		data, err := e.produce(ctx, r, surface, meta)
		if err != nil {
			return nil, err
		}
		a.Data = data
		return a, nil
	}

	contentHash := fp
	if r.Format == FormatPDF {
		contentHash = cache.Hash([]byte(fp + "\x00" + meta.Title + "\x00" + meta.Author))
	}
	key := e.Keyer.ArtifactKey(contentHash, r.artifactKeyOpts())

	type result struct {
		data   []byte
		cached bool
	}
	v, err, _ := e.group.Do(key, func() (any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		cacheHooks := observability.Cache()
		if data, hit, err := e.Cache.Get(ctx, key); err == nil && hit {
			cacheHooks.OnCacheHit(ctx, "artifact")
			return result{data: data, cached: true}, nil
		} else if err != nil {
			e.Logger.Warn("artifact cache read failed", "error", err)
		}
		cacheHooks.OnCacheMiss(ctx, "artifact")

		data, err := e.produceLocked(ctx, r, surface, meta)
		if err != nil {
			return nil, err
		}
		if err := e.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			e.Logger.Warn("artifact cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "artifact", len(data))
		}
		return result{data: data}, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(result)
	a.Data, a.Cached = res.data, res.cached
	return a, nil
}

func (r Request) artifactKeyOpts() cache.ArtifactKeyOpts {
	spec := r.capture()
	opts := cache.ArtifactKeyOpts{
		Format:   string(r.Format),
		Scope:    string(r.Scope),
		Scale:    spec.Scale,
		Branding: spec.Branding,
	}
	switch r.Format {
	case FormatPNG:
		opts.Transparent = spec.Transparent
	case FormatJPEG:
		opts.Quality = r.Options.Quality
	case FormatPDF:
		opts.PageSize = r.Options.PageSize
		opts.Orientation = r.Options.Orientation
	}
	return opts
}

func (e *Exporter) produce(ctx context.Context, r Request, s Surface, meta DocumentMeta) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.produceLocked(ctx, r, s, meta)
}

// produceLocked captures s and encodes the frame. No bytes are returned
// unless encoding completed.
func (e *Exporter) produceLocked(ctx context.Context, r Request, s Surface, meta DocumentMeta) ([]byte, error) {
	frame, err := e.capture(ctx, s, r.capture())
	if err != nil {
		return nil, err
	}
	defer e.scheduleRelease(ctx, s.ID(), frame)

	var buf bytes.Buffer
	img := frame.Image()
	switch r.Format {
	case FormatPNG:
		err = encodePNG(&buf, img, r.Options.Transparent)
	case FormatJPEG:
		err = encodeJPEG(&buf, img, r.Options.Quality)
	case FormatPDF:
		err = encodePDF(&buf, img, r.Options, meta)
	default:
		return nil, errUnsupportedFormat(string(r.Format))
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeEncodeFailed, err, "encode %s", r.Format)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) capture(ctx context.Context, s Surface, spec captureSpec) (*render.Frame, error) {
	if err := sleep(ctx, e.settle); err != nil {
		return nil, err
	}
	start := time.Now()
	frame, err := s.Capture(ctx, render.Options{
		Width:       spec.Width,
		Height:      spec.Height,
		Scale:       spec.Scale,
		Transparent: spec.Transparent,
		Branding:    spec.Branding,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeEncodeFailed, err, "capture %s", s.ID())
	}
	observability.Export().OnCapture(ctx, s.ID(), frame.Width(), frame.Height(), time.Since(start))
	e.Logger.Debug("captured surface", "surface", s.ID(), "width", frame.Width(), "height", frame.Height(), "scale", frame.Scale())
	return frame, nil
}

// scheduleRelease frees frame after the cleanup delay. It never releases
// synchronously so that nothing still reading the frame sees it vanish.
func (e *Exporter) scheduleRelease(ctx context.Context, surface string, frame *render.Frame) {
	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(e.cleanup, func() {
		frame.Release()
		observability.Export().OnCleanup(ctx, surface)
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

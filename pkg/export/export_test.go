package export

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/orchard/pkg/cache"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/render"
)

type fakeSurface struct {
	id   string
	w, h int
	fp   string
	err  error

	mu       sync.Mutex
	captures int
	last     render.Options
	frames   []*render.Frame
}

func (s *fakeSurface) ID() string          { return s.id }
func (s *fakeSurface) Size() (int, int)    { return s.w, s.h }
func (s *fakeSurface) Fingerprint() string { return s.fp }

func (s *fakeSurface) Capture(ctx context.Context, o render.Options) (*render.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures++
	s.last = o
	if s.err != nil {
		return nil, s.err
	}
	w, h := s.w, s.h
	if o.Width > 0 && o.Height > 0 {
		w, h = o.Width, o.Height
	}
	scale := o.Scale
	if scale <= 0 {
		scale = 1
	}
	f := render.NewFrame(w, h, scale)
	img := f.Image()
	b := img.Bounds()
	for y := 0; y < b.Dy()/2; y++ {
		for x := 0; x < b.Dx()/2; x++ {
			img.Set(x, y, color.RGBA{200, 0, 0, 255})
		}
	}
	s.frames = append(s.frames, f)
	return f, nil
}

func (s *fakeSurface) captureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

func (s *fakeSurface) lastOptions() render.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func testSurfaces() (SurfaceSet, *fakeSurface, *fakeSurface) {
	preview := &fakeSurface{id: SurfacePreview, w: 40, h: 50, fp: "preview:abc"}
	canvas := &fakeSurface{id: SurfaceCanvas, w: 40, h: 40, fp: "canvas:abc"}
	return NewSurfaceSet(preview, canvas), preview, canvas
}

var fixedNow = time.UnixMilli(1700000000000)

func newTestExporter(t *testing.T, c cache.Cache) *Exporter {
	t.Helper()
	return NewExporter(c, nil, nil,
		WithSettleDelay(0),
		WithCleanupDelay(10*time.Millisecond),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestRequestDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		quality float64
		scale   float64
	}{
		{"zero", Options{}, 0.9, 2},
		{"low quality clamps", Options{Quality: 0.2}, 0.5, 2},
		{"high quality clamps", Options{Quality: 1.4}, 1, 2},
		{"scale kept", Options{Scale: 3}, 0.9, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Request{Format: FormatPNG, Options: tt.opts}
			r.SetDefaults()
			if err := r.Validate(); err != nil {
				t.Fatal(err)
			}
			if r.Options.Quality != tt.quality || r.Options.Scale != tt.scale {
				t.Errorf("quality, scale = %v, %v, want %v, %v", r.Options.Quality, r.Options.Scale, tt.quality, tt.scale)
			}
			if r.Scope != ScopeFull || r.Options.PageSize != "a4" || r.Options.Orientation != "portrait" {
				t.Errorf("defaults = %+v", r)
			}
		})
	}

	if d := DefaultOptions(); !d.IncludeBranding {
		t.Error("branding should default to included")
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		code errs.Code
	}{
		{"format", Request{Format: "gif"}, errs.ErrCodeInvalidFormat},
		{"scope", Request{Format: FormatPNG, Scope: "poster"}, errs.ErrCodeInvalidScope},
		{"scale", Request{Format: FormatPNG, Options: Options{Scale: 5}}, errs.ErrCodeInvalidOption},
		{"page", Request{Format: FormatPDF, Options: Options{PageSize: "b9"}}, errs.ErrCodeInvalidOption},
		{"orientation", Request{Format: FormatPDF, Options: Options{Orientation: "diagonal"}}, errs.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.req
			r.SetDefaults()
			if err := r.Validate(); errs.GetCode(err) != tt.code {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}

	err := Request{Format: "gif"}.Validate()
	if !strings.HasPrefix(errs.UserMessage(err), "Format non supporté") {
		t.Errorf("UserMessage = %q", errs.UserMessage(err))
	}
}

func TestParseFormatAndScope(t *testing.T) {
	formats := map[string]Format{"png": FormatPNG, "JPG": FormatJPEG, "jpeg": FormatJPEG, "pdf": FormatPDF, "md": FormatMarkdown, "markdown": FormatMarkdown}
	for in, want := range formats {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("svg"); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(svg) = %v", err)
	}

	scopes := map[string]Scope{"": ScopeFull, "canvas": ScopeCanvas, "openGraph": ScopeSocial, "og": ScopeSocial, "social": ScopeSocial}
	for in, want := range scopes {
		if got, err := ParseScope(in); err != nil || got != want {
			t.Errorf("ParseScope(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
}

func TestMarkdownScenario(t *testing.T) {
	rec := record.Record{"title": "X", "rating": 4.0, "effects": []any{"Calm"}, "aromas": []any{}}

	// No surfaces at all: markdown must not need one.
	a, err := newTestExporter(t, nil).Export(context.Background(), NewRequest(FormatMarkdown, ScopeFull), nil, rec)
	if err != nil {
		t.Fatal(err)
	}
	md := string(a.Data)
	for _, want := range []string{"# X\n", "**Note:** ★★★★☆ (4/5)", "## Effets\n\n- Calm\n", "**Auteur:** Orchard Studio\n", "---\n\n" + Attribution + "\n"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Arômes") {
		t.Errorf("empty aromas should not produce a section:\n%s", md)
	}
	if a.Filename != "review-X-1700000000000.md" || a.ContentType != "text/markdown; charset=utf-8" {
		t.Errorf("artifact = %q %q", a.Filename, a.ContentType)
	}
}

func TestMarkdownSections(t *testing.T) {
	rec := record.Record{
		"title":       "Blue Dream",
		"rating":      3.5,
		"category":    "Fleur",
		"ownerName":   "alice",
		"date":        "2024-03-09T10:00:00Z",
		"thcLevel":    22.0,
		"description": "Douce.",
		"aromas":      []any{"Fruité", map[string]any{"name": "Pin"}},
		"tags":        []any{"indica", "soir"},
	}
	md := string(Markdown(rec))
	want := "# Blue Dream\n\n" +
		"**Note:** ★★★☆☆ (3.5/5)\n\n" +
		"**Catégorie:** Fleur\n\n" +
		"**Auteur:** alice\n" +
		"**Date:** 09/03/2024\n\n" +
		"## Composition\n\n- **THC:** 22%\n\n" +
		"## Description\n\nDouce.\n\n" +
		"## Arômes\n\n- Fruité\n- Pin\n\n" +
		"## Tags\n\n#indica #soir\n\n" +
		"---\n\n" + Attribution + "\n"
	if md != want {
		t.Errorf("Markdown() =\n%s\nwant\n%s", md, want)
	}

	if got := string(Markdown(record.Record{})); !strings.HasPrefix(got, "# Review\n\n**Auteur:**") {
		t.Errorf("empty record markdown = %q", got)
	}
}

func TestAuthor(t *testing.T) {
	tests := []struct {
		rec  record.Record
		want string
	}{
		{record.Record{"ownerName": "owner", "author": "a"}, "owner"},
		{record.Record{"author": "a"}, "a"},
		{record.Record{"author": map[string]any{"username": "u", "id": "1"}}, "u"},
		{record.Record{"author": map[string]any{"id": 7.0}}, "7"},
		{record.Record{}, DefaultAuthor},
	}
	for _, tt := range tests {
		if got := Author(tt.rec); got != tt.want {
			t.Errorf("Author(%v) = %q, want %q", tt.rec, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	rec := record.Record{"title": "Blue/Dream"}
	tests := []struct {
		req  Request
		want string
	}{
		{NewRequest(FormatPNG, ScopeFull), "review-Blue_Dream-1700000000000.png"},
		{NewRequest(FormatJPEG, ScopeSocial), "review-Blue_Dream-og-1700000000000.jpg"},
		{NewRequest(FormatPDF, ScopeCanvas), "review-Blue_Dream-1700000000000.pdf"},
		{NewRequest(FormatMarkdown, ScopeSocial), "review-Blue_Dream-1700000000000.md"},
	}
	for _, tt := range tests {
		if got := Filename(rec, tt.req, fixedNow); got != tt.want {
			t.Errorf("Filename(%s/%s) = %q, want %q", tt.req.Format, tt.req.Scope, got, tt.want)
		}
	}
	if got := Filename(record.Record{}, NewRequest(FormatPNG, ScopeFull), fixedNow); got != "review-export-1700000000000.png" {
		t.Errorf("fallback filename = %q", got)
	}
	if got := Filename(record.Record{"title": ".."}, NewRequest(FormatPNG, ScopeFull), fixedNow); strings.Contains(got, "..") {
		t.Errorf("unsafe filename = %q", got)
	}
}

func TestSocialScopeForcesGeometry(t *testing.T) {
	for _, format := range []Format{FormatPNG, FormatJPEG, FormatPDF} {
		t.Run(string(format), func(t *testing.T) {
			surfaces, preview, canvas := testSurfaces()
			r := NewRequest(format, ScopeSocial)
			r.Options.Scale = 1
			a, err := newTestExporter(t, nil).Export(context.Background(), r, surfaces, record.Record{"title": "X"})
			if err != nil {
				t.Fatal(err)
			}
			if preview.captureCount() != 0 || canvas.captureCount() != 1 {
				t.Fatalf("captures preview=%d canvas=%d", preview.captureCount(), canvas.captureCount())
			}
			o := canvas.lastOptions()
			if o.Width != SocialWidth || o.Height != SocialHeight || o.Scale != SocialScale {
				t.Errorf("capture = %dx%d x%v, want 1200x630 x3", o.Width, o.Height, o.Scale)
			}
			if !strings.Contains(a.Filename, "-og-") {
				t.Errorf("filename = %q", a.Filename)
			}
		})
	}
}

func TestScopeSelectsSurface(t *testing.T) {
	surfaces, preview, canvas := testSurfaces()
	ex := newTestExporter(t, nil)
	ctx := context.Background()
	if _, err := ex.Export(ctx, NewRequest(FormatPNG, ScopeFull), surfaces, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Export(ctx, NewRequest(FormatPNG, ScopeCanvas), surfaces, nil); err != nil {
		t.Fatal(err)
	}
	if preview.captureCount() != 1 || canvas.captureCount() != 1 {
		t.Errorf("captures preview=%d canvas=%d", preview.captureCount(), canvas.captureCount())
	}
	if o := preview.lastOptions(); o.Scale != 2 || !o.Branding {
		t.Errorf("preview options = %+v", o)
	}
}

func TestSurfaceNotFound(t *testing.T) {
	surfaces := NewSurfaceSet(&fakeSurface{id: SurfacePreview, w: 10, h: 10})
	_, err := newTestExporter(t, nil).Export(context.Background(), NewRequest(FormatPNG, ScopeCanvas), surfaces, nil)
	if !errs.Is(err, errs.ErrCodeSurfaceNotFound) {
		t.Fatalf("err = %v, want SURFACE_NOT_FOUND", err)
	}
	if errs.UserMessage(err) != SurfaceMissingMessage {
		t.Errorf("UserMessage = %q", errs.UserMessage(err))
	}
}

func TestCaptureFailure(t *testing.T) {
	cause := errors.New("font not loaded")
	s := &fakeSurface{id: SurfacePreview, w: 10, h: 10, fp: "p", err: cause}
	a, err := newTestExporter(t, nil).Export(context.Background(), NewRequest(FormatPNG, ScopeFull), NewSurfaceSet(s), nil)
	if a != nil || !errs.Is(err, errs.ErrCodeEncodeFailed) || !errors.Is(err, cause) {
		t.Errorf("Export() = %v, %v, want ENCODE_FAILED wrapping cause", a, err)
	}
}

func TestCanceledBeforeCapture(t *testing.T) {
	surfaces, preview, _ := testSurfaces()
	ex := NewExporter(nil, nil, nil, WithSettleDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ex.Export(ctx, NewRequest(FormatPNG, ScopeFull), surfaces, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if preview.captureCount() != 0 {
		t.Error("canceled export should not capture")
	}
}

func TestCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	surfaces, preview, _ := testSurfaces()
	ex := newTestExporter(t, fc)
	ctx := context.Background()
	r := NewRequest(FormatPNG, ScopeFull)

	first, err := ex.Export(ctx, r, surfaces, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ex.Export(ctx, r, surfaces, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached = %v, %v, want false, true", first.Cached, second.Cached)
	}
	if !bytes.Equal(first.Data, second.Data) || preview.captureCount() != 1 {
		t.Errorf("captures = %d, equal = %v", preview.captureCount(), bytes.Equal(first.Data, second.Data))
	}

	r.Options.Scale = 3
	if a, err := ex.Export(ctx, r, surfaces, nil); err != nil || a.Cached {
		t.Errorf("different options should miss: %v, %v", a, err)
	}
}

func TestConcurrentIdenticalExports(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	surfaces, preview, _ := testSurfaces()
	ex := newTestExporter(t, fc)

	var wg sync.WaitGroup
	errc := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ex.Export(context.Background(), NewRequest(FormatJPEG, ScopeFull), surfaces, nil)
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := preview.captureCount(); n != 1 {
		t.Errorf("captures = %d, want 1", n)
	}
}

func TestFramesReleasedAfterDelay(t *testing.T) {
	surfaces, preview, _ := testSurfaces()
	ex := NewExporter(nil, nil, nil, WithSettleDelay(0), WithCleanupDelay(50*time.Millisecond))
	if _, err := ex.Export(context.Background(), NewRequest(FormatPNG, ScopeFull), surfaces, nil); err != nil {
		t.Fatal(err)
	}
	preview.mu.Lock()
	frame := preview.frames[0]
	preview.mu.Unlock()
	if frame.Released() {
		t.Fatal("frame released synchronously")
	}
	deadline := time.Now().Add(2 * time.Second)
	for !frame.Released() {
		if time.Now().After(deadline) {
			t.Fatal("frame never released")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRasterEncodings(t *testing.T) {
	surfaces, _, _ := testSurfaces()
	ex := newTestExporter(t, nil)
	ctx := context.Background()

	r := NewRequest(FormatPNG, ScopeCanvas)
	r.Options.Scale = 1
	r.Options.Transparent = true
	a, err := ex.Export(ctx, r, surfaces, nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("png bounds = %v", b)
	}
	if _, _, _, alpha := img.At(39, 39).RGBA(); alpha != 0 {
		t.Errorf("transparent png alpha = %d, want 0", alpha)
	}

	r.Options.Transparent = false
	a, err = ex.Export(ctx, r, surfaces, nil)
	if err != nil {
		t.Fatal(err)
	}
	img, _ = png.Decode(bytes.NewReader(a.Data))
	if got := color.NRGBAModel.Convert(img.At(39, 39)).(color.NRGBA); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("opaque png corner = %v, want white", got)
	}

	a, err = ex.Export(ctx, NewRequest(FormatJPEG, ScopeCanvas), surfaces, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(a.Data)); err != nil {
		t.Errorf("jpeg decode: %v", err)
	}

	a, err = ex.Export(ctx, NewRequest(FormatPDF, ScopeFull), surfaces, record.Record{"title": "Doc"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(a.Data, []byte("%PDF-")) || a.ContentType != "application/pdf" {
		t.Errorf("pdf header = %q", a.Data[:min(8, len(a.Data))])
	}
}

func TestFitPage(t *testing.T) {
	tests := []struct {
		name       string
		imgW, imgH float64
		x, y, w, h float64
	}{
		{"wide", 2000, 1000, 10, 101, 190, 95},
		{"tall", 1000, 2000, 35.75, 10, 138.5, 277},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := FitPage(tt.imgW, tt.imgH, 210, 297, PageMarginMM)
			for _, p := range [][2]float64{{x, tt.x}, {y, tt.y}, {w, tt.w}, {h, tt.h}} {
				if math.Abs(p[0]-p[1]) > 1e-9 {
					t.Errorf("FitPage = (%v, %v, %v, %v), want (%v, %v, %v, %v)", x, y, w, h, tt.x, tt.y, tt.w, tt.h)
					return
				}
			}
		})
	}
}

func TestCompositorSurfaces(t *testing.T) {
	c := render.New()
	scene := render.Scene{Record: record.Record{"title": "Blue Dream", "rating": 4.0}}
	scene.Config.Ratio = "1:1"
	surfaces := SceneSurfaces(c, scene)

	ex := newTestExporter(t, nil)
	a, err := ex.Export(context.Background(), NewRequest(FormatPNG, ScopeSocial), surfaces, scene.Record)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != SocialWidth*SocialScale || cfg.Height != SocialHeight*SocialScale {
		t.Errorf("social png = %dx%d, want %dx%d", cfg.Width, cfg.Height, SocialWidth*SocialScale, SocialHeight*SocialScale)
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a := &Artifact{Filename: "review-X-1.md", Data: []byte("# X\n")}
	path, err := DirSink{Dir: dir}.Deliver(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "# X\n" {
		t.Errorf("file = %q, %v", got, err)
	}

	a.Filename = "../escape.md"
	if _, err := (DirSink{Dir: dir}).Deliver(context.Background(), a); !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("escape = %v, want INVALID_PATH", err)
	}
}

func TestMarkdownHTML(t *testing.T) {
	html, err := MarkdownHTML([]byte("# Titre\n\n- Calm\n\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(html)
	if !strings.Contains(s, "<h1") || !strings.Contains(s, "<li>Calm</li>") {
		t.Errorf("html = %s", s)
	}
	if strings.Contains(s, "<script") {
		t.Errorf("script survived sanitizing: %s", s)
	}
}

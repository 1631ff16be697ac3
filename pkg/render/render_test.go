package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/studio"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#667eea", color.NRGBA{0x66, 0x7e, 0xea, 255}},
		{"#00000080", color.NRGBA{0, 0, 0, 0x80}},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}},
		{"rgba(10,20,30,0.5)", color.NRGBA{10, 20, 30, 128}},
		{"White", color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	for _, bad := range []string{"", "#12", "hsl(1,2,3)", "rgb(1,2)"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestParseBackground(t *testing.T) {
	bg, err := ParseBackground("linear-gradient(135deg, #667eea 0%, #764ba2 100%)")
	if err != nil {
		t.Fatal(err)
	}
	if bg.Angle != 135 || len(bg.Stops) != 2 || bg.Stops[1].Offset != 1 {
		t.Errorf("gradient = %+v", bg)
	}

	bg, err = ParseBackground("linear-gradient(to right, rgba(0,0,0,0.5), #fff, #000)")
	if err != nil {
		t.Fatal(err)
	}
	if bg.Angle != 90 || len(bg.Stops) != 3 || bg.Stops[1].Offset != 0.5 {
		t.Errorf("gradient = %+v", bg)
	}

	bg, err = ParseBackground("#ffffff")
	if err != nil || !bg.Flat() {
		t.Errorf("flat = %+v, %v", bg, err)
	}
	if _, err := ParseBackground("linear-gradient(90deg, #fff)"); err == nil {
		t.Error("single-stop gradient should fail")
	}
}

func TestFramePoolAndRelease(t *testing.T) {
	before := LiveFrames()
	f := NewFrame(10, 20, 2)
	if b := f.Image().Bounds(); b.Dx() != 20 || b.Dy() != 40 {
		t.Errorf("pixel bounds = %v, want 20x40", b)
	}
	if f.Width() != 10 || f.Height() != 20 {
		t.Errorf("logical size = %dx%d", f.Width(), f.Height())
	}
	if LiveFrames() != before+1 {
		t.Errorf("LiveFrames = %d, want %d", LiveFrames(), before+1)
	}
	f.Release()
	f.Release()
	if !f.Released() || f.Image() != nil || LiveFrames() != before {
		t.Errorf("after release: released=%v live=%d", f.Released(), LiveFrames())
	}

	g := NewFrame(4, 4, 1)
	defer g.Release()
	for _, v := range g.Image().Pix {
		if v != 0 {
			t.Fatal("pooled frame not cleared")
		}
	}
}

func testScene(t *testing.T) Scene {
	t.Helper()
	m, err := layout.Drop(nil, catalogue.ZoneTemplate(), layout.Point{X: 40, Y: 30}, "zone-1")
	if err != nil {
		t.Fatal(err)
	}
	m, _ = layout.Reassign(m, "aromas", "zone-1")
	m, _ = layout.Drop(m, catalogue.Resolve("title"), layout.Point{X: 10, Y: 10}, "")
	m, _ = layout.Drop(m, catalogue.Resolve("rating"), layout.Point{X: 10, Y: 60}, "")
	m, _ = layout.Drop(m, catalogue.Resolve("breeder"), layout.Point{X: 60, Y: 60}, "")
	m, _ = layout.Rotate(m, "rating", 30)
	cfg := studio.DefaultConfig()
	cfg.Ratio = "16:9"
	return Scene{
		Record: record.Record{
			"title":           "Blue Dream",
			"holderName":      "Blue Dream",
			"rating":          4.0,
			"aromas":          []any{"Fruité", "Pin"},
			"categoryRatings": map[string]any{"visual": map[string]any{"densite": 8.0}},
		},
		Layout: m,
		Mode:   studio.ModeCustom,
		Config: cfg,
	}
}

func TestCanvasAndPreviewSizes(t *testing.T) {
	ctx := context.Background()
	c := New()
	s := testScene(t)

	f, err := c.Canvas(ctx, s, Options{Scale: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Release()
	if f.Width() != 1920 || f.Height() != 1080 {
		t.Errorf("canvas = %dx%d, want 1920x1080", f.Width(), f.Height())
	}
	if b := f.Image().Bounds(); b.Dx() != 480 || b.Dy() != 270 {
		t.Errorf("pixels = %v, want 480x270", b)
	}

	p, err := c.Preview(ctx, s, Options{Scale: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()
	if want := 1080 + HeaderHeight(1920); p.Height() != want {
		t.Errorf("preview height = %d, want %d", p.Height(), want)
	}

	forced, err := c.Canvas(ctx, s, Options{Width: 120, Height: 63, Scale: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer forced.Release()
	if b := forced.Image().Bounds(); forced.Width() != 120 || b.Dx() != 360 || b.Dy() != 189 {
		t.Errorf("forced = %dx%d (%v)", forced.Width(), forced.Height(), b)
	}
}

func TestTransparentBackground(t *testing.T) {
	ctx := context.Background()
	c := New()
	s := testScene(t)
	s.Layout = layout.Model{}

	opaque, err := c.Canvas(ctx, s, Options{Scale: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	defer opaque.Release()
	if a := opaque.Image().RGBAAt(0, 0).A; a != 255 {
		t.Errorf("opaque corner alpha = %d, want 255", a)
	}

	see, err := c.Canvas(ctx, s, Options{Scale: 0.1, Transparent: true})
	if err != nil {
		t.Fatal(err)
	}
	defer see.Release()
	if a := see.Image().RGBAAt(0, 0).A; a != 0 {
		t.Errorf("transparent corner alpha = %d, want 0", a)
	}
}

func TestTemplateModeAndBranding(t *testing.T) {
	c := New()
	s := testScene(t)
	s.Mode = studio.ModeTemplate
	s.Record["description"] = "Une variété douce et équilibrée."
	s.Record["effects"] = []any{"Calme"}
	f, err := c.Canvas(context.Background(), s, Options{Scale: 0.2, Branding: true})
	if err != nil {
		t.Fatal(err)
	}
	f.Release()
}

func TestCanceledCapture(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := LiveFrames()
	if _, err := New().Canvas(ctx, testScene(t), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if LiveFrames() != before {
		t.Error("canceled capture leaked a frame")
	}
}

func TestSurfaces(t *testing.T) {
	c := New()
	s := testScene(t)
	surfaces := c.Surfaces(s)
	if len(surfaces) != 2 || surfaces[0].ID() != SurfacePreview || surfaces[1].ID() != SurfaceCanvas {
		t.Fatalf("surfaces = %v", surfaces)
	}
	if w, h := surfaces[1].Size(); w != 1920 || h != 1080 {
		t.Errorf("canvas size = %dx%d", w, h)
	}
	fp := surfaces[1].Fingerprint()
	if fp == "" || fp != c.Surfaces(s)[1].Fingerprint() {
		t.Errorf("fingerprint not stable: %q", fp)
	}
	s.Record = s.Record.Clone()
	s.Record["title"] = "Other"
	if c.Surfaces(s)[1].Fingerprint() == fp {
		t.Error("fingerprint ignores record changes")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadImage(t *testing.T) {
	data := pngBytes(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	img, err := LoadImage(uri, "")
	if err != nil || img.Bounds().Dx() != 4 {
		t.Errorf("data uri = %v, %v", img, err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage("a.png", dir); err != nil {
		t.Errorf("relative = %v", err)
	}
	if _, err := LoadImage("../../a.png", dir); err != nil {
		t.Errorf("relative with dots should stay inside dir: %v", err)
	}
	if _, err := LoadImage("https://example.com/a.png", dir); !errors.Is(err, ErrRemoteImage) {
		t.Errorf("remote = %v, want ErrRemoteImage", err)
	}
	if _, err := LoadImage("a.png", ""); err == nil {
		t.Error("relative without base dir should fail")
	}
}

func TestImageRef(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x.png", "x.png"},
		{map[string]any{"src": "y.png"}, "y.png"},
		{[]any{map[string]any{}, map[string]any{"url": "z.png"}}, "z.png"},
		{42.0, ""},
	}
	for _, tt := range tests {
		if got := ImageRef(tt.in); got != tt.want {
			t.Errorf("ImageRef(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

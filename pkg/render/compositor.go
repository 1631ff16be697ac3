package render

import (
	"context"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"

	"github.com/matzehuels/orchard/pkg/cache"
	"github.com/matzehuels/orchard/pkg/fonts"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/studio"
)

// Surface ids, stable across releases.
const (
	SurfacePreview = "orchard-preview-container"
	SurfaceCanvas  = "orchard-template-canvas"
)

// BrandText is the watermark drawn when branding is included.
const BrandText = "Orchard Studio"

// Scene is everything a composition is drawn from.
type Scene struct {
	Record record.Record     `json:"record"`
	Layout layout.Model      `json:"layout"`
	Mode   studio.LayoutMode `json:"mode"`
	Config studio.Config     `json:"config"`
}

// Custom reports whether the scene draws its free layout rather than the
// template flow.
func (s Scene) Custom() bool {
	if s.Mode == "" {
		return len(s.Layout) > 0
	}
	return s.Mode == studio.ModeCustom
}

// Fingerprint hashes everything that affects the drawn pixels.
func (s Scene) Fingerprint() (string, error) {
	return cache.HashJSON(s)
}

// Options control one capture.
type Options struct {
	// Width and Height force the logical canvas size. Zero uses the
	// configured ratio.
	Width, Height int
	// Scale multiplies the pixel size. Zero means 1.
	Scale float64
	// Transparent leaves the background unpainted.
	Transparent bool
	// Branding draws the watermark.
	Branding bool
}

func (o Options) scale() float64 {
	if o.Scale <= 0 || math.IsNaN(o.Scale) {
		return 1
	}
	return o.Scale
}

// Compositor draws scenes. It is safe for concurrent use; each capture
// gets its own frame and font faces.
type Compositor struct {
	logger   *log.Logger
	imageDir string
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithImageDir sets the directory relative image paths resolve against.
func WithImageDir(dir string) Option {
	return func(c *Compositor) { c.imageDir = dir }
}

// New returns a compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanvasSize returns the logical canvas size for s under o.
func (c *Compositor) CanvasSize(s Scene, o Options) (w, h int) {
	w, h = s.Config.Dimensions()
	if o.Width > 0 && o.Height > 0 {
		w, h = o.Width, o.Height
	}
	return w, h
}

// HeaderHeight returns the height of the preview header for a canvas
// width.
func HeaderHeight(width int) int {
	return max(96, int(math.Round(float64(width)*0.12)))
}

// PreviewSize returns the logical size of the full preview.
func (c *Compositor) PreviewSize(s Scene, o Options) (w, h int) {
	w, h = c.CanvasSize(s, o)
	return w, h + HeaderHeight(w)
}

// Canvas draws the canvas alone.
func (c *Compositor) Canvas(ctx context.Context, s Scene, o Options) (*Frame, error) {
	return c.draw(ctx, s, o, false)
}

// Preview draws the header band and the canvas.
func (c *Compositor) Preview(ctx context.Context, s Scene, o Options) (*Frame, error) {
	return c.draw(ctx, s, o, true)
}

func (c *Compositor) draw(ctx context.Context, s Scene, o Options, header bool) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Config.SetDefaults()
	cw, ch := c.CanvasSize(s, o)
	top := 0
	if header {
		top = HeaderHeight(cw)
	}
	scale := o.scale()
	frame := NewFrame(cw, ch+top, scale)

	dc := gg.NewContextForRGBA(frame.img)
	faces := fonts.NewCache()
	defer faces.Close()

	p := &painter{
		dc:       dc,
		faces:    faces,
		cfg:      s.Config,
		rec:      s.Record,
		scale:    scale,
		imageDir: c.imageDir,
		logger:   c.logger,
	}
	p.loadColors()

	if !o.Transparent {
		if header {
			dc.SetColor(p.headerBG)
			dc.DrawRectangle(0, 0, float64(cw)*scale, float64(top)*scale)
			dc.Fill()
		}
		p.background.Fill(dc, 0, float64(top)*scale, float64(cw)*scale, float64(ch)*scale)
	}
	dc.Scale(scale, scale)

	if header {
		p.drawHeader(float64(cw), float64(top))
		dc.Translate(0, float64(top))
	}

	var err error
	if s.Custom() {
		err = p.drawLayout(ctx, s.Layout, float64(cw), float64(ch))
	} else {
		err = p.drawTemplate(ctx, float64(cw), float64(ch))
	}
	if err != nil {
		frame.Release()
		return nil, err
	}
	if o.Branding {
		p.drawBranding(float64(cw), float64(ch))
	}
	return frame, nil
}

package render

import (
	"context"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/fonts"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/studio"
)

var (
	white     = color.NRGBA{255, 255, 255, 255}
	slate     = color.NRGBA{15, 23, 42, 255}
	lightGray = color.NRGBA{224, 224, 224, 255}
)

// painter holds the per-capture drawing state.
type painter struct {
	dc       *gg.Context
	faces    *fonts.Cache
	cfg      studio.Config
	rec      record.Record
	scale    float64
	imageDir string
	logger   *log.Logger

	background Background
	headerBG   color.NRGBA
	primary    color.NRGBA
	secondary  color.NRGBA
	accent     color.NRGBA
	title      color.NRGBA
}

// box is a rectangle in logical canvas pixels.
type box struct{ X, Y, W, H float64 }

func (b box) inset(d float64) box {
	return box{b.X + d, b.Y + d, math.Max(0, b.W-2*d), math.Max(0, b.H-2*d)}
}

func (p *painter) loadColors() {
	c := p.cfg.Colors
	bg, err := ParseBackground(c.Background)
	if err != nil {
		p.logger.Debug("unusable background, using white", "background", c.Background, "error", err)
		bg = Background{Stops: []Stop{{Color: white}}}
	}
	p.background = bg
	p.headerBG = slate
	p.primary = MustColor(c.TextPrimary, white)
	p.secondary = MustColor(c.TextSecondary, lightGray)
	p.accent = MustColor(c.Accent, color.NRGBA{255, 215, 0, 255})
	p.title = MustColor(c.Title, white)
}

func (p *painter) setFace(w fonts.Weight, size float64) {
	face, err := p.faces.Face(w, size)
	if err != nil {
		p.logger.Debug("font unavailable", "error", err)
		return
	}
	p.dc.SetFontFace(face)
}

func (p *painter) textSize() float64  { return math.Max(6, p.cfg.Typography.TextSize) }
func (p *painter) titleSize() float64 { return math.Max(8, p.cfg.Typography.TitleSize) }
func (p *painter) labelSize() float64 { return p.textSize() * 0.75 }

func titleWeight(w string) fonts.Weight {
	switch w {
	case "600", "700", "800", "900", "bold":
		return fonts.Bold
	}
	return fonts.Regular
}

// ellipsize shortens s with "…" until it fits maxW with the current face.
func (p *painter) ellipsize(s string, maxW float64) string {
	if w, _ := p.dc.MeasureString(s); w <= maxW {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		cand := strings.TrimSpace(string(runes)) + "…"
		if w, _ := p.dc.MeasureString(cand); w <= maxW {
			return cand
		}
	}
	return ""
}

// text draws s in b, wrapped, clipped to the box height.
func (p *painter) text(s string, b box, c color.Color, w fonts.Weight, size float64, align gg.Align) {
	if b.W <= 0 || b.H <= 0 || s == "" {
		return
	}
	p.setFace(w, size)
	p.dc.SetColor(c)
	lines := p.dc.WordWrap(s, b.W)
	lineH := size * 1.3
	maxLines := max(1, int(b.H/lineH))
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = p.ellipsize(lines[maxLines-1]+"…", b.W)
	}
	ax, x := 0.0, b.X
	switch align {
	case gg.AlignCenter:
		ax, x = 0.5, b.X+b.W/2
	case gg.AlignRight:
		ax, x = 1, b.X+b.W
	}
	for i, line := range lines {
		p.dc.DrawStringAnchored(line, x, b.Y+float64(i)*lineH+size, ax, 0)
	}
}

// label draws a field caption and returns the box left below it.
func (p *painter) label(s string, b box) box {
	size := p.labelSize()
	p.text(p.truncateLine(s, b.W, size), box{b.X, b.Y, b.W, size * 1.4}, WithAlpha(p.secondary, 0.9), fonts.Bold, size, gg.AlignLeft)
	h := size * 1.6
	return box{b.X, b.Y + h, b.W, math.Max(0, b.H-h)}
}

func (p *painter) truncateLine(s string, maxW, size float64) string {
	p.setFace(fonts.Regular, size)
	return p.ellipsize(s, maxW)
}

func (p *painter) placeholder(b box, msg string) {
	p.dc.Push()
	p.dc.SetColor(WithAlpha(p.secondary, 0.5))
	p.dc.SetLineWidth(1.5)
	p.dc.SetDash(6, 4)
	p.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 8)
	p.dc.Stroke()
	p.dc.Pop()
	size := p.labelSize()
	p.text(msg, box{b.X, b.Y + b.H/2 - size*0.8, b.W, size * 1.6}, WithAlpha(p.secondary, 0.7), fonts.Italic, size, gg.AlignCenter)
}

func (p *painter) panel(b box, fill color.NRGBA) {
	p.dc.SetColor(fill)
	p.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, math.Min(12, math.Min(b.W, b.H)/4))
	p.dc.Fill()
}

// chip draws a rounded pill around s starting at (x, y) and returns its
// width.
func (p *painter) chip(s string, x, y, maxW float64, fill, fg color.NRGBA) float64 {
	size := p.labelSize()
	p.setFace(fonts.Regular, size)
	s = p.ellipsize(s, math.Max(0, maxW-size))
	tw, _ := p.dc.MeasureString(s)
	w, h := tw+size, size*1.7
	p.dc.SetColor(fill)
	p.dc.DrawRoundedRectangle(x, y, w, h, h/2)
	p.dc.Fill()
	p.dc.SetColor(fg)
	p.dc.DrawStringAnchored(s, x+size/2, y+h/2, 0, 0.35)
	return w
}

// chips flows pills left to right, wrapping within b. It returns the
// height used.
func (p *painter) chips(items []string, b box, fill, fg color.NRGBA) float64 {
	if len(items) == 0 {
		return 0
	}
	size := p.labelSize()
	rowH := size*1.7 + 6
	x, y := b.X, b.Y
	for _, s := range items {
		p.setFace(fonts.Regular, size)
		tw, _ := p.dc.MeasureString(s)
		w := math.Min(tw+size, b.W)
		if x > b.X && x+w > b.X+b.W {
			x, y = b.X, y+rowH
		}
		if y+rowH-6 > b.Y+b.H {
			break
		}
		x += p.chip(s, x, y, b.W, fill, fg) + 6
	}
	return y + rowH - b.Y
}

func (p *painter) star(cx, cy, r float64, filled bool) {
	p.dc.NewSubPath()
	for i := 0; i < 10; i++ {
		rad := r
		if i%2 == 1 {
			rad = r * 0.45
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		p.dc.LineTo(cx+rad*math.Cos(a), cy+rad*math.Sin(a))
	}
	p.dc.ClosePath()
	if filled {
		p.dc.SetColor(p.accent)
		p.dc.Fill()
		return
	}
	p.dc.SetColor(WithAlpha(p.secondary, 0.6))
	p.dc.SetLineWidth(1)
	p.dc.Stroke()
}

// stars draws five stars for value on a 0..outOf scale.
func (p *painter) stars(value, outOf float64, x, cy, r float64) float64 {
	filled := int(math.Floor(value / outOf * 5))
	for i := 0; i < 5; i++ {
		p.star(x+r+float64(i)*r*2.3, cy, r, i < filled)
	}
	return r * 2.3 * 5
}

func (p *painter) bar(b box, frac float64) {
	frac = math.Max(0, math.Min(1, frac))
	p.dc.SetColor(WithAlpha(p.secondary, 0.25))
	p.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, b.H/2)
	p.dc.Fill()
	if frac > 0 {
		p.dc.SetColor(p.accent)
		p.dc.DrawRoundedRectangle(b.X, b.Y, math.Max(b.H, b.W*frac), b.H, b.H/2)
		p.dc.Fill()
	}
}

// image draws img covering b with the configured radius, filter and
// opacity.
func (p *painter) image(img image.Image, b box) {
	pw, ph := int(b.W*p.scale), int(b.H*p.scale)
	if pw <= 0 || ph <= 0 {
		return
	}
	fitted := ApplyFilter(Cover(img, pw, ph), p.cfg.Image.Filter)
	if op := p.cfg.Image.Opacity; op > 0 && op < 1 {
		fitted = fade(fitted, op)
	}
	p.dc.Push()
	p.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, p.cfg.Image.BorderRadius)
	p.dc.Clip()
	p.dc.Translate(b.X, b.Y)
	p.dc.Scale(1/p.scale, 1/p.scale)
	p.dc.DrawImage(fitted, 0, 0)
	p.dc.Pop()
}

func (p *painter) loadImage(ref string) (image.Image, bool) {
	img, err := LoadImage(ref, p.imageDir)
	if err != nil {
		p.logger.Debug("image skipped", "ref", shortRef(ref), "error", err)
		return nil, false
	}
	return img, true
}

func shortRef(ref string) string {
	if len(ref) > 48 {
		return ref[:48] + "…"
	}
	return ref
}

func fade(img image.Image, opacity float64) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = uint8(float64(c.A) * opacity)
		return c
	})
}

// ===== Layout mode =====

func (p *painter) drawLayout(ctx context.Context, m layout.Model, w, h float64) error {
	for _, it := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := box{it.Position.X / 100 * w, it.Position.Y / 100 * h, it.Width / 100 * w, it.Height / 100 * h}
		p.dc.Push()
		if it.Rotation != 0 {
			p.dc.RotateAbout(gg.Radians(it.Rotation), b.X+b.W/2, b.Y+b.H/2)
		}
		p.dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		p.dc.Clip()
		if it.IsZone() {
			p.drawZone(it, b)
		} else {
			f := catalogue.Resolve(it.ID)
			if it.Label != "" {
				f.Label = it.Label
			}
			p.drawItem(f, b)
		}
		p.dc.ResetClip()
		p.dc.Pop()
	}
	return nil
}

func (p *painter) drawItem(f catalogue.Field, b box) {
	inner := b.inset(4)
	if f.Shape == catalogue.ShapeSeparator {
		p.drawField(f, nil, inner)
		return
	}
	v, _ := record.Value(p.rec, f.ID)
	if !record.NonEmpty(v) {
		rest := p.label(f.Label, inner)
		p.placeholder(rest, "Aucune donnée")
		return
	}
	p.drawField(f, v, inner)
}

func (p *painter) drawZone(it layout.Item, b box) {
	p.panel(b, WithAlpha(p.accent, 0.12))
	p.dc.SetColor(WithAlpha(p.accent, 0.7))
	p.dc.SetLineWidth(2)
	p.dc.DrawRoundedRectangle(b.X+1, b.Y+1, b.W-2, b.H-2, 12)
	p.dc.Stroke()

	inner := b.inset(8)
	name := it.Label
	if name == "" {
		name = layout.DefaultZoneLabel
	}
	size := p.textSize()
	p.text(p.truncateLine(name, inner.W, size), box{inner.X, inner.Y, inner.W, size * 1.4}, p.title, fonts.Bold, size, gg.AlignLeft)
	rest := box{inner.X, inner.Y + size*1.6, inner.W, inner.H - size*1.6}

	if len(it.AssignedFields) == 0 {
		p.placeholder(rest, "Zone vide")
		return
	}
	items := make([]string, 0, len(it.AssignedFields))
	for _, id := range it.AssignedFields {
		f := catalogue.Resolve(id)
		preview := record.Preview(p.rec, id)
		if preview == "" {
			preview = "—"
		}
		items = append(items, f.Label+" : "+preview)
	}
	p.chips(items, rest, WithAlpha(p.primary, 0.18), p.primary)
}

func (p *painter) brandLogo(br studio.Branding) image.Image {
	if !br.Enabled || br.LogoURL == "" {
		return nil
	}
	img, ok := p.loadImage(br.LogoURL)
	if !ok {
		return nil
	}
	return img
}

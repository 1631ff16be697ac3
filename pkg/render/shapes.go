package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/fonts"
	"github.com/matzehuels/orchard/pkg/record"
)

var categoryNames = map[string]string{
	catalogue.CategoryVisual:  "Visuel",
	catalogue.CategorySmell:   "Odeur",
	catalogue.CategoryTexture: "Texture",
	catalogue.CategoryTaste:   "Goût",
	catalogue.CategoryEffects: "Effets",
}

// drawField renders v in b according to the field's shape.
func (p *painter) drawField(f catalogue.Field, v any, b box) {
	switch f.Shape {
	case catalogue.ShapeText:
		rest := p.label(f.Label, b)
		p.text(record.Format(v), rest, p.primary, fonts.Regular, p.textSize(), gg.AlignLeft)

	case catalogue.ShapeTextarea:
		rest := p.label(f.Label, b)
		p.text(record.Format(v), rest, p.primary, fonts.Regular, p.textSize()*0.9, gg.AlignLeft)

	case catalogue.ShapeImage:
		img, ok := p.loadImage(ImageRef(v))
		if !ok {
			p.placeholder(b, "Image indisponible")
			return
		}
		p.image(img, b)

	case catalogue.ShapeGallery:
		refs := ImageRefs(v)
		n := min(len(refs), 3)
		if n == 0 {
			p.placeholder(b, "Image indisponible")
			return
		}
		gap := 6.0
		cell := (b.W - gap*float64(n-1)) / float64(n)
		for i := 0; i < n; i++ {
			cb := box{b.X + float64(i)*(cell+gap), b.Y, cell, b.H}
			if img, ok := p.loadImage(refs[i]); ok {
				p.image(img, cb)
			} else {
				p.placeholder(cb, "—")
			}
		}

	case catalogue.ShapeDate:
		rest := p.label(f.Label, b)
		s := record.FormatDateFR(v)
		if s == "" {
			s = record.Format(v)
		}
		p.text(s, rest, p.primary, fonts.Regular, p.textSize(), gg.AlignLeft)

	case catalogue.ShapeRating:
		rest := p.label(f.Label, b)
		n, ok := record.ToFloat(v)
		if !ok {
			p.text(record.Format(v), rest, p.primary, fonts.Regular, p.textSize(), gg.AlignLeft)
			return
		}
		outOf := 5.0
		if n > 5 {
			outOf = 10
		}
		r := math.Min(rest.H/2, p.textSize()*0.6)
		used := p.stars(n, outOf, rest.X, rest.Y+r, r)
		s := fmt.Sprintf("%s/%s", record.FormatNumber(record.Round1(n)), record.FormatNumber(outOf))
		p.text(s, box{rest.X + used + 8, rest.Y + r - p.textSize()*0.65, math.Max(0, rest.W-used-8), p.textSize() * 1.4},
			p.primary, fonts.Bold, p.textSize(), gg.AlignLeft)

	case catalogue.ShapeCategoryBlock:
		rest := p.label(f.Label, b)
		p.categoryBars(rest)

	case catalogue.ShapeSlider:
		rest := p.label(f.Label, b)
		n, _ := record.ToFloat(v)
		size := p.labelSize()
		valueW := size * 3
		p.bar(box{rest.X, rest.Y + size*0.3, math.Max(0, rest.W-valueW), size * 0.8}, n/10)
		p.text(record.FormatNumber(record.Round1(n)), box{rest.X + rest.W - valueW, rest.Y, valueW, size * 1.4},
			p.primary, fonts.Bold, size, gg.AlignRight)

	case catalogue.ShapeTags:
		rest := p.label(f.Label, b)
		p.chips(record.Labels(v), rest, WithAlpha(p.accent, 0.85), slate)

	case catalogue.ShapeCultivarList:
		rest := p.label(f.Label, b)
		p.text(strings.Join(record.Labels(v), " · "), rest, p.primary, fonts.Regular, p.textSize(), gg.AlignLeft)

	case catalogue.ShapePipeline:
		rest := p.label(f.Label, b)
		steps := record.Labels(pipelineSteps(v))
		for i := range steps {
			steps[i] = fmt.Sprintf("%d. %s", i+1, steps[i])
		}
		p.chips(steps, rest, WithAlpha(p.primary, 0.18), p.primary)

	case catalogue.ShapeSubstratMix:
		rest := p.label(f.Label, b)
		p.chips(substratLabels(v), rest, WithAlpha(p.primary, 0.18), p.primary)

	case catalogue.ShapeBoolean:
		rest := p.label(f.Label, b)
		s := "✗ Non"
		if record.Truthy(v) {
			s = "✓ Oui"
		}
		p.text(s, rest, p.primary, fonts.Bold, p.textSize(), gg.AlignLeft)

	case catalogue.ShapeJSON:
		rest := p.label(f.Label, b)
		p.text(record.PreviewValue(v), rest, p.secondary, fonts.Regular, p.labelSize(), gg.AlignLeft)

	case catalogue.ShapeBubble:
		r := math.Min(b.W, b.H) / 2
		cx, cy := b.X+b.W/2, b.Y+b.H/2
		p.dc.SetColor(WithAlpha(p.accent, 0.9))
		p.dc.DrawCircle(cx, cy, r)
		p.dc.Fill()
		size := math.Max(8, r*0.45)
		p.text(p.truncateLine(record.PreviewValue(v), r*1.6, size), box{cx - r, cy - size*0.7, 2 * r, size * 1.4}, slate, fonts.Bold, size, gg.AlignCenter)

	case catalogue.ShapeBadge:
		size := p.labelSize()
		h := math.Min(b.H, size*2)
		p.panel(box{b.X, b.Y, b.W, h}, p.accent)
		p.text(p.truncateLine(f.Label+" "+record.PreviewValue(v), b.W-size, size), box{b.X, b.Y + h/2 - size*0.7, b.W, size * 1.4}, slate, fonts.Bold, size, gg.AlignCenter)

	case catalogue.ShapeSeparator:
		p.dc.SetColor(WithAlpha(p.secondary, 0.6))
		p.dc.SetLineWidth(2)
		p.dc.DrawLine(b.X, b.Y+b.H/2, b.X+b.W, b.Y+b.H/2)
		p.dc.Stroke()

	case catalogue.ShapeZone:
		// Zones are drawn by drawZone; a zone id resolved as a field has
		// nothing to show.
		p.placeholder(b, f.Label)

	default:
		rest := p.label(f.Label, b)
		p.text(record.PreviewValue(v), rest, p.primary, fonts.Regular, p.textSize(), gg.AlignLeft)
	}
}

func (p *painter) categoryBars(b box) {
	avgs := record.CategoryAverages(p.rec)
	size := p.labelSize()
	rowH := size * 1.8
	nameW := math.Min(b.W*0.35, size*6)
	y := b.Y
	for _, cat := range catalogue.RatingCategories {
		avg, ok := avgs[cat]
		if !ok {
			continue
		}
		if y+rowH > b.Y+b.H {
			break
		}
		p.text(categoryNames[cat], box{b.X, y, nameW, rowH}, p.secondary, fonts.Regular, size, gg.AlignLeft)
		p.bar(box{b.X + nameW, y + size*0.35, math.Max(0, b.W-nameW-size*3), size * 0.7}, avg/10)
		p.text(record.FormatNumber(avg), box{b.X + b.W - size*2.6, y, size * 2.6, rowH}, p.primary, fonts.Bold, size, gg.AlignRight)
		y += rowH
	}
	if y == b.Y {
		p.placeholder(b, "Aucune donnée")
	}
}

// pipelineSteps accepts a list, or a mapping carrying a steps list.
func pipelineSteps(v any) any {
	if m := record.AsObject(v); m != nil {
		if steps, ok := m["steps"]; ok {
			return steps
		}
	}
	return v
}

func substratLabels(v any) []string {
	var out []string
	for _, item := range record.AsArray(v) {
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, record.Format(item))
			continue
		}
		name := record.ExtractLabel(m, "substrat", "component", "name")
		if name == "" {
			name = "Substrat"
		}
		pct, ok := record.ToFloat(m["percentage"])
		if !ok {
			pct, ok = record.ToFloat(m["percent"])
		}
		if ok && pct > 0 {
			name = fmt.Sprintf("%s %s%%", name, record.FormatNumber(pct))
		}
		out = append(out, name)
	}
	return out
}

package render

import (
	"context"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/fonts"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/studio"
)

// module maps a studio content module onto the record fields it shows.
type module struct {
	ids    []string
	shape  catalogue.Shape
	label  string
	height float64 // in text lines; 0 sizes to the shape
}

var modules = map[string]module{
	"image":       {ids: []string{"mainImageUrl", "mainImage", "imageUrl", "images"}, shape: catalogue.ShapeImage},
	"title":       {ids: []string{"title", "holderName"}, shape: catalogue.ShapeText},
	"rating":      {ids: []string{"rating", "overallRating", "note"}, shape: catalogue.ShapeRating, label: "Note globale", height: 2.6},
	"category":    {ids: []string{"category", "type"}, shape: catalogue.ShapeBadge, label: "Catégorie", height: 2},
	"author":      {ids: []string{"author", "ownerName"}, shape: catalogue.ShapeText, label: "Auteur", height: 2.6},
	"date":        {ids: []string{"date", "createdAt"}, shape: catalogue.ShapeDate, label: "Date", height: 2.6},
	"thcLevel":    {ids: []string{"thcLevel", "thc"}, shape: catalogue.ShapeSlider, label: "THC", height: 2.4},
	"cbdLevel":    {ids: []string{"cbdLevel", "cbd"}, shape: catalogue.ShapeSlider, label: "CBD", height: 2.4},
	"cultivar":    {ids: []string{"cultivarsList", "cultivars", "cultivar"}, shape: catalogue.ShapeCultivarList, label: "Cultivars", height: 2.6},
	"description": {ids: []string{"description", "conclusion"}, shape: catalogue.ShapeTextarea, label: "Description", height: 6},
	"effects":     {ids: []string{"effects"}, shape: catalogue.ShapeTags, label: "Effets", height: 4},
	"aromas":      {ids: []string{"aromas"}, shape: catalogue.ShapeTags, label: "Arômes", height: 4},
	"tags":        {ids: []string{"tags"}, shape: catalogue.ShapeTags, label: "Tags", height: 4},
}

func (p *painter) moduleValue(m module) (string, any, bool) {
	for _, id := range m.ids {
		if v, ok := record.Value(p.rec, id); ok && record.NonEmpty(v) {
			return id, v, true
		}
	}
	return "", nil, false
}

// drawTemplate stacks the visible content modules in configured order.
func (p *painter) drawTemplate(ctx context.Context, w, h float64) error {
	tpl, _ := studio.LookupTemplate(p.cfg.Template)
	pad := w * 0.06
	area := box{pad, pad, w - 2*pad, h - 2*pad}
	y := area.Y

	imageFrac := 0.4
	switch tpl.Layout {
	case "story":
		imageFrac = 0.5
	case "detailed", "article":
		imageFrac = 0.3
	}

	for _, name := range p.cfg.ModuleOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.cfg.Visible(name) {
			continue
		}
		m, ok := modules[name]
		if !ok {
			continue
		}
		id, v, ok := p.moduleValue(m)
		if !ok {
			continue
		}
		remaining := area.Y + area.H - y
		if remaining < p.textSize()*1.5 {
			break
		}

		var bh float64
		switch {
		case m.shape == catalogue.ShapeImage:
			bh = math.Min(remaining, area.H*imageFrac)
		case name == "title":
			bh = math.Min(remaining, p.titleSize()*1.4*2)
		default:
			bh = math.Min(remaining, p.textSize()*m.height*1.1)
		}
		b := box{area.X, y, area.W, bh}

		if name == "title" {
			title := record.Format(v)
			p.text(title, b, p.title, titleWeight(p.cfg.Typography.TitleWeight), p.titleSize(), gg.AlignLeft)
		} else {
			label := m.label
			if label == "" {
				label = catalogue.Resolve(id).Label
			}
			p.drawField(catalogue.Field{ID: id, Label: label, Shape: m.shape}, v, b)
		}
		y += bh + p.textSize()*0.6
	}
	return nil
}

// drawHeader fills the preview band above the canvas.
func (p *painter) drawHeader(w, h float64) {
	pad := h * 0.18
	p.dc.SetColor(p.accent)
	p.dc.DrawRectangle(0, h-4, w, 4)
	p.dc.Fill()

	title := p.rec.String("title")
	if title == "" {
		title = "Review"
	}
	titleSize := math.Min(h*0.32, p.titleSize())
	ratingW := 0.0
	if n, ok := record.ToFloat(p.rec["rating"]); ok && n > 0 {
		r := titleSize * 0.35
		ratingW = r * 2.3 * 5
		outOf := 5.0
		if n > 5 {
			outOf = 10
		}
		p.stars(n, outOf, w-pad-ratingW, pad+titleSize*0.6, r)
	}
	p.text(p.truncateLineWeighted(title, w-2*pad-ratingW-pad, titleSize), box{pad, pad, w - 2*pad - ratingW, titleSize * 1.4}, white, fonts.Bold, titleSize, gg.AlignLeft)

	var sub []string
	for _, k := range []string{"holderName", "author"} {
		if s := p.rec.String(k); s != "" && s != title && !containsStr(sub, s) {
			sub = append(sub, s)
		}
	}
	if d := record.FormatDateFR(p.rec["date"]); d != "" {
		sub = append(sub, d)
	}
	size := titleSize * 0.5
	p.text(p.truncateLine(strings.Join(sub, " · "), w-2*pad, size), box{pad, pad + titleSize*1.5, w - 2*pad, size * 1.4}, lightGray, fonts.Regular, size, gg.AlignLeft)
}

func (p *painter) truncateLineWeighted(s string, maxW, size float64) string {
	p.setFace(fonts.Bold, size)
	return p.ellipsize(s, maxW)
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// drawBranding places the watermark, and the logo when configured.
func (p *painter) drawBranding(w, h float64) {
	br := p.cfg.Branding
	size := math.Max(10, w*0.018)
	logo := 0.0
	switch br.Size {
	case "small":
		logo = w * 0.05
	case "large":
		logo = w * 0.12
	default:
		logo = w * 0.08
	}
	margin := w * 0.03

	p.setFace(fonts.Bold, size)
	tw, th := p.dc.MeasureString(BrandText)
	bw, bh := tw, th
	img := p.brandLogo(br)
	if img != nil {
		bw = math.Max(tw, logo)
		bh = logo + th + 4
	}

	x, y := w-margin-bw, h-margin-bh
	switch br.Position {
	case "top-left":
		x, y = margin, margin
	case "top-right":
		x, y = w-margin-bw, margin
	case "bottom-left":
		x, y = margin, h-margin-bh
	case "center":
		x, y = (w-bw)/2, (h-bh)/2
	}

	opacity := br.Opacity
	if opacity <= 0 {
		opacity = 0.7
	}
	if img != nil {
		p.dc.Push()
		saved := p.cfg.Image
		p.cfg.Image = studio.Image{Opacity: opacity, Filter: "none"}
		p.image(img, box{x + (bw-logo)/2, y, logo, logo})
		p.cfg.Image = saved
		p.dc.Pop()
		y += logo + 4
	}
	p.dc.SetColor(WithAlpha(p.primary, opacity))
	p.setFace(fonts.Bold, size)
	p.dc.DrawStringAnchored(BrandText, x+bw/2, y+th, 0.5, 0)
}

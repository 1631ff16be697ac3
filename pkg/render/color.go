package render

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

var namedColors = map[string]color.NRGBA{
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses #rgb, #rrggbb, #rrggbbaa, rgb(...), rgba(...) and a
// few color names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseRGBFunc(s)
	}
	return color.NRGBA{}, fmt.Errorf("unsupported color %q", s)
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	raw, err := hex.DecodeString(h)
	if err != nil || len(raw) != 4 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color #%s", h)
	}
	return color.NRGBA{raw[0], raw[1], raw[2], raw[3]}, nil
}

func parseRGBFunc(s string) (color.NRGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		if i == 3 {
			v *= 255
		}
		ch[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return color.NRGBA{ch[0], ch[1], ch[2], ch[3]}, nil
}

// MustColor is ParseColor with a fallback for unparsable input.
func MustColor(s string, fallback color.NRGBA) color.NRGBA {
	if c, err := ParseColor(s); err == nil {
		return c
	}
	return fallback
}

// WithAlpha scales the alpha of c by a in [0,1].
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * math.Max(0, math.Min(1, a))))
	return c
}

// Stop is one gradient color stop; Offset is in [0,1].
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Background is a flat color (one stop) or a linear gradient.
type Background struct {
	// Angle follows CSS: 0 points up, 90 points right.
	Angle float64
	Stops []Stop
}

// Flat reports whether b is a single color.
func (b Background) Flat() bool { return len(b.Stops) == 1 }

// ParseBackground parses a CSS color or linear-gradient(...) expression.
func ParseBackground(css string) (Background, error) {
	css = strings.TrimSpace(css)
	lower := strings.ToLower(css)
	if !strings.HasPrefix(lower, "linear-gradient(") {
		c, err := ParseColor(css)
		if err != nil {
			return Background{}, err
		}
		return Background{Stops: []Stop{{Offset: 0, Color: c}}}, nil
	}
	if !strings.HasSuffix(lower, ")") {
		return Background{}, fmt.Errorf("unterminated gradient %q", css)
	}
	args := splitTopLevel(lower[len("linear-gradient(") : len(lower)-1])
	bg := Background{Angle: 180}
	if len(args) > 0 {
		if a, ok := parseAngle(args[0]); ok {
			bg.Angle = a
			args = args[1:]
		}
	}
	if len(args) < 2 {
		return Background{}, fmt.Errorf("gradient needs two stops: %q", css)
	}

	offsets := make([]float64, len(args))
	for i, arg := range args {
		fields := strings.Fields(arg)
		c, err := ParseColor(fields[0])
		if err != nil {
			return Background{}, err
		}
		offsets[i] = -1
		if len(fields) > 1 && strings.HasSuffix(fields[1], "%") {
			if v, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64); err == nil {
				offsets[i] = v / 100
			}
		}
		bg.Stops = append(bg.Stops, Stop{Color: c})
	}
	for i := range bg.Stops {
		if offsets[i] < 0 {
			offsets[i] = float64(i) / float64(len(bg.Stops)-1)
		}
		bg.Stops[i].Offset = offsets[i]
	}
	return bg, nil
}

var sideAngles = map[string]float64{
	"to top": 0, "to top right": 45, "to right": 90, "to bottom right": 135,
	"to bottom": 180, "to bottom left": 225, "to left": 270, "to top left": 315,
}

func parseAngle(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if a, ok := sideAngles[strings.Join(strings.Fields(s), " ")]; ok {
		return a, true
	}
	if strings.HasSuffix(s, "deg") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "deg"), 64)
		return v, err == nil
	}
	return 0, false
}

func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// Fill paints b over the w×h device-space rectangle at (x, y).
func (b Background) Fill(dc *gg.Context, x, y, w, h float64) {
	if len(b.Stops) == 0 {
		return
	}
	if b.Flat() {
		dc.SetColor(b.Stops[0].Color)
	} else {
		rad := b.Angle * math.Pi / 180
		dx, dy := math.Sin(rad), -math.Cos(rad)
		half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
		cx, cy := x+w/2, y+h/2
		grad := gg.NewLinearGradient(cx-dx*half, cy-dy*half, cx+dx*half, cy+dy*half)
		for _, s := range b.Stops {
			grad.AddColorStop(s.Offset, s.Color)
		}
		dc.SetFillStyle(grad)
	}
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()
}

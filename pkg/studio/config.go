// Package studio holds the visual configuration of a composition: template,
// ratio, typography, colors, visible content modules, image settings and
// branding, plus named presets of those settings.
//
// A [Config] is a plain value. [Studio] wraps the editable [State] and
// persists every change through an injected [Store].
package studio

import (
	"slices"

	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Config is the full visual configuration.
type Config struct {
	Template       string          `json:"template" bson:"template"`
	Ratio          string          `json:"ratio" bson:"ratio"`
	Typography     Typography      `json:"typography" bson:"typography"`
	Colors         Colors          `json:"colors" bson:"colors"`
	ContentModules map[string]bool `json:"contentModules" bson:"content_modules"`
	ModuleOrder    []string        `json:"moduleOrder" bson:"module_order"`
	Image          Image           `json:"image" bson:"image"`
	Branding       Branding        `json:"branding" bson:"branding"`
}

// Typography controls fonts and text colors.
type Typography struct {
	FontFamily  string  `json:"fontFamily" bson:"font_family"`
	TitleSize   float64 `json:"titleSize" bson:"title_size"`
	TextSize    float64 `json:"textSize" bson:"text_size"`
	TitleWeight string  `json:"titleWeight" bson:"title_weight"`
	TextWeight  string  `json:"textWeight" bson:"text_weight"`
	TitleColor  string  `json:"titleColor" bson:"title_color"`
	TextColor   string  `json:"textColor" bson:"text_color"`
}

// Colors is the active palette. Background may be a flat color or a CSS
// linear-gradient expression.
type Colors struct {
	Palette       string `json:"palette" bson:"palette"`
	Background    string `json:"background" bson:"background"`
	TextPrimary   string `json:"textPrimary" bson:"text_primary"`
	TextSecondary string `json:"textSecondary" bson:"text_secondary"`
	Accent        string `json:"accent" bson:"accent"`
	Title         string `json:"title" bson:"title"`
}

// Image controls how the main image is drawn.
type Image struct {
	AspectRatio  string  `json:"aspectRatio" bson:"aspect_ratio"`
	BorderRadius float64 `json:"borderRadius" bson:"border_radius"`
	Filter       string  `json:"filter" bson:"filter"`
	Opacity      float64 `json:"opacity" bson:"opacity"`
}

// Branding is the optional logo watermark.
type Branding struct {
	Enabled  bool    `json:"enabled" bson:"enabled"`
	LogoURL  string  `json:"logoUrl" bson:"logo_url"`
	Position string  `json:"position" bson:"position"`
	Opacity  float64 `json:"opacity" bson:"opacity"`
	Size     string  `json:"size" bson:"size"`
}

// Content module names, in default display order.
var defaultModuleOrder = []string{
	"image", "title", "rating", "category", "author", "date", "thcLevel",
	"cbdLevel", "cultivar", "description", "effects", "aromas", "tags",
}

// Branding positions.
var brandingPositions = []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"}

// DefaultConfig returns the initial configuration.
func DefaultConfig() Config {
	modules := make(map[string]bool, len(defaultModuleOrder))
	for _, m := range defaultModuleOrder {
		modules[m] = true
	}
	palette := palettes[DefaultPalette]
	return Config{
		Template: DefaultTemplate,
		Ratio:    templates[DefaultTemplate].DefaultRatio,
		Typography: Typography{
			FontFamily:  "Inter",
			TitleSize:   32,
			TextSize:    16,
			TitleWeight: "700",
			TextWeight:  "400",
			TitleColor:  "#ffffff",
			TextColor:   "#e0e0e0",
		},
		Colors:         palette.colors(DefaultPalette),
		ContentModules: modules,
		ModuleOrder:    slices.Clone(defaultModuleOrder),
		Image: Image{
			AspectRatio:  "1:1",
			BorderRadius: 12,
			Filter:       "none",
			Opacity:      1,
		},
		Branding: Branding{
			Position: "bottom-right",
			Opacity:  0.7,
			Size:     "medium",
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	if c.ContentModules != nil {
		out.ContentModules = make(map[string]bool, len(c.ContentModules))
		for k, v := range c.ContentModules {
			out.ContentModules[k] = v
		}
	}
	out.ModuleOrder = slices.Clone(c.ModuleOrder)
	return out
}

// Visible reports whether the content module is switched on.
func (c Config) Visible(module string) bool {
	return c.ContentModules[module]
}

// Dimensions returns the pixel size of the configured ratio.
func (c Config) Dimensions() (width, height int) {
	r := LookupRatio(c.Ratio)
	return r.Width, r.Height
}

// Validate checks that c references known templates and ratios and that
// its colors and numeric settings are usable.
func (c Config) Validate() error {
	if _, ok := templates[c.Template]; !ok {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown template %q", c.Template)
	}
	if _, ok := ratios[c.Ratio]; !ok {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown ratio %q", c.Ratio)
	}
	for _, color := range []string{
		c.Typography.TitleColor, c.Typography.TextColor,
		c.Colors.TextPrimary, c.Colors.TextSecondary, c.Colors.Accent, c.Colors.Title,
	} {
		if err := errs.ValidateHexColor(color); err != nil {
			return err
		}
	}
	if c.Typography.TitleSize <= 0 || c.Typography.TextSize <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "font sizes must be positive")
	}
	if c.Image.Opacity < 0 || c.Image.Opacity > 1 || c.Branding.Opacity < 0 || c.Branding.Opacity > 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "opacity must be within [0, 1]")
	}
	if c.Branding.Position != "" && !slices.Contains(brandingPositions, c.Branding.Position) {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown branding position %q", c.Branding.Position)
	}
	return nil
}

// SetDefaults fills zero values from DefaultConfig.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.Template == "" {
		c.Template = def.Template
	}
	if c.Ratio == "" {
		c.Ratio = templates[c.Template].DefaultRatio
		if c.Ratio == "" {
			c.Ratio = def.Ratio
		}
	}
	if c.Typography == (Typography{}) {
		c.Typography = def.Typography
	}
	if c.Colors == (Colors{}) {
		c.Colors = def.Colors
	}
	if c.ContentModules == nil {
		c.ContentModules = def.ContentModules
	}
	if len(c.ModuleOrder) == 0 {
		c.ModuleOrder = def.ModuleOrder
	}
	if c.Image == (Image{}) {
		c.Image = def.Image
	}
	if c.Branding == (Branding{}) {
		c.Branding = def.Branding
	}
}

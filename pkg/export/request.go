package export

import (
	"slices"
	"strings"

	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatPNG      Format = "png"
	FormatJPEG     Format = "jpeg"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats in menu order.
var Formats = []Format{FormatPNG, FormatJPEG, FormatPDF, FormatMarkdown}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatMarkdown:
		return "md"
	}
	return string(f)
}

// ContentType returns the MIME type of the encoded artifact.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

// Raster reports whether the format captures a surface.
func (f Format) Raster() bool { return f != FormatMarkdown }

// Valid reports whether f is supported.
func (f Format) Valid() bool { return slices.Contains(Formats, f) }

// ParseFormat maps user input to a format. "jpg" is accepted for jpeg and
// "md" for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "jpg":
		return FormatJPEG, nil
	case "md":
		return FormatMarkdown, nil
	default:
		if f.Valid() {
			return f, nil
		}
	}
	return "", errUnsupportedFormat(s)
}

func errUnsupportedFormat(s string) error {
	return errs.New(errs.ErrCodeInvalidFormat, "Format non supporté: %q", s)
}

// Scope selects which surface is captured.
type Scope string

// Supported scopes.
const (
	ScopeFull   Scope = "full"
	ScopeCanvas Scope = "canvas"
	ScopeSocial Scope = "social"
)

// Scopes lists the supported scopes.
var Scopes = []Scope{ScopeFull, ScopeCanvas, ScopeSocial}

// Valid reports whether s is supported.
func (s Scope) Valid() bool { return slices.Contains(Scopes, s) }

// ParseScope maps user input to a scope. "openGraph" and "og" are accepted
// for social.
func ParseScope(s string) (Scope, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "opengraph", "og":
		return ScopeSocial, nil
	case "":
		return ScopeFull, nil
	default:
		if Scope(v).Valid() {
			return Scope(v), nil
		}
	}
	return "", errs.New(errs.ErrCodeInvalidScope, "unknown export scope %q", s)
}

// Social export geometry.
const (
	SocialWidth  = 1200
	SocialHeight = 630
	SocialScale  = 3
)

// Option defaults and limits.
const (
	DefaultScale   = 2.0
	MinScale       = 1.0
	MaxScale       = 3.0
	DefaultQuality = 0.9
	MinQuality     = 0.5
	MaxQuality     = 1.0
	DocumentScale  = 2.0
	PageMarginMM   = 20.0

	DefaultPageSize    = "a4"
	DefaultOrientation = "portrait"
)

var pageSizes = map[string]string{
	"a3":     "A3",
	"a4":     "A4",
	"a5":     "A5",
	"letter": "Letter",
	"legal":  "Legal",
}

// PageSizes returns the accepted page size names.
func PageSizes() []string {
	return []string{"a3", "a4", "a5", "letter", "legal"}
}

// Options are the format-specific settings of a request.
type Options struct {
	// Scale is the png resolution multiplier, in [1, 3].
	Scale float64 `json:"scale,omitempty" toml:"scale"`
	// Quality is the jpeg quality factor, clamped to [0.5, 1].
	Quality float64 `json:"quality,omitempty" toml:"quality"`
	// Transparent leaves the png background unpainted.
	Transparent bool `json:"transparent,omitempty" toml:"transparent"`
	// PageSize is the pdf page format (a4, letter, ...).
	PageSize string `json:"pageSize,omitempty" toml:"page_size"`
	// Orientation is portrait or landscape.
	Orientation string `json:"orientation,omitempty" toml:"orientation"`
	// IncludeBranding draws the brand mark.
	IncludeBranding bool `json:"includeBranding" toml:"include_branding"`
}

// DefaultOptions returns the export defaults. Decode user input on top of
// this value so that omitted fields keep their defaults.
func DefaultOptions() Options {
	return Options{
		Scale:           DefaultScale,
		Quality:         DefaultQuality,
		PageSize:        DefaultPageSize,
		Orientation:     DefaultOrientation,
		IncludeBranding: true,
	}
}

// SetDefaults fills zero values and clamps the jpeg quality.
func (o *Options) SetDefaults() {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	o.Quality = min(max(o.Quality, MinQuality), MaxQuality)
	if o.PageSize == "" {
		o.PageSize = DefaultPageSize
	}
	o.PageSize = strings.ToLower(o.PageSize)
	if o.Orientation == "" {
		o.Orientation = DefaultOrientation
	}
	o.Orientation = strings.ToLower(o.Orientation)
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Scale < MinScale || o.Scale > MaxScale {
		return errs.New(errs.ErrCodeInvalidOption, "scale must be between %g and %g, got %g", MinScale, MaxScale, o.Scale)
	}
	if _, ok := pageSizes[o.PageSize]; !ok {
		return errs.New(errs.ErrCodeInvalidOption, "unknown page size %q", o.PageSize)
	}
	if o.Orientation != "portrait" && o.Orientation != "landscape" {
		return errs.New(errs.ErrCodeInvalidOption, "orientation must be portrait or landscape, got %q", o.Orientation)
	}
	return nil
}

// Request is one export invocation. It is consumed once.
type Request struct {
	Format  Format  `json:"format"`
	Scope   Scope   `json:"scope"`
	Options Options `json:"options"`
}

// NewRequest returns a request with default options.
func NewRequest(format Format, scope Scope) Request {
	return Request{Format: format, Scope: scope, Options: DefaultOptions()}
}

// SetDefaults fills the scope and the options.
func (r *Request) SetDefaults() {
	if r.Scope == "" {
		r.Scope = ScopeFull
	}
	r.Options.SetDefaults()
}

// Validate checks the format, the scope and the options.
func (r Request) Validate() error {
	if !r.Format.Valid() {
		return errUnsupportedFormat(string(r.Format))
	}
	if !r.Scope.Valid() {
		return errs.New(errs.ErrCodeInvalidScope, "unknown export scope %q", r.Scope)
	}
	return r.Options.Validate()
}

// SurfaceID returns the surface the request captures.
func (r Request) SurfaceID() string {
	if r.Scope == ScopeFull {
		return SurfacePreview
	}
	return SurfaceCanvas
}

// capture returns the geometry used to rasterize for r.
func (r Request) capture() captureSpec {
	spec := captureSpec{Scale: r.Options.Scale, Branding: r.Options.IncludeBranding}
	switch r.Format {
	case FormatPNG:
		spec.Transparent = r.Options.Transparent
	case FormatJPEG:
		spec.Scale = 1
	case FormatPDF:
		spec.Scale = DocumentScale
	}
	if r.Scope == ScopeSocial {
		spec.Width, spec.Height, spec.Scale = SocialWidth, SocialHeight, SocialScale
	}
	return spec
}

type captureSpec struct {
	Width, Height int
	Scale         float64
	Transparent   bool
	Branding      bool
}

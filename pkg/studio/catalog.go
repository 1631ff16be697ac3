package studio

import "sort"

// Palette is a named set of harmonised colors.
type Palette struct {
	Name          string `json:"name"`
	Background    string `json:"background"`
	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	Accent        string `json:"accent"`
	Title         string `json:"title"`
}

func (p Palette) colors(key string) Colors {
	return Colors{
		Palette:       key,
		Background:    p.Background,
		TextPrimary:   p.TextPrimary,
		TextSecondary: p.TextSecondary,
		Accent:        p.Accent,
		Title:         p.Title,
	}
}

// Template is a base layout style.
type Template struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Layout          string   `json:"layout"`
	DefaultRatio    string   `json:"defaultRatio"`
	SupportedRatios []string `json:"supportedRatios"`
}

// Ratio is a canvas aspect with its export pixel size.
type Ratio struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

const (
	DefaultPalette  = "modern"
	DefaultTemplate = "modernCompact"
	DefaultRatio    = "1:1"
)

var palettes = map[string]Palette{
	"modern": {
		Name:          "Moderne",
		Background:    "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		TextPrimary:   "#ffffff",
		TextSecondary: "#e0e0e0",
		Accent:        "#ffd700",
		Title:         "#ffffff",
	},
	"nature": {
		Name:          "Nature",
		Background:    "linear-gradient(135deg, #2ecc71 0%, #27ae60 100%)",
		TextPrimary:   "#ffffff",
		TextSecondary: "#ecf0f1",
		Accent:        "#f39c12",
		Title:         "#ffffff",
	},
	"ocean": {
		Name:          "Océan",
		Background:    "linear-gradient(135deg, #3498db 0%, #2980b9 100%)",
		TextPrimary:   "#ffffff",
		TextSecondary: "#ecf0f1",
		Accent:        "#e74c3c",
		Title:         "#ffffff",
	},
	"sunset": {
		Name:          "Coucher de Soleil",
		Background:    "linear-gradient(135deg, #ff6b6b 0%, #ee5a6f 100%)",
		TextPrimary:   "#ffffff",
		TextSecondary: "#ffe0e0",
		Accent:        "#ffd93d",
		Title:         "#ffffff",
	},
	"elegant": {
		Name:          "Élégant",
		Background:    "linear-gradient(135deg, #1e1e1e 0%, #2c2c2c 100%)",
		TextPrimary:   "#ffffff",
		TextSecondary: "#b0b0b0",
		Accent:        "#d4af37",
		Title:         "#f0f0f0",
	},
	"minimal": {
		Name:          "Minimaliste",
		Background:    "#ffffff",
		TextPrimary:   "#333333",
		TextSecondary: "#666666",
		Accent:        "#007aff",
		Title:         "#000000",
	},
}

var templates = map[string]Template{
	"modernCompact": {
		ID:              "modernCompact",
		Name:            "Moderne Compact",
		Description:     "Design épuré et moderne, idéal pour les réseaux sociaux",
		Layout:          "compact",
		DefaultRatio:    "1:1",
		SupportedRatios: []string{"1:1", "16:9", "9:16"},
	},
	"detailedCard": {
		ID:              "detailedCard",
		Name:            "Fiche Technique Détaillée",
		Description:     "Présentation complète avec tous les détails",
		Layout:          "detailed",
		DefaultRatio:    "16:9",
		SupportedRatios: []string{"16:9", "4:3", "A4"},
	},
	"blogArticle": {
		ID:              "blogArticle",
		Name:            "Article de Blog",
		Description:     "Format long adapté aux blogs",
		Layout:          "article",
		DefaultRatio:    "A4",
		SupportedRatios: []string{"A4", "16:9"},
	},
	"socialStory": {
		ID:              "socialStory",
		Name:            "Story Social Media",
		Description:     "Format vertical pour Instagram et TikTok",
		Layout:          "story",
		DefaultRatio:    "9:16",
		SupportedRatios: []string{"9:16"},
	},
}

var templateOrder = []string{"modernCompact", "detailedCard", "blogArticle", "socialStory"}

var ratios = map[string]Ratio{
	"1:1":  {Key: "1:1", Label: "Carré (1:1)", Width: 1080, Height: 1080},
	"16:9": {Key: "16:9", Label: "Paysage (16:9)", Width: 1920, Height: 1080},
	"9:16": {Key: "9:16", Label: "Portrait (9:16)", Width: 1080, Height: 1920},
	"4:3":  {Key: "4:3", Label: "Standard (4:3)", Width: 1440, Height: 1080},
	"A4":   {Key: "A4", Label: "A4 (Document)", Width: 2480, Height: 3508},
}

var ratioOrder = []string{"1:1", "16:9", "9:16", "4:3", "A4"}

// PaletteKeys returns the palette keys in sorted order.
func PaletteKeys() []string {
	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LookupPalette returns the palette with key.
func LookupPalette(key string) (Palette, bool) {
	p, ok := palettes[key]
	return p, ok
}

// Templates returns every template in display order.
func Templates() []Template {
	out := make([]Template, len(templateOrder))
	for i, id := range templateOrder {
		out[i] = templates[id]
	}
	return out
}

// LookupTemplate returns the template with id.
func LookupTemplate(id string) (Template, bool) {
	t, ok := templates[id]
	return t, ok
}

// Ratios returns every ratio in display order.
func Ratios() []Ratio {
	out := make([]Ratio, len(ratioOrder))
	for i, k := range ratioOrder {
		out[i] = ratios[k]
	}
	return out
}

// LookupRatio returns the ratio with key, falling back to 1:1.
func LookupRatio(key string) Ratio {
	if r, ok := ratios[key]; ok {
		return r
	}
	return ratios[DefaultRatio]
}

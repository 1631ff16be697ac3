// Package catalogue is the static registry of draggable fields.
//
// Every field that can be placed on a composition is described once here:
// its id (a record key, or a dotted path into categoryRatings), the section
// it is listed under, its display label and icon, and the [Shape] that
// decides how the compositor draws its value. The catalogue is built at
// init time and never mutated.
package catalogue

import "sort"

// Shape tags the kind of value a field holds. Renderers switch over it
// exhaustively.
type Shape string

const (
	ShapeText          Shape = "text"
	ShapeImage         Shape = "image"
	ShapeGallery       Shape = "gallery"
	ShapeDate          Shape = "date"
	ShapeRating        Shape = "rating"
	ShapeCategoryBlock Shape = "category-block"
	ShapeSlider        Shape = "slider"
	ShapeTags          Shape = "tags"
	ShapeCultivarList  Shape = "cultivar-list"
	ShapePipeline      Shape = "pipeline"
	ShapeSubstratMix   Shape = "substrat-mix"
	ShapeBoolean       Shape = "boolean"
	ShapeTextarea      Shape = "textarea"
	ShapeJSON          Shape = "json"
	ShapeBubble        Shape = "bubble"
	ShapeBadge         Shape = "badge"
	ShapeSeparator     Shape = "separator"
	ShapeZone          Shape = "zone"
)

// Shapes lists every shape tag.
var Shapes = []Shape{
	ShapeText, ShapeImage, ShapeGallery, ShapeDate, ShapeRating,
	ShapeCategoryBlock, ShapeSlider, ShapeTags, ShapeCultivarList,
	ShapePipeline, ShapeSubstratMix, ShapeBoolean, ShapeTextarea, ShapeJSON,
	ShapeBubble, ShapeBadge, ShapeSeparator, ShapeZone,
}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	for _, v := range Shapes {
		if v == s {
			return true
		}
	}
	return false
}

// Field describes one draggable field.
type Field struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Section string `json:"section,omitempty"`
	Shape   Shape  `json:"type"`
}

// IsZone reports whether f is the zone template.
func (f Field) IsZone() bool { return f.Shape == ShapeZone }

// Section groups fields in the panel.
type Section struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// Section keys, in panel order.
const (
	SectionBasic          = "basic"
	SectionRatings        = "ratings"
	SectionVisualRatings  = "visualRatings"
	SectionSmellRatings   = "smellRatings"
	SectionTextureRatings = "textureRatings"
	SectionTasteRatings   = "tasteRatings"
	SectionEffectsRatings = "effectsRatings"
	SectionSensorial      = "sensorial"
	SectionLevels         = "levels"
	SectionPipelines      = "pipelines"
	SectionContent        = "content"
	SectionStickers       = "stickers"
)

// FallbackIcon is shown for ids that are not in the catalogue.
const FallbackIcon = "🔲"

// ZoneTemplateID is the id of the zone drag source.
const ZoneTemplateID = "zone"

var zoneTemplate = Field{ID: ZoneTemplateID, Label: "Zone", Icon: "🗂️", Shape: ShapeZone}

var (
	sections []Section
	byID     map[string]Field
)

func init() {
	sections = buildSections()
	byID = make(map[string]Field)
	for i := range sections {
		for j := range sections[i].Fields {
			f := &sections[i].Fields[j]
			f.Section = sections[i].Key
			byID[f.ID] = *f
		}
	}
}

// Sections returns the sections in display order. The result is a copy.
func Sections() []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = Section{Key: s.Key, Label: s.Label, Fields: append([]Field(nil), s.Fields...)}
	}
	return out
}

// SectionKeys returns the section keys in display order.
func SectionKeys() []string {
	keys := make([]string, len(sections))
	for i, s := range sections {
		keys[i] = s.Key
	}
	return keys
}

// SectionLabel returns the display label for key, or key itself.
func SectionLabel(key string) string {
	for _, s := range sections {
		if s.Key == key {
			return s.Label
		}
	}
	return key
}

// Fields returns every field in catalogue order.
func Fields() []Field {
	var out []Field
	for _, s := range sections {
		out = append(out, s.Fields...)
	}
	return out
}

// InSection returns the fields of the section key, or nil.
func InSection(key string) []Field {
	for _, s := range sections {
		if s.Key == key {
			return append([]Field(nil), s.Fields...)
		}
	}
	return nil
}

// Lookup finds a field by id. The zone template is included.
func Lookup(id string) (Field, bool) {
	if id == ZoneTemplateID {
		return zoneTemplate, true
	}
	f, ok := byID[id]
	return f, ok
}

// Resolve returns the field for id, or a text field labelled with the id
// itself when it is not catalogued.
func Resolve(id string) Field {
	if f, ok := Lookup(id); ok {
		return f
	}
	return Field{ID: id, Label: id, Icon: FallbackIcon, Shape: ShapeText}
}

// ZoneTemplate returns the drag source that creates zones.
func ZoneTemplate() Field { return zoneTemplate }

// IDs returns every catalogued field id, sorted.
func IDs() []string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Package layout implements the editable composition document and the
// placement engine that mutates it.
//
// A [Model] is an ordered list of placed items. Each [Item] is either a
// standalone field (its id is the catalogue field id) or a zone (generated
// id) that owns an ordered set of assigned field ids. Coordinates and sizes
// are percentages of the canvas, so a model renders identically at any
// resolution.
//
// The placement invariant holds for every model produced by this package:
// a field id appears at most once, either as a standalone item or in the
// assignedFields of exactly one zone.
//
// Transitions ([Drop], [Reassign], [Move], ...) are pure functions that
// return a new Model. [Controller] serializes them and publishes whole
// snapshots; [DragSession] turns pointer events into transitions.
package layout

import (
	"github.com/matzehuels/orchard/pkg/catalogue"
)

// Kind discriminates placed items.
type Kind string

const (
	KindField Kind = "field"
	KindZone  Kind = "zone"
)

// Defaults for new items, in canvas percent.
const (
	DefaultWidth      = 25.0
	DefaultHeight     = 20.0
	DefaultZoneWidth  = 40.0
	DefaultZoneHeight = 25.0
	DefaultZoneLabel  = "Zone"
)

// Clamp bounds, in canvas percent.
const (
	MinPosition = 5.0
	MaxPosition = 75.0
	MinWidth    = 10.0
	MaxWidth    = 90.0
	MinHeight   = 5.0
	MaxHeight   = 100.0
)

// Point is a position in canvas percent (or pixels for pointer input).
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Item is one placed field or zone.
type Item struct {
	ID       string          `json:"id" bson:"id"`
	Kind     Kind            `json:"kind" bson:"kind"`
	Label    string          `json:"label,omitempty" bson:"label,omitempty"`
	Icon     string          `json:"icon,omitempty" bson:"icon,omitempty"`
	Shape    catalogue.Shape `json:"type,omitempty" bson:"type,omitempty"`
	Position Point           `json:"position" bson:"position"`
	Width    float64         `json:"width" bson:"width"`
	Height   float64         `json:"height" bson:"height"`
	Rotation float64         `json:"rotation" bson:"rotation"`

	// Zone-only.
	SectionFilter  string   `json:"sectionKey,omitempty" bson:"section_key,omitempty"`
	AssignedFields []string `json:"assignedFields,omitempty" bson:"assigned_fields,omitempty"`
}

// IsZone reports whether the item is a zone.
func (it Item) IsZone() bool { return it.Kind == KindZone }

// Has reports whether the zone lists fieldID.
func (it Item) Has(fieldID string) bool {
	for _, id := range it.AssignedFields {
		if id == fieldID {
			return true
		}
	}
	return false
}

func (it Item) clone() Item {
	if it.AssignedFields != nil {
		it.AssignedFields = append([]string{}, it.AssignedFields...)
	}
	return it
}

// NewField returns a standalone item for f at pos with default size.
func NewField(f catalogue.Field, pos Point) Item {
	return Item{
		ID:       f.ID,
		Kind:     KindField,
		Label:    f.Label,
		Icon:     f.Icon,
		Shape:    f.Shape,
		Position: ClampPosition(pos),
		Width:    DefaultWidth,
		Height:   DefaultHeight,
	}
}

// NewZone returns an empty zone with the given id at pos.
func NewZone(id string, pos Point) Item {
	tpl := catalogue.ZoneTemplate()
	return Item{
		ID:             id,
		Kind:           KindZone,
		Label:          DefaultZoneLabel,
		Icon:           tpl.Icon,
		Shape:          catalogue.ShapeZone,
		Position:       ClampPosition(pos),
		Width:          DefaultZoneWidth,
		Height:         DefaultZoneHeight,
		AssignedFields: []string{},
	}
}

// Model is the ordered collection of placed items. Later items are drawn
// on top of earlier ones.
type Model []Item

// Clone returns a deep copy of m.
func (m Model) Clone() Model {
	if m == nil {
		return nil
	}
	out := make(Model, len(m))
	for i, it := range m {
		out[i] = it.clone()
	}
	return out
}

// Index returns the position of the item with id, or -1.
func (m Model) Index(id string) int {
	for i, it := range m {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the item with id.
func (m Model) Get(id string) (Item, bool) {
	if i := m.Index(id); i >= 0 {
		return m[i].clone(), true
	}
	return Item{}, false
}

// ZoneOf returns the id of the zone that holds fieldID.
func (m Model) ZoneOf(fieldID string) (string, bool) {
	for _, it := range m {
		if it.IsZone() && it.Has(fieldID) {
			return it.ID, true
		}
	}
	return "", false
}

// Zones returns the zone items in order.
func (m Model) Zones() []Item {
	var out []Item
	for _, it := range m {
		if it.IsZone() {
			out = append(out, it.clone())
		}
	}
	return out
}

// PlacedIDs returns every field id present in m: standalone items first,
// then zone members, in model order.
func PlacedIDs(m Model) []string {
	var ids []string
	for _, it := range m {
		if !it.IsZone() {
			ids = append(ids, it.ID)
		}
	}
	for _, it := range m {
		if it.IsZone() {
			ids = append(ids, it.AssignedFields...)
		}
	}
	return ids
}

// PlacedSet returns PlacedIDs as a set.
func PlacedSet(m Model) map[string]bool {
	set := map[string]bool{}
	for _, id := range PlacedIDs(m) {
		set[id] = true
	}
	return set
}

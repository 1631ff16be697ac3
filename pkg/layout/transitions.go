package layout

import (
	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Drop places f at pos and returns the new model.
//
//   - the zone template always creates a new zone with id newID
//   - a field already standalone in m is moved to pos
//   - a field currently in a zone leaves that zone and becomes standalone
//   - any other field is inserted with default size
//
// Fields without data in the record are accepted; the compositor draws a
// placeholder for them.
func Drop(m Model, f catalogue.Field, pos Point, newID string) (Model, error) {
	if f.IsZone() {
		if newID == "" {
			return m, errs.New(errs.ErrCodeInvalidInput, "zone id is required")
		}
		if m.Index(newID) >= 0 {
			return m, errs.New(errs.ErrCodeInvalidLayout, "item %q already exists", newID)
		}
		out := m.Clone()
		return append(out, NewZone(newID, pos)), nil
	}
	if err := errs.ValidateFieldID(f.ID); err != nil {
		return m, err
	}

	if i := m.Index(f.ID); i >= 0 {
		if m[i].IsZone() {
			return m, errs.New(errs.ErrCodeInvalidField, "%q is a zone, not a field", f.ID)
		}
		out := m.Clone()
		out[i].Position = ClampPosition(pos)
		return out, nil
	}

	out := withoutMember(m.Clone(), f.ID, "")
	return append(out, NewField(f, pos)), nil
}

// Reassign moves fieldID into the zone zoneID in one step: the standalone
// item (if any) and any membership in another zone are removed, and the
// id is appended to the target zone unless already present.
func Reassign(m Model, fieldID, zoneID string) (Model, error) {
	zi := m.Index(zoneID)
	if zi < 0 || !m[zi].IsZone() {
		return m, errs.New(errs.ErrCodeZoneNotFound, "zone %q not found", zoneID)
	}
	if err := errs.ValidateFieldID(fieldID); err != nil {
		return m, err
	}
	if i := m.Index(fieldID); i >= 0 && m[i].IsZone() {
		return m, errs.New(errs.ErrCodeInvalidField, "zones cannot be nested")
	}

	out := withoutMember(m.Clone(), fieldID, zoneID)
	if i := out.Index(fieldID); i >= 0 {
		out = append(out[:i], out[i+1:]...)
	}
	zi = out.Index(zoneID)
	if !out[zi].Has(fieldID) {
		out[zi].AssignedFields = append(out[zi].AssignedFields, fieldID)
	}
	return out, nil
}

// Unassign removes fieldID from the zone. The field is not placed back on
// the canvas.
func Unassign(m Model, zoneID, fieldID string) (Model, error) {
	zi := m.Index(zoneID)
	if zi < 0 || !m[zi].IsZone() {
		return m, errs.New(errs.ErrCodeZoneNotFound, "zone %q not found", zoneID)
	}
	if !m[zi].Has(fieldID) {
		return m, errs.New(errs.ErrCodeItemNotFound, "%q is not in zone %q", fieldID, zoneID)
	}
	out := m.Clone()
	out[zi].AssignedFields = removeString(out[zi].AssignedFields, fieldID)
	return out, nil
}

// Patch is a partial update of an item. Nil members are left unchanged.
type Patch struct {
	Position *Point   `json:"position,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Label    *string  `json:"label,omitempty"`
}

// Update merges p into the item id, applying the clamps.
func Update(m Model, id string, p Patch) (Model, error) {
	i := m.Index(id)
	if i < 0 {
		return m, errs.New(errs.ErrCodeItemNotFound, "item %q not found", id)
	}
	out := m.Clone()
	it := &out[i]
	if p.Position != nil {
		it.Position = ClampPosition(*p.Position)
	}
	if p.Width != nil {
		it.Width = ClampWidth(*p.Width)
	}
	if p.Height != nil {
		it.Height = ClampHeight(*p.Height)
	}
	if p.Rotation != nil {
		it.Rotation = NormalizeRotation(*p.Rotation)
	}
	if p.Label != nil {
		it.Label = *p.Label
	}
	return out, nil
}

// Move sets the position of item id.
func Move(m Model, id string, pos Point) (Model, error) {
	return Update(m, id, Patch{Position: &pos})
}

// Resize sets the size of item id.
func Resize(m Model, id string, width, height float64) (Model, error) {
	return Update(m, id, Patch{Width: &width, Height: &height})
}

// Rotate sets the rotation of item id in degrees.
func Rotate(m Model, id string, deg float64) (Model, error) {
	return Update(m, id, Patch{Rotation: &deg})
}

// Remove deletes item id. Removing a zone discards its assigned fields;
// callers confirm that with the user first.
func Remove(m Model, id string) (Model, error) {
	i := m.Index(id)
	if i < 0 {
		return m, errs.New(errs.ErrCodeItemNotFound, "item %q not found", id)
	}
	out := m.Clone()
	return append(out[:i], out[i+1:]...), nil
}

// SetSectionFilter tags a zone with a suggested catalogue section. An
// empty section clears it. The filter is advisory and never rejects drops.
func SetSectionFilter(m Model, zoneID, section string) (Model, error) {
	zi := m.Index(zoneID)
	if zi < 0 || !m[zi].IsZone() {
		return m, errs.New(errs.ErrCodeZoneNotFound, "zone %q not found", zoneID)
	}
	if section != "" && catalogue.InSection(section) == nil {
		return m, errs.New(errs.ErrCodeInvalidInput, "unknown section %q", section)
	}
	out := m.Clone()
	out[zi].SectionFilter = section
	return out, nil
}

// RenameZone changes a zone label. An empty label resets it to "Zone".
func RenameZone(m Model, zoneID, label string) (Model, error) {
	zi := m.Index(zoneID)
	if zi < 0 || !m[zi].IsZone() {
		return m, errs.New(errs.ErrCodeZoneNotFound, "zone %q not found", zoneID)
	}
	if label == "" {
		label = DefaultZoneLabel
	}
	out := m.Clone()
	out[zi].Label = label
	return out, nil
}

// withoutMember drops fieldID from every zone except keep. It modifies m,
// which must already be a private copy.
func withoutMember(m Model, fieldID, keep string) Model {
	for i := range m {
		if m[i].IsZone() && m[i].ID != keep && m[i].Has(fieldID) {
			m[i].AssignedFields = removeString(m[i].AssignedFields, fieldID)
		}
	}
	return m
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

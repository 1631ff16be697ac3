package layout

import (
	"math"

	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Validate checks that m is well formed: item ids are unique and
// non-empty, kinds are known, and every field id is placed at most once
// across standalone items and zone memberships.
func Validate(m Model) error {
	items := map[string]Kind{}
	for _, it := range m {
		if it.ID == "" {
			return errs.New(errs.ErrCodeInvalidLayout, "item without id")
		}
		if it.Kind != KindField && it.Kind != KindZone {
			return errs.New(errs.ErrCodeInvalidLayout, "item %q has unknown kind %q", it.ID, it.Kind)
		}
		if _, dup := items[it.ID]; dup {
			return errs.New(errs.ErrCodeInvalidLayout, "duplicate item %q", it.ID)
		}
		for _, v := range []float64{it.Position.X, it.Position.Y, it.Width, it.Height, it.Rotation} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.New(errs.ErrCodeInvalidLayout, "item %q has a non-finite coordinate", it.ID)
			}
		}
		items[it.ID] = it.Kind
	}

	owner := map[string]string{}
	for _, it := range m {
		if !it.IsZone() {
			if len(it.AssignedFields) > 0 {
				return errs.New(errs.ErrCodeInvalidLayout, "field %q cannot own assigned fields", it.ID)
			}
			continue
		}
		for _, id := range it.AssignedFields {
			if kind, ok := items[id]; ok {
				if kind == KindZone {
					return errs.New(errs.ErrCodeInvalidLayout, "zone %q is assigned to zone %q", id, it.ID)
				}
				return errs.New(errs.ErrCodeInvalidLayout, "field %q is both standalone and in zone %q", id, it.ID)
			}
			if prev, ok := owner[id]; ok {
				if prev == it.ID {
					return errs.New(errs.ErrCodeInvalidLayout, "field %q listed twice in zone %q", id, it.ID)
				}
				return errs.New(errs.ErrCodeInvalidLayout, "field %q is in zones %q and %q", id, prev, it.ID)
			}
			owner[id] = it.ID
		}
	}
	return nil
}

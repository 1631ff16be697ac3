package layout

import (
	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Action names a layout operation in a batch.
type Action string

const (
	ActionDrop     Action = "drop"
	ActionAssign   Action = "assign"
	ActionUnassign Action = "unassign"
	ActionMove     Action = "move"
	ActionResize   Action = "resize"
	ActionRotate   Action = "rotate"
	ActionRemove   Action = "remove"
	ActionFilter   Action = "filter"
	ActionRename   Action = "rename"
)

// Op is one serialized layout operation, as accepted by the API and the
// CLI. Only the members relevant to Action are read.
type Op struct {
	Action Action `json:"action"`
	// ID is the item moved, resized, rotated or removed, or the id given
	// to a dropped zone.
	ID string `json:"id,omitempty"`
	// Field is the field dropped, assigned or unassigned.
	Field string `json:"field,omitempty"`
	// Zone is the zone of assign, unassign, filter and rename. Filter and
	// rename fall back to ID when Zone is empty.
	Zone     string   `json:"zone,omitempty"`
	Position *Point   `json:"position,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Section  string   `json:"section,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// ApplyOps applies ops in order. Either all succeed or m is returned
// unchanged with the first error. newID supplies ids for new zones.
func ApplyOps(m Model, ops []Op, newID func() string) (Model, error) {
	if newID == nil {
		newID = NewZoneID
	}
	cur := m
	for i, op := range ops {
		next, err := applyOp(cur, op, newID)
		if err != nil {
			return m, errs.Wrap(errs.GetCodeOr(err, errs.ErrCodeInvalidInput), err, "operation %d (%s)", i, op.Action)
		}
		cur = next
	}
	return cur, nil
}

func applyOp(m Model, op Op, newID func() string) (Model, error) {
	switch op.Action {
	case ActionDrop:
		if op.Position == nil {
			return m, errs.New(errs.ErrCodeInvalidInput, "drop requires a position")
		}
		f := catalogue.Resolve(op.Field)
		id := ""
		if f.IsZone() {
			id = op.ID
			if id == "" {
				id = newID()
			}
		}
		return Drop(m, f, *op.Position, id)
	case ActionAssign:
		return Reassign(m, op.Field, op.Zone)
	case ActionUnassign:
		return Unassign(m, op.Zone, op.Field)
	case ActionMove:
		if op.Position == nil {
			return m, errs.New(errs.ErrCodeInvalidInput, "move requires a position")
		}
		return Move(m, op.ID, *op.Position)
	case ActionResize:
		return Update(m, op.ID, Patch{Width: op.Width, Height: op.Height})
	case ActionRotate:
		if op.Rotation == nil {
			return m, errs.New(errs.ErrCodeInvalidInput, "rotate requires a rotation")
		}
		return Rotate(m, op.ID, *op.Rotation)
	case ActionRemove:
		return Remove(m, op.ID)
	case ActionFilter:
		return SetSectionFilter(m, op.zoneTarget(), op.Section)
	case ActionRename:
		return RenameZone(m, op.zoneTarget(), op.Label)
	default:
		return m, errs.New(errs.ErrCodeUnsupported, "unknown action %q", op.Action)
	}
}

func (op Op) zoneTarget() string {
	if op.Zone != "" {
		return op.Zone
	}
	return op.ID
}

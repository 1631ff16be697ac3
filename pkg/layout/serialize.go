package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
)

// =============================================================================
// Layout Serialization API
// =============================================================================

// Marshal encodes m as a JSON array. A nil model encodes as [].
func Marshal(m Model) ([]byte, error) {
	if m == nil {
		m = Model{}
	}
	return json.Marshal(m)
}

// MarshalIndent is Marshal with two-space indentation, for files.
func MarshalIndent(m Model) ([]byte, error) {
	if m == nil {
		m = Model{}
	}
	return json.MarshalIndent(m, "", "  ")
}

// storedItem accepts both the current encoding and older host payloads
// that carried field descriptors verbatim (no kind, zone flagged by type
// or a zone boolean, missing sizes).
type storedItem struct {
	ID             string          `json:"id"`
	Kind           Kind            `json:"kind"`
	Label          string          `json:"label"`
	Icon           string          `json:"icon"`
	Shape          catalogue.Shape `json:"type"`
	Zone           bool            `json:"zone"`
	Position       *Point          `json:"position"`
	Width          *float64        `json:"width"`
	Height         *float64        `json:"height"`
	Rotation       float64         `json:"rotation"`
	SectionFilter  string          `json:"sectionKey"`
	AssignedFields []string        `json:"assignedFields"`
}

func (s storedItem) item() Item {
	it := Item{
		ID:             s.ID,
		Kind:           s.Kind,
		Label:          s.Label,
		Icon:           s.Icon,
		Shape:          s.Shape,
		Rotation:       s.Rotation,
		SectionFilter:  s.SectionFilter,
		AssignedFields: s.AssignedFields,
	}
	if it.Kind == "" {
		it.Kind = KindField
		if s.Zone || s.Shape == catalogue.ShapeZone {
			it.Kind = KindZone
		}
	}
	if s.Position != nil {
		it.Position = *s.Position
	}
	it.Width, it.Height = DefaultWidth, DefaultHeight
	if it.IsZone() {
		it.Width, it.Height = DefaultZoneWidth, DefaultZoneHeight
		if it.AssignedFields == nil {
			it.AssignedFields = []string{}
		}
		if it.Shape == "" {
			it.Shape = catalogue.ShapeZone
		}
	}
	if s.Width != nil {
		it.Width = *s.Width
	}
	if s.Height != nil {
		it.Height = *s.Height
	}
	return it
}

// Unmarshal decodes a JSON array of items and validates the result.
func Unmarshal(data []byte) (Model, error) {
	var stored []storedItem
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidLayout, err, "decode layout")
	}
	m := make(Model, len(stored))
	for i, s := range stored {
		m[i] = s.item()
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalJSON decodes through the same legacy-tolerant path as
// Unmarshal, so models embedded in larger documents are validated too.
func (m *Model) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*m = nil
		return nil
	}
	got, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*m = got
	return nil
}

// Parse accepts the forms a host stores a layout in: nil, a Model, raw
// bytes, a JSON string, or a decoded JSON array.
func Parse(v any) (Model, error) {
	switch t := v.(type) {
	case nil:
		return Model{}, nil
	case Model:
		if err := Validate(t); err != nil {
			return nil, err
		}
		return t.Clone(), nil
	case []byte:
		return Unmarshal(t)
	case string:
		if t == "" {
			return Model{}, nil
		}
		return Unmarshal([]byte(t))
	case []any, []map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidLayout, err, "encode layout")
		}
		return Unmarshal(data)
	default:
		return nil, errs.New(errs.ErrCodeInvalidLayout, "unsupported layout value %T", v)
	}
}

// WriteFile writes m to path as indented JSON.
func WriteFile(m Model, path string) error {
	data, err := MarshalIndent(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

// ReadFile reads a model from path. A missing file is an error.
func ReadFile(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "layout file %s", path)
		}
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Unmarshal(data)
}

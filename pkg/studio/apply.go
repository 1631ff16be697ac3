package studio

import (
	"encoding/json"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
)

// LayoutMode says whether a composition uses the free layout or the
// template.
type LayoutMode string

const (
	ModeCustom   LayoutMode = "custom"
	ModeTemplate LayoutMode = "template"
)

// Valid reports whether m is a known mode.
func (m LayoutMode) Valid() bool { return m == ModeCustom || m == ModeTemplate }

// Record keys the host stores an applied composition under.
const (
	KeyConfig       = "orchardConfig"
	KeyPreset       = "orchardPreset"
	KeyCustomLayout = "orchardCustomLayout"
	KeyLayoutMode   = "orchardLayoutMode"
)

// Payload is handed to the host when the user applies a composition.
// CustomLayout is null in template mode.
type Payload struct {
	LayoutConfig Config       `json:"layoutConfig" bson:"layout_config"`
	ActivePreset *string      `json:"activePreset" bson:"active_preset"`
	CustomLayout layout.Model `json:"customLayout" bson:"custom_layout"`
	LayoutMode   LayoutMode   `json:"layoutMode" bson:"layout_mode"`
}

// Apply builds the payload for the current state.
func (s *Studio) Apply(mode LayoutMode, m layout.Model) (Payload, error) {
	if !mode.Valid() {
		return Payload{}, errs.New(errs.ErrCodeInvalidInput, "unknown layout mode %q", mode)
	}
	st := s.State()
	p := Payload{LayoutConfig: st.Config, LayoutMode: mode}
	if st.ActivePreset != "" {
		id := st.ActivePreset
		p.ActivePreset = &id
	}
	if mode == ModeCustom {
		if err := layout.Validate(m); err != nil {
			return Payload{}, err
		}
		p.CustomLayout = m.Clone()
		if p.CustomLayout == nil {
			p.CustomLayout = layout.Model{}
		}
	}
	return p, nil
}

// Input is what a previously applied record carries back into the studio.
type Input struct {
	Layout layout.Model
	Mode   LayoutMode
	Config *Config
	Preset string
}

// LoadInput reads the stored composition from rec. The layout may be an
// array or a JSON string of one. A layout that cannot be parsed is
// reported and left empty; the rest of the input is still returned.
func LoadInput(rec record.Record) (Input, error) {
	in := Input{Layout: layout.Model{}, Mode: ModeTemplate, Preset: rec.String(KeyPreset)}

	var firstErr error
	if raw, ok := rec[KeyCustomLayout]; ok && raw != nil {
		m, err := layout.Parse(raw)
		if err != nil {
			firstErr = err
		} else {
			in.Layout = m
		}
	}

	switch mode := LayoutMode(rec.String(KeyLayoutMode)); {
	case mode.Valid():
		in.Mode = mode
	case len(in.Layout) > 0:
		in.Mode = ModeCustom
	}

	if raw, ok := rec[KeyConfig]; ok && raw != nil {
		cfg, err := decodeConfig(raw)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		in.Config = cfg
	}
	return in, firstErr
}

func decodeConfig(raw any) (*Config, error) {
	var data []byte
	switch t := raw.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		var err error
		if data, err = json.Marshal(t); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "encode stored config")
		}
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode stored config")
	}
	cfg.SetDefaults()
	return &cfg, nil
}

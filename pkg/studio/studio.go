package studio

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Preset is a named snapshot of a Config.
type Preset struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Config      Config    `json:"config" bson:"config"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// State is everything a Studio persists.
type State struct {
	Config       Config   `json:"config" bson:"config"`
	Presets      []Preset `json:"presets" bson:"presets"`
	ActivePreset string   `json:"activePreset,omitempty" bson:"active_preset,omitempty"`
}

// DefaultState returns a state with the default config and no presets.
func DefaultState() State {
	return State{Config: DefaultConfig(), Presets: []Preset{}}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{Config: s.Config.Clone(), ActivePreset: s.ActivePreset}
	out.Presets = make([]Preset, len(s.Presets))
	for i, p := range s.Presets {
		p.Config = p.Config.Clone()
		out.Presets[i] = p
	}
	return out
}

// Preset returns the preset with id.
func (s State) Preset(id string) (Preset, bool) {
	for _, p := range s.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Store persists studio state.
type Store interface {
	// Load returns the saved state, or nil when nothing was saved yet.
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st State) error
}

// Studio is the editable configuration. Each mutation is applied to a
// copy, saved, and only then made current.
type Studio struct {
	mu     sync.RWMutex
	state  State
	store  Store
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Studio.
type Option func(*Studio)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Studio) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for preset timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Studio) { s.now = now }
}

// WithIDGenerator sets the preset id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Studio) { s.newID = fn }
}

// New loads the state from store. A nil store keeps state in memory.
func New(ctx context.Context, store Store, opts ...Option) (*Studio, error) {
	s := &Studio{
		state:  DefaultState(),
		store:  store,
		logger: log.New(io.Discard),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if store == nil {
		return s, nil
	}
	saved, err := store.Load(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "load studio state")
	}
	if saved != nil {
		saved.Config.SetDefaults()
		if saved.Presets == nil {
			saved.Presets = []Preset{}
		}
		s.state = *saved
	}
	return s, nil
}

// State returns a copy of the current state.
func (s *Studio) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Config returns a copy of the current config.
func (s *Studio) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Config.Clone()
}

// Presets returns the saved presets in creation order.
func (s *Studio) Presets() []Preset {
	return s.State().Presets
}

// ActivePreset returns the id of the preset last saved or loaded.
func (s *Studio) ActivePreset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActivePreset
}

func (s *Studio) update(ctx context.Context, action string, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Config.Validate(); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, next); err != nil {
			return errs.Wrap(errs.ErrCodeStorage, err, "save studio state")
		}
	}
	s.state = next
	s.logger.Debug("studio updated", "action", action)
	return nil
}

// ===== Config mutations =====

// SetTemplate switches template and resets the ratio to its default.
func (s *Studio) SetTemplate(ctx context.Context, id string) error {
	return s.update(ctx, "template", func(st *State) error {
		t, ok := templates[id]
		if !ok {
			return errs.New(errs.ErrCodeInvalidConfig, "unknown template %q", id)
		}
		st.Config.Template = id
		st.Config.Ratio = t.DefaultRatio
		return nil
	})
}

// SetRatio changes the canvas ratio.
func (s *Studio) SetRatio(ctx context.Context, ratio string) error {
	return s.update(ctx, "ratio", func(st *State) error {
		st.Config.Ratio = ratio
		return nil
	})
}

// UpdateTypography edits the typography in place.
func (s *Studio) UpdateTypography(ctx context.Context, fn func(*Typography)) error {
	return s.update(ctx, "typography", func(st *State) error {
		fn(&st.Config.Typography)
		return nil
	})
}

// UpdateColors edits the colors in place.
func (s *Studio) UpdateColors(ctx context.Context, fn func(*Colors)) error {
	return s.update(ctx, "colors", func(st *State) error {
		fn(&st.Config.Colors)
		return nil
	})
}

// ApplyPalette replaces the colors with a predefined palette.
func (s *Studio) ApplyPalette(ctx context.Context, key string) error {
	return s.update(ctx, "palette", func(st *State) error {
		p, ok := palettes[key]
		if !ok {
			return errs.New(errs.ErrCodeInvalidPalette, "unknown palette %q", key)
		}
		st.Config.Colors = p.colors(key)
		return nil
	})
}

// ToggleModule flips the visibility of a content module.
func (s *Studio) ToggleModule(ctx context.Context, module string) error {
	return s.update(ctx, "module", func(st *State) error {
		if st.Config.ContentModules == nil {
			st.Config.ContentModules = map[string]bool{}
		}
		st.Config.ContentModules[module] = !st.Config.ContentModules[module]
		return nil
	})
}

// ReorderModules sets the module display order. Every entry must be
// distinct and non-empty.
func (s *Studio) ReorderModules(ctx context.Context, order []string) error {
	return s.update(ctx, "reorder", func(st *State) error {
		seen := make(map[string]bool, len(order))
		for _, m := range order {
			if strings.TrimSpace(m) == "" || seen[m] {
				return errs.New(errs.ErrCodeInvalidConfig, "invalid module order %v", order)
			}
			seen[m] = true
		}
		st.Config.ModuleOrder = slices.Clone(order)
		return nil
	})
}

// UpdateImage edits the image settings in place.
func (s *Studio) UpdateImage(ctx context.Context, fn func(*Image)) error {
	return s.update(ctx, "image", func(st *State) error {
		fn(&st.Config.Image)
		return nil
	})
}

// UpdateBranding edits the branding settings in place.
func (s *Studio) UpdateBranding(ctx context.Context, fn func(*Branding)) error {
	return s.update(ctx, "branding", func(st *State) error {
		fn(&st.Config.Branding)
		return nil
	})
}

// Reset restores the default config and clears the active preset.
// Presets are kept.
func (s *Studio) Reset(ctx context.Context) error {
	return s.update(ctx, "reset", func(st *State) error {
		st.Config = DefaultConfig()
		st.ActivePreset = ""
		return nil
	})
}

// ===== Presets =====

// SavePreset snapshots the current config under name and makes it active.
func (s *Studio) SavePreset(ctx context.Context, name, description string) (Preset, error) {
	if err := errs.ValidatePresetName(name); err != nil {
		return Preset{}, err
	}
	var saved Preset
	err := s.update(ctx, "preset.save", func(st *State) error {
		saved = Preset{
			ID:          s.newID(),
			Name:        strings.TrimSpace(name),
			Description: description,
			Config:      st.Config.Clone(),
			CreatedAt:   s.now().UTC(),
		}
		st.Presets = append(st.Presets, saved)
		st.ActivePreset = saved.ID
		return nil
	})
	return saved, err
}

// LoadPreset replaces the config with the preset's and makes it active.
func (s *Studio) LoadPreset(ctx context.Context, id string) error {
	return s.update(ctx, "preset.load", func(st *State) error {
		p, ok := st.Preset(id)
		if !ok {
			return errs.New(errs.ErrCodePresetNotFound, "preset %q not found", id)
		}
		st.Config = p.Config.Clone()
		st.Config.SetDefaults()
		st.ActivePreset = id
		return nil
	})
}

// DeletePreset removes a preset, clearing the active preset if it was it.
func (s *Studio) DeletePreset(ctx context.Context, id string) error {
	return s.update(ctx, "preset.delete", func(st *State) error {
		i := slices.IndexFunc(st.Presets, func(p Preset) bool { return p.ID == id })
		if i < 0 {
			return errs.New(errs.ErrCodePresetNotFound, "preset %q not found", id)
		}
		st.Presets = slices.Delete(st.Presets, i, i+1)
		if st.ActivePreset == id {
			st.ActivePreset = ""
		}
		return nil
	})
}

// PresetPatch holds the preset attributes UpdatePreset may change.
type PresetPatch struct {
	Name        *string
	Description *string
	Config      *Config
}

// UpdatePreset merges p into the preset with id.
func (s *Studio) UpdatePreset(ctx context.Context, id string, p PresetPatch) error {
	if p.Name != nil {
		if err := errs.ValidatePresetName(*p.Name); err != nil {
			return err
		}
	}
	if p.Config != nil {
		if err := p.Config.Validate(); err != nil {
			return err
		}
	}
	return s.update(ctx, "preset.update", func(st *State) error {
		i := slices.IndexFunc(st.Presets, func(pr Preset) bool { return pr.ID == id })
		if i < 0 {
			return errs.New(errs.ErrCodePresetNotFound, "preset %q not found", id)
		}
		if p.Name != nil {
			st.Presets[i].Name = strings.TrimSpace(*p.Name)
		}
		if p.Description != nil {
			st.Presets[i].Description = *p.Description
		}
		if p.Config != nil {
			st.Presets[i].Config = p.Config.Clone()
		}
		return nil
	})
}

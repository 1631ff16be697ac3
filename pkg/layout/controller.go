package layout

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/observability"
)

// Snapshot is an immutable view of the model at a given version.
type Snapshot struct {
	Model   Model
	Version uint64
}

// Controller owns the current model of an editing session. Every
// operation computes the next model with a pure transition and commits it
// as one snapshot, so readers and subscribers never observe a model
// between the two halves of a reassignment.
type Controller struct {
	mu      sync.Mutex
	model   Model
	version uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	newID  func() string
	logger *log.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger for commit diagnostics.
func WithLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator overrides zone id generation, mainly for tests.
func WithIDGenerator(fn func() string) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewZoneID returns a fresh zone id.
func NewZoneID() string {
	return "zone-" + uuid.NewString()
}

// NewController creates a controller seeded with initial, which must be
// valid.
func NewController(initial Model, opts ...ControllerOption) (*Controller, error) {
	if err := Validate(initial); err != nil {
		return nil, err
	}
	c := &Controller{
		model:  initial.Clone(),
		subs:   map[int]func(Snapshot){},
		newID:  NewZoneID,
		logger: log.New(io.Discard),
	}
	if c.model == nil {
		c.model = Model{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot returns a copy of the current model.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Model: c.model.Clone(), Version: c.version}
}

// Model returns a copy of the current model.
func (c *Controller) Model() Model {
	return c.Snapshot().Model
}

// Subscribe registers fn to receive every committed snapshot. Snapshots
// are delivered in commit order. fn runs synchronously and must not call
// Commit or Subscribe. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// Commit applies fn to the current model and publishes the result. If fn
// fails, or the result is invalid, nothing changes.
func (c *Controller) Commit(ctx context.Context, action string, fn func(Model) (Model, error)) (Snapshot, error) {
	c.mu.Lock()
	next, err := fn(c.model.Clone())
	if err == nil {
		err = Validate(next)
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("layout change rejected", "action", action, "err", err)
		observability.Layout().OnRejected(ctx, action, err)
		return Snapshot{}, err
	}
	c.model = next
	c.version++
	snap := Snapshot{Model: next.Clone(), Version: c.version}

	// subMu is taken before mu is released so deliveries keep commit order.
	c.subMu.Lock()
	c.mu.Unlock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	for _, fn := range subs {
		fn(Snapshot{Model: snap.Model.Clone(), Version: snap.Version})
	}
	c.subMu.Unlock()

	c.logger.Debug("layout committed", "action", action, "version", snap.Version, "items", len(snap.Model))
	observability.Layout().OnCommit(ctx, action, len(snap.Model))
	return snap, nil
}

// Replace swaps in a whole model, e.g. one loaded from storage.
func (c *Controller) Replace(ctx context.Context, m Model) error {
	_, err := c.Commit(ctx, "replace", func(Model) (Model, error) { return m.Clone(), nil })
	return err
}

// Drop places f at pos. For the zone template it returns the new zone.
func (c *Controller) Drop(ctx context.Context, f catalogue.Field, pos Point) (Item, error) {
	id := f.ID
	if f.IsZone() {
		id = c.newID()
	}
	snap, err := c.Commit(ctx, "drop", func(m Model) (Model, error) {
		return Drop(m, f, pos, id)
	})
	if err != nil {
		return Item{}, err
	}
	it, _ := snap.Model.Get(id)
	return it, nil
}

// Reassign moves fieldID into zoneID.
func (c *Controller) Reassign(ctx context.Context, fieldID, zoneID string) error {
	_, err := c.Commit(ctx, "reassign", func(m Model) (Model, error) {
		return Reassign(m, fieldID, zoneID)
	})
	return err
}

// Unassign removes fieldID from zoneID.
func (c *Controller) Unassign(ctx context.Context, zoneID, fieldID string) error {
	_, err := c.Commit(ctx, "unassign", func(m Model) (Model, error) {
		return Unassign(m, zoneID, fieldID)
	})
	return err
}

// Update merges p into item id.
func (c *Controller) Update(ctx context.Context, id string, p Patch) error {
	_, err := c.Commit(ctx, "update", func(m Model) (Model, error) {
		return Update(m, id, p)
	})
	return err
}

// Move sets the position of item id.
func (c *Controller) Move(ctx context.Context, id string, pos Point) error {
	return c.Update(ctx, id, Patch{Position: &pos})
}

// Resize sets the size of item id.
func (c *Controller) Resize(ctx context.Context, id string, width, height float64) error {
	return c.Update(ctx, id, Patch{Width: &width, Height: &height})
}

// Rotate sets the rotation of item id.
func (c *Controller) Rotate(ctx context.Context, id string, deg float64) error {
	return c.Update(ctx, id, Patch{Rotation: &deg})
}

// Remove deletes item id.
func (c *Controller) Remove(ctx context.Context, id string) error {
	_, err := c.Commit(ctx, "remove", func(m Model) (Model, error) {
		return Remove(m, id)
	})
	return err
}

// SetSectionFilter sets or clears a zone's section filter.
func (c *Controller) SetSectionFilter(ctx context.Context, zoneID, section string) error {
	_, err := c.Commit(ctx, "filter", func(m Model) (Model, error) {
		return SetSectionFilter(m, zoneID, section)
	})
	return err
}

// RenameZone changes a zone's label.
func (c *Controller) RenameZone(ctx context.Context, zoneID, label string) error {
	_, err := c.Commit(ctx, "rename", func(m Model) (Model, error) {
		return RenameZone(m, zoneID, label)
	})
	return err
}

// Apply runs a batch of operations as a single commit.
func (c *Controller) Apply(ctx context.Context, ops []Op) (Snapshot, error) {
	return c.Commit(ctx, "batch", func(m Model) (Model, error) {
		return ApplyOps(m, ops, c.newID)
	})
}

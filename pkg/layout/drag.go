package layout

import (
	"context"
	"math"
	"sync"

	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Rect is the canvas bounding box in pointer (pixel) coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToPercent converts a pointer position to canvas percent.
func (r Rect) ToPercent(p Point) Point {
	if r.Width <= 0 || r.Height <= 0 {
		return Point{}
	}
	return Point{
		X: (p.X - r.Left) / r.Width * 100,
		Y: (p.Y - r.Top) / r.Height * 100,
	}
}

// DragMode is what a drag gesture does.
type DragMode int

const (
	// DragNew drags a catalogue field or the zone template onto the canvas.
	DragNew DragMode = iota
	// DragMove drags an existing item.
	DragMove
	// DragResize drags an item's resize handle.
	DragResize
	// DragRotate drags an item's rotate handle.
	DragRotate
)

func (m DragMode) String() string {
	switch m {
	case DragNew:
		return "new"
	case DragMove:
		return "move"
	case DragResize:
		return "resize"
	case DragRotate:
		return "rotate"
	}
	return "unknown"
}

// DragSession is the transient state of one pointer gesture. It never
// touches the model directly: resize and rotate commit live patches
// through the controller, and End commits the final drop. The session is
// single-use.
type DragSession struct {
	ctrl   *Controller
	canvas Rect
	mode   DragMode

	source catalogue.Field
	itemID string
	start  Point
	origin Item

	mu     sync.Mutex
	hover  string
	closed bool
}

// StartNew begins dragging f from the catalogue.
func (c *Controller) StartNew(f catalogue.Field, canvas Rect, pointer Point) *DragSession {
	return &DragSession{ctrl: c, canvas: canvas, mode: DragNew, source: f, itemID: f.ID, start: pointer}
}

// StartItem begins a move, resize or rotate gesture on an existing item.
func (c *Controller) StartItem(mode DragMode, id string, canvas Rect, pointer Point) (*DragSession, error) {
	if mode == DragNew {
		return nil, errs.New(errs.ErrCodeInvalidInput, "use StartNew for catalogue drags")
	}
	it, ok := c.Model().Get(id)
	if !ok {
		return nil, errs.New(errs.ErrCodeItemNotFound, "item %q not found", id)
	}
	return &DragSession{
		ctrl:   c,
		canvas: canvas,
		mode:   mode,
		source: catalogue.Resolve(id),
		itemID: id,
		start:  pointer,
		origin: it,
	}, nil
}

// Mode returns the gesture mode.
func (s *DragSession) Mode() DragMode { return s.mode }

// Hover returns the zone currently under the pointer, if any.
func (s *DragSession) Hover() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hover
}

// Over handles a pointer move. Move and new drags track the zone under
// the pointer; resize and rotate drags commit the live geometry.
func (s *DragSession) Over(ctx context.Context, pointer Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.New(errs.ErrCodeInvalidInput, "drag session already ended")
	}
	switch s.mode {
	case DragNew, DragMove:
		s.hover = s.zoneTarget(pointer)
		return nil
	default:
		return s.ctrl.Update(ctx, s.itemID, s.geometry(pointer))
	}
}

// End finishes the gesture at pointer and commits the result. The session
// state is discarded whether or not the commit succeeds.
func (s *DragSession) End(ctx context.Context, pointer Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.New(errs.ErrCodeInvalidInput, "drag session already ended")
	}
	s.closed = true
	defer func() { s.hover = "" }()

	switch s.mode {
	case DragNew, DragMove:
		if zone := s.zoneTarget(pointer); zone != "" {
			return s.ctrl.Reassign(ctx, s.itemID, zone)
		}
		pos := s.canvas.ToPercent(pointer)
		if s.mode == DragMove {
			return s.ctrl.Move(ctx, s.itemID, pos)
		}
		_, err := s.ctrl.Drop(ctx, s.source, pos)
		return err
	default:
		return s.ctrl.Update(ctx, s.itemID, s.geometry(pointer))
	}
}

// Cancel abandons the gesture. Resize and rotate gestures restore the
// geometry the item had when the gesture started.
func (s *DragSession) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.hover = ""
	switch s.mode {
	case DragResize:
		w, h := s.origin.Width, s.origin.Height
		return s.ctrl.Update(ctx, s.itemID, Patch{Width: &w, Height: &h})
	case DragRotate:
		r := s.origin.Rotation
		return s.ctrl.Update(ctx, s.itemID, Patch{Rotation: &r})
	}
	return nil
}

func (s *DragSession) geometry(pointer Point) Patch {
	dx, dy := pointer.X-s.start.X, pointer.Y-s.start.Y
	if s.mode == DragRotate {
		r := s.origin.Rotation + dx/2
		return Patch{Rotation: &r}
	}
	w, h := s.origin.Width, s.origin.Height
	if s.canvas.Width > 0 {
		w += dx / s.canvas.Width * 100
	}
	if s.canvas.Height > 0 {
		h += dy / s.canvas.Height * 100
	}
	return Patch{Width: &w, Height: &h}
}

// zoneTarget returns the zone that would receive the dragged field, or ""
// when the source is itself a zone.
func (s *DragSession) zoneTarget(pointer Point) string {
	if s.source.IsZone() || s.origin.IsZone() {
		return ""
	}
	return HitZone(s.ctrl.Model(), s.canvas, pointer, s.itemID)
}

// HitZone returns the top-most zone containing the pointer, honoring each
// zone's rotation around its center. exclude is skipped.
func HitZone(m Model, canvas Rect, pointer Point, exclude string) string {
	for i := len(m) - 1; i >= 0; i-- {
		it := m[i]
		if !it.IsZone() || it.ID == exclude {
			continue
		}
		if containsRotated(it, canvas, pointer) {
			return it.ID
		}
	}
	return ""
}

func containsRotated(it Item, canvas Rect, p Point) bool {
	w := it.Width / 100 * canvas.Width
	h := it.Height / 100 * canvas.Height
	cx := canvas.Left + it.Position.X/100*canvas.Width + w/2
	cy := canvas.Top + it.Position.Y/100*canvas.Height + h/2

	rad := -it.Rotation * math.Pi / 180
	dx, dy := p.X-cx, p.Y-cy
	lx := dx*math.Cos(rad) - dy*math.Sin(rad)
	ly := dx*math.Sin(rad) + dy*math.Cos(rad)
	return math.Abs(lx) <= w/2 && math.Abs(ly) <= h/2
}

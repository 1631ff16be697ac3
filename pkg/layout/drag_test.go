package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/orchard/pkg/catalogue"
)

var canvas = Rect{Left: 100, Top: 50, Width: 1000, Height: 500}

func TestToPercent(t *testing.T) {
	got := canvas.ToPercent(Point{X: 500, Y: 200})
	if got != (Point{X: 40, Y: 30}) {
		t.Errorf("ToPercent = %v, want {40 30}", got)
	}
	if got := (Rect{}).ToPercent(Point{1, 1}); got != (Point{}) {
		t.Errorf("zero rect ToPercent = %v", got)
	}
}

func TestDragNewDrop(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	s := c.StartNew(catalogue.Resolve("title"), canvas, Point{0, 0})
	if err := s.Over(ctx, Point{300, 150}); err != nil {
		t.Fatal(err)
	}
	if err := s.End(ctx, Point{500, 200}); err != nil {
		t.Fatal(err)
	}
	it, ok := c.Model().Get("title")
	if !ok || it.Position != (Point{40, 30}) {
		t.Errorf("title = %+v", it)
	}
	if err := s.End(ctx, Point{}); err == nil {
		t.Error("session should be single-use")
	}
}

func TestDragIntoZone(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	zone, _ := c.Drop(ctx, catalogue.ZoneTemplate(), Point{40, 30})
	_, _ = c.Drop(ctx, catalogue.Resolve("aromas"), Point{5, 5})

	// Zone spans x 500..900, y 200..325 in pixels.
	s, err := c.StartItem(DragMove, "aromas", canvas, Point{160, 80})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Over(ctx, Point{600, 250})
	if s.Hover() != zone.ID {
		t.Errorf("Hover() = %q, want %q", s.Hover(), zone.ID)
	}
	if err := s.End(ctx, Point{600, 250}); err != nil {
		t.Fatal(err)
	}
	m := c.Model()
	z, _ := m.Get(zone.ID)
	if !z.Has("aromas") {
		t.Error("aromas not assigned")
	}
	if _, ok := m.Get("aromas"); ok {
		t.Error("aromas still standalone")
	}
}

func TestDragZoneNeverTargetsZone(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	a, _ := c.Drop(ctx, catalogue.ZoneTemplate(), Point{40, 30})
	b, _ := c.Drop(ctx, catalogue.ZoneTemplate(), Point{10, 10})

	s, _ := c.StartItem(DragMove, b.ID, canvas, Point{0, 0})
	_ = s.Over(ctx, Point{600, 250})
	if s.Hover() != "" {
		t.Errorf("zone drag hovered %q", s.Hover())
	}
	if err := s.End(ctx, Point{600, 250}); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Model().Get(a.ID); len(got.AssignedFields) != 0 {
		t.Errorf("zone was nested: %v", got.AssignedFields)
	}
}

func TestDragResizeAndCancel(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	_, _ = c.Drop(ctx, catalogue.Resolve("title"), Point{10, 10})

	s, _ := c.StartItem(DragResize, "title", canvas, Point{0, 0})
	_ = s.Over(ctx, Point{100, 50})
	it, _ := c.Model().Get("title")
	if it.Width != 35 || it.Height != 30 {
		t.Errorf("live size = %vx%v, want 35x30", it.Width, it.Height)
	}

	_ = s.Over(ctx, Point{5000, 0})
	it, _ = c.Model().Get("title")
	if it.Width != MaxWidth {
		t.Errorf("width = %v, want clamped %v", it.Width, MaxWidth)
	}

	if err := s.Cancel(ctx); err != nil {
		t.Fatal(err)
	}
	it, _ = c.Model().Get("title")
	if it.Width != DefaultWidth || it.Height != DefaultHeight {
		t.Errorf("after cancel = %vx%v, want defaults", it.Width, it.Height)
	}
}

func TestDragRotate(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	_, _ = c.Drop(ctx, catalogue.Resolve("title"), Point{10, 10})

	s, _ := c.StartItem(DragRotate, "title", canvas, Point{0, 0})
	if err := s.End(ctx, Point{-180, 0}); err != nil {
		t.Fatal(err)
	}
	it, _ := c.Model().Get("title")
	if it.Rotation != 270 {
		t.Errorf("rotation = %v, want 270", it.Rotation)
	}
}

func TestHitZoneRotation(t *testing.T) {
	unit := Rect{Width: 100, Height: 100}
	m := Model{
		{ID: "low", Kind: KindZone, Position: Point{10, 10}, Width: 40, Height: 40},
		{ID: "bar", Kind: KindZone, Position: Point{30, 45}, Width: 40, Height: 10, Rotation: 90},
	}
	tests := []struct {
		p    Point
		want string
	}{
		{Point{15, 15}, "low"},
		{Point{48, 32}, "bar"},
		{Point{35, 45}, "low"},
		{Point{90, 90}, ""},
	}
	for _, tt := range tests {
		if got := HitZone(m, unit, tt.p, ""); got != tt.want {
			t.Errorf("HitZone(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
	if got := HitZone(m, unit, Point{48, 32}, "bar"); got != "low" {
		t.Errorf("HitZone excluding bar = %q, want low", got)
	}
}

func TestDragModeString(t *testing.T) {
	for mode, want := range map[DragMode]string{DragNew: "new", DragMove: "move", DragResize: "resize", DragRotate: "rotate", DragMode(9): "unknown"} {
		if got := mode.String(); got != want {
			t.Errorf("DragMode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}

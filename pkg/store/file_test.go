package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/studio"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestFileStoreEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Load(ctx)
	if err != nil || st != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", st, err)
	}
	a, err := s.GetLayout(ctx, "r1")
	if err != nil || a != nil {
		t.Errorf("GetLayout() = %v, %v; want nil, nil", a, err)
	}
	ids, err := s.ListLayouts(ctx)
	if err != nil || len(ids) != 0 {
		t.Errorf("ListLayouts() = %v, %v", ids, err)
	}
}

func TestPresetRoundTripThroughFileStore(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)

	s, err := studio.New(ctx, fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyPalette(ctx, "elegant"); err != nil {
		t.Fatal(err)
	}
	p, err := s.SavePreset(ctx, "Noir", "dark")
	if err != nil {
		t.Fatal(err)
	}

	reloaded, err := studio.New(ctx, fs)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reloaded.State().Preset(p.ID)
	if !ok {
		t.Fatalf("preset %s missing after reload", p.ID)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
	}
	got.CreatedAt = p.CreatedAt
	if !reflect.DeepEqual(got, p) {
		t.Errorf("preset = %+v, want %+v", got, p)
	}
	if reloaded.ActivePreset() != p.ID {
		t.Errorf("ActivePreset() = %q, want %q", reloaded.ActivePreset(), p.ID)
	}

	info, err := os.Stat(filepath.Join(fs.Path(), stateFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("state file mode = %o, want 600", perm)
	}
}

func TestFileStoreLayouts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m, _ := layout.Drop(nil, catalogue.ZoneTemplate(), layout.Point{X: 20, Y: 20}, "zone-1")
	m, _ = layout.Reassign(m, "aromas", "zone-1")
	payload := studio.Payload{LayoutConfig: studio.DefaultConfig(), CustomLayout: m, LayoutMode: studio.ModeCustom}

	for _, id := range []string{"r2", "r1"} {
		if err := s.PutLayout(ctx, id, payload); err != nil {
			t.Fatal(err)
		}
	}
	a, err := s.GetLayout(ctx, "r1")
	if err != nil || a == nil {
		t.Fatalf("GetLayout(r1) = %v, %v", a, err)
	}
	if !reflect.DeepEqual(a.Payload.CustomLayout, m) || a.ReviewID != "r1" {
		t.Errorf("applied = %+v", a)
	}

	ids, _ := s.ListLayouts(ctx)
	if !reflect.DeepEqual(ids, []string{"r1", "r2"}) {
		t.Errorf("ListLayouts() = %v", ids)
	}

	if err := s.DeleteLayout(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteLayout(ctx, "r1"); err != nil {
		t.Errorf("second delete = %v", err)
	}
	ids, _ = s.ListLayouts(ctx)
	if !reflect.DeepEqual(ids, []string{"r2"}) {
		t.Errorf("ListLayouts() after delete = %v", ids)
	}
}

func TestFileStoreRejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"", "../escape", "a/b"} {
		if err := s.PutLayout(ctx, id, studio.Payload{}); !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("PutLayout(%q) = %v", id, err)
		}
	}
}

func TestMongoOptions(t *testing.T) {
	var o MongoOptions
	o.SetDefaults()
	if o.Database != DefaultDatabase || o.StateKey != DefaultStateKey {
		t.Errorf("defaults = %+v", o)
	}
	if err := o.Validate(); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("Validate() = %v", err)
	}
	if _, err := NewMongoStore(context.Background(), MongoOptions{}); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("NewMongoStore() = %v", err)
	}
}

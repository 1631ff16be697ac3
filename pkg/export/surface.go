package export

import (
	"context"

	"github.com/matzehuels/orchard/pkg/render"
)

// Stable surface ids.
const (
	SurfacePreview = render.SurfacePreview
	SurfaceCanvas  = render.SurfaceCanvas
)

// Surface is a capturable composition. Capture must return a frame the
// caller owns; the live surface is never modified by an export.
type Surface interface {
	ID() string
	// Size is the natural logical size.
	Size() (w, h int)
	// Fingerprint identifies the drawn content. An empty fingerprint
	// disables caching for the surface.
	Fingerprint() string
	Capture(ctx context.Context, o render.Options) (*render.Frame, error)
}

// SurfaceSet indexes surfaces by id.
type SurfaceSet map[string]Surface

// NewSurfaceSet builds a set from surfaces. Later duplicates win.
func NewSurfaceSet(surfaces ...Surface) SurfaceSet {
	set := make(SurfaceSet, len(surfaces))
	for _, s := range surfaces {
		if s != nil {
			set[s.ID()] = s
		}
	}
	return set
}

// SceneSurfaces returns the preview and canvas surfaces of a scene.
func SceneSurfaces(c *render.Compositor, scene render.Scene) SurfaceSet {
	set := SurfaceSet{}
	for _, s := range c.Surfaces(scene) {
		set[s.ID()] = s
	}
	return set
}

// Lookup returns the surface with the given id.
func (s SurfaceSet) Lookup(id string) (Surface, bool) {
	surface, ok := s[id]
	return surface, ok
}

package render

import (
	"context"
	"sync"
)

// SceneSurface is one capturable region of a scene.
type SceneSurface struct {
	id    string
	c     *Compositor
	scene Scene

	once sync.Once
	fp   string
}

// Surfaces returns the preview and canvas surfaces for scene.
func (c *Compositor) Surfaces(scene Scene) []*SceneSurface {
	return []*SceneSurface{
		{id: SurfacePreview, c: c, scene: scene},
		{id: SurfaceCanvas, c: c, scene: scene},
	}
}

// ID returns the stable surface id.
func (s *SceneSurface) ID() string { return s.id }

// Size returns the natural logical size.
func (s *SceneSurface) Size() (w, h int) {
	if s.id == SurfacePreview {
		return s.c.PreviewSize(s.scene, Options{})
	}
	return s.c.CanvasSize(s.scene, Options{})
}

// Fingerprint identifies the drawn content; equal fingerprints draw equal
// pixels under equal options.
func (s *SceneSurface) Fingerprint() string {
	s.once.Do(func() {
		fp, err := s.scene.Fingerprint()
		if err != nil {
			s.c.logger.Debug("scene fingerprint failed", "surface", s.id, "error", err)
			return
		}
		s.fp = s.id + ":" + fp
	})
	return s.fp
}

// Capture draws the surface into a new frame.
func (s *SceneSurface) Capture(ctx context.Context, o Options) (*Frame, error) {
	if s.id == SurfacePreview {
		return s.c.Preview(ctx, s.scene, o)
	}
	return s.c.Canvas(ctx, s.scene, o)
}

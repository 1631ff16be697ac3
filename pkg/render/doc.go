// Package render is the off-screen compositor.
//
// It draws a [Scene] (a normalized record, a layout and a studio config)
// into a [Frame] owned by the caller. Nothing here touches a live editing
// view: every capture allocates its own frame, so exports can mutate what
// they draw (hide branding, force a size) without side effects.
//
// Two surfaces are exposed, matching the regions an exporter can capture:
//
//   - [SurfacePreview]: the full preview, a header band above the canvas
//   - [SurfaceCanvas]: the canvas alone
//
// Field values are drawn by an exhaustive switch over [catalogue.Shape].
// Images come from data URIs or local files only; remote URLs are skipped
// and drawn as placeholders.
//
// [catalogue.Shape]: github.com/matzehuels/orchard/pkg/catalogue.Shape
package render

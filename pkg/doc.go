// Package pkg provides the core libraries for Orchard Studio.
//
// # Overview
//
// Orchard Studio turns a single product review record into a shareable visual
// composition: either a template-driven card or a free-form canvas where
// the user drops fields from a catalogue and groups them into zones. The
// composition is then exported as PNG, JPEG, PDF or Markdown.
//
// The pkg directory is organized into three areas:
//
//  1. Domain: [record], [normalize], [catalogue], [panel], [layout], [studio]
//  2. Output: [render], [fonts], [outline], [export]
//  3. Infrastructure: [cache], [store], [server], [errors], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	raw review JSON
//	       ↓
//	  [normalize] package (canonical record, cached)
//	       ↓
//	  [layout] package (free layout edits)   [studio] package (template, colors, modules)
//	       ↓                                        ↓
//	  [render] package (off-screen compositor, one frame per capture)
//	       ↓
//	  [export] package (png / jpeg / pdf / markdown, cached artifacts)
//
// # Quick Start
//
//	rec := normalize.Normalize(raw)
//
//	ctrl, _ := layout.NewController(nil)
//	title, _ := catalogue.Lookup("title")
//	ctrl.Drop(ctx, title, layout.Point{X: 40, Y: 40})
//
//	scene := render.Scene{Record: rec, Layout: ctrl.Model(), Config: st.Config()}
//	ex := export.NewExporter(cache.NewNullCache(), nil, logger)
//	art, err := ex.Export(ctx,
//	    export.NewRequest(export.FormatPNG, export.ScopeFull),
//	    export.SceneSurfaces(render.New(), scene), rec)
//
// # Main Packages
//
// ## Domain
//
//   - [record]: canonical review record and value helpers
//   - [normalize]: type-aware normalization of loosely shaped input
//   - [catalogue]: static registry of draggable fields, grouped by section
//   - [panel]: the content panel view (sections, data presence, previews)
//   - [layout]: the editable layout model, its controller and drag sessions
//   - [studio]: template, ratio, palette, modules, branding and presets
//
// ## Output
//
//   - [render]: draws a scene into a caller-owned frame
//   - [fonts]: typefaces used by the compositor
//   - [outline]: Graphviz diagrams of a layout's zones and fields
//   - [export]: artifact production, filenames and delivery sinks
//
// ## Infrastructure
//
//   - [cache]: file, Redis and null caches with content-addressed keys
//   - [store]: file and MongoDB persistence for studio state and applied layouts
//   - [server]: HTTP API over the studio
//   - [errors]: coded errors shared by every package
//   - [observability]: hooks for export, layout and cache events
//
// # Testing
//
// Most packages run without external services. Redis and MongoDB backends
// are exercised through their constructors and fall back or fail with coded
// errors when the service is unreachable.
//
// [record]: github.com/matzehuels/orchard/pkg/record
// [normalize]: github.com/matzehuels/orchard/pkg/normalize
// [catalogue]: github.com/matzehuels/orchard/pkg/catalogue
// [panel]: github.com/matzehuels/orchard/pkg/panel
// [layout]: github.com/matzehuels/orchard/pkg/layout
// [studio]: github.com/matzehuels/orchard/pkg/studio
// [render]: github.com/matzehuels/orchard/pkg/render
// [fonts]: github.com/matzehuels/orchard/pkg/fonts
// [outline]: github.com/matzehuels/orchard/pkg/outline
// [export]: github.com/matzehuels/orchard/pkg/export
// [cache]: github.com/matzehuels/orchard/pkg/cache
// [store]: github.com/matzehuels/orchard/pkg/store
// [server]: github.com/matzehuels/orchard/pkg/server
// [errors]: github.com/matzehuels/orchard/pkg/errors
// [observability]: github.com/matzehuels/orchard/pkg/observability
package pkg

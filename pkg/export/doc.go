// Package export turns a composed review into a downloadable artifact.
//
// Raster formats (png, jpeg) and pdf capture a [Surface] selected by the
// request [Scope]: the full preview, the canvas alone, or the canvas
// forced to 1200x630 for social cards. Markdown is synthesized from the
// normalized record and never touches a surface.
//
// Captures happen after a short settle delay into a frame the exporter
// owns; frames are released on a timer once encoding is done. Exports on
// one [Exporter] run one at a time, identical concurrent requests share a
// single capture, and encoded bytes are cached by surface fingerprint
// and options.
//
//	ex := export.NewExporter(cache, nil, logger)
//	a, err := ex.Export(ctx, export.NewRequest(export.FormatPNG, export.ScopeFull),
//	    export.SceneSurfaces(compositor, scene), rec)
package export

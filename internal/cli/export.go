package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/export"
	"github.com/matzehuels/orchard/pkg/record"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	scene       sceneFlags
	formats     string // comma-separated: png, jpeg, pdf, markdown
	scope       string // full, canvas or social
	output      string // output directory, or "-" for stdout
	scale       float64
	quality     float64
	transparent bool
	pageSize    string
	orientation string
	noBranding  bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <record.json|->",
		Short: "Export a composition as PNG, JPEG, PDF or Markdown",
		Long: `Export draws the composition of a record and encodes it.

The composition stored in the record is used unless --layout or --mode
override it. Scopes:
  full    the preview including its header
  canvas  the canvas alone
  social  a 1200×630 Open Graph image at 3× resolution

Markdown exports are built from the record only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.scene.record = args[0]
			return c.runExport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.scene.layout, "layout", "l", "", "layout file overriding the stored one")
	f.StringVarP(&opts.scene.mode, "mode", "m", "", "layout mode: custom or template")
	f.StringVarP(&opts.formats, "format", "F", "png", "formats, comma-separated (png, jpeg, pdf, markdown)")
	f.StringVarP(&opts.scope, "scope", "s", "full", "capture scope: full, canvas or social")
	f.StringVarP(&opts.output, "output", "o", "", "output directory, or - for stdout (default from settings)")
	f.Float64Var(&opts.scale, "scale", export.DefaultScale, "pixel ratio for PNG (1 to 3)")
	f.Float64Var(&opts.quality, "quality", export.DefaultQuality, "JPEG quality (0.5 to 1)")
	f.BoolVar(&opts.transparent, "transparent", false, "keep the PNG background transparent")
	f.StringVar(&opts.pageSize, "page-size", export.DefaultPageSize, "PDF page size: "+strings.Join(export.PageSizes(), ", "))
	f.StringVar(&opts.orientation, "orientation", export.DefaultOrientation, "PDF orientation: portrait or landscape")
	f.BoolVar(&opts.noBranding, "no-branding", false, "omit the watermark")

	return cmd
}

// runExport exports every requested format in turn.
func (c *CLI) runExport(cmd *cobra.Command, opts exportOpts) error {
	ctx := cmd.Context()
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}
	scope, err := export.ParseScope(opts.scope)
	if err != nil {
		return err
	}
	if opts.output == "-" && len(formats) > 1 {
		return errs.New(errs.ErrCodeInvalidInput, "stdout takes a single format, got %d", len(formats))
	}

	e, err := c.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	scene, rec, err := e.scene(ctx, opts.scene, c.Logger.Debugf)
	if err != nil {
		return err
	}
	surfaces := export.SceneSurfaces(e.compositor, scene)
	base := exportOptions(cmd, e.cfg.Export.Options, opts)

	var sink export.Sink = export.DirSink{Dir: e.cfg.Export.OutputDir}
	switch opts.output {
	case "":
	case "-":
		sink = export.WriterSink{W: stdout}
	default:
		sink = export.DirSink{Dir: opts.output}
	}

	for _, f := range formats {
		r := export.Request{Format: f, Scope: scope, Options: base}
		if err := c.exportOne(ctx, e, r, surfaces, rec, sink, opts.output == "-"); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) exportOne(ctx context.Context, e *env, r export.Request, surfaces export.SurfaceSet, rec record.Record, sink export.Sink, quiet bool) error {
	prog := newProgress(c.Logger)
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %s (%s)", r.Format, r.Scope))
	if !quiet {
		spin.Start()
	}
	a, where, err := e.exporter.ExportTo(ctx, r, surfaces, rec, sink)
	if quiet {
		spin.Stop()
		return err
	}
	if err != nil {
		spin.StopWithError(fmt.Sprintf("%s export failed: %s", r.Format, errs.UserMessage(err)))
		return err
	}
	spin.Stop()
	prog.done(fmt.Sprintf("Exported %s", a.Filename))
	printFile(where)
	printDetail("%s%s%s", humanBytes(a.Size()), separator, cacheStatus(a.Cached))
	return nil
}

// exportOptions layers explicitly set flags over the configured defaults.
func exportOptions(cmd *cobra.Command, base export.Options, opts exportOpts) export.Options {
	f := cmd.Flags()
	if f.Changed("scale") {
		base.Scale = opts.scale
	}
	if f.Changed("quality") {
		base.Quality = opts.quality
	}
	if f.Changed("transparent") {
		base.Transparent = opts.transparent
	}
	if f.Changed("page-size") {
		base.PageSize = opts.pageSize
	}
	if f.Changed("orientation") {
		base.Orientation = opts.orientation
	}
	if f.Changed("no-branding") {
		base.IncludeBranding = !opts.noBranding
	}
	return base
}

// parseFormats parses a comma-separated format list, dropping duplicates.
func parseFormats(s string) ([]export.Format, error) {
	if strings.TrimSpace(s) == "" {
		return []export.Format{export.FormatPNG}, nil
	}
	var out []export.Format
	seen := map[export.Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f, err := export.ParseFormat(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// humanBytes formats n as B, KB or MB.
func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

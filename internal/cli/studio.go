package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/studio"
)

// studioCommand creates the studio command tree for the visual settings.
func (c *CLI) studioCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Show and change the visual settings",
		Long: `Studio edits the persisted visual settings: template, ratio, palette,
typography, visible content modules, image treatment and branding.
Every change is validated and saved before it takes effect.`,
	}

	cmd.AddCommand(c.studioShowCommand())
	cmd.AddCommand(c.studioListCommand())
	cmd.AddCommand(c.studioTemplateCommand())
	cmd.AddCommand(c.studioRatioCommand())
	cmd.AddCommand(c.studioPaletteCommand())
	cmd.AddCommand(c.studioModuleCommand())
	cmd.AddCommand(c.studioOrderCommand())
	cmd.AddCommand(c.studioSetCommand())
	cmd.AddCommand(c.studioResetCommand())

	return cmd
}

// withStudio runs fn against a freshly opened studio.
func (c *CLI) withStudio(cmd *cobra.Command, fn func(ctx context.Context, st *studio.Studio) error) error {
	e, err := c.newEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(cmd.Context(), e.studio)
}

func (c *CLI) studioShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(_ context.Context, st *studio.Studio) error {
				return writeJSONOut(stdout, st.Config())
			})
		},
	}
}

func (c *CLI) studioListCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "list <templates|ratios|palettes>",
		Short:     "List the built-in templates, ratios or palettes",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"templates", "ratios", "palettes"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "templates":
				for _, t := range studio.Templates() {
					printKeyValue(t.ID, t.Name+StyleDim.Render(" · "+t.Description))
					printDetail("ratios: %s (default %s)", strings.Join(t.SupportedRatios, ", "), t.DefaultRatio)
				}
			case "ratios":
				for _, r := range studio.Ratios() {
					printKeyValue(r.Key, fmt.Sprintf("%s %s", r.Label, StyleDim.Render(fmt.Sprintf("%d×%d", r.Width, r.Height))))
				}
			case "palettes":
				for _, key := range studio.PaletteKeys() {
					p, _ := studio.LookupPalette(key)
					printKeyValue(key, p.Name+StyleDim.Render(" · "+p.Accent))
				}
			}
			return nil
		},
	}
}

func (c *CLI) studioTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "template <id>",
		Short: "Switch template; the ratio resets to the template default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				if err := st.SetTemplate(ctx, args[0]); err != nil {
					return err
				}
				cfg := st.Config()
				printSuccess("Template %s, ratio %s", StyleHighlight.Render(cfg.Template), cfg.Ratio)
				return nil
			})
		},
	}
}

func (c *CLI) studioRatioCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ratio <key>",
		Short: "Set the canvas ratio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				if err := st.SetRatio(ctx, args[0]); err != nil {
					return err
				}
				w, h := st.Config().Dimensions()
				printSuccess("Ratio %s (%d×%d)", StyleHighlight.Render(args[0]), w, h)
				return nil
			})
		},
	}
}

func (c *CLI) studioPaletteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "palette <key>",
		Short: "Apply a color palette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				if err := st.ApplyPalette(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Palette %s applied", StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}
}

func (c *CLI) studioModuleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "module <name>",
		Short: "Toggle the visibility of a template content module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				if err := st.ToggleModule(ctx, args[0]); err != nil {
					return err
				}
				state := "hidden"
				if st.Config().Visible(args[0]) {
					state = "visible"
				}
				printSuccess("Module %s is now %s", args[0], state)
				return nil
			})
		},
	}
}

func (c *CLI) studioOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order <module>...",
		Short: "Set the display order of content modules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				if err := st.ReorderModules(ctx, args); err != nil {
					return err
				}
				printSuccess("Module order: %s", strings.Join(st.Config().ModuleOrder, ", "))
				return nil
			})
		},
	}
}

// studioSetOpts are the individually settable values of studio set.
type studioSetOpts struct {
	titleSize, textSize     float64
	fontFamily              string
	titleWeight, textWeight string
	titleColor, textColor   string
	background, accent      string

	imageRatio   string
	imageFilter  string
	imageRadius  float64
	imageOpacity float64

	branding      bool
	logo          string
	brandPosition string
	brandOpacity  float64
	brandSize     string
}

func (c *CLI) studioSetCommand() *cobra.Command {
	var o studioSetOpts
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change typography, colors, image and branding values",
		Example: `  orchard studio set --title-size 32 --accent "#22c55e"
  orchard studio set --branding --logo ./logo.png --brand-position bottom-right`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.NFlag() == 0 {
				return cmd.Help()
			}
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				changed := func(names ...string) bool {
					for _, n := range names {
						if f.Changed(n) {
							return true
						}
					}
					return false
				}
				if changed("font", "title-size", "text-size", "title-weight", "text-weight", "title-color", "text-color") {
					if err := st.UpdateTypography(ctx, func(t *studio.Typography) {
						setIf(f.Changed("font"), &t.FontFamily, o.fontFamily)
						setIf(f.Changed("title-size"), &t.TitleSize, o.titleSize)
						setIf(f.Changed("text-size"), &t.TextSize, o.textSize)
						setIf(f.Changed("title-weight"), &t.TitleWeight, o.titleWeight)
						setIf(f.Changed("text-weight"), &t.TextWeight, o.textWeight)
						setIf(f.Changed("title-color"), &t.TitleColor, o.titleColor)
						setIf(f.Changed("text-color"), &t.TextColor, o.textColor)
					}); err != nil {
						return err
					}
				}
				if changed("background", "accent") {
					if err := st.UpdateColors(ctx, func(col *studio.Colors) {
						setIf(f.Changed("background"), &col.Background, o.background)
						setIf(f.Changed("accent"), &col.Accent, o.accent)
					}); err != nil {
						return err
					}
				}
				if changed("image-ratio", "image-filter", "image-radius", "image-opacity") {
					if err := st.UpdateImage(ctx, func(img *studio.Image) {
						setIf(f.Changed("image-ratio"), &img.AspectRatio, o.imageRatio)
						setIf(f.Changed("image-filter"), &img.Filter, o.imageFilter)
						setIf(f.Changed("image-radius"), &img.BorderRadius, o.imageRadius)
						setIf(f.Changed("image-opacity"), &img.Opacity, o.imageOpacity)
					}); err != nil {
						return err
					}
				}
				if changed("branding", "logo", "brand-position", "brand-opacity", "brand-size") {
					if err := st.UpdateBranding(ctx, func(b *studio.Branding) {
						setIf(f.Changed("branding"), &b.Enabled, o.branding)
						setIf(f.Changed("logo"), &b.LogoURL, o.logo)
						setIf(f.Changed("brand-position"), &b.Position, o.brandPosition)
						setIf(f.Changed("brand-opacity"), &b.Opacity, o.brandOpacity)
						setIf(f.Changed("brand-size"), &b.Size, o.brandSize)
					}); err != nil {
						return err
					}
				}
				printSuccess("Settings updated")
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.fontFamily, "font", "", "font family")
	f.Float64Var(&o.titleSize, "title-size", 0, "title size in points")
	f.Float64Var(&o.textSize, "text-size", 0, "text size in points")
	f.StringVar(&o.titleWeight, "title-weight", "", "title weight")
	f.StringVar(&o.textWeight, "text-weight", "", "text weight")
	f.StringVar(&o.titleColor, "title-color", "", "title color")
	f.StringVar(&o.textColor, "text-color", "", "text color")
	f.StringVar(&o.background, "background", "", "background color or linear-gradient()")
	f.StringVar(&o.accent, "accent", "", "accent color")
	f.StringVar(&o.imageRatio, "image-ratio", "", "main image aspect ratio")
	f.StringVar(&o.imageFilter, "image-filter", "", "main image filter")
	f.Float64Var(&o.imageRadius, "image-radius", 0, "main image corner radius")
	f.Float64Var(&o.imageOpacity, "image-opacity", 0, "main image opacity (0 to 1)")
	f.BoolVar(&o.branding, "branding", false, "show the logo watermark")
	f.StringVar(&o.logo, "logo", "", "logo path or data URI")
	f.StringVar(&o.brandPosition, "brand-position", "", "watermark position")
	f.Float64Var(&o.brandOpacity, "brand-opacity", 0, "watermark opacity (0 to 1)")
	f.StringVar(&o.brandSize, "brand-size", "", "watermark size: small, medium or large")
	return cmd
}

func (c *CLI) studioResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStudio(cmd, func(ctx context.Context, st *studio.Studio) error {
				if err := st.Reset(ctx); err != nil {
					return err
				}
				printSuccess("Settings reset to defaults")
				return nil
			})
		},
	}
}

// setIf assigns v to *dst when ok.
func setIf[T any](ok bool, dst *T, v T) {
	if ok {
		*dst = v
	}
}

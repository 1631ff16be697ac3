package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/outline"
	"github.com/matzehuels/orchard/pkg/record"
)

// defaultLayoutFile is used when --file is not given.
const defaultLayoutFile = "layout.json"

// layoutCommand creates the layout command tree. Every mutating
// subcommand reads the layout file, commits its operations through a
// controller as one batch, and writes the file back.
func (c *CLI) layoutCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Edit a free-form layout file",
		Long: `Layout edits the free-form composition stored in a layout file.
Positions are percentages of the canvas; every change is validated
before the file is written, so a rejected operation leaves it untouched.`,
	}
	cmd.PersistentFlags().StringVarP(&file, "file", "f", defaultLayoutFile, "layout file")

	path := func() string { return file }
	cmd.AddCommand(c.layoutNewCommand(path))
	cmd.AddCommand(c.layoutDropCommand(path))
	cmd.AddCommand(c.layoutZoneCommand(path))
	cmd.AddCommand(c.layoutAssignCommand(path))
	cmd.AddCommand(c.layoutUnassignCommand(path))
	cmd.AddCommand(c.layoutMoveCommand(path))
	cmd.AddCommand(c.layoutResizeCommand(path))
	cmd.AddCommand(c.layoutRotateCommand(path))
	cmd.AddCommand(c.layoutRemoveCommand(path))
	cmd.AddCommand(c.layoutFilterCommand(path))
	cmd.AddCommand(c.layoutRenameCommand(path))
	cmd.AddCommand(c.layoutApplyCommand(path))
	cmd.AddCommand(c.layoutShowCommand(path))
	cmd.AddCommand(c.layoutOutlineCommand(path))
	return cmd
}

// =============================================================================
// Commit Helper
// =============================================================================

// commitOps applies ops to the layout at path and writes the result.
func (c *CLI) commitOps(cmd *cobra.Command, path string, ops ...layout.Op) (layout.Model, error) {
	m, err := layout.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctrl, err := layout.NewController(m, layout.WithLogger(c.Logger))
	if err != nil {
		return nil, err
	}
	snap, err := ctrl.Apply(cmd.Context(), ops)
	if err != nil {
		return nil, err
	}
	if err := layout.WriteFile(snap.Model, path); err != nil {
		return nil, err
	}
	c.Logger.Debug("layout written", "path", path, "items", len(snap.Model), "ops", len(ops))
	return snap.Model, nil
}

// positionFlags registers --x and --y.
func positionFlags(cmd *cobra.Command, p *layout.Point) {
	cmd.Flags().Float64VarP(&p.X, "x", "x", 50, "horizontal position in percent")
	cmd.Flags().Float64VarP(&p.Y, "y", "y", 50, "vertical position in percent")
}

// =============================================================================
// Subcommands
// =============================================================================

func (c *CLI) layoutNewCommand(path func() string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty layout file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := path()
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
			if err := layout.WriteFile(layout.Model{}, p); err != nil {
				return err
			}
			printSuccess("Created empty layout")
			printFile(p)
			printNextStep("Place a field", "orchard layout drop holderName -x 20 -y 10 -f "+p)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) layoutDropCommand(path func() string) *cobra.Command {
	var (
		pos layout.Point
		id  string
	)
	cmd := &cobra.Command{
		Use:   "drop <field>",
		Short: "Place a field on the canvas, or move it back out of its zone",
		Long: `Drop places a catalogue field at a position. Dropping a field that is
already placed moves it; dropping a field that belongs to a zone takes it
out of the zone. Dropping "zone" creates an empty zone.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFieldIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pos
			m, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionDrop, Field: args[0], ID: id, Position: &p})
			if err != nil {
				return err
			}
			f := catalogue.Resolve(args[0])
			printSuccess("Placed %s %s", f.Icon, f.Label)
			printDetail("%d items on the canvas", len(m))
			return nil
		},
	}
	positionFlags(cmd, &pos)
	cmd.Flags().StringVar(&id, "id", "", "id for a new zone (default: generated)")
	return cmd
}

func (c *CLI) layoutZoneCommand(path func() string) *cobra.Command {
	var (
		pos     layout.Point
		label   string
		section string
	)
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Create a zone, optionally labelled and filtered to a section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := layout.NewZoneID()
			p := pos
			ops := []layout.Op{{Action: layout.ActionDrop, Field: catalogue.ZoneTemplateID, ID: id, Position: &p}}
			if label != "" {
				ops = append(ops, layout.Op{Action: layout.ActionRename, Zone: id, Label: label})
			}
			if section != "" {
				ops = append(ops, layout.Op{Action: layout.ActionFilter, Zone: id, Section: section})
			}
			if _, err := c.commitOps(cmd, path(), ops...); err != nil {
				return err
			}
			printSuccess("Created zone %s", StyleHighlight.Render(id))
			printNextStep("Assign a field", fmt.Sprintf("orchard layout assign <field> %s", id))
			return nil
		},
	}
	positionFlags(cmd, &pos)
	cmd.Flags().StringVar(&label, "label", "", "zone label")
	cmd.Flags().StringVar(&section, "section", "", "only accept fields of this section")
	return cmd
}

func (c *CLI) layoutAssignCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <field> <zone>",
		Short: "Assign a field to a zone, removing it from anywhere else",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionAssign, Field: args[0], Zone: args[1]}); err != nil {
				return err
			}
			printSuccess("Assigned %s to %s", args[0], args[1])
			return nil
		},
	}
}

func (c *CLI) layoutUnassignCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <zone> <field>",
		Short: "Remove a field from a zone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionUnassign, Zone: args[0], Field: args[1]}); err != nil {
				return err
			}
			printSuccess("Removed %s from %s", args[1], args[0])
			return nil
		},
	}
}

func (c *CLI) layoutMoveCommand(path func() string) *cobra.Command {
	var pos layout.Point
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pos
			if _, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionMove, ID: args[0], Position: &p}); err != nil {
				return err
			}
			printSuccess("Moved %s", args[0])
			return nil
		},
	}
	positionFlags(cmd, &pos)
	return cmd
}

func (c *CLI) layoutResizeCommand(path func() string) *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "resize <id>",
		Short: "Resize an item (sizes are clamped)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := layout.Op{Action: layout.ActionResize, ID: args[0]}
			if cmd.Flags().Changed("width") {
				op.Width = &width
			}
			if cmd.Flags().Changed("height") {
				op.Height = &height
			}
			if op.Width == nil && op.Height == nil {
				return errs.New(errs.ErrCodeInvalidInput, "resize needs --width or --height")
			}
			m, err := c.commitOps(cmd, path(), op)
			if err != nil {
				return err
			}
			if it, ok := m.Get(args[0]); ok {
				printSuccess("Resized %s to %s×%s", args[0], fmtNum(it.Width), fmtNum(it.Height))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "width in percent")
	cmd.Flags().Float64Var(&height, "height", 0, "height in percent")
	return cmd
}

func (c *CLI) layoutRotateCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <id> <degrees>",
		Short: "Set an item's rotation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deg, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidInput, err, "rotation %q", args[1])
			}
			m, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionRotate, ID: args[0], Rotation: &deg})
			if err != nil {
				return err
			}
			if it, ok := m.Get(args[0]); ok {
				printSuccess("Rotated %s to %s°", args[0], fmtNum(it.Rotation))
			}
			return nil
		},
	}
}

func (c *CLI) layoutRemoveCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an item; removing a zone discards its members",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := layout.ReadFile(path())
			if err != nil {
				return err
			}
			if _, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionRemove, ID: args[0]}); err != nil {
				return err
			}
			printSuccess("Removed %s", args[0])
			if it, ok := before.Get(args[0]); ok && it.IsZone() && len(it.AssignedFields) > 0 {
				printDetail("discarded %s", strings.Join(it.AssignedFields, ", "))
			}
			return nil
		},
	}
}

func (c *CLI) layoutFilterCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <zone> [section]",
		Short: "Restrict a zone to one section; omit the section to clear",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := layout.Op{Action: layout.ActionFilter, Zone: args[0]}
			if len(args) == 2 {
				op.Section = args[1]
			}
			if _, err := c.commitOps(cmd, path(), op); err != nil {
				return err
			}
			if op.Section == "" {
				printSuccess("Cleared the section filter of %s", args[0])
			} else {
				printSuccess("%s now accepts %s", args[0], catalogue.SectionLabel(op.Section))
			}
			return nil
		},
	}
}

func (c *CLI) layoutRenameCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <zone> <label>",
		Short: "Rename a zone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.commitOps(cmd, path(), layout.Op{Action: layout.ActionRename, Zone: args[0], Label: args[1]}); err != nil {
				return err
			}
			printSuccess("Renamed %s", args[0])
			return nil
		},
	}
}

func (c *CLI) layoutApplyCommand(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <ops.json|->",
		Short: "Apply a JSON array of operations as one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ops []layout.Op
			data, err := readAll(args[0])
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &ops); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode operations")
			}
			m, err := c.commitOps(cmd, path(), ops...)
			if err != nil {
				return err
			}
			printSuccess("Applied %d operations", len(ops))
			printDetail("%d items on the canvas", len(m))
			return nil
		},
	}
}

func (c *CLI) layoutShowCommand(path func() string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the items of a layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := layout.ReadFile(path())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSONOut(stdout, m)
			}
			if len(m) == 0 {
				printInfo("Layout is empty")
				return nil
			}
			fmt.Fprintln(stdout, renderLayout(m))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *CLI) layoutOutlineCommand(path func() string) *cobra.Command {
	var (
		output   string
		recPath  string
		detailed bool
	)
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Draw the layout structure as a Graphviz diagram",
		Long: `Outline draws the layout as a graph: the canvas, its items, and each
zone with its members. With --record, fields without data are dashed.
The output format follows the file extension (.dot or .svg); without
-o the DOT source is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := layout.ReadFile(path())
			if err != nil {
				return err
			}
			opts := outline.Options{Detailed: detailed}
			if recPath != "" {
				e, err := c.newEnv(cmd.Context())
				if err != nil {
					return err
				}
				defer e.Close()
				if opts.Record, err = e.loadRecord(cmd.Context(), recPath); err != nil {
					return err
				}
			}

			dot := outline.ToDOT(m, opts)
			if output == "" {
				fmt.Fprint(stdout, dot)
				return nil
			}
			data := []byte(dot)
			if strings.EqualFold(filepath.Ext(output), ".svg") {
				if data, err = outline.RenderSVG(cmd.Context(), dot); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Outline written")
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot or .svg)")
	cmd.Flags().StringVarP(&recPath, "record", "r", "", "record used to mark fields without data")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include geometry in labels")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

// renderLayout draws items in paint order as a table.
func renderLayout(m layout.Model) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	var rows [][]string
	for _, it := range m {
		detail := ""
		if it.IsZone() {
			detail = strings.Join(it.AssignedFields, ", ")
			if it.SectionFilter != "" {
				detail = "[" + catalogue.SectionLabel(it.SectionFilter) + "] " + detail
			}
		}
		rows = append(rows, []string{
			it.ID,
			it.Icon + " " + it.Label,
			fmt.Sprintf("%s,%s", fmtNum(it.Position.X), fmtNum(it.Position.Y)),
			fmt.Sprintf("%s×%s", fmtNum(it.Width), fmtNum(it.Height)),
			fmtNum(it.Rotation) + "°",
			detail,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Item", "Position", "Size", "Rot", "Members").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func fmtNum(f float64) string { return record.FormatNumber(f) }

// readAll reads path, or stdin when path is "-".
func readAll(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "%s", path)
		}
		return nil, err
	}
	return data, nil
}

// completeFieldIDs completes catalogue field ids.
func completeFieldIDs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return append(catalogue.IDs(), catalogue.ZoneTemplateID), cobra.ShellCompDirectiveNoFileComp
}

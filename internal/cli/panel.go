package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/panel"
)

// panelOpts holds the command-line flags for the panel command.
type panelOpts struct {
	layout       string
	onlyWithData bool
	sections     []string
	all          bool
	interactive  bool
	asJSON       bool
}

// panelCommand creates the panel command.
func (c *CLI) panelCommand() *cobra.Command {
	var opts panelOpts

	cmd := &cobra.Command{
		Use:   "panel <record.json|->",
		Short: "Show the content panel for a record",
		Long: `Panel lists the catalogue by section against a record: which fields
hold data, a short preview of each value, and which are already placed
by the layout given with --layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			rec, err := e.loadRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m := layout.Model{}
			if opts.layout != "" {
				if m, err = layout.ReadFile(opts.layout); err != nil {
					return err
				}
			}

			if opts.interactive {
				_, err := tea.NewProgram(NewPanelModel(rec, m, opts.onlyWithData), tea.WithContext(cmd.Context())).Run()
				return err
			}

			open := panel.DefaultOpen()
			if opts.all {
				panel.SetAll(open, true)
			}
			view := panel.Build(rec, m, panel.Options{OnlyWithData: opts.onlyWithData, Open: open, Sections: opts.sections})
			if opts.asJSON {
				return writeJSONOut(stdout, view)
			}
			printPanel(view)
			printCounts(view.WithData, view.Total, len(layout.PlacedIDs(m)), e.recordCached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "layout file marking placed fields")
	cmd.Flags().BoolVarP(&opts.onlyWithData, "data", "d", false, "only list fields that hold data")
	cmd.Flags().StringSliceVarP(&opts.sections, "section", "s", nil, "restrict to these sections")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "expand every section")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the panel interactively")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print as JSON")
	return cmd
}

// printPanel prints open sections with their entries and collapsed
// sections as a single line.
func printPanel(v panel.View) {
	for _, sec := range v.Sections {
		counts := StyleDim.Render(fmt.Sprintf("(%d/%d)", sec.WithData, sec.Total))
		if !sec.Open {
			fmt.Fprintln(stdout, StyleDim.Render("▶ ") + StyleSection.Render(sec.Label) + " " + counts)
			continue
		}
		fmt.Fprintln(stdout, StyleHighlight.Render("▼ ") + StyleSection.Render(sec.Label) + " " + counts)
		for _, e := range sec.Entries {
			mark := " "
			if e.Placed {
				mark = StyleSuccess.Render(iconSuccess)
			}
			line := fmt.Sprintf("  %s %s %s", mark, e.Field.Icon, e.Field.Label)
			if !e.HasValue {
				fmt.Fprintln(stdout, StyleDim.Render(line))
				continue
			}
			if e.Preview != "" {
				line += " " + StyleDim.Render(strings.TrimSpace(e.Preview))
			}
			fmt.Fprintln(stdout, line)
		}
	}
}

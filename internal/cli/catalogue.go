package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/catalogue"
)

// catalogueCommand creates the catalogue command.
func (c *CLI) catalogueCommand() *cobra.Command {
	var (
		section string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:     "catalogue",
		Aliases: []string{"catalog", "fields"},
		Short:   "List the fields that can be placed on the canvas",
		RunE: func(cmd *cobra.Command, args []string) error {
			sections := catalogue.Sections()
			if section != "" {
				fields := catalogue.InSection(section)
				if len(fields) == 0 {
					return fmt.Errorf("unknown section %q (known: %v)", section, catalogue.SectionKeys())
				}
				sections = []catalogue.Section{{Key: section, Label: catalogue.SectionLabel(section), Fields: fields}}
			}
			if asJSON {
				return writeJSONOut(stdout, sections)
			}
			fmt.Fprintln(stdout, renderCatalogue(sections))
			return nil
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "only list one section")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// renderCatalogue draws sections as one table.
func renderCatalogue(sections []catalogue.Section) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(colorCyan)

	var rows [][]string
	for _, sec := range sections {
		for i, f := range sec.Fields {
			label := ""
			if i == 0 {
				label = sec.Label
			}
			rows = append(rows, []string{label, f.Icon, f.ID, f.Label, string(f.Shape)})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Section", "", "ID", "Label", "Shape").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return sectionStyle
			case col == 4:
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/studio"
)

// presetCommand creates the preset command tree.
func (c *CLI) presetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named snapshots of the studio settings",
	}

	cmd.AddCommand(c.presetListCommand())
	cmd.AddCommand(c.presetSaveCommand())
	cmd.AddCommand(c.presetLoadCommand())
	cmd.AddCommand(c.presetRenameCommand())
	cmd.AddCommand(c.presetDeleteCommand())

	return cmd
}

func (c *CLI) presetListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved presets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			presets := e.studio.Presets()
			if asJSON {
				return writeJSONOut(stdout, presets)
			}
			if len(presets) == 0 {
				printInfo("No presets saved")
				printNextStep("Save the current settings", `orchard preset save "My preset"`)
				return nil
			}
			fmt.Fprintln(stdout, renderPresets(presets, e.studio.ActivePreset()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *CLI) presetSaveCommand() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current settings as a preset and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.studio.SavePreset(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			printSuccess("Saved preset %s", StyleHighlight.Render(p.Name))
			printKeyValue("ID", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "preset description")
	return cmd
}

func (c *CLI) presetLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Replace the current settings with a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.studio.LoadPreset(cmd.Context(), args[0]); err != nil {
				return err
			}
			p, _ := e.studio.State().Preset(args[0])
			printSuccess("Loaded preset %s", StyleHighlight.Render(p.Name))
			return nil
		},
	}
}

func (c *CLI) presetRenameCommand() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			patch := studio.PresetPatch{Name: &args[1]}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if err := e.studio.UpdatePreset(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			printSuccess("Renamed preset %s", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func (c *CLI) presetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a preset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.studio.DeletePreset(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted preset %s", args[0])
			return nil
		},
	}
}

// renderPresets draws presets as a table, marking the active one.
func renderPresets(presets []studio.Preset, active string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(presets))
	for i, p := range presets {
		mark := ""
		if p.ID == active {
			mark = iconSuccess
		}
		rows[i] = []string{mark, p.Name, p.Config.Template, p.Config.Ratio, p.CreatedAt.Format("Jan 2, 2006"), p.ID}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Template", "Ratio", "Created", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleSuccess
			case col == 5:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

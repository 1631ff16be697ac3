package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/studio"
)

// applyCommand creates the apply command: it hands the current
// composition to the host by saving it under a review id, writing it into
// a record file, or both.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		layoutPath string
		mode       string
		recordPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "apply [review-id]",
		Short: "Apply the current settings and layout to a review",
		Long: `Apply builds the composition payload from the studio settings and an
optional layout file. The mode defaults to custom when the layout has
items and to template otherwise. With a review id the payload is saved
in the store; with --record it is written into the record file, where
export picks it up again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := layout.Model{}
			if layoutPath != "" {
				var err error
				if m, err = layout.ReadFile(layoutPath); err != nil {
					return err
				}
			}
			lm := studio.LayoutMode(mode)
			if lm == "" {
				lm = studio.ModeTemplate
				if len(m) > 0 {
					lm = studio.ModeCustom
				}
			}

			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.studio.Apply(lm, m)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := e.store.PutLayout(cmd.Context(), args[0], p); err != nil {
					return err
				}
			}
			if recordPath != "" {
				if err := writePayload(recordPath, p); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSONOut(stdout, p)
			}
			printSuccess("Applied %s composition", p.LayoutMode)
			if len(args) == 1 {
				printKeyValue("Review", args[0])
			}
			if recordPath != "" {
				printFile(recordPath)
			}
			if len(args) == 0 && recordPath == "" {
				printWarning("Nothing saved: pass a review id or --record")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "layout mode: custom or template")
	cmd.Flags().StringVarP(&recordPath, "record", "r", "", "record file to store the composition in")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the payload as JSON")

	cmd.AddCommand(c.appliedShowCommand())
	cmd.AddCommand(c.appliedListCommand())
	cmd.AddCommand(c.appliedDeleteCommand())
	return cmd
}

// writePayload stores p in the record file under the keys the studio
// reads back.
func writePayload(path string, p studio.Payload) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}
	raw[studio.KeyConfig] = p.LayoutConfig
	raw[studio.KeyLayoutMode] = p.LayoutMode
	if p.ActivePreset != nil {
		raw[studio.KeyPreset] = *p.ActivePreset
	} else {
		delete(raw, studio.KeyPreset)
	}
	if p.LayoutMode == studio.ModeCustom {
		raw[studio.KeyCustomLayout] = p.CustomLayout
	} else {
		delete(raw, studio.KeyCustomLayout)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func (c *CLI) appliedShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <review-id>",
		Short: "Print the composition saved for a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := e.store.GetLayout(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a == nil {
				return errs.New(errs.ErrCodeNotFound, "no composition saved for %q", args[0])
			}
			return writeJSONOut(stdout, a)
		},
	}
}

func (c *CLI) appliedListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List reviews with a saved composition",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			ids, err := e.store.ListLayouts(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				printInfo("No compositions saved")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(stdout, id)
			}
			return nil
		},
	}
}

func (c *CLI) appliedDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <review-id>",
		Aliases: []string{"rm"},
		Short:   "Delete the composition saved for a review",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.DeleteLayout(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted composition for %s", args[0])
			return nil
		},
	}
}

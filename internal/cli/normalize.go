package cli

import (

	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/normalize"
)

// normalizeCommand creates the normalize command.
func (c *CLI) normalizeCommand() *cobra.Command {
	var productType string

	cmd := &cobra.Command{
		Use:   "normalize <record.json|->",
		Short: "Normalize a raw review record and print it as JSON",
		Long: `Normalize reads a raw review record, coerces legacy and flat field
shapes into the canonical form, and prints the result as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRaw(args[0])
			if err != nil {
				return err
			}
			if productType != "" {
				return writeJSONOut(stdout, normalize.Normalize(raw,
					normalize.WithLogger(c.Logger), normalize.WithProductType(productType)))
			}

			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			rec, cached := e.normalizer.Normalize(cmd.Context(), raw)
			c.Logger.Debug("normalized record", "fields", len(rec), "cached", cached)
			return writeJSONOut(stdout, rec)
		},
	}

	cmd.Flags().StringVar(&productType, "type", "", "product type to assume when the record has none")
	return cmd
}

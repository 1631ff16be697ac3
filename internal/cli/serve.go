package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the studio JSON API",
		Long: `Serve exposes the catalogue, normalizer, content panel, layout
operations, studio settings, presets and exports over HTTP. It shuts down
gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			srv, err := server.New(server.Deps{
				Studio:     e.studio,
				Layouts:    e.store,
				Exporter:   e.exporter,
				Normalizer: e.normalizer,
				Compositor: e.compositor,
				Logger:     c.Logger,
			}, server.WithTimeout(e.cfg.ServerTimeout()), server.WithMaxBody(e.cfg.Server.MaxBody))
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings, :8080)")
	return cmd
}

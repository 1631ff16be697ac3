// Package cli implements the orchard command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/internal/config"
	"github.com/matzehuels/orchard/pkg/buildinfo"
	"github.com/matzehuels/orchard/pkg/cache"
	"github.com/matzehuels/orchard/pkg/export"
	"github.com/matzehuels/orchard/pkg/normalize"
	"github.com/matzehuels/orchard/pkg/render"
	"github.com/matzehuels/orchard/pkg/store"
	"github.com/matzehuels/orchard/pkg/studio"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "orchard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetVerbose turns on debug logging and traces pipeline events.
func (c *CLI) SetVerbose(v bool) {
	c.verbose = v
	if v {
		c.SetLogLevel(LogDebug)
		installLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Orchard composes review cards and exports them",
		Long:         `Orchard Studio lays out the fields of a product review on a canvas, either freely or through a template, and exports the result as PNG, JPEG, PDF or Markdown.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/orchard/orchard.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the record and artifact cache")

	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.catalogueCommand())
	root.AddCommand(c.panelCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.presetCommand())
	root.AddCommand(c.studioCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment Factory
// =============================================================================

// env bundles the services a command runs against.
type env struct {
	cfg        *config.Config
	cache      cache.Cache
	store      store.Backend
	studio     *studio.Studio
	normalizer *normalize.Normalizer
	compositor *render.Compositor
	exporter   *export.Exporter

	// recordCached is set when the last record came from the cache.
	recordCached bool
}

// loadConfig reads the settings file named by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if !c.verbose {
		c.SetLogLevel(cfg.LogLevel())
	}
	if cfg.Path() != "" {
		c.Logger.Debug("loaded settings", "path", cfg.Path())
	}
	return cfg, nil
}

// newEnv opens storage and the cache and builds the pipeline services.
func (c *CLI) newEnv(ctx context.Context) (*env, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	b, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	st, err := studio.New(ctx, b, studio.WithLogger(c.Logger))
	if err != nil {
		b.Close()
		return nil, err
	}
	ch := cfg.OpenCache(ctx, c.noCache, c.Logger)
	settle, cleanup := cfg.Delays()
	return &env{
		cfg:        cfg,
		cache:      ch,
		store:      b,
		studio:     st,
		normalizer: normalize.NewNormalizer(ch, nil, c.Logger),
		compositor: render.New(render.WithLogger(c.Logger), render.WithImageDir(cfg.ImageDir)),
		exporter: export.NewExporter(ch, nil, c.Logger,
			export.WithSettleDelay(settle), export.WithCleanupDelay(cleanup)),
	}, nil
}

// Close releases the cache and store connections.
func (e *env) Close() error {
	cerr := e.cache.Close()
	if err := e.store.Close(); err != nil {
		return err
	}
	return cerr
}

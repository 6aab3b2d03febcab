// Package cli implements the mangaforge command-line interface.
//
// The commands mirror the pipeline stages:
//   - generate: build page layouts and write metadata documents
//   - render: rasterize metadata documents into page images
//   - segment: write masks and annotations for every page
//   - inspect: show the panel tree of a page, optionally as a diagram
//   - cache, config: manage the render cache and the settings file
//
// All commands accept --config to read a TOML settings file and --verbose
// (-v) for debug logging. Flags override values from the settings file.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mangaforge/pkg/buildinfo"
	"github.com/matzehuels/mangaforge/pkg/cache"
	"github.com/matzehuels/mangaforge/pkg/config"
	"github.com/matzehuels/mangaforge/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mangaforge"

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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Mangaforge synthesizes comic and manga pages with annotations",
		Long:          `Mangaforge generates random comic page layouts, fills the panels with illustrations and speech bubbles, renders them and writes segmentation masks for training page-understanding models.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "settings file (default "+config.DefaultFile+" if present)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.segmentCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the --config file, or mangaforge.toml when present.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.LoadOrDefault(c.configPath)
}

// cacheURL returns the [cache.Open] URL for cfg. noCache and an explicit
// url flag take precedence over the settings file.
func cacheURL(cfg config.Config, noCache bool, url string) string {
	switch {
	case noCache:
		return "none"
	case url != "":
		return url
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return "none"
	case config.CacheRedis:
		return cfg.Cache.URL
	}
	return cfg.Cache.Dir
}

// newRunner creates a pipeline runner for CLI use. A cache that cannot be
// opened is logged and replaced by no caching.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool, url string) *pipeline.Runner {
	ch, err := cache.Open(ctx, cacheURL(cfg, noCache, url))
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		ch = cache.NewNullCache()
	}
	return pipeline.NewRunner(ch, nil, c.Logger)
}

// options builds stage options from cfg with the CLI logger.
func (c *CLI) options(cfg config.Config) pipeline.Options {
	return pipeline.Options{Config: cfg, Logger: c.Logger}
}

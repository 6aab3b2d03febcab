package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mangaforge/pkg/config"
	"github.com/matzehuels/mangaforge/pkg/pipeline"
	"github.com/matzehuels/mangaforge/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string
	colorDir string
	format   string
	workers  int
	noCache  bool
	cacheURL string
	refresh  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [metadata-dir]",
		Short: "Render metadata documents into page images",
		Long: `Render rasterizes every metadata document in a directory. Rendered pages are
cached by the document content and render settings, so re-running after
adding pages only renders the new ones.`,
		Example: `  mangaforge render out/metadata -o out/images
  mangaforge render out/metadata --color-images images_color/ --cache redis://localhost:6379/0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Render.Format = render.Format(opts.format)
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers.Count = opts.workers
			}
			if opts.output == "" {
				opts.output = filepath.Join(filepath.Dir(filepath.Clean(args[0])), "images")
			}
			return c.runRender(cmd.Context(), cfg, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "image output directory (default: images next to the metadata directory)")
	f.StringVar(&opts.colorDir, "color-images", "", "directory of colored illustrations; renders in color")
	f.StringVarP(&opts.format, "format", "f", "", "image format: png (default), jpeg")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent pages (0 = number of CPUs)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	f.StringVar(&opts.cacheURL, "cache", "", "cache location: directory or redis:// URL")
	f.BoolVar(&opts.refresh, "refresh", false, "re-render pages even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg config.Config, metadataDir string, opts renderOpts) error {
	runner := c.newRunner(ctx, cfg, opts.noCache, opts.cacheURL)
	defer runner.Close()

	popts := c.options(cfg)
	popts.MetadataDir = metadataDir
	popts.ImagesDir = opts.output
	popts.ColorDir = opts.colorDir
	popts.Refresh = opts.refresh

	stage := startStage(c.Logger, "render")
	var res *pipeline.RenderResult
	err := withSpinner(ctx, "Rendering pages", &popts, func() (err error) {
		res, err = runner.Render(ctx, popts)
		return err
	})
	if err != nil {
		return err
	}
	stage.finish(len(res.Files), len(res.Failed))

	printSuccess("Rendered %d pages", len(res.Files))
	printStats([]stat{{len(res.Files) - res.Cached, "rendered"}}, res.Cached)
	printKeyValue("Output", opts.output)
	printFailures(res.Failed)
	printNewline()
	printNextStep("Write segmentation masks", fmt.Sprintf("%s segment %s", appName, metadataDir))
	return nil
}

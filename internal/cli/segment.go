package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mangaforge/pkg/config"
	"github.com/matzehuels/mangaforge/pkg/pipeline"
)

// segmentOpts holds the command-line flags for the segment command.
type segmentOpts struct {
	output   string
	images   string
	colorDir string
	workers  int
}

// segmentCommand creates the segment command.
func (c *CLI) segmentCommand() *cobra.Command {
	var opts segmentOpts

	cmd := &cobra.Command{
		Use:   "segment [metadata-dir]",
		Short: "Write segmentation masks and annotations",
		Long: `Segment writes, for every page, one mask per panel and per speech bubble,
the union mask of each category, a preview with the outlines drawn on the
rendered page, and an annotations.json with polygons, areas and boxes.`,
		Example: `  mangaforge segment out/metadata -o out/segmentation`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers.Count = opts.workers
			}
			parent := filepath.Dir(filepath.Clean(args[0]))
			if opts.output == "" {
				opts.output = filepath.Join(parent, "segmentation")
			}
			if opts.images == "" {
				opts.images = filepath.Join(parent, "images")
			}
			return c.runSegment(cmd.Context(), cfg, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default: segmentation next to the metadata directory)")
	f.StringVar(&opts.images, "images", "", "rendered pages for the previews (default: images next to the metadata directory)")
	f.StringVar(&opts.colorDir, "color-images", "", "colored illustrations for pages rendered on the fly")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent pages (0 = number of CPUs)")

	return cmd
}

func (c *CLI) runSegment(ctx context.Context, cfg config.Config, metadataDir string, opts segmentOpts) error {
	runner := c.newRunner(ctx, cfg, true, "")
	defer runner.Close()

	popts := c.options(cfg)
	popts.MetadataDir = metadataDir
	popts.ImagesDir = opts.images
	popts.SegmentDir = opts.output
	popts.ColorDir = opts.colorDir

	stage := startStage(c.Logger, "segment")
	var res *pipeline.SegmentResult
	err := withSpinner(ctx, "Segmenting pages", &popts, func() (err error) {
		res, err = runner.Segment(ctx, popts)
		return err
	})
	if err != nil {
		return err
	}
	stage.finish(len(res.Dirs), len(res.Failed))

	printSuccess("Segmented %d pages", len(res.Dirs))
	printStats([]stat{{res.Panels, "panels"}, {res.Bubbles, "bubbles"}}, 0)
	printKeyValue("Output", opts.output)
	printFailures(res.Failed)
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/mangaforge/pkg/config"
	"github.com/matzehuels/mangaforge/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	count   int
	output  string
	seed    uint64
	format  string
	lang    string
	workers int
	names   bool // deterministic page names
	sources struct {
		images, backgrounds, fonts, texts, bubbles, areas string
	}
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{count: 1, output: "out/metadata"}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate page layouts and write their metadata",
		Long: `Generate builds random page layouts, assigns an illustration to every panel,
places speech bubbles and writes one metadata document per page.

Dataset inputs come from the [dataset.sources] section of the settings file
and can be overridden with flags.`,
		Example: `  mangaforge generate -n 100 --images images/ --fonts fonts.csv \
    --texts corpus.tsv --writing-areas writing_areas.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(&cfg, cmd.Flags())
			return c.runGenerate(cmd.Context(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.count, "count", "n", opts.count, "number of pages")
	f.StringVarP(&opts.output, "output", "o", opts.output, "metadata output directory")
	f.Uint64Var(&opts.seed, "seed", 0, "batch seed (0 = random)")
	f.StringVar(&opts.format, "format", "", "metadata format: json (default), bson")
	f.StringVar(&opts.lang, "language", "", "bubble text language: english, japanese")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent pages (0 = number of CPUs)")
	f.BoolVar(&opts.names, "deterministic-names", false, "derive page names from the seed")
	f.StringVar(&opts.sources.images, "images", "", "panel illustrations: directory or list file")
	f.StringVar(&opts.sources.backgrounds, "backgrounds", "", "page backgrounds: directory or list file")
	f.StringVar(&opts.sources.fonts, "fonts", "", "fonts CSV (path, english, japanese)")
	f.StringVar(&opts.sources.texts, "texts", "", "dialogue corpus TSV")
	f.StringVar(&opts.sources.bubbles, "bubbles", "", "speech bubble template list")
	f.StringVar(&opts.sources.areas, "writing-areas", "", "writing areas CSV")

	return cmd
}

// apply overrides cfg with the flags that were set.
func (o *generateOpts) apply(cfg *config.Config, flags *pflag.FlagSet) {
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	src := &cfg.Dataset.Sources
	set("images", &src.Images, o.sources.images)
	set("backgrounds", &src.Backgrounds, o.sources.backgrounds)
	set("fonts", &src.Fonts, o.sources.fonts)
	set("texts", &src.Texts, o.sources.texts)
	set("bubbles", &src.Bubbles, o.sources.bubbles)
	set("writing-areas", &src.WritingAreas, o.sources.areas)
	set("format", &cfg.Output.MetadataFormat, o.format)
	set("language", &cfg.Dataset.Language, o.lang)
	if flags.Changed("workers") {
		cfg.Workers.Count = o.workers
	}
	if flags.Changed("deterministic-names") {
		cfg.Output.DeterministicNames = o.names
	}
}

func (c *CLI) runGenerate(ctx context.Context, cfg config.Config, opts generateOpts) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	popts := c.options(cfg)
	popts.Count = opts.count
	popts.Seed = opts.seed
	popts.MetadataDir = opts.output

	stage := startStage(c.Logger, "generate")
	var res *pipeline.GenerateResult
	err := withSpinner(ctx, "Generating pages", &popts, func() (err error) {
		res, err = runner.Generate(ctx, popts)
		return err
	})
	if err != nil {
		return err
	}
	stage.finish(len(res.Pages), len(res.Failed))

	printSuccess("Generated %d pages", len(res.Pages))
	printStats([]stat{
		{len(res.Pages), "pages"},
		{res.Bubbles, "bubbles"},
		{res.Dropped, "dropped"},
		{res.Hidden, "hidden panels"},
	}, 0)
	printKeyValue("Seed", fmt.Sprint(res.Seed))
	printKeyValue("Output", opts.output)
	printFailures(res.Failed)
	printNewline()
	printNextStep("Render the pages", fmt.Sprintf("%s render %s", appName, opts.output))
	return nil
}

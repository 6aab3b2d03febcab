package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/dataset"
	"github.com/matzehuels/mangaforge/pkg/layout"
	"github.com/matzehuels/mangaforge/pkg/metadata"
	"github.com/matzehuels/mangaforge/pkg/observability"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// nameSpace scopes deterministic page names.
var nameSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/mangaforge"))

// PageRNG returns the random source of page i of a batch.
func PageRNG(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)^0xdeadbeef))
}

// PageNames returns n page names. Deterministic names are UUIDv5 values
// derived from the seed and the page index; otherwise they are random
// UUIDs.
func PageNames(seed uint64, n int, deterministic bool) []string {
	names := make([]string, n)
	for i := range names {
		if deterministic {
			names[i] = uuid.NewSHA1(nameSpace, fmt.Appendf(nil, "%d/%d", seed, i)).String()
		} else {
			names[i] = uuid.NewString()
		}
	}
	return names
}

// Built is a generated page with its placement statistics.
type Built struct {
	Page    *panel.Page
	Bubbles int
	Dropped int
	Hidden  int
}

// Builder turns a random source into a complete page: geometry, assets,
// bubbles, panel removal and background. It holds no mutable state.
type Builder struct {
	Layout *layout.Generator
	Placer *bubble.Placer
	Pools  *dataset.Pools
}

// Build generates page name from rng.
func (b *Builder) Build(rng *rand.Rand, name string) Built {
	pg := b.Layout.Generate(rng, name)
	leaves := pg.LeafChildren()
	assets := b.Pools.Resolve(b.Pools.Sample(rng, len(leaves)))

	var st bubble.PageState
	for i, leaf := range leaves {
		leaf.Image = assets.Panels[i].Image
		leaf.SpeechBubbles = b.Placer.PlaceAll(rng, leaf.Region(), &st, assets.Panels[i].Candidates)
	}
	hidden := b.Layout.RemovePanels(rng, pg)
	pg.Background = assets.Background

	return Built{Page: pg, Bubbles: len(st.Placed), Dropped: st.Dropped, Hidden: hidden}
}

// NewBuilder loads the dataset named by cfg and prepares a Builder.
func (r *Runner) NewBuilder(opts *Options) (*Builder, error) {
	cfg := opts.Config
	in, err := dataset.Load(cfg.Dataset.Sources, cfg.Dataset.Language, cfg.Render.Padding)
	if err != nil {
		return nil, err
	}
	for _, p := range in.Skipped {
		opts.Logger.Warn("skipping unreadable bubble template", "path", p)
	}
	pools, err := dataset.NewPools(in, cfg.PoolConfig())
	if err != nil {
		return nil, err
	}
	if !pools.CanBubble() {
		opts.Logger.Warn("no fonts, texts or bubble templates for the language; pages get no speech bubbles",
			"language", cfg.Dataset.Language)
	}
	opts.Logger.Debug("loaded dataset",
		"images", len(in.Images),
		"fonts", len(in.Fonts),
		"texts", len(in.Texts),
		"templates", len(in.Templates))

	return &Builder{
		Layout: layout.NewGenerator(cfg.Layout),
		Placer: bubble.NewPlacer(cfg.PlacerConfig()),
		Pools:  pools,
	}, nil
}

// Generate builds opts.Count pages and writes their metadata documents to
// opts.MetadataDir.
func (r *Runner) Generate(ctx context.Context, opts Options) (*GenerateResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, err
	}
	start := time.Now()

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	res := &GenerateResult{Seed: seed}

	b, err := r.NewBuilder(&opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.MetadataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}

	format := metadata.Format(opts.Config.Output.MetadataFormat)
	names := PageNames(seed, opts.Count, opts.Config.Output.DeterministicNames)
	paths := make([]string, len(names))
	var bubbles, dropped, hidden atomic.Int64

	failed, err := forEach(ctx, &opts, names, func(i int) string { return names[i] },
		func(ctx context.Context, i int, name string) error {
			pageStart := time.Now()
			built := b.Build(PageRNG(seed, i), name)
			path := filepath.Join(opts.MetadataDir, metadata.FileName(name, format))
			if err := metadata.WriteFile(metadata.FromPage(built.Page), path); err != nil {
				observability.Generation().OnPageFailed(ctx, name, err)
				return err
			}
			paths[i] = path
			bubbles.Add(int64(built.Bubbles))
			dropped.Add(int64(built.Dropped))
			hidden.Add(int64(built.Hidden))

			if built.Dropped > 0 {
				observability.Generation().OnBubbleDropped(ctx, name, built.Dropped)
			}
			observability.Generation().OnPageGenerated(ctx, name, built.Page.NumPanels, built.Bubbles, time.Since(pageStart))
			opts.Logger.Debug("generated page",
				"page", name,
				"panels", built.Page.NumPanels,
				"type", built.Page.PageType,
				"bubbles", built.Bubbles)
			return nil
		})

	for _, p := range paths {
		if p != "" {
			res.Pages = append(res.Pages, p)
		}
	}
	res.Failed = failed
	res.Bubbles = int(bubbles.Load())
	res.Dropped = int(dropped.Load())
	res.Hidden = int(hidden.Load())
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	opts.Logger.Info("generated pages",
		"count", len(res.Pages),
		"failed", len(res.Failed),
		"bubbles", res.Bubbles,
		"dropped", res.Dropped,
		"seed", seed,
		"duration", res.Duration)
	return res, nil
}

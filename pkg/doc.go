// Package pkg provides the libraries behind mangaforge, a synthetic comic
// and manga page generator.
//
// # Overview
//
// Mangaforge produces training data for page-understanding models: random
// page layouts whose panels are filled with illustrations and speech
// bubbles, rendered to images, with exact masks and polygons for every panel
// and bubble. The pkg directory is organized as:
//
//  1. Geometry and layout: [geom], [panel], [layout]
//  2. Content: [dataset], [bubble], [fonts]
//  3. Output: [metadata], [render], [render/treeviz], [segment]
//  4. Orchestration: [pipeline], [worker]
//  5. Infrastructure: [config], [cache], [errors], [observability], [buildinfo]
//
// # Architecture
//
// A batch flows through three stages that communicate only through files:
//
//	dataset lists (images, fonts, texts, bubble templates)
//	         ↓
//	    [layout] + [bubble] (generate page trees, place bubbles)
//	         ↓
//	    [metadata] documents (JSON or BSON, one per page)
//	         ↓
//	    [render] page images        [segment] masks + annotations
//
// # Quick Start
//
//	cfg := config.Default()
//	cfg.Dataset.Sources.Images = "images/"
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	opts := pipeline.Options{Config: cfg, Count: 10, MetadataDir: "out/metadata"}
//	if _, err := runner.Generate(ctx, opts); err != nil {
//	    return err
//	}
//	opts.ImagesDir = "out/images"
//	if _, err := runner.Render(ctx, opts); err != nil {
//	    return err
//	}
//
// Single pages can be built without the pipeline:
//
//	gen := layout.NewGenerator(layout.DefaultConfig())
//	rng := rand.New(rand.NewPCG(seed, 0))
//	page := gen.Generate(rng, "page-1")
//
// # Determinism
//
// Every random choice is drawn from a caller-supplied *rand.Rand. The
// pipeline derives one source per page from the batch seed, so a batch is
// reproducible regardless of worker count.
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/geom
// [panel]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/panel
// [layout]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/layout
// [dataset]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/dataset
// [bubble]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/bubble
// [fonts]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/fonts
// [metadata]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/metadata
// [render]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/render
// [render/treeviz]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/render/treeviz
// [segment]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/segment
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/pipeline
// [worker]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/worker
// [config]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/mangaforge/pkg/buildinfo
package pkg

// Package pipeline runs the mangaforge batch stages.
//
// The CLI drives three independent stages over a dataset directory:
//
//  1. Generate: build page layouts, assign illustrations and bubbles, and
//     write one metadata document per page
//  2. Render: rasterize every metadata document into a page image
//  3. Segment: write instance masks and annotations for every page
//
// Stages communicate only through files, so each can be re-run on its own
// (re-render after changing the render settings, re-segment after deleting
// a directory). Pages are processed concurrently by a [worker.Pool]; a
// failing page is logged and reported in the stage result without stopping
// the batch.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Config:      config.Default(),
//	    Count:       100,
//	    MetadataDir: "out/metadata",
//	}
//	gen, err := runner.Generate(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	opts.ImagesDir = "out/images"
//	res, err := runner.Render(ctx, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangaforge/pkg/cache"
	"github.com/matzehuels/mangaforge/pkg/config"
	"github.com/matzehuels/mangaforge/pkg/errors"
)

// Options configures a stage run.
type Options struct {
	Config config.Config `json:"config"`

	// Generate
	Count int `json:"count,omitempty"`
	// Seed fixes the batch. Zero draws a random seed, reported in the
	// result so the batch can be reproduced.
	Seed uint64 `json:"seed,omitempty"`

	// Directories
	MetadataDir string `json:"metadata_dir"`
	ImagesDir   string `json:"images_dir,omitempty"`
	SegmentDir  string `json:"segment_dir,omitempty"`
	// ColorDir holds colored versions of the illustrations; when set,
	// render keeps color.
	ColorDir string `json:"color_dir,omitempty"`

	// Refresh ignores cached renders.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger           `json:"-"`
	Progress func(done, total int) `json:"-"`

	validated bool
}

// PageError is a page that failed in a stage.
type PageError struct {
	Page string
	Err  error
}

func (e PageError) Error() string { return e.Page + ": " + e.Err.Error() }

func (e PageError) Unwrap() error { return e.Err }

// GenerateResult summarizes a generate run.
type GenerateResult struct {
	Seed     uint64
	Pages    []string // metadata files written, in page order
	Failed   []PageError
	Bubbles  int // bubbles placed
	Dropped  int // bubbles that found no spot
	Hidden   int // panels hidden by random removal
	Duration time.Duration
}

// RenderResult summarizes a render run.
type RenderResult struct {
	Files    []string // images written, in page order
	Cached   int      // pages served from the cache
	Failed   []PageError
	Duration time.Duration
}

// SegmentResult summarizes a segment run.
type SegmentResult struct {
	Dirs     []string // per-page segmentation directories
	Panels   int
	Bubbles  int
	Failed   []PageError
	Duration time.Duration
}

// ValidateAndSetDefaults checks the config and fills runtime defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForGenerate checks what Generate needs.
func (o *Options) ValidateForGenerate() error {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.Count < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "page count must be at least 1, got %d", o.Count)
	}
	if o.MetadataDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "metadata directory is required")
	}
	return nil
}

// ValidateForRender checks what Render needs.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.MetadataDir == "" || o.ImagesDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "metadata and image directories are required")
	}
	return nil
}

// ValidateForSegment checks what Segment needs.
func (o *Options) ValidateForSegment() error {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.MetadataDir == "" || o.SegmentDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "metadata and segmentation directories are required")
	}
	return nil
}

// RenderKeyOpts returns the cache key options for a rendered page.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:   string(o.Config.Render.Format),
		Colored:  o.ColorDir != "",
		Settings: o.Config.Render,
	}
}

// CacheTTL returns how long rendered pages are cached.
func (o *Options) CacheTTL() time.Duration {
	if o.Config.Cache.TTLHours > 0 {
		return time.Duration(o.Config.Cache.TTLHours) * time.Hour
	}
	return cache.DefaultTTL
}

func (o *Options) workerInterval() time.Duration {
	return time.Duration(o.Config.Workers.IntervalMS) * time.Millisecond
}

package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/mangaforge/pkg/metadata"
	"github.com/matzehuels/mangaforge/pkg/panel"
	"github.com/matzehuels/mangaforge/pkg/render"
	"github.com/matzehuels/mangaforge/pkg/segment"
)

// Segment writes instance masks, previews and annotations for every
// metadata document in opts.MetadataDir. Previews are drawn on the
// rendered page from opts.ImagesDir when it exists; otherwise the page is
// rendered in memory.
func (r *Runner) Segment(ctx context.Context, opts Options) (*SegmentResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSegment(); err != nil {
		return nil, err
	}
	start := time.Now()

	paths, err := metadata.ListFiles(opts.MetadataDir)
	if err != nil {
		return nil, err
	}

	c := r.Composer(&opts)
	w := segment.Writer{Root: opts.SegmentDir, Shapes: c}
	ext := render.Extension(opts.Config.Render.Format)
	dirs := make([]string, len(paths))
	var panels, bubbles atomic.Int64

	failed, err := forEach(ctx, &opts, paths, func(i int) string { return pageName(paths[i]) },
		func(ctx context.Context, i int, path string) error {
			pg, err := metadata.ReadPage(path)
			if err != nil {
				return err
			}
			imageFile := pg.Name + ext
			img, err := r.pageImage(ctx, c, &opts, filepath.Join(opts.ImagesDir, imageFile), pg)
			if err != nil {
				return err
			}
			a, err := w.Write(ctx, pg, img, imageFile)
			if err != nil {
				return err
			}
			dirs[i] = filepath.Join(opts.SegmentDir, pg.Name)
			panels.Add(int64(len(a.Panels)))
			bubbles.Add(int64(len(a.SpeechBubbles)))
			return nil
		})

	res := &SegmentResult{
		Failed:  failed,
		Panels:  int(panels.Load()),
		Bubbles: int(bubbles.Load()),
	}
	for _, d := range dirs {
		if d != "" {
			res.Dirs = append(res.Dirs, d)
		}
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	opts.Logger.Info("segmented pages",
		"count", len(res.Dirs),
		"panels", res.Panels,
		"bubbles", res.Bubbles,
		"failed", len(res.Failed),
		"duration", res.Duration)
	return res, nil
}

// pageImage loads the rendered page at path, rendering pg when the file
// is missing.
func (r *Runner) pageImage(ctx context.Context, c *render.Composer, opts *Options, path string, pg *panel.Page) (image.Image, error) {
	if opts.ImagesDir != "" {
		img, err := imaging.Open(path)
		if err == nil {
			return img, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open rendered page: %w", err)
		}
	}
	return r.RenderImage(ctx, c, opts, pg)
}

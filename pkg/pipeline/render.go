package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/matzehuels/mangaforge/pkg/cache"
	"github.com/matzehuels/mangaforge/pkg/metadata"
	"github.com/matzehuels/mangaforge/pkg/observability"
	"github.com/matzehuels/mangaforge/pkg/panel"
	"github.com/matzehuels/mangaforge/pkg/render"
)

const cacheKeyRender = "render"

// Composer returns a composer for opts sharing the runner's font loader.
func (r *Runner) Composer(opts *Options) *render.Composer {
	ro := []render.Option{render.WithFontLoader(r.fonts)}
	if opts.ColorDir != "" {
		ro = append(ro, render.WithColorDir(opts.ColorDir))
	}
	return render.NewComposer(opts.Config.Render, ro...)
}

// RenderImage draws pg, in color when opts names a color directory.
func (r *Runner) RenderImage(ctx context.Context, c *render.Composer, opts *Options, pg *panel.Page) (image.Image, error) {
	if opts.ColorDir != "" {
		return c.RenderColor(ctx, pg)
	}
	return c.Render(ctx, pg)
}

// RenderPageWithCacheInfo renders the metadata document at path into
// encoded image bytes and reports whether they came from the cache.
func (r *Runner) RenderPageWithCacheInfo(ctx context.Context, c *render.Composer, opts *Options, path string) ([]byte, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read metadata: %w", err)
	}
	key := r.Keyer.RenderKey(cache.DocumentHash(raw), opts.RenderKeyOpts())

	if !opts.Refresh {
		data, ok, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			opts.Logger.Warn("cache read failed", "page", pageName(path), "err", err)
		case ok:
			observability.Cache().OnCacheHit(ctx, cacheKeyRender)
			return data, true, nil
		default:
			observability.Cache().OnCacheMiss(ctx, cacheKeyRender)
		}
	}

	doc, err := metadata.Unmarshal(raw, metadata.FormatForPath(path))
	if err != nil {
		return nil, false, err
	}
	img, err := r.RenderImage(ctx, c, opts, metadata.ToPage(doc))
	if err != nil {
		return nil, false, err
	}
	var buf bytes.Buffer
	if err := render.Encode(&buf, img, opts.Config.Render.Format, opts.Config.Render.JPEGQuality); err != nil {
		return nil, false, fmt.Errorf("encode page: %w", err)
	}

	if err := r.Cache.Set(ctx, key, buf.Bytes(), opts.CacheTTL()); err != nil {
		opts.Logger.Warn("cache write failed", "page", pageName(path), "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, cacheKeyRender, buf.Len())
	}
	return buf.Bytes(), false, nil
}

// Render rasterizes every metadata document in opts.MetadataDir into
// opts.ImagesDir.
func (r *Runner) Render(ctx context.Context, opts Options) (*RenderResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	start := time.Now()

	paths, err := metadata.ListFiles(opts.MetadataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.ImagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	c := r.Composer(&opts)
	ext := render.Extension(opts.Config.Render.Format)
	files := make([]string, len(paths))
	var cached atomic.Int64

	failed, err := forEach(ctx, &opts, paths, func(i int) string { return pageName(paths[i]) },
		func(ctx context.Context, i int, path string) error {
			name := pageName(path)
			pageStart := time.Now()
			observability.Render().OnRenderStart(ctx, name)

			data, hit, err := r.RenderPageWithCacheInfo(ctx, c, &opts, path)
			if err == nil {
				out := filepath.Join(opts.ImagesDir, name+ext)
				if err = os.WriteFile(out, data, 0o644); err == nil {
					files[i] = out
				}
			}
			observability.Render().OnRenderComplete(ctx, name, hit, time.Since(pageStart), err)
			if err != nil {
				return err
			}
			if hit {
				cached.Add(1)
			}
			opts.Logger.Debug("rendered page", "page", name, "cached", hit)
			return nil
		})

	res := &RenderResult{Failed: failed, Cached: int(cached.Load())}
	for _, f := range files {
		if f != "" {
			res.Files = append(res.Files, f)
		}
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	opts.Logger.Info("rendered pages",
		"count", len(res.Files),
		"cached", res.Cached,
		"failed", len(res.Failed),
		"duration", res.Duration)
	return res, nil
}

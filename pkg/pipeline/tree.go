package pipeline

import (
	"context"

	"github.com/matzehuels/mangaforge/pkg/cache"
	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/observability"
	"github.com/matzehuels/mangaforge/pkg/panel"
	"github.com/matzehuels/mangaforge/pkg/render/treeviz"
)

// Panel tree diagram formats.
const (
	TreeFormatDOT = "dot"
	TreeFormatSVG = "svg"
	TreeFormatPNG = "png"
)

// TreeFormats lists the supported diagram formats.
var TreeFormats = []string{TreeFormatDOT, TreeFormatSVG, TreeFormatPNG}

const cacheKeyTree = "tree"

// TreeWithCacheInfo draws the panel tree of pg. docHash identifies the
// metadata document pg was read from; an empty hash bypasses the cache.
func (r *Runner) TreeWithCacheInfo(ctx context.Context, pg *panel.Page, docHash, format string, detailed bool) ([]byte, bool, error) {
	if err := errors.ValidateFormat("tree format", format, TreeFormats...); err != nil {
		return nil, false, err
	}
	dot := treeviz.ToDOT(pg, treeviz.Options{Detailed: detailed})
	if format == TreeFormatDOT {
		return []byte(dot), false, nil
	}

	var key string
	if docHash != "" {
		key = r.Keyer.TreeKey(docHash, cache.TreeKeyOpts{Format: format, Detailed: detailed})
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, cacheKeyTree)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, cacheKeyTree)
	}

	var data []byte
	var err error
	if format == TreeFormatSVG {
		data, err = treeviz.RenderSVG(ctx, dot)
	} else {
		data, err = treeviz.RenderPNG(ctx, dot)
	}
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyTree, len(data))
		}
	}
	return data, false, nil
}

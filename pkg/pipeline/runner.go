package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangaforge/pkg/cache"
	"github.com/matzehuels/mangaforge/pkg/fonts"
	"github.com/matzehuels/mangaforge/pkg/worker"
)

// Runner executes pipeline stages with a shared cache and logger.
//
// The Runner keeps no per-run state beyond a font loader shared by every
// render, so one Runner can serve several runs, also concurrently.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	fonts *fonts.Loader
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		fonts:  fonts.NewLoader(),
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// forEach runs fn over items on a worker pool sized by the config and
// turns unit errors into PageErrors named by name(i). Failures are logged
// at warn level.
func forEach[T any](ctx context.Context, opts *Options, items []T, name func(i int) string, fn worker.Func[T]) ([]PageError, error) {
	pool := worker.New[T](worker.Options{
		Workers:  opts.Config.Workers.Count,
		Interval: opts.workerInterval(),
		FailFast: opts.Config.Workers.FailFast,
		Progress: opts.Progress,
	})
	results, err := pool.Run(ctx, items, fn)

	var failed []PageError
	for _, res := range worker.Failed(results) {
		if ctx.Err() != nil && res.Err == ctx.Err() {
			continue
		}
		pe := PageError{Page: name(res.Index), Err: res.Err}
		opts.Logger.Warn("page failed", "page", pe.Page, "err", res.Err)
		failed = append(failed, pe)
	}
	return failed, err
}

// pageName returns the page name of a metadata file.
func pageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

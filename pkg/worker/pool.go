// Package worker runs batches of independent units of work with bounded
// concurrency.
//
// A unit's error is recorded in its [Result] and does not stop the batch
// unless [Options.FailFast] is set. Canceling the context stops dispatch;
// units already running see the canceled context.
package worker

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultBurst is the limiter burst used when Options.Burst is zero.
const DefaultBurst = 2

// Options configures a Pool.
type Options struct {
	// Workers bounds concurrent units. Zero means GOMAXPROCS.
	Workers int
	// Interval, when positive, spaces unit starts by at least this long on
	// average.
	Interval time.Duration
	Burst    int
	// FailFast cancels the batch on the first unit error.
	FailFast bool
	// Progress, if set, is called after each unit with the number of
	// finished units. It may be called concurrently.
	Progress func(done, total int)
}

// Result is the outcome of one unit.
type Result struct {
	Index int
	Err   error
}

// Func processes the unit at index i.
type Func[T any] func(ctx context.Context, i int, item T) error

// Pool processes slices of T.
type Pool[T any] struct {
	opts    Options
	limiter *rate.Limiter
}

// New creates a Pool.
func New[T any](opts Options) *Pool[T] {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool[T]{opts: opts}
	if opts.Interval > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = DefaultBurst
		}
		p.limiter = rate.NewLimiter(rate.Every(opts.Interval), burst)
	}
	return p
}

// Workers returns the concurrency limit.
func (p *Pool[T]) Workers() int { return p.opts.Workers }

// Run calls fn for every item and returns one Result per item, in item
// order. Units never dispatched because of cancellation carry the context
// error. The returned error is the context's error if ctx was canceled,
// the first unit error in FailFast mode, and nil otherwise.
func (p *Pool[T]) Run(ctx context.Context, items []T, fn Func[T]) ([]Result, error) {
	results := make([]Result, len(items))
	for i := range results {
		results[i].Index = i
	}

	var eg *errgroup.Group
	runCtx := ctx
	if p.opts.FailFast {
		eg, runCtx = errgroup.WithContext(ctx)
	} else {
		eg = &errgroup.Group{}
	}
	eg.SetLimit(p.opts.Workers)

	var done atomic.Int64
	total := len(items)
	dispatched := 0
	for i, item := range items {
		if runCtx.Err() != nil {
			break
		}
		dispatched++
		eg.Go(func() error {
			err := p.runOne(runCtx, i, item, fn)
			results[i].Err = err
			if p.opts.Progress != nil {
				p.opts.Progress(int(done.Add(1)), total)
			}
			if p.opts.FailFast {
				return err
			}
			return nil
		})
	}
	werr := eg.Wait()

	if dispatched < total {
		cause := runCtx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		for i := dispatched; i < total; i++ {
			results[i].Err = cause
		}
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, werr
}

func (p *Pool[T]) runOne(ctx context.Context, i int, item T, fn Func[T]) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, i, item)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

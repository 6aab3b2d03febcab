package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunHonorsLimit(t *testing.T) {
	const workers = 3
	p := New[int](Options{Workers: workers})
	items := make([]int, 20)

	var cur, peak atomic.Int32
	results, err := p.Run(context.Background(), items, func(ctx context.Context, i int, _ int) error {
		n := cur.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		cur.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(items) {
		t.Fatalf("results = %d, want %d", len(results), len(items))
	}
	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want <= %d", got, workers)
	}
	if len(Failed(results)) != 0 {
		t.Errorf("unexpected failures: %v", Failed(results))
	}
}

func TestRunCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := New[string](Options{Workers: 2})
	items := []string{"a", "bad", "c", "bad", "e"}

	var ran atomic.Int32
	results, err := p.Run(context.Background(), items, func(ctx context.Context, i int, s string) error {
		ran.Add(1)
		if s == "bad" {
			return boom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil without FailFast", err)
	}
	if ran.Load() != int32(len(items)) {
		t.Errorf("ran %d units, want %d", ran.Load(), len(items))
	}
	failed := Failed(results)
	if len(failed) != 2 || failed[0].Index != 1 || failed[1].Index != 3 {
		t.Errorf("failed = %+v, want indices 1 and 3", failed)
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
	}
}

func TestRunFailFast(t *testing.T) {
	boom := errors.New("boom")
	p := New[int](Options{Workers: 1, FailFast: true})
	items := make([]int, 10)

	var ran atomic.Int32
	results, err := p.Run(context.Background(), items, func(ctx context.Context, i int, _ int) error {
		ran.Add(1)
		if i == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if ran.Load() >= int32(len(items)) {
		t.Errorf("all %d units ran after a failure", ran.Load())
	}
	if results[len(results)-1].Err == nil {
		t.Error("undispatched unit has no error")
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New[int](Options{Workers: 1})
	items := make([]int, 10)

	results, err := p.Run(ctx, items, func(ctx context.Context, i int, _ int) error {
		if i == 1 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if !errors.Is(results[len(results)-1].Err, context.Canceled) {
		t.Errorf("last result = %v, want context.Canceled", results[len(results)-1].Err)
	}
}

func TestRunRateLimited(t *testing.T) {
	p := New[int](Options{Workers: 4, Interval: 10 * time.Millisecond, Burst: 1})
	items := make([]int, 4)

	start := time.Now()
	if _, err := p.Run(context.Background(), items, func(context.Context, int, int) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d < 25*time.Millisecond {
		t.Errorf("4 units at 10ms spacing took %v", d)
	}
}

func TestProgress(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	p := New[int](Options{Workers: 2, Progress: func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 5 {
			t.Errorf("total = %d", total)
		}
		seen = append(seen, done)
	}})
	if _, err := p.Run(context.Background(), make([]int, 5), func(context.Context, int, int) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 5 {
		t.Errorf("progress calls = %d, want 5", len(seen))
	}
	var maxDone int
	for _, d := range seen {
		maxDone = max(maxDone, d)
	}
	if maxDone != 5 {
		t.Errorf("final done = %d, want 5", maxDone)
	}
}

func TestNewDefaults(t *testing.T) {
	if New[int](Options{}).Workers() < 1 {
		t.Error("default workers < 1")
	}
}

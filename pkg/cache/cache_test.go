package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = old })
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// exercise runs the behavior every backend shares.
func exercise(t *testing.T, c Cache, expire func(time.Duration)) {
	t.Helper()
	ctx := context.Background()
	payload := []byte("\x89PNG\r\n\x1a\n page bytes")

	if _, hit, err := c.Get(ctx, "render:a"); err != nil || hit {
		t.Fatalf("empty cache Get() hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "render:a", payload, 0); err != nil {
		t.Fatal(err)
	}
	got, hit, err := c.Get(ctx, "render:a")
	if err != nil || !hit || string(got) != string(payload) {
		t.Fatalf("Get() = %q, %v, %v", got, hit, err)
	}

	if err := c.Set(ctx, "render:b", payload, time.Minute); err != nil {
		t.Fatal(err)
	}
	expire(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "render:b"); hit {
		t.Error("expired entry was returned")
	}
	if _, hit, _ := c.Get(ctx, "render:a"); !hit {
		t.Error("entry without ttl expired")
	}

	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "render:a"); hit {
		t.Error("deleted entry was returned")
	}
	if err := c.Delete(ctx, "render:missing"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestFileCache(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Expiry is checked against the wall clock; rewrite the stamp instead
	// of sleeping.
	exercise(t, c, func(d time.Duration) {
		path := c.path("render:b")
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < headerSize; i++ {
			raw[i] = 0
		}
		raw[headerSize-1] = 1 // 1ns after the epoch
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			t.Fatal(err)
		}
	})
}

func TestFileCacheCorruptEntry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(context.Background(), "k"); hit || err != nil {
		t.Errorf("truncated entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("truncated entry was not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestRedisCache(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	exercise(t, c, s.FastForward)

	if err := c.Set(context.Background(), "x", []byte("1"), 0); err != nil {
		t.Fatal(err)
	}
	if !s.Exists(redisPrefix + "x") {
		t.Errorf("key not namespaced; keys = %v", s.Keys())
	}
	if err := s.Set("foreign", "keep"); err != nil {
		t.Fatal(err)
	}
	n, err := c.Clear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Clear() = %d, want 1", n)
	}
	if !s.Exists("foreign") {
		t.Error("Clear removed a foreign key")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	fastRetries(t)
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisCache(context.Background(), "redis://"+addr)
	if err == nil {
		t.Fatal("NewRedisCache() on a closed server succeeded")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if fc, ok := c.(*FileCache); !ok || fc.Dir() != dir {
		t.Errorf("Open(dir) = %T", c)
	}

	c, err = Open(ctx, "none")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("Open(none) = %T", c)
	}

	s := miniredis.RunT(t)
	c, err = Open(ctx, "redis://"+s.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*RedisCache); !ok {
		t.Errorf("Open(redis://) = %T", c)
	}
}

func TestDocumentHash(t *testing.T) {
	doc := []byte(`{"name":"p1","page_size":[1654,2339]}`)
	h := DocumentHash(doc)
	if h != DocumentHash(append([]byte(nil), doc...)) {
		t.Error("same document hashed differently")
	}
	if h == DocumentHash([]byte(`{"name":"p2","page_size":[1654,2339]}`)) {
		t.Error("different documents share a hash")
	}
	if len(h) != 64 {
		t.Errorf("hash length = %d, want 64", len(h))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	settings := map[string]any{"boundary_width": 16}

	base := k.RenderKey("doc1", RenderKeyOpts{Format: "png", Settings: settings})
	if !strings.HasPrefix(base, "render:doc1:") {
		t.Errorf("RenderKey = %s", base)
	}
	variants := []string{
		k.RenderKey("doc2", RenderKeyOpts{Format: "png", Settings: settings}),
		k.RenderKey("doc1", RenderKeyOpts{Format: "jpeg", Settings: settings}),
		k.RenderKey("doc1", RenderKeyOpts{Format: "png", Colored: true, Settings: settings}),
		k.RenderKey("doc1", RenderKeyOpts{Format: "png", Settings: map[string]any{"boundary_width": 8}}),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d has the same key as the base", i)
		}
	}
	if base != k.RenderKey("doc1", RenderKeyOpts{Format: "png", Settings: settings}) {
		t.Error("RenderKey is not deterministic")
	}

	if k.TreeKey("doc1", TreeKeyOpts{Format: "svg"}) == k.TreeKey("doc1", TreeKeyOpts{Format: "svg", Detailed: true}) {
		t.Error("TreeKey ignores Detailed")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "dataset:train:")
	inner := NewDefaultKeyer()
	opts := RenderKeyOpts{Format: "png"}
	if got, want := scoped.RenderKey("h", opts), "dataset:train:"+inner.RenderKey("h", opts); got != want {
		t.Errorf("RenderKey = %s, want %s", got, want)
	}
	if got := scoped.TreeKey("h", TreeKeyOpts{}); !strings.HasPrefix(got, "dataset:train:tree:") {
		t.Errorf("TreeKey = %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		fail      int // calls that fail before success
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"not retryable", 5, permanent, 1, permanent},
		{"recovers", 1, Retryable(ErrNetwork), 2, nil},
		{"gives up", 5, Retryable(ErrNetwork), 3, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.fail {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	g := NoopGenerationHooks{}
	g.OnPageGenerated(ctx, "page", 5, 7, time.Second)
	g.OnBubbleDropped(ctx, "page", 2)
	g.OnPageFailed(ctx, "page", nil)

	r := NoopRenderHooks{}
	r.OnRenderStart(ctx, "page")
	r.OnRenderComplete(ctx, "page", true, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "render")
	c.OnCacheMiss(ctx, "render")
	c.OnCacheSet(ctx, "render", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Generation().(NoopGenerationHooks); !ok {
		t.Error("Generation() should return NoopGenerationHooks by default")
	}
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	gen := &testGenerationHooks{}
	SetGenerationHooks(gen)
	if Generation() != gen {
		t.Error("SetGenerationHooks should set custom hooks")
	}
	rh := &testRenderHooks{}
	SetRenderHooks(rh)
	if Render() != rh {
		t.Error("SetRenderHooks should set custom hooks")
	}
	ch := &testCacheHooks{}
	SetCacheHooks(ch)
	if Cache() != ch {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Generation().OnPageGenerated(context.Background(), "p", 3, 1, time.Millisecond)
	if gen.pages != 1 {
		t.Errorf("custom hook saw %d pages, want 1", gen.pages)
	}

	Reset()
	if _, ok := Generation().(NoopGenerationHooks); !ok {
		t.Error("Reset() should restore NoopGenerationHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testRenderHooks{}
	SetRenderHooks(custom)
	SetRenderHooks(nil)
	if Render() != custom {
		t.Error("SetRenderHooks(nil) should be ignored")
	}
}

type testGenerationHooks struct {
	NoopGenerationHooks
	pages int
}

func (h *testGenerationHooks) OnPageGenerated(context.Context, string, int, int, time.Duration) {
	h.pages++
}

type testRenderHooks struct{ NoopRenderHooks }
type testCacheHooks struct{ NoopCacheHooks }

package treeviz

import (
	"strings"
	"testing"

	"github.com/matzehuels/mangaforge/pkg/panel"
)

func samplePage() *panel.Page {
	pg := panel.NewPage("p1", 100, 200, 3, panel.PageVertical)
	top := pg.AddChild(panel.Rect(0, 0, 100, 100), panel.Vertical)
	bottom := pg.AddChild(panel.Rect(0, 100, 100, 100), panel.Vertical)
	bottom.AddChild(panel.Rect(0, 100, 50, 100), panel.Horizontal)
	hidden := bottom.AddChild(panel.Rect(50, 100, 50, 100), panel.Horizontal)
	hidden.NoRender = true
	top.Sliced = true
	pg.InvalidateLeaves()
	return pg
}

func TestToDOT(t *testing.T) {
	pg := samplePage()
	dot := ToDOT(pg, Options{})

	if !strings.HasPrefix(dot, "digraph panels {") || !strings.HasSuffix(dot, "}\n") {
		t.Fatalf("not a digraph:\n%s", dot)
	}
	var nodes, edges int
	for _, line := range strings.Split(dot, "\n") {
		switch {
		case strings.Contains(line, " -> "):
			edges++
		case strings.Contains(line, "[label="):
			nodes++
		}
	}
	if want := pg.Count(); nodes != want {
		t.Errorf("nodes = %d, want %d", nodes, want)
	}
	if want := pg.Count() - 1; edges != want {
		t.Errorf("edges = %d, want %d", edges, want)
	}

	for _, want := range []string{"sliced", "hidden", "axis: v", "fillcolor=lightblue", "fillcolor=lightgrey"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	if strings.Contains(dot, "box:") {
		t.Error("plain labels include geometry")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(samplePage(), Options{Detailed: true})
	for _, want := range []string{"box: 0,0 100x100", "area: 0.50"} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed DOT missing %q", want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites root tag",
			in:   `<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`,
		},
		{
			name: "no viewBox",
			in:   `<svg><g/></svg>`,
			want: `<svg><g/></svg>`,
		},
		{
			name: "zero size",
			in:   `<svg viewBox="0 0 0 20"></svg>`,
			want: `<svg viewBox="0 0 0 20"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %s, want %s", got, tt.want)
			}
		})
	}
}

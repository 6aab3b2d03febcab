package treeviz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mangaforge/pkg/panel"
)

// Options configures the diagram.
type Options struct {
	// Detailed adds the bounding box, area share and bubble count to each
	// label. When false, labels show the name, axis and flags only.
	Detailed bool
}

// ToDOT converts the panel tree of pg to Graphviz DOT.
func ToDOT(pg *panel.Page, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph panels {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	pageArea := pg.PageArea()
	var edges []string
	pg.Walk(func(p *panel.Panel) bool {
		label := fmtLabel(p, pageArea, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", p.Name, strings.Join(fmtAttrs(p, label), ", "))
		for _, c := range p.Children {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", p.Name, c.Name))
		}
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p *panel.Panel, pageArea float64, detailed bool) string {
	parts := []string{p.Name}
	if p.Orientation != "" {
		parts = append(parts, "axis: "+string(p.Orientation))
	}
	if flags := fmtFlags(p); flags != "" {
		parts = append(parts, flags)
	}
	if detailed {
		b := p.Coords.Bounds()
		parts = append(parts,
			fmt.Sprintf("box: %.0f,%.0f %.0fx%.0f", b.X, b.Y, b.W, b.H),
			fmt.Sprintf("area: %.2f", p.AreaProportion(pageArea)),
		)
		if n := len(p.SpeechBubbles); n > 0 {
			parts = append(parts, fmt.Sprintf("bubbles: %d", n))
		}
	}
	return strings.Join(parts, "\n")
}

func fmtFlags(p *panel.Panel) string {
	var flags []string
	if p.NonRect {
		flags = append(flags, "non-rect")
	}
	if p.Sliced {
		flags = append(flags, "sliced")
	}
	if p.NoRender {
		flags = append(flags, "hidden")
	}
	return strings.Join(flags, ", ")
}

func fmtAttrs(p *panel.Panel, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case p.NoRender:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=gray40")
	case p.IsLeaf():
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

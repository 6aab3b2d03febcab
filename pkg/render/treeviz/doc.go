// Package treeviz renders a page's panel tree as a Graphviz diagram.
//
// # Overview
//
// Layout bugs are easier to see in the tree than on the page: which panel
// was split along which axis, which leaves were sliced or skewed and which
// were hidden. Each panel becomes a box labeled with its name, split axis
// and flags; leaves are filled, hidden leaves greyed out.
//
// # Usage
//
//	dot := treeviz.ToDOT(page, treeviz.Options{Detailed: true})
//	svg, err := treeviz.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering; no Graphviz installation is needed.
package treeviz

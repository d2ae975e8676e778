// Package assetmap renders a project's figures, fragments and
// artifacts as a node-link diagram.
//
// # Overview
//
// This package produces a directed graph of the project: each panel
// fragment points at the figure that places it, and each figure points
// at the artifacts found in its output directory. Missing fragments
// and unreadable figure specs render dashed, so the map doubles as a
// quick health check before a long convert run.
//
// # Usage
//
// Build the map from a loaded manifest, then render:
//
//	m := assetmap.Build(proj)
//	dot := assetmap.ToDOT(m, assetmap.Options{})
//	svg, err := assetmap.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG] or [RenderPNG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses left-to-right layout (rankdir=LR), reading
// fragments into figures into artifacts the way the pipeline runs.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// and PNG rendering; no external Graphviz installation is required.
package assetmap

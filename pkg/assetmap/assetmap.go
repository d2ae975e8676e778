package assetmap

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/figkit/figkit/pkg/project"
)

// Options configures map generation.
type Options struct {
	// Detailed includes panel placement and counts in node labels.
	// When false, only names are shown.
	Detailed bool
}

// Map is the project's asset graph: every registered figure, the
// fragments it places and the artifacts it has produced so far.
type Map struct {
	Project string
	Figures []FigureNode
}

// FigureNode is one registered figure. Err is set when the figure's
// spec could not be loaded; such nodes render dashed.
type FigureNode struct {
	ID      string
	Name    string
	Dir     string
	Err     string
	Panels  []PanelNode
	Outputs []string
}

// PanelNode is one placed fragment. Missing marks a src that does not
// exist on disk.
type PanelNode struct {
	Src     string
	Label   string
	X, Y    float64
	Scale   float64
	Missing bool
}

// Build walks the manifest registry and collects the asset graph.
// Broken figure specs and missing fragments become flagged nodes
// rather than errors; the map's job is to show them.
func Build(proj *project.Manifest) *Map {
	m := &Map{Project: filepath.Base(proj.RootDir())}

	for _, fig := range proj.AllFigures() {
		node := FigureNode{ID: fig.ID, Dir: fig.Dir}

		spec, err := project.LoadSpec(fig)
		if err != nil {
			node.Err = err.Error()
			m.Figures = append(m.Figures, node)
			continue
		}
		node.Name = spec.Name

		for _, p := range spec.Panels {
			pn := PanelNode{Src: p.Src, Label: p.Label, X: p.X, Y: p.Y, Scale: p.Scale}
			if _, err := os.Stat(filepath.Join(fig.Dir, filepath.FromSlash(p.Src))); err != nil {
				pn.Missing = true
			}
			node.Panels = append(node.Panels, pn)
		}

		node.Outputs = listOutputs(fig)
		m.Figures = append(m.Figures, node)
	}
	return m
}

func listOutputs(fig project.Figure) []string {
	var outs []string
	for _, ext := range []string{"svg", "pdf", "png"} {
		matches, err := filepath.Glob(filepath.Join(fig.OutputDir(), "*."+ext))
		if err != nil {
			continue
		}
		for _, match := range matches {
			outs = append(outs, filepath.Base(match))
		}
	}
	sort.Strings(outs)
	return outs
}

// ToDOT converts the asset map to Graphviz DOT format. The resulting
// DOT string can be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(m *Map, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph assets {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  label=%q;\n", m.Project)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.7;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, f := range m.Figures {
		figID := "fig:" + f.ID
		fmt.Fprintf(&buf, "  %q [%s];\n", figID, strings.Join(figureAttrs(f, opts.Detailed), ", "))

		for _, p := range f.Panels {
			panelID := f.ID + ":" + p.Src
			fmt.Fprintf(&buf, "  %q [%s];\n", panelID, strings.Join(panelAttrs(p, opts.Detailed), ", "))
			fmt.Fprintf(&buf, "  %q -> %q;\n", panelID, figID)
		}

		for _, out := range f.Outputs {
			outID := f.ID + ":fig/" + out
			fmt.Fprintf(&buf, "  %q [label=%q, shape=component, fillcolor=honeydew];\n", outID, out)
			fmt.Fprintf(&buf, "  %q -> %q;\n", figID, outID)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func figureAttrs(f FigureNode, detailed bool) []string {
	label := "fig " + f.ID
	if f.Name != "" {
		label = f.Name
	}
	switch {
	case f.Err != "":
		label += "\n(unreadable spec)"
	case detailed:
		label += fmt.Sprintf("\n%d panels, %d outputs", len(f.Panels), len(f.Outputs))
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	if f.Err != "" {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=mistyrose")
	}
	return attrs
}

func panelAttrs(p PanelNode, detailed bool) []string {
	label := path.Base(p.Src)
	if p.Label != "" {
		label = p.Label + ": " + label
	}
	switch {
	case p.Missing:
		label += "\n(missing)"
	case detailed:
		label += fmt.Sprintf("\n(%g, %g) scale %g", p.X, p.Y, p.Scale)
	}

	attrs := []string{fmt.Sprintf("label=%q", label), "shape=note"}
	if p.Missing {
		attrs = append(attrs, "style=\"filled,dashed\"", "fillcolor=mistyrose")
	}
	return attrs
}

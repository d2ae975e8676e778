// Package compose builds figure documents from pre-rendered panels.
//
// Composition is deliberately dumb: each panel fragment is placed at the
// position and scale its figure spec declares, a letter label is drawn
// near its origin, and the result is serialized as SVG. There is no
// layout computation, no collision handling, and no reflowing; what the
// spec says is what the page gets.
//
// The active style sheet supplies everything aesthetic: label typography,
// canvas background, the bounding-box policy, and whether fragments are
// carried inside the document or referenced by path.
package compose

import (
	"bytes"
	"math"
	"path/filepath"

	"github.com/figkit/figkit/pkg/cache"
	"github.com/figkit/figkit/pkg/project"
	"github.com/figkit/figkit/pkg/style"
)

// Option configures a composition.
type Option func(*composer)

type composer struct {
	sheet  *style.Sheet
	inline *bool
	dpi    float64
}

// WithStyle sets the active style sheet. Without it the embedded
// default sheet applies.
func WithStyle(s *style.Sheet) Option {
	return func(c *composer) {
		if s != nil {
			c.sheet = s
		}
	}
}

// WithInline overrides the sheet's svg.image_inline directive.
func WithInline(inline bool) Option {
	return func(c *composer) { c.inline = &inline }
}

// Result is a composed figure document.
type Result struct {
	SVG    []byte
	Width  float64 // Final canvas width in Unit, after the bbox policy
	Height float64
	Unit   string

	// FragmentHashes are the content hashes of each panel source in
	// panel order, for cache keys.
	FragmentHashes []string

	// Background is the resolved canvas fill, "none" for transparent.
	Background string

	// TextToPath reports that svg.fonttype requests outlining text
	// during conversion.
	TextToPath bool
}

// placement is one panel resolved against its loaded fragment.
type placement struct {
	panel project.Panel
	frag  *Fragment
	w, h  float64 // displayed size in canvas units
}

// viewport is the emitted coordinate system.
type viewport struct {
	MinX, MinY float64
	W, H       float64
	Unit       string
}

func newComposer(opts ...Option) composer {
	c := composer{sheet: style.Default(), dpi: defaultProofDPI}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// resolvePlacements loads every panel source and pairs it with its
// displayed size. The second return value carries the fragment content
// hashes in panel order.
func resolvePlacements(spec *project.Spec, figDir string) ([]placement, []string, error) {
	places := make([]placement, 0, len(spec.Panels))
	hashes := make([]string, 0, len(spec.Panels))
	for _, p := range spec.Panels {
		frag, err := LoadFragment(filepath.Join(figDir, filepath.FromSlash(p.Src)))
		if err != nil {
			return nil, nil, err
		}
		places = append(places, placement{
			panel: p,
			frag:  frag,
			w:     frag.Width * p.Scale,
			h:     frag.Height * p.Scale,
		})
		hashes = append(hashes, cache.Hash(frag.Data))
	}
	return places, hashes, nil
}

// Compose renders the figure spec into an SVG document. Panel sources
// are resolved relative to figDir.
func Compose(spec *project.Spec, figDir string, opts ...Option) (*Result, error) {
	c := newComposer(opts...)

	places, hashes, err := resolvePlacements(spec, figDir)
	if err != nil {
		return nil, err
	}

	labels := resolveLabels(spec, c.sheet, spec.Unit)
	view := resolveViewport(spec, places, c.sheet)

	inline := c.sheet.Bool("svg.image_inline", true)
	if c.inline != nil {
		inline = *c.inline
	}

	var buf bytes.Buffer
	writeSVG(&buf, places, labels, view, c.sheet, inline)

	return &Result{
		SVG:            buf.Bytes(),
		Width:          view.W,
		Height:         view.H,
		Unit:           spec.Unit,
		FragmentHashes: hashes,
		Background:     c.sheet.String("savefig.facecolor", "white"),
		TextToPath:     c.sheet.String("svg.fonttype", "none") == "path",
	}, nil
}

// resolveViewport applies the savefig.bbox policy. "standard" keeps the
// declared canvas; "tight" shrinks to the union of panel extents plus
// savefig.pad_inches on every side.
func resolveViewport(spec *project.Spec, places []placement, sheet *style.Sheet) viewport {
	standard := viewport{MinX: 0, MinY: 0, W: spec.Width, H: spec.Height, Unit: spec.Unit}
	if sheet.String("savefig.bbox", "standard") != "tight" || len(places) == 0 {
		return standard
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pl := range places {
		minX = math.Min(minX, pl.panel.X)
		minY = math.Min(minY, pl.panel.Y)
		maxX = math.Max(maxX, pl.panel.X+pl.w)
		maxY = math.Max(maxY, pl.panel.Y+pl.h)
	}

	pad := inToUnit(sheet.Float("savefig.pad_inches", 0), spec.Unit)
	return viewport{
		MinX: minX - pad,
		MinY: minY - pad,
		W:    (maxX - minX) + 2*pad,
		H:    (maxY - minY) + 2*pad,
		Unit: spec.Unit,
	}
}

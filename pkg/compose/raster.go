package compose

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/project"
)

const defaultProofDPI = 96.0

// WithDPI sets the proof rendering resolution. It has no effect on
// vector output.
func WithDPI(dpi float64) Option {
	return func(c *composer) {
		if dpi > 0 {
			c.dpi = dpi
		}
	}
}

// ComposeRaster renders the figure spec directly to an image, without
// going through SVG or an external converter. It is a proof: panel
// placement and extent are exact, typography is approximate.
func ComposeRaster(spec *project.Spec, figDir string, opts ...Option) (image.Image, error) {
	c := newComposer(opts...)

	places, _, err := resolvePlacements(spec, figDir)
	if err != nil {
		return nil, err
	}
	labels := resolveLabels(spec, c.sheet, spec.Unit)
	view := resolveViewport(spec, places, c.sheet)

	// Pixels per canvas unit at the requested resolution.
	scale := unitToPx(view.Unit) * c.dpi / pxPerInch
	wpx := int(math.Ceil(view.W * scale))
	hpx := int(math.Ceil(view.H * scale))
	if wpx < 1 || hpx < 1 {
		return nil, errors.New(errors.ErrCodeInvalidFigure, "canvas %gx%g%s rasterizes to an empty image", view.W, view.H, view.Unit)
	}

	img := image.NewRGBA(image.Rect(0, 0, wpx, hpx))
	if bg, ok := parseColor(c.sheet.String("savefig.facecolor", "white")); ok {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	for _, pl := range places {
		rect := pixelRect(pl, view, scale)
		if rect.Empty() {
			continue
		}
		if pl.frag.Format == FormatSVG {
			err = drawVector(img, rect, pl.frag)
		} else {
			err = drawRaster(img, rect, pl.frag)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, pl := range places {
		text := labels.Format(pl.panel.Label)
		if text == "" {
			continue
		}
		x := int((pl.panel.X + labels.OffsetX - view.MinX) * scale)
		y := int((pl.panel.Y + labels.OffsetY - view.MinY) * scale)
		drawLabel(img, x, y, text)
	}

	return img, nil
}

func pixelRect(pl placement, view viewport, scale float64) image.Rectangle {
	x0 := int(math.Round((pl.panel.X - view.MinX) * scale))
	y0 := int(math.Round((pl.panel.Y - view.MinY) * scale))
	x1 := int(math.Round((pl.panel.X + pl.w - view.MinX) * scale))
	y1 := int(math.Round((pl.panel.Y + pl.h - view.MinY) * scale))
	return image.Rect(x0, y0, x1, y1)
}

// drawVector rasterizes an SVG fragment into its own tile and
// composites the tile over the canvas.
func drawVector(dst *image.RGBA, rect image.Rectangle, frag *Fragment) error {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(frag.Data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPanel, err, "rasterizing %s", frag.Path)
	}

	w, h := rect.Dx(), rect.Dy()
	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, tile, tile.Bounds())), 1.0)

	draw.Draw(dst, rect, tile, image.Point{}, draw.Over)
	return nil
}

// drawRaster decodes a raster fragment and scales it onto the canvas.
func drawRaster(dst *image.RGBA, rect image.Rectangle, frag *Fragment) error {
	src, _, err := image.Decode(bytes.NewReader(frag.Data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPanel, err, "decoding %s", frag.Path)
	}
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Over, nil)
	return nil
}

func drawLabel(dst *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

var namedColors = map[string]color.Color{
	"white":     color.White,
	"black":     color.Black,
	"gray":      color.Gray{Y: 0x80},
	"grey":      color.Gray{Y: 0x80},
	"lightgray": color.Gray{Y: 0xd3},
	"lightgrey": color.Gray{Y: 0xd3},
	"red":       color.RGBA{R: 0xff, A: 0xff},
	"green":     color.RGBA{G: 0x80, A: 0xff},
	"blue":      color.RGBA{B: 0xff, A: 0xff},
}

// parseColor resolves a facecolor to a fill. The bool is false when the
// color means no fill at all.
func parseColor(s string) (color.Color, bool) {
	switch s {
	case "", "none", "transparent":
		return nil, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if c, ok := parseHexColor(s); ok {
		return c, true
	}
	return color.White, true
}

func parseHexColor(s string) (color.Color, bool) {
	if len(s) == 0 || s[0] != '#' {
		return nil, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, true
}

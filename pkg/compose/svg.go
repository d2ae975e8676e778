package compose

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"path"
	"path/filepath"

	"github.com/figkit/figkit/pkg/style"
)

const svgHeader = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s%s" height="%s%s" viewBox="%s %s %s %s">` + "\n"

// writeSVG serializes the composed document. Panels are emitted in spec
// order so later entries paint over earlier ones, then labels on top.
func writeSVG(buf *bytes.Buffer, places []placement, labels LabelStyle, view viewport, sheet *style.Sheet, inline bool) {
	fmt.Fprintf(buf, svgHeader,
		trimFloat(view.W), unitSuffix(view.Unit),
		trimFloat(view.H), unitSuffix(view.Unit),
		trimFloat(view.MinX), trimFloat(view.MinY),
		trimFloat(view.W), trimFloat(view.H))

	writeBackground(buf, view, sheet)
	for _, pl := range places {
		writePanel(buf, pl, inline)
	}
	for _, pl := range places {
		writeLabel(buf, pl, labels)
	}

	buf.WriteString("</svg>\n")
}

func writeBackground(buf *bytes.Buffer, view viewport, sheet *style.Sheet) {
	fill := sheet.String("savefig.facecolor", "white")
	if fill == "none" {
		return
	}
	fmt.Fprintf(buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		trimFloat(view.MinX), trimFloat(view.MinY),
		trimFloat(view.W), trimFloat(view.H), escapeXML(fill))
}

func writePanel(buf *bytes.Buffer, pl placement, inline bool) {
	switch {
	case !inline:
		writePanelRef(buf, pl)
	case pl.frag.Format == FormatSVG:
		writePanelNested(buf, pl)
	default:
		writePanelData(buf, pl)
	}
}

// writePanelNested wraps the fragment's own content in a sized svg
// element. The fragment's viewBox maps its native coordinates onto the
// placement box, which is how the panel scale takes effect.
func writePanelNested(buf *bytes.Buffer, pl placement) {
	fmt.Fprintf(buf, `  <svg x="%s" y="%s" width="%s" height="%s" viewBox="%s" preserveAspectRatio="none">`+"\n",
		trimFloat(pl.panel.X), trimFloat(pl.panel.Y),
		trimFloat(pl.w), trimFloat(pl.h),
		escapeXML(pl.frag.ViewBox))
	if len(pl.frag.inner) > 0 {
		buf.Write(pl.frag.inner)
		if pl.frag.inner[len(pl.frag.inner)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.WriteString("  </svg>\n")
}

// writePanelData carries a raster fragment inside the document as a
// base64 data URI.
func writePanelData(buf *bytes.Buffer, pl placement) {
	fmt.Fprintf(buf, `  <image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" xlink:href="data:%s;base64,%s"/>`+"\n",
		trimFloat(pl.panel.X), trimFloat(pl.panel.Y),
		trimFloat(pl.w), trimFloat(pl.h),
		pl.frag.Format.MIME(),
		base64.StdEncoding.EncodeToString(pl.frag.Data))
}

// writePanelRef points at the panel source by path instead of carrying
// its bytes. The reference is relative to the output directory, which
// sits beside the panel directory.
func writePanelRef(buf *bytes.Buffer, pl placement) {
	rel := path.Join("..", filepath.ToSlash(pl.panel.Src))
	fmt.Fprintf(buf, `  <image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" xlink:href="%s"/>`+"\n",
		trimFloat(pl.panel.X), trimFloat(pl.panel.Y),
		trimFloat(pl.w), trimFloat(pl.h),
		escapeXML(rel))
}

func writeLabel(buf *bytes.Buffer, pl placement, labels LabelStyle) {
	text := labels.Format(pl.panel.Label)
	if text == "" {
		return
	}
	fmt.Fprintf(buf, `  <text x="%s" y="%s" font-family="%s" font-size="%spt" font-weight="%s">%s</text>`+"\n",
		trimFloat(pl.panel.X+labels.OffsetX),
		trimFloat(pl.panel.Y+labels.OffsetY),
		escapeXML(labels.Family),
		trimFloat(labels.SizePt),
		escapeXML(labels.Weight),
		escapeXML(text))
}

// unitSuffix renders a unit as an SVG length suffix. Pixel lengths are
// written bare, which SVG treats as user units.
func unitSuffix(unit string) string {
	if unit == "px" {
		return ""
	}
	return unit
}

package compose

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/figkit/figkit/pkg/project"
	"github.com/figkit/figkit/pkg/style"
)

// Label typography fallbacks when neither the figure spec nor the style
// sheet says otherwise.
const (
	defaultLabelSize   = 10.0 // points
	defaultLabelWeight = "bold"
	defaultFontFamily  = "sans-serif"
)

// LabelStyle is the resolved panel label typography: figure spec
// overrides first, then the style sheet, then package defaults.
type LabelStyle struct {
	Family    string
	SizePt    float64
	Weight    string
	OffsetX   float64 // canvas units from the panel origin
	OffsetY   float64 // canvas units from the panel origin to the baseline
	Uppercase bool
}

// resolveLabels merges label settings from the figure spec and style sheet.
// Offsets default to a quarter-em in and one em down so the letter sits
// just inside the panel's top-left corner.
func resolveLabels(spec *project.Spec, sheet *style.Sheet, unit string) LabelStyle {
	ls := LabelStyle{
		Family:    spec.Labels.Family,
		SizePt:    spec.Labels.Size,
		Weight:    spec.Labels.Weight,
		OffsetX:   spec.Labels.OffsetX,
		OffsetY:   spec.Labels.OffsetY,
		Uppercase: spec.Labels.Uppercase,
	}

	if ls.Family == "" {
		ls.Family = sheet.String("font.family", defaultFontFamily)
	}
	if ls.SizePt == 0 {
		ls.SizePt = sheet.Float("figure.titlesize", defaultLabelSize)
	}
	if ls.Weight == "" {
		ls.Weight = defaultLabelWeight
	}

	em := ptToUnit(ls.SizePt, unit)
	if ls.OffsetX == 0 {
		ls.OffsetX = em / 4
	}
	if ls.OffsetY == 0 {
		ls.OffsetY = em
	}
	return ls
}

// Format applies the case policy to a label.
func (ls LabelStyle) Format(label string) string {
	if ls.Uppercase {
		return strings.ToUpper(label)
	}
	return label
}

// escapeXML escapes text for SVG attribute and element content.
func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

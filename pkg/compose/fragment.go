package compose

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"regexp"
	"strconv"
	"strings"

	// Raster fragment decoders. Journals hand panels around as PNG,
	// JPEG, and TIFF; BMP costs nothing extra.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/figkit/figkit/pkg/errors"
)

// Format identifies a fragment's file type.
type Format string

// Fragment formats. SVG fragments can be inlined as nested documents;
// raster formats embed as data URIs.
const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// MIME returns the media type used in data URIs.
func (f Format) MIME() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatTIFF:
		return "image/tiff"
	case FormatBMP:
		return "image/bmp"
	}
	return "application/octet-stream"
}

// Fragment is a loaded panel source with its intrinsic geometry.
// Width and Height are in pixel user units; placement multiplies them
// by the panel scale to get canvas units.
type Fragment struct {
	Path   string // Source path as given
	Format Format
	Data   []byte
	Width  float64
	Height float64

	// SVG only: the root viewBox (synthesized from width/height when the
	// source has none) and the document content between the root tags.
	ViewBox string
	inner   []byte
}

// Root tag surgery on SVG sources. A full XML parse buys nothing here:
// the root attributes and the span between the root tags are all the
// composition needs, and fragments from plotting tools are too varied
// for strict parsing to be safe.
var (
	svgRootRe   = regexp.MustCompile(`(?is)<svg\b[^>]*?>`)
	svgAttrRe   = regexp.MustCompile(`([a-zA-Z_][-a-zA-Z0-9_:.]*)\s*=\s*"([^"]*)"`)
	svgLengthRe = regexp.MustCompile(`^\s*([0-9eE.+-]+)\s*([a-z%]*)\s*$`)
)

// LoadFragment reads and probes a panel source file.
func LoadFragment(path string) (*Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "panel fragment not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPanel, err, "reading fragment %s", path)
	}

	if isSVG(path, data) {
		return probeSVG(path, data)
	}
	return probeRaster(path, data)
}

// isSVG sniffs for an SVG source by extension or content.
func isSVG(path string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

func probeSVG(path string, data []byte) (*Fragment, error) {
	loc := svgRootRe.FindIndex(data)
	if loc == nil {
		return nil, errors.New(errors.ErrCodeInvalidPanel, "%s: no <svg> root element", path)
	}
	rootTag := data[loc[0]:loc[1]]

	attrs := make(map[string]string)
	for _, m := range svgAttrRe.FindAllSubmatch(rootTag, -1) {
		attrs[string(m[1])] = string(m[2])
	}

	frag := &Fragment{
		Path:    path,
		Format:  FormatSVG,
		Data:    data,
		ViewBox: attrs["viewBox"],
	}

	var widthErr, heightErr error
	frag.Width, widthErr = parseLength(attrs["width"])
	frag.Height, heightErr = parseLength(attrs["height"])

	// Fall back to the viewBox when width/height are absent or in
	// percentages, matplotlib SVGs carry both.
	if widthErr != nil || heightErr != nil || frag.Width <= 0 || frag.Height <= 0 {
		vb, err := parseViewBox(frag.ViewBox)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidPanel,
				"%s: cannot determine intrinsic size (no usable width/height or viewBox)", path)
		}
		frag.Width, frag.Height = vb[2], vb[3]
	}
	if frag.ViewBox == "" {
		frag.ViewBox = fmt.Sprintf("0 0 %s %s", trimFloat(frag.Width), trimFloat(frag.Height))
	}

	// Content between the root tags, for nested inlining. A self-closing
	// root has no content.
	if bytes.HasSuffix(bytes.TrimSpace(rootTag), []byte("/>")) {
		frag.inner = nil
		return frag, nil
	}
	end := bytes.LastIndex(data, []byte("</svg>"))
	if end < loc[1] {
		return nil, errors.New(errors.ErrCodeInvalidPanel, "%s: unterminated <svg> root element", path)
	}
	frag.inner = data[loc[1]:end]
	return frag, nil
}

func probeRaster(path string, data []byte) (*Fragment, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPanel, err, "probing fragment %s", path)
	}

	var f Format
	switch format {
	case "png":
		f = FormatPNG
	case "jpeg":
		f = FormatJPEG
	case "tiff":
		f = FormatTIFF
	case "bmp":
		f = FormatBMP
	default:
		return nil, errors.New(errors.ErrCodeInvalidPanel, "%s: unsupported image format %q", path, format)
	}

	return &Fragment{
		Path:   path,
		Format: f,
		Data:   data,
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height),
	}, nil
}

// parseLength converts an SVG length attribute to pixel user units.
// CSS absolute units at 96px/in.
func parseLength(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty length")
	}
	m := svgLengthRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unparseable length %q", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable length %q", s)
	}
	switch m[2] {
	case "", "px":
		return v, nil
	case "pt":
		return v * 96.0 / 72.0, nil
	case "pc":
		return v * 16.0, nil
	case "mm":
		return v * 96.0 / 25.4, nil
	case "cm":
		return v * 96.0 / 2.54, nil
	case "in":
		return v * 96.0, nil
	case "%":
		return 0, fmt.Errorf("percentage length %q", s)
	}
	return 0, fmt.Errorf("unknown length unit %q", m[2])
}

// parseViewBox splits a viewBox attribute into min-x, min-y, width, height.
func parseViewBox(s string) ([4]float64, error) {
	var vb [4]float64
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return vb, fmt.Errorf("viewBox needs 4 numbers, got %q", s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return vb, fmt.Errorf("viewBox number %q: %w", f, err)
		}
		vb[i] = v
	}
	if vb[2] <= 0 || vb[3] <= 0 {
		return vb, fmt.Errorf("viewBox has non-positive size: %q", s)
	}
	return vb, nil
}

// trimFloat formats a float without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/figkit/figkit/pkg/errors"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoadFragmentSVG(t *testing.T) {
	dir := t.TempDir()
	src := `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="360pt" height="270pt" viewBox="0 0 360 270">
  <rect x="0" y="0" width="360" height="270" fill="#cccccc"/>
</svg>`
	path := writeFile(t, dir, "a.svg", []byte(src))

	frag, err := LoadFragment(path)
	if err != nil {
		t.Fatalf("LoadFragment() error = %v", err)
	}
	if frag.Format != FormatSVG {
		t.Errorf("Format = %q, want %q", frag.Format, FormatSVG)
	}
	// 360pt at 96px/in is 480px.
	if frag.Width != 480 || frag.Height != 360 {
		t.Errorf("size = %gx%g, want 480x360", frag.Width, frag.Height)
	}
	if frag.ViewBox != "0 0 360 270" {
		t.Errorf("ViewBox = %q, want %q", frag.ViewBox, "0 0 360 270")
	}
	if !bytes.Contains(frag.inner, []byte("<rect")) {
		t.Errorf("inner content missing rect element: %q", frag.inner)
	}
	if bytes.Contains(frag.inner, []byte("</svg>")) {
		t.Errorf("inner content still carries the closing root tag")
	}
}

func TestLoadFragmentSVGViewBoxOnly(t *testing.T) {
	dir := t.TempDir()
	src := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 120 80"><g/></svg>`
	path := writeFile(t, dir, "vb.svg", []byte(src))

	frag, err := LoadFragment(path)
	if err != nil {
		t.Fatalf("LoadFragment() error = %v", err)
	}
	if frag.Width != 120 || frag.Height != 80 {
		t.Errorf("size = %gx%g, want 120x80", frag.Width, frag.Height)
	}
}

func TestLoadFragmentSVGSynthesizedViewBox(t *testing.T) {
	dir := t.TempDir()
	src := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50"><g/></svg>`
	path := writeFile(t, dir, "nvb.svg", []byte(src))

	frag, err := LoadFragment(path)
	if err != nil {
		t.Fatalf("LoadFragment() error = %v", err)
	}
	if frag.ViewBox != "0 0 100 50" {
		t.Errorf("ViewBox = %q, want %q", frag.ViewBox, "0 0 100 50")
	}
}

func TestLoadFragmentSVGNoSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`))

	_, err := LoadFragment(path)
	if err == nil {
		t.Fatal("LoadFragment() expected error for sizeless SVG")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidPanel {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPanel)
	}
}

func TestLoadFragmentSelfClosingRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"/>`))

	frag, err := LoadFragment(path)
	if err != nil {
		t.Fatalf("LoadFragment() error = %v", err)
	}
	if frag.inner != nil {
		t.Errorf("inner = %q, want nil for a self-closing root", frag.inner)
	}
}

func TestLoadFragmentPNG(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "b.png", pngBytes(t, 4, 3, color.White))

	frag, err := LoadFragment(path)
	if err != nil {
		t.Fatalf("LoadFragment() error = %v", err)
	}
	if frag.Format != FormatPNG {
		t.Errorf("Format = %q, want %q", frag.Format, FormatPNG)
	}
	if frag.Width != 4 || frag.Height != 3 {
		t.Errorf("size = %gx%g, want 4x3", frag.Width, frag.Height)
	}
	if frag.Format.MIME() != "image/png" {
		t.Errorf("MIME = %q, want image/png", frag.Format.MIME())
	}
}

func TestLoadFragmentMissing(t *testing.T) {
	_, err := LoadFragment(filepath.Join(t.TempDir(), "nope.svg"))
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

func TestLoadFragmentGarbage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "junk.png", []byte("not an image at all"))

	_, err := LoadFragment(path)
	if err == nil {
		t.Fatal("LoadFragment() expected error for undecodable data")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidPanel {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPanel)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"96", 96, false},
		{"96px", 96, false},
		{"72pt", 96, false},
		{"1pc", 16, false},
		{"25.4mm", 96, false},
		{"2.54cm", 96, false},
		{"1in", 96, false},
		{" 10 mm ", 10 * 96 / 25.4, false},
		{"100%", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"10furlong", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLength(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLength(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !almostEqual(got, tt.want) {
				t.Errorf("parseLength(%q) = %g, want %g", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseViewBox(t *testing.T) {
	tests := []struct {
		in      string
		want    [4]float64
		wantErr bool
	}{
		{"0 0 360 270", [4]float64{0, 0, 360, 270}, false},
		{"0,0,360,270", [4]float64{0, 0, 360, 270}, false},
		{"-10 -5 20 10", [4]float64{-10, -5, 20, 10}, false},
		{"0 0 360", [4]float64{}, true},
		{"0 0 0 270", [4]float64{}, true},
		{"a b c d", [4]float64{}, true},
		{"", [4]float64{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseViewBox(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseViewBox(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseViewBox(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTrimFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{180, "180"},
		{0.5, "0.5"},
		{-3.25, "-3.25"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := trimFloat(tt.in); got != tt.want {
			t.Errorf("trimFloat(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}

func TestIsSVGContentSniff(t *testing.T) {
	if !isSVG("panel.image", []byte(`<?xml version="1.0"?><svg xmlns="x">`)) {
		t.Error("content sniff missed an svg root in an oddly named file")
	}
	if isSVG("panel.png", pngBytes(t, 1, 1, color.Black)) {
		t.Error("png bytes misidentified as svg")
	}
	if !isSVG("panel.SVG", nil) {
		t.Error("extension check should be case-insensitive")
	}
}

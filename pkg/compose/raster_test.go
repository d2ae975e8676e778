package compose

import (
	"image/color"
	"testing"
)

func TestComposeRaster(t *testing.T) {
	dir, spec := testFigure(t)

	img, err := ComposeRaster(spec, dir)
	if err != nil {
		t.Fatalf("ComposeRaster() error = %v", err)
	}

	// 180x60mm at 96dpi is 681x227 pixels, rounded up.
	b := img.Bounds()
	if b.Dx() != 681 || b.Dy() != 227 {
		t.Errorf("bounds = %dx%d, want 681x227", b.Dx(), b.Dy())
	}

	// Background stays white outside every panel.
	if r, g, bl, _ := img.At(b.Max.X-1, b.Max.Y-1).RGBA(); r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Errorf("background pixel = %04x %04x %04x, want white", r, g, bl)
	}

	// The vector panel paints solid red. Its center sits at canvas
	// (29, 29)mm, scale to pixels with 96/25.4.
	scale := 96 / 25.4
	px := int(29 * scale)
	if r, g, _, _ := img.At(px, px).RGBA(); r < 0xc000 || g > 0x4000 {
		t.Errorf("vector panel pixel = %04x %04x, want red", r, g)
	}

	// The raster panel is solid blue, centered at canvas (98, 13)mm.
	bx, by := int(98*scale), int(13*scale)
	if _, g, bl, _ := img.At(bx, by).RGBA(); bl < 0xc000 || g > 0x4000 {
		t.Errorf("raster panel pixel = %04x %04x, want blue", g, bl)
	}
}

func TestComposeRasterDPI(t *testing.T) {
	dir, spec := testFigure(t)

	img, err := ComposeRaster(spec, dir, WithDPI(192))
	if err != nil {
		t.Fatalf("ComposeRaster() error = %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 1361 || b.Dy() != 454 {
		t.Errorf("bounds at 192dpi = %dx%d, want 1361x454", b.Dx(), b.Dy())
	}
}

func TestComposeRasterMissingFragment(t *testing.T) {
	dir, spec := testFigure(t)
	spec.Panels[1].Src = "panels/gone.png"

	if _, err := ComposeRaster(spec, dir); err == nil {
		t.Fatal("ComposeRaster() expected error for a missing fragment")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in     string
		want   color.Color
		wantOK bool
	}{
		{"white", color.White, true},
		{"black", color.Black, true},
		{"none", nil, false},
		{"transparent", nil, false},
		{"", nil, false},
		{"#fff", color.RGBA{0xff, 0xff, 0xff, 0xff}, true},
		{"#102030", color.RGBA{0x10, 0x20, 0x30, 0xff}, true},
		{"mauve", color.White, true}, // unknown names fall back to white
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseColor(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parseColor(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			gr, gg, gb, ga := got.RGBA()
			wr, wg, wb, wa := tt.want.RGBA()
			if gr != wr || gg != wg || gb != wb || ga != wa {
				t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

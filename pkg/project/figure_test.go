package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/figkit/figkit/pkg/errors"
)

// testFigure sets up a figure directory with the given figure.toml.
func testFigure(t *testing.T, spec string) Figure {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fig1")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, SpecName), []byte(spec), 0644); err != nil {
		t.Fatal(err)
	}
	return Figure{ID: "1", Dir: dir}
}

const sampleSpec = `
width = 180.0
height = 90.0

[labels]
size = 12.0
weight = "bold"

[[panel]]
src = "panels/traces.svg"
x = 0.0
y = 0.0
label = "a"

[[panel]]
src = "panels/scatter.png"
x = 95.0
y = 0.0
scale = 0.26
label = "b"
`

func TestLoadSpec(t *testing.T) {
	fig := testFigure(t, sampleSpec)

	spec, err := LoadSpec(fig)
	if err != nil {
		t.Fatalf("LoadSpec error: %v", err)
	}

	// Name defaults to the directory base
	if spec.Name != "fig1" {
		t.Errorf("Name = %q, want fig1", spec.Name)
	}
	// Unit defaults to mm
	if spec.Unit != "mm" {
		t.Errorf("Unit = %q, want mm", spec.Unit)
	}
	if spec.Width != 180 || spec.Height != 90 {
		t.Errorf("canvas = %gx%g, want 180x90", spec.Width, spec.Height)
	}

	if len(spec.Panels) != 2 {
		t.Fatalf("panels = %d, want 2", len(spec.Panels))
	}
	// Scale defaults to 1 when omitted
	if spec.Panels[0].Scale != 1 {
		t.Errorf("panel 1 scale = %g, want 1", spec.Panels[0].Scale)
	}
	if spec.Panels[1].Scale != 0.26 {
		t.Errorf("panel 2 scale = %g, want 0.26", spec.Panels[1].Scale)
	}

	if spec.Labels.Size != 12 || spec.Labels.Weight != "bold" {
		t.Errorf("labels = %+v", spec.Labels)
	}

	// Output naming follows the fig/ convention
	want := filepath.Join(fig.Dir, "fig", "fig1.svg")
	if got := spec.OutputBase(fig, "svg"); got != want {
		t.Errorf("OutputBase = %q, want %q", got, want)
	}
}

func TestLoadSpecExplicitName(t *testing.T) {
	fig := testFigure(t, `
name = "timecourse"
width = 85.0
height = 60.0

[[panel]]
src = "panels/a.svg"
`)
	spec, err := LoadSpec(fig)
	if err != nil {
		t.Fatalf("LoadSpec error: %v", err)
	}
	if spec.Name != "timecourse" {
		t.Errorf("Name = %q, want timecourse", spec.Name)
	}
}

func TestLoadSpecInvalid(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantCode errors.Code
	}{
		{
			name:     "zero canvas",
			spec:     "width = 0\nheight = 90\n[[panel]]\nsrc = \"a.svg\"\n",
			wantCode: errors.ErrCodeInvalidFigure,
		},
		{
			name:     "negative canvas",
			spec:     "width = 180\nheight = -5\n[[panel]]\nsrc = \"a.svg\"\n",
			wantCode: errors.ErrCodeInvalidFigure,
		},
		{
			name:     "bad unit",
			spec:     "width = 10\nheight = 10\nunit = \"furlong\"\n[[panel]]\nsrc = \"a.svg\"\n",
			wantCode: errors.ErrCodeInvalidUnit,
		},
		{
			name:     "no panels",
			spec:     "width = 180\nheight = 90\n",
			wantCode: errors.ErrCodeInvalidFigure,
		},
		{
			name:     "panel path escapes figure dir",
			spec:     "width = 180\nheight = 90\n[[panel]]\nsrc = \"../../secrets.svg\"\n",
			wantCode: errors.ErrCodeInvalidPanel,
		},
		{
			name:     "negative scale",
			spec:     "width = 180\nheight = 90\n[[panel]]\nsrc = \"a.svg\"\nscale = -1.0\n",
			wantCode: errors.ErrCodeInvalidPanel,
		},
		{
			name:     "bad label weight",
			spec:     "width = 180\nheight = 90\n[labels]\nweight = \"heavy\"\n[[panel]]\nsrc = \"a.svg\"\n",
			wantCode: errors.ErrCodeInvalidFigure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig := testFigure(t, tt.spec)
			_, err := LoadSpec(fig)
			if err == nil {
				t.Fatal("LoadSpec should fail")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error code = %v, want %v (err: %v)", errors.GetCode(err), tt.wantCode, err)
			}
		})
	}
}

func TestLoadSpecMissing(t *testing.T) {
	fig := Figure{ID: "1", Dir: filepath.Join(t.TempDir(), "fig1")}
	_, err := LoadSpec(fig)
	if err == nil {
		t.Fatal("LoadSpec should fail without figure.toml")
	}
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("wrong error code: %v", err)
	}
}

func TestDuplicateLabels(t *testing.T) {
	fig := testFigure(t, `
width = 100
height = 100

[[panel]]
src = "a.svg"
label = "a"

[[panel]]
src = "b.svg"
label = "b"

[[panel]]
src = "c.svg"
label = "a"
`)
	spec, err := LoadSpec(fig)
	if err != nil {
		t.Fatalf("LoadSpec error: %v", err)
	}

	dups := spec.DuplicateLabels()
	if len(dups) != 1 || dups[0] != "a" {
		t.Errorf("DuplicateLabels = %v, want [a]", dups)
	}
}

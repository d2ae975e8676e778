package convert

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/figkit/figkit/pkg/errors"
)

// Inkscape drives the inkscape CLI. The 1.x series replaced the 0.9x
// export flags wholesale, so the dialect is probed once from
// `inkscape --version` and remembered for the rest of the run.
type Inkscape struct {
	path   string
	modern bool // 1.x flag dialect
}

var inkscapeVersionRe = regexp.MustCompile(`Inkscape\s+(\d+)\.`)

// NewInkscape locates inkscape on PATH and probes its flag dialect.
func NewInkscape(ctx context.Context) (*Inkscape, error) {
	path, err := exec.LookPath("inkscape")
	if err != nil {
		return nil, errors.New(errors.ErrCodeConverterNotFound,
			"inkscape not found in PATH (install it or set convert.tool in the project manifest)")
	}

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	modern := true
	if err == nil {
		if major, ok := parseInkscapeMajor(string(out)); ok {
			modern = major >= 1
		}
	}
	return &Inkscape{path: path, modern: modern}, nil
}

func parseInkscapeMajor(version string) (int, bool) {
	m := inkscapeVersionRe.FindStringSubmatch(version)
	if m == nil {
		return 0, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return major, true
}

// Name implements Converter.
func (i *Inkscape) Name() string { return "inkscape" }

// PNGSource implements Converter. Inkscape rasterizes the print PDF so
// the PNG matches what the journal receives.
func (i *Inkscape) PNGSource() string { return "pdf" }

// PDF implements Converter.
func (i *Inkscape) PDF(ctx context.Context, src, dst string, opts Options) error {
	return runTool(ctx, i.Name(), i.path, i.pdfArgs(src, dst, opts)...)
}

// PNG implements Converter.
func (i *Inkscape) PNG(ctx context.Context, src, dst string, opts Options) error {
	return runTool(ctx, i.Name(), i.path, i.pngArgs(src, dst, opts)...)
}

func (i *Inkscape) pdfArgs(src, dst string, opts Options) []string {
	args := []string{src}
	if i.modern {
		args = append(args, "--export-type=pdf", "--export-filename="+dst)
	} else {
		args = append(args, "--export-pdf="+dst)
	}
	if opts.TextToPath {
		args = append(args, "--export-text-to-path")
	}
	return args
}

func (i *Inkscape) pngArgs(src, dst string, opts Options) []string {
	args := []string{src}
	if i.modern {
		args = append(args, "--export-type=png", "--export-filename="+dst)
	} else {
		args = append(args, "--export-png="+dst)
	}
	if opts.Background != "" && opts.Background != "none" {
		args = append(args, "-b", opts.Background)
	}
	if opts.DPI > 0 {
		args = append(args, "--export-dpi="+strconv.FormatFloat(opts.DPI, 'f', -1, 64))
	}
	return args
}

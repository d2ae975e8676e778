package convert

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/figkit/figkit/pkg/errors"
)

// Rsvg drives rsvg-convert as a fallback backend for hosts without
// inkscape. It renders SVG directly and cannot read PDF, so its PNG
// pass consumes the composed SVG instead of the intermediate PDF.
type Rsvg struct {
	path string
}

// NewRsvg locates rsvg-convert on PATH.
func NewRsvg() (*Rsvg, error) {
	path, err := exec.LookPath("rsvg-convert")
	if err != nil {
		return nil, errors.New(errors.ErrCodeConverterNotFound, "rsvg-convert not found in PATH")
	}
	return &Rsvg{path: path}, nil
}

// Name implements Converter.
func (r *Rsvg) Name() string { return "rsvg-convert" }

// PNGSource implements Converter.
func (r *Rsvg) PNGSource() string { return "svg" }

// PDF implements Converter. rsvg-convert has no text outlining, the
// TextToPath option is ignored.
func (r *Rsvg) PDF(ctx context.Context, src, dst string, opts Options) error {
	return runTool(ctx, r.Name(), r.path, "-f", "pdf", "-o", dst, src)
}

// PNG implements Converter.
func (r *Rsvg) PNG(ctx context.Context, src, dst string, opts Options) error {
	args := []string{"-f", "png", "-o", dst}
	if opts.DPI > 0 {
		dpi := strconv.FormatFloat(opts.DPI, 'f', -1, 64)
		args = append(args, "--dpi-x", dpi, "--dpi-y", dpi)
	}
	if opts.Background != "" && opts.Background != "none" {
		args = append(args, "-b", opts.Background)
	}
	args = append(args, src)
	return runTool(ctx, r.Name(), r.path, args...)
}

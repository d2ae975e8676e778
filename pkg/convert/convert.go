// Package convert turns composed SVG documents into print formats by
// driving an external vector tool.
//
// The conversion chain follows print production: SVG becomes PDF, and
// PNG is rasterized from whichever input the backend prefers. Tool
// output is never post-processed; when a converter fails its stderr is
// handed back verbatim.
package convert

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/observability"
)

// Options carry the conversion knobs from the project manifest and the
// figure's style sheet.
type Options struct {
	DPI        float64 // Raster resolution for PNG output
	Background string  // PNG background color
	TextToPath bool    // Outline text during PDF export
}

// Converter is an external vector tool.
type Converter interface {
	// Name is the tool's command name, for error reporting.
	Name() string

	// PDF converts an SVG file into a PDF.
	PDF(ctx context.Context, src, dst string, opts Options) error

	// PNG rasterizes src into a PNG.
	PNG(ctx context.Context, src, dst string, opts Options) error

	// PNGSource reports the input extension PNG conversion wants:
	// "pdf" for tools that rasterize the print output, "svg" for
	// direct renderers.
	PNGSource() string
}

// Detect resolves a manifest tool name to a backend. The tool must be
// installed; a missing binary is reported, never substituted.
func Detect(ctx context.Context, tool string) (Converter, error) {
	switch tool {
	case "", "inkscape":
		return NewInkscape(ctx)
	case "rsvg", "rsvg-convert":
		return NewRsvg()
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown converter %q (want inkscape or rsvg)", tool)
}

// PDFAll converts every .svg directly under dir into a sibling .pdf.
// An empty directory converts nothing and is not an error.
func PDFAll(ctx context.Context, conv Converter, dir string, opts Options) ([]string, error) {
	srcs, err := filepath.Glob(filepath.Join(dir, "*.svg"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "globbing %s", dir)
	}

	var outs []string
	for _, src := range srcs {
		dst := strings.TrimSuffix(src, ".svg") + ".pdf"
		if err := conv.PDF(ctx, src, dst, opts); err != nil {
			return outs, err
		}
		outs = append(outs, dst)
	}
	return outs, nil
}

// PNGAll rasterizes every eligible file directly under dir into a
// sibling .png. Eligibility follows the backend's PNGSource.
func PNGAll(ctx context.Context, conv Converter, dir string, opts Options) ([]string, error) {
	ext := conv.PNGSource()
	srcs, err := filepath.Glob(filepath.Join(dir, "*."+ext))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "globbing %s", dir)
	}

	var outs []string
	for _, src := range srcs {
		dst := strings.TrimSuffix(src, "."+ext) + ".png"
		if err := conv.PNG(ctx, src, dst, opts); err != nil {
			return outs, err
		}
		outs = append(outs, dst)
	}
	return outs, nil
}

// runTool executes a converter binary and captures stderr for the
// error path. Stdout is discarded, the tools write their result to the
// destination file.
func runTool(ctx context.Context, name, path string, args ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	observability.Tool().OnToolStart(ctx, name, args)
	err := cmd.Run()
	if err != nil {
		err = &errors.ConvertError{
			Tool:   name,
			Stderr: strings.TrimSpace(stderr.String()),
			Cause:  err,
		}
	}
	observability.Tool().OnToolComplete(ctx, name, time.Since(start), err)
	return err
}

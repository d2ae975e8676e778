// Package pipeline provides the core figure pipeline for figkit.
//
// This package implements the complete compose → convert → distribute
// chain that can be used by the CLI and the preview server. By
// centralizing this logic, we ensure consistent behavior across all
// entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Compose: Place pre-rendered panel fragments onto the canvas and
//     serialize the figure as SVG
//  2. Convert: Drive the external vector tool to produce PDF and PNG
//  3. Distribute: Copy print outputs into the shared manuscript
//     directory and record a receipt
//
// Each stage can be run independently or as part of the complete
// pipeline. Stages run sequentially and one-shot: the first failure
// aborts the run and the external tool's message is passed through
// untouched.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"pdf", "png"},
//	    Sync:    true,
//	}
//	results, err := runner.ExecuteAll(ctx, proj, "", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Run individual stages:
//
//	// Compose only
//	res, err := runner.ComposeFigure(ctx, proj, fig, opts)
//
//	// Convert an already composed figure
//	artifacts, err := runner.Convert(ctx, proj, fig, spec, doc, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/figkit/figkit/pkg/convert"
	"github.com/figkit/figkit/pkg/distribute"
)

// Format constants for converted outputs. SVG is not listed: the
// composed SVG is always written, conversion only adds to it.
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// ValidFormats is the set of supported conversion formats.
var ValidFormats = map[string]bool{
	FormatPDF: true,
	FormatPNG: true,
}

// Options contains all configuration for the figure pipeline.
// This struct supports JSON serialization so the preview server can
// accept it in requests.
type Options struct {
	// Compose options
	StylePath string `json:"style_path,omitempty"` // Explicit style sheet, empty uses the project sheet
	Refresh   bool   `json:"refresh,omitempty"`    // Recompute even when cached

	// Convert options
	Formats []string `json:"formats,omitempty"` // Conversion formats, empty follows the manifest

	// Distribute options
	Sync   bool `json:"sync,omitempty"`    // Deliver outputs after converting
	DryRun bool `json:"dry_run,omitempty"` // Report deliveries without writing

	// Runtime options (not serialized)
	Logger    *log.Logger       `json:"-"`
	Converter convert.Converter `json:"-"` // Injected backend, nil resolves from the manifest

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run for one figure.
type Result struct {
	// FigureID identifies the registry entry this result belongs to.
	FigureID string

	// SVGPath is the composed document's location under the figure's
	// output directory.
	SVGPath string

	// SVGHash is the content hash of the composed document.
	SVGHash string

	// Artifacts maps conversion formats to their output paths.
	Artifacts map[string]string

	// Synced lists the files delivered to the manuscript directory.
	Synced []distribute.FileResult

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PanelCount  int
	ComposeTime time.Duration
	ConvertTime time.Duration
	SyncTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ComposeHit bool // Whether the composed document was already known
	ConvertHit bool // Whether every requested artifact came from cache
}

// ValidateFormat checks that a conversion format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks that all conversion formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times
// has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// wantsFormat reports whether format should be produced, falling back
// to the manifest toggles when no explicit formats were given.
func (o *Options) wantsFormat(format string, pdf, png bool) bool {
	if len(o.Formats) == 0 {
		switch format {
		case FormatPDF:
			return pdf
		case FormatPNG:
			return png
		}
		return false
	}
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// requestedFormats lists the formats the run will produce, in the
// fixed pdf-then-png order.
func (o *Options) requestedFormats(pdf, png bool) []string {
	var formats []string
	if o.wantsFormat(FormatPDF, pdf, png) {
		formats = append(formats, FormatPDF)
	}
	if o.wantsFormat(FormatPNG, pdf, png) {
		formats = append(formats, FormatPNG)
	}
	return formats
}

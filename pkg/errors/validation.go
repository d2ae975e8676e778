package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// figureIDRegex matches valid figure identifiers: "1", "2a", "S3", "fig-2".
var figureIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateFigureID validates a figure identifier from the manifest registry.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 64 characters
func ValidateFigureID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidFigure, "figure id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidFigure, "figure id too long (max 64 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFigure, "figure id contains invalid control characters")
		}
	}

	if !figureIDRegex.MatchString(id) {
		return New(ErrCodeInvalidFigure, "invalid figure id: %q", id)
	}

	return nil
}

// ValidatePanelPath validates a panel source path from a figure spec.
// Panel paths are resolved relative to the figure directory, so absolute
// paths and traversal sequences are rejected.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePanelPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPanel, "panel path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPanel, "panel path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPanel, "panel path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPanel, "panel path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPanel, "panel path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPanel, "panel path cannot contain backslashes")
	}

	return nil
}

// validUnits are the canvas units accepted in figure specs.
var validUnits = map[string]bool{
	"mm": true,
	"cm": true,
	"in": true,
	"px": true,
}

// ValidateUnit validates a canvas unit.
func ValidateUnit(unit string) error {
	if unit == "" {
		return New(ErrCodeInvalidUnit, "unit cannot be empty")
	}

	if !validUnits[unit] {
		return New(ErrCodeInvalidUnit, "invalid unit %q (valid: mm, cm, in, px)", unit)
	}

	return nil
}

// validFormats are the output formats the conversion pipeline produces.
var validFormats = map[string]bool{
	"svg": true,
	"pdf": true,
	"png": true,
}

// ValidateFormat validates an output format name.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}

	if !validFormats[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "invalid format %q (valid: svg, pdf, png)", format)
	}

	return nil
}

// colorRegex matches hex colors (#rgb, #rrggbb) and simple named colors.
var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// ValidateColor validates a background color value passed to the converter.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidInput, "color cannot be empty")
	}

	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid color %q (use a name or #rrggbb)", color)
	}

	return nil
}

// ValidateDPI validates a raster export resolution.
func ValidateDPI(dpi float64) error {
	if dpi <= 0 {
		return New(ErrCodeInvalidInput, "dpi must be positive, got %g", dpi)
	}

	const maxDPI = 10000
	if dpi > maxDPI {
		return New(ErrCodeInvalidInput, "dpi too large (max %d), got %g", maxDPI, dpi)
	}

	return nil
}

package style

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/figkit/figkit/pkg/errors"
)

// Parse reads a style sheet from r.
//
// Each non-blank, non-comment line splits at its first colon into a key
// and a value. Everything structural is checked here: missing colons,
// empty keys or values, and duplicate keys are parse errors with line
// numbers. Whether a value fits its key's declared type is a validation
// concern, not a parse concern; see (*Sheet).Validate.
func Parse(r io.Reader) (*Sheet, error) {
	sheet := newSheet()
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, rest, found := strings.Cut(line, ":")
		if !found {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "line %d: missing ':' separator", lineNo)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "line %d: empty key", lineNo)
		}

		// Trailing comments belong to the line, not the value.
		if i := strings.Index(rest, "#"); i >= 0 {
			rest = rest[:i]
		}
		value := strings.TrimSpace(rest)
		if value == "" {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "line %d: empty value for %q", lineNo, key)
		}

		if prev, exists := sheet.directives[key]; exists {
			return nil, errors.New(errors.ErrCodeInvalidStyle,
				"line %d: duplicate key %q (first set on line %d)", lineNo, key, prev.Line)
		}

		sheet.set(key, value, lineNo)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "reading style sheet")
	}

	return sheet, nil
}

// Load parses the style sheet at path.
func Load(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "style sheet not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "opening style sheet %s", path)
	}
	defer f.Close()

	sheet, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "parsing %s", path)
	}
	sheet.Path = path
	return sheet, nil
}

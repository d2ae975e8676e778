// Package style reads and validates figkit style sheets.
//
// A style sheet is a flat text file of rendering directives, one per line,
// in the format the downstream plotting configuration uses:
//
//	key : value    # comment
//
// Blank lines and lines starting with # are ignored. Values keep everything
// after the first colon up to a trailing comment. Booleans are written
// exactly True or False. The recognized keys and their types live in Schema;
// unknown keys survive parsing so a sheet can carry directives for tools
// figkit does not interpret itself.
//
// Sheets are read-only after loading. Merge produces a new sheet rather
// than mutating either input.
package style

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Directive is one parsed key/value line.
type Directive struct {
	Key   string // Directive name
	Value string // Raw text after the colon, trailing comment stripped
	Line  int    // 1-based line number in the source, 0 for merged defaults
}

// Sheet is a parsed style sheet. The zero value is not usable; construct
// sheets with Parse, Load, Default, or Merge.
type Sheet struct {
	// Path is the source file, empty for the embedded default.
	Path string

	directives map[string]Directive
	order      []string // keys in file order
}

func newSheet() *Sheet {
	return &Sheet{directives: make(map[string]Directive)}
}

// set records a directive, tracking insertion order for stable output.
func (s *Sheet) set(key, value string, line int) {
	if _, exists := s.directives[key]; !exists {
		s.order = append(s.order, key)
	}
	s.directives[key] = Directive{Key: key, Value: value, Line: line}
}

// Len returns the number of directives.
func (s *Sheet) Len() int {
	return len(s.directives)
}

// Has reports whether the sheet contains key.
func (s *Sheet) Has(key string) bool {
	_, ok := s.directives[key]
	return ok
}

// Get returns the directive for key.
func (s *Sheet) Get(key string) (Directive, bool) {
	d, ok := s.directives[key]
	return d, ok
}

// Keys returns all directive keys in file order.
func (s *Sheet) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// String returns the string value for key, or fallback when absent.
func (s *Sheet) String(key, fallback string) string {
	d, ok := s.directives[key]
	if !ok {
		return fallback
	}
	return d.Value
}

// Float returns the numeric value for key, or fallback when absent
// or not parseable. Use Validate to surface unparseable values.
func (s *Sheet) Float(key string, fallback float64) float64 {
	d, ok := s.directives[key]
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(d.Value, 64)
	if err != nil {
		return fallback
	}
	return v
}

// Bool returns the boolean value for key, or fallback when absent or not
// an exact True/False literal.
func (s *Sheet) Bool(key string, fallback bool) bool {
	d, ok := s.directives[key]
	if !ok {
		return fallback
	}
	switch d.Value {
	case boolTrue:
		return true
	case boolFalse:
		return false
	}
	return fallback
}

// Merge returns a new sheet with overlay directives taking precedence.
// The receiver's file order is kept; overlay-only keys are appended in
// the overlay's order. A nil overlay returns a copy of the receiver.
func (s *Sheet) Merge(overlay *Sheet) *Sheet {
	merged := newSheet()
	merged.Path = s.Path
	for _, key := range s.order {
		d := s.directives[key]
		merged.set(d.Key, d.Value, d.Line)
	}
	if overlay == nil {
		return merged
	}
	for _, key := range overlay.order {
		d := overlay.directives[key]
		merged.set(d.Key, d.Value, d.Line)
	}
	return merged
}

// Canonical returns a deterministic serialization of the sheet, with keys
// sorted and comments dropped. Used for content hashing.
func (s *Sheet) Canonical() []byte {
	keys := make([]string, 0, len(s.directives))
	for key := range s.directives {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(" : ")
		b.WriteString(s.directives[key].Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Severity classifies a validation problem.
type Severity int

const (
	// SeverityWarning marks problems that do not block rendering,
	// like directives figkit does not recognize.
	SeverityWarning Severity = iota

	// SeverityError marks directives that violate their declared type
	// or constraint.
	SeverityError
)

// String returns the severity label.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Problem is a single validation finding.
type Problem struct {
	Key      string
	Line     int
	Severity Severity
	Message  string
}

// String formats the problem for display.
func (p Problem) String() string {
	return fmt.Sprintf("line %d: %s: %s (%s)", p.Line, p.Key, p.Message, p.Severity)
}

// Validate checks every directive against the schema. Unknown keys produce
// warnings; recognized keys with invalid values produce errors. Problems
// are returned in file order.
func (s *Sheet) Validate() []Problem {
	var problems []Problem
	for _, key := range s.order {
		d := s.directives[key]
		spec, known := Schema[key]
		if !known {
			problems = append(problems, Problem{
				Key:      key,
				Line:     d.Line,
				Severity: SeverityWarning,
				Message:  "unknown key",
			})
			continue
		}
		if p, ok := checkValue(d, spec); !ok {
			problems = append(problems, p)
		}
	}
	return problems
}

// HasErrors reports whether any problem is an error.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

// checkValue validates a single directive against its key spec.
func checkValue(d Directive, spec KeySpec) (Problem, bool) {
	problem := func(msg string) (Problem, bool) {
		return Problem{Key: d.Key, Line: d.Line, Severity: SeverityError, Message: msg}, false
	}

	switch spec.Kind {
	case KindFloat:
		v, err := strconv.ParseFloat(d.Value, 64)
		if err != nil {
			return problem(fmt.Sprintf("%q is not a number", d.Value))
		}
		switch spec.Constraint {
		case ConstraintNonNegative:
			if v < 0 {
				return problem(fmt.Sprintf("must be non-negative, got %g", v))
			}
		case ConstraintPositive:
			if v <= 0 {
				return problem(fmt.Sprintf("must be positive, got %g", v))
			}
		}

	case KindBool:
		if d.Value != boolTrue && d.Value != boolFalse {
			return problem(fmt.Sprintf("booleans must be exactly %q or %q, got %q", boolTrue, boolFalse, d.Value))
		}

	case KindString:
		if len(spec.Enum) > 0 {
			for _, valid := range spec.Enum {
				if d.Value == valid {
					return Problem{}, true
				}
			}
			return problem(fmt.Sprintf("must be one of: %s", strings.Join(spec.Enum, ", ")))
		}
	}

	return Problem{}, true
}

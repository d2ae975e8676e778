package style

import (
	"bytes"
	_ "embed"
	"sync"
)

// defaultSheet is the style sheet shipped with figkit. It mirrors the
// directives a journal-ready figure setup needs so `figkit style init`
// gives users a complete starting point.
//
//go:embed default.style
var defaultSheet []byte

var (
	defaultOnce   sync.Once
	defaultParsed *Sheet
)

// Default returns the embedded default style sheet.
// The embedded sheet is validated at build time by the package tests,
// so a parse failure here is a packaging bug.
func Default() *Sheet {
	defaultOnce.Do(func() {
		sheet, err := Parse(bytes.NewReader(defaultSheet))
		if err != nil {
			panic("style: embedded default sheet is invalid: " + err.Error())
		}
		defaultParsed = sheet
	})
	return defaultParsed
}

// DefaultText returns the raw text of the embedded default sheet,
// for writing out with `figkit style init`.
func DefaultText() []byte {
	return append([]byte(nil), defaultSheet...)
}

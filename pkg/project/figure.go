package project

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/figkit/figkit/pkg/errors"
)

// Spec is the parsed figure.toml: the canvas and the literal placement
// of every panel. Positions and scales are taken verbatim; figkit never
// computes layout.
type Spec struct {
	Name   string  `toml:"name"`   // Output base name, defaults to the figure directory name
	Width  float64 `toml:"width"`  // Canvas width in Unit
	Height float64 `toml:"height"` // Canvas height in Unit
	Unit   string  `toml:"unit"`   // mm (default), cm, in, or px
	Labels Labels  `toml:"labels"`
	Panels []Panel `toml:"panel"`
}

// Labels carries panel label typography overrides. Zero values inherit
// from the style sheet.
type Labels struct {
	Size      float64 `toml:"size"`      // Font size in points
	Weight    string  `toml:"weight"`    // normal or bold
	Family    string  `toml:"family"`    // Font family
	OffsetX   float64 `toml:"offset_x"`  // Horizontal offset from the panel origin, canvas units
	OffsetY   float64 `toml:"offset_y"`  // Vertical offset from the panel origin, canvas units
	Uppercase bool    `toml:"uppercase"` // Render labels as capitals
}

// Panel places one pre-rendered fragment on the canvas.
type Panel struct {
	Src   string  `toml:"src"`   // Fragment path relative to the figure directory
	X     float64 `toml:"x"`     // Left edge in canvas units
	Y     float64 `toml:"y"`     // Top edge in canvas units
	Scale float64 `toml:"scale"` // Multiplier applied to the fragment, default 1
	Label string  `toml:"label"` // Panel letter, empty for none
}

// LoadSpec reads and validates the figure.toml for a registry figure.
func LoadSpec(fig Figure) (*Spec, error) {
	path := fig.SpecPath()

	var spec Spec
	if _, err := toml.DecodeFile(path, &spec); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound,
				"figure %q has no %s (expected at %s)", fig.ID, SpecName, path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFigure, err, "parsing %s", path)
	}

	spec.applyDefaults(fig)
	if err := spec.validate(fig.ID); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *Spec) applyDefaults(fig Figure) {
	if s.Name == "" {
		s.Name = filepath.Base(fig.Dir)
	}
	if s.Unit == "" {
		s.Unit = "mm"
	}
	for i := range s.Panels {
		if s.Panels[i].Scale == 0 {
			s.Panels[i].Scale = 1
		}
	}
}

func (s *Spec) validate(figID string) error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidFigure,
			"figure %q canvas must be positive, got %gx%g", figID, s.Width, s.Height)
	}
	if err := errors.ValidateUnit(s.Unit); err != nil {
		return err
	}
	if len(s.Panels) == 0 {
		return errors.New(errors.ErrCodeInvalidFigure, "figure %q declares no panels", figID)
	}

	for i, p := range s.Panels {
		if err := errors.ValidatePanelPath(p.Src); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPanel, err, "figure %q panel %d", figID, i+1)
		}
		if p.Scale <= 0 {
			return errors.New(errors.ErrCodeInvalidPanel,
				"figure %q panel %d: scale must be positive, got %g", figID, i+1, p.Scale)
		}
	}

	if s.Labels.Weight != "" && s.Labels.Weight != "normal" && s.Labels.Weight != "bold" {
		return errors.New(errors.ErrCodeInvalidFigure,
			"figure %q: label weight must be normal or bold, got %q", figID, s.Labels.Weight)
	}
	if s.Labels.Size < 0 {
		return errors.New(errors.ErrCodeInvalidFigure,
			"figure %q: label size must be non-negative, got %g", figID, s.Labels.Size)
	}
	return nil
}

// OutputBase returns the output path under the figure's fig/ directory
// for the given extension, e.g. OutputBase(fig, "svg").
func (s *Spec) OutputBase(fig Figure, ext string) string {
	return filepath.Join(fig.OutputDir(), s.Name+"."+ext)
}

// DuplicateLabels returns panel labels that appear more than once, in
// panel order. Duplicates are legal (sub-panels sometimes share a
// letter) but worth a warning.
func (s *Spec) DuplicateLabels() []string {
	counts := make(map[string]int)
	for _, p := range s.Panels {
		if p.Label != "" {
			counts[p.Label]++
		}
	}

	var dups []string
	reported := make(map[string]bool)
	for _, p := range s.Panels {
		if p.Label != "" && counts[p.Label] > 1 && !reported[p.Label] {
			reported[p.Label] = true
			dups = append(dups, p.Label)
		}
	}
	return dups
}

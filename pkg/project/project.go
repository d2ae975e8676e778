// Package project locates and loads figkit project manifests.
//
// A project is a directory tree with a figkit.toml at its root. The
// manifest names the figure registry (id to directory), the sync
// destination, the project style sheet, and converter settings. Figure
// directories follow a fixed convention: panel fragments under panels/,
// composed and converted outputs under fig/, and a figure.toml spec
// describing the canvas and panel placement.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/figkit/figkit/pkg/errors"
)

// ManifestName is the project manifest filename searched for upward
// from the working directory.
const ManifestName = "figkit.toml"

// Figure directory convention.
const (
	// PanelsDirName holds pre-rendered panel fragments.
	PanelsDirName = "panels"

	// OutputDirName holds composed SVGs and converted PDF/PNG outputs.
	OutputDirName = "fig"

	// SpecName is the per-figure layout description.
	SpecName = "figure.toml"
)

// ConvertConfig carries converter settings from the manifest.
type ConvertConfig struct {
	DPI        float64 `toml:"dpi"`        // Raster export resolution, default 250
	Background string  `toml:"background"` // Raster background, empty inherits savefig.facecolor
	PDF        bool    `toml:"pdf"`        // Produce PDFs, default true
	PNG        bool    `toml:"png"`        // Produce PNGs, default true
	Tool       string  `toml:"tool"`       // Converter backend: inkscape or rsvg
}

// Manifest is the parsed figkit.toml.
type Manifest struct {
	Root    string            `toml:"root"`    // Project root, relative to the manifest dir
	Remote  string            `toml:"remote"`  // Sync destination directory
	Style   string            `toml:"style"`   // Project style sheet, empty uses the built-in default
	Figures map[string]string `toml:"figures"` // Figure id -> directory relative to root
	Convert ConvertConfig     `toml:"convert"`

	dir string // directory containing the manifest
}

// Figure is one registry entry resolved against the project root.
type Figure struct {
	ID  string // Registry identifier
	Dir string // Absolute figure directory
}

// PanelsDir returns the fragment source directory.
func (f Figure) PanelsDir() string {
	return filepath.Join(f.Dir, PanelsDirName)
}

// OutputDir returns the composed/converted output directory.
func (f Figure) OutputDir() string {
	return filepath.Join(f.Dir, OutputDirName)
}

// SpecPath returns the figure.toml location.
func (f Figure) SpecPath() string {
	return filepath.Join(f.Dir, SpecName)
}

// Find walks upward from start looking for a manifest, the way the Go
// toolchain finds go.mod. Returns the manifest path.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolving %s", start)
	}

	for {
		candidate := filepath.Join(dir, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.ErrCodeNotFound,
				"no %s found in %s or any parent directory", ManifestName, start)
		}
		dir = parent
	}
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "manifest not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolving %s", path)
	}
	m.dir = filepath.Dir(abs)
	m.applyDefaults(md)

	if err := m.validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid manifest %s", path)
	}
	return &m, nil
}

// FindAndLoad locates the manifest upward from start and loads it.
func FindAndLoad(start string) (*Manifest, error) {
	path, err := Find(start)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// applyDefaults fills unset fields. The TOML metadata distinguishes a
// false the user wrote from a bool they never mentioned.
func (m *Manifest) applyDefaults(md toml.MetaData) {
	if m.Convert.DPI == 0 {
		m.Convert.DPI = 250
	}
	if m.Convert.Tool == "" {
		m.Convert.Tool = "inkscape"
	}
	if !md.IsDefined("convert", "pdf") {
		m.Convert.PDF = true
	}
	if !md.IsDefined("convert", "png") {
		m.Convert.PNG = true
	}
}

func (m *Manifest) validate() error {
	for id, dir := range m.Figures {
		if err := errors.ValidateFigureID(id); err != nil {
			return err
		}
		if dir == "" {
			return errors.New(errors.ErrCodeInvalidManifest, "figure %q has an empty directory", id)
		}
		if strings.Contains(dir, "..") {
			return errors.New(errors.ErrCodeInvalidManifest,
				"figure %q directory must stay inside the project: %s", id, dir)
		}
	}

	if m.Convert.Tool != "inkscape" && m.Convert.Tool != "rsvg" {
		return errors.New(errors.ErrCodeInvalidManifest,
			"unknown converter tool %q (valid: inkscape, rsvg)", m.Convert.Tool)
	}
	if err := errors.ValidateDPI(m.Convert.DPI); err != nil {
		return err
	}
	if m.Convert.Background != "" {
		if err := errors.ValidateColor(m.Convert.Background); err != nil {
			return err
		}
	}
	return nil
}

// RootDir returns the absolute project root.
func (m *Manifest) RootDir() string {
	if m.Root == "" {
		return m.dir
	}
	if filepath.IsAbs(m.Root) {
		return m.Root
	}
	return filepath.Join(m.dir, m.Root)
}

// StylePath returns the absolute style sheet path, or empty when the
// manifest does not name one.
func (m *Manifest) StylePath() string {
	if m.Style == "" {
		return ""
	}
	if filepath.IsAbs(m.Style) {
		return m.Style
	}
	return filepath.Join(m.RootDir(), m.Style)
}

// RemoteDir returns the absolute sync destination, or empty when the
// manifest does not name one.
func (m *Manifest) RemoteDir() string {
	if m.Remote == "" {
		return ""
	}
	if filepath.IsAbs(m.Remote) {
		return m.Remote
	}
	return filepath.Join(m.RootDir(), m.Remote)
}

// Figure resolves a registry id. Unknown ids fail with the known ids
// listed so a typo is a one-glance fix.
func (m *Manifest) Figure(id string) (Figure, error) {
	dir, ok := m.Figures[id]
	if !ok {
		known := m.IDs()
		if len(known) == 0 {
			return Figure{}, errors.New(errors.ErrCodeFigureNotFound,
				"unknown figure %q (the manifest registers no figures)", id)
		}
		return Figure{}, errors.New(errors.ErrCodeFigureNotFound,
			"unknown figure %q (known: %s)", id, strings.Join(known, ", "))
	}
	return Figure{ID: id, Dir: filepath.Join(m.RootDir(), dir)}, nil
}

// AllFigures returns every registered figure sorted by id.
func (m *Manifest) AllFigures() []Figure {
	figures := make([]Figure, 0, len(m.Figures))
	for _, id := range m.IDs() {
		figures = append(figures, Figure{ID: id, Dir: filepath.Join(m.RootDir(), m.Figures[id])})
	}
	return figures
}

// IDs returns the registered figure ids in sorted order.
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.Figures))
	for id := range m.Figures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve returns the figures named by id, or all registered figures
// when id is empty. This is the argument convention every figure
// command shares: one id or nothing.
func (m *Manifest) Resolve(id string) ([]Figure, error) {
	if id == "" {
		return m.AllFigures(), nil
	}
	fig, err := m.Figure(id)
	if err != nil {
		return nil, err
	}
	return []Figure{fig}, nil
}

package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/buildinfo"
	"github.com/figkit/figkit/pkg/cache"
	"github.com/figkit/figkit/pkg/observability"
	"github.com/figkit/figkit/pkg/pipeline"
	"github.com/figkit/figkit/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "figkit"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ProjectPath overrides manifest discovery when --project is set.
	ProjectPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "figkit",
		Short:        "Figkit assembles publication figures from pre-rendered panels",
		Long:         `Figkit is a CLI tool for assembling publication figures: it places pre-rendered panel fragments onto a shared canvas, converts the composed figure to print formats with an external vector tool, and delivers the outputs into the manuscript directory.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.ProjectPath, "project", "",
		"project manifest or directory (default: nearest figkit.toml)")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		observability.SetPipelineHooks(stageHooks{})
		observability.SetCacheHooks(cacheLogHooks{})
		observability.SetToolHooks(toolLogHooks{})
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.styleCommand())
	root.AddCommand(c.figuresCommand())
	root.AddCommand(c.mapCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are
// scoped to the project root so entries from different projects stay
// apart.
func (c *CLI) newRunner(proj *project.Manifest, noCache bool) (*pipeline.Runner, error) {
	backend, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, "proj:"+cache.Hash([]byte(proj.RootDir()))[:12]+":")
	return pipeline.NewRunner(backend, keyer, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/figkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Project Loading
// =============================================================================

// loadProject resolves the manifest: the --project flag when given,
// otherwise the nearest figkit.toml at or above the working directory.
func (c *CLI) loadProject() (*project.Manifest, error) {
	if c.ProjectPath != "" {
		if info, err := os.Stat(c.ProjectPath); err == nil && info.IsDir() {
			return project.FindAndLoad(c.ProjectPath)
		}
		return project.Load(c.ProjectPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return project.FindAndLoad(wd)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
// Empty means the manifest's convert toggles decide.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

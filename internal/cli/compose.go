package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/pipeline"
)

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		stylePath string
		force     bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "compose [figure]",
		Short: "Compose panel fragments into the figure SVG",
		Long: `Compose panel fragments into the figure SVG.

Each figure directory holds a figure.toml spec naming pre-rendered
fragments under panels/ with their canvas position, scale, and label.
Compose places them literally, no layout is computed, and writes the
assembled document to <figure>/fig/<name>.svg.

With no argument every registered figure is composed, in manifest order.
Figures run sequentially; the first failure aborts the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd.Context(), optionalArg(args), stylePath, force, noCache)
		},
	}

	cmd.Flags().StringVar(&stylePath, "style", "", "style sheet overriding the project sheet")
	cmd.Flags().BoolVar(&force, "force", false, "recompose even when the document is unchanged")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runCompose composes one figure, or all of them.
func (c *CLI) runCompose(ctx context.Context, figureID, stylePath string, force, noCache bool) error {
	proj, err := c.loadProject()
	if err != nil {
		return err
	}
	figs, err := proj.Resolve(figureID)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(proj, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		StylePath: stylePath,
		Refresh:   force,
		Logger:    c.Logger,
	}

	prog := newProgress(c.Logger)
	for _, fig := range figs {
		res, err := runner.ComposeFigure(ctx, proj, fig, opts)
		if err != nil {
			return fmt.Errorf("compose %s: %w", fig.ID, err)
		}
		printSuccess("Composed %s", StyleHighlight.Render(fig.ID))
		printFile(res.SVGPath)
		printStats(res.Stats.PanelCount, 0, res.CacheInfo.ComposeHit)
	}
	prog.done(fmt.Sprintf("Composed %d figure(s)", len(figs)))

	printNewline()
	next := "figkit convert"
	if figureID != "" {
		next += " " + figureID
	}
	printNextStep("Convert to print formats", next)
	return nil
}

// optionalArg extracts a command's single optional positional argument.
func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

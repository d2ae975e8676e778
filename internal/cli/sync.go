package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/pipeline"
)

// syncCommand creates the sync command.
func (c *CLI) syncCommand() *cobra.Command {
	var (
		dryRun  bool
		force   bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "sync [figure]",
		Short: "Convert figures and copy the outputs into the manuscript directory",
		Long: `Convert figures and copy the outputs into the manuscript directory.

Sync runs the full pipeline: compose the figure, convert it to the
manifest's print formats, then copy every PDF and PNG under the
figure's fig/ directory into the manifest's remote directory,
overwriting what is there. Each delivery is recorded in a receipt so
'figkit status' can tell what is out of date.

With no argument every registered figure is delivered. --dry-run shows
the copies without performing them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd.Context(), optionalArg(args), dryRun, force, noCache)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list deliveries without copying")
	cmd.Flags().BoolVar(&force, "force", false, "reconvert even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runSync runs the full pipeline with delivery for one figure, or all.
func (c *CLI) runSync(ctx context.Context, figureID string, dryRun, force, noCache bool) error {
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
		Sync:    true,
		DryRun:  dryRun,
		Refresh: force,
		Logger:  c.Logger,
	}

	prog := newProgress(c.Logger)
	delivered := 0
	for _, fig := range figs {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Delivering %s...", fig.ID))
		spinner.Start()

		res, err := runner.Execute(ctx, proj, fig, opts)
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("Delivery of %s failed", fig.ID))
			return fmt.Errorf("sync %s: %w", fig.ID, err)
		}
		spinner.Stop()

		if dryRun {
			printInfo("Would deliver %s", StyleHighlight.Render(fig.ID))
		} else {
			printSuccess("Delivered %s", StyleHighlight.Render(fig.ID))
		}
		for _, f := range res.Synced {
			printFile(f.Dest)
		}
		if len(res.Synced) == 0 {
			printDetail("nothing to deliver, convert produced no outputs")
		}
		delivered += len(res.Synced)
	}

	if dryRun {
		printNewline()
		printWarning("Dry run: %d file(s) would be copied to %s", delivered, proj.RemoteDir())
		return nil
	}
	prog.done(fmt.Sprintf("Delivered %d file(s)", delivered))
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/preview"
)

// previewCommand creates the preview server command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		addr      string
		stylePath string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve composed figures over HTTP for live preview",
		Long: `Serve composed figures over HTTP for live preview.

Figures are recomposed from disk on every request, so edits to panels,
specs, and the style sheet show up on the next refresh. The index lists
every figure; each figure page embeds the live SVG, and a PNG proof is
served at /figs/<id>.png.

The manifest is read once at startup. Re-run preview after changing the
figure registry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPreview(cmd.Context(), addr, stylePath, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8676", "listen address")
	cmd.Flags().StringVar(&stylePath, "style", "", "style sheet overriding the project sheet")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runPreview starts the preview server and blocks until ctx ends.
func (c *CLI) runPreview(ctx context.Context, addr, stylePath string, noCache bool) error {
	proj, err := c.loadProject()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(proj, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := preview.NewServer(proj, runner, c.Logger, preview.Options{StylePath: stylePath})

	printInfo("Previewing %d figure(s) from %s", len(proj.IDs()), proj.RootDir())
	printKeyValue("Listening", StyleLink.Render("http://"+addr))
	printDetail("Ctrl+C stops the server")

	return srv.ListenAndServe(ctx, addr)
}

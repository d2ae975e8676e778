package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/assetmap"
)

// mapValidFormats lists the asset map output formats.
var mapValidFormats = map[string]bool{
	"dot": true,
	"svg": true,
	"png": true,
}

// mapCommand creates the asset map command.
func (c *CLI) mapCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render the project asset map",
		Long: `Render the project asset map.

The map is a graph of the project's assets: the panel fragments feeding
each figure and the outputs composed from it. Broken figure specs and
missing fragments are flagged in the drawing, which makes the map a
quick audit of what the next sync would actually deliver.

Formats: dot writes Graphviz source, svg and png render it in-process
(no Graphviz installation needed). Use -o - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !mapValidFormats[format] {
				return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png)", format)
			}
			return c.runMap(cmd.Context(), format, output, detailed)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, png, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default assets.<format>, - for stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include positions, scales, and counts")

	return cmd
}

// runMap builds the asset graph and writes it in the chosen format.
func (c *CLI) runMap(ctx context.Context, format, output string, detailed bool) error {
	proj, err := c.loadProject()
	if err != nil {
		return err
	}

	m := assetmap.Build(proj)
	dot := assetmap.ToDOT(m, assetmap.Options{Detailed: detailed})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg", "png":
		spinner := newSpinnerWithContext(ctx, "Rendering asset map...")
		spinner.Start()
		if format == "svg" {
			data, err = assetmap.RenderSVG(ctx, dot)
		} else {
			data, err = assetmap.RenderPNG(ctx, dot)
		}
		if err != nil {
			spinner.StopWithError("Asset map rendering failed")
			return fmt.Errorf("render map: %w", err)
		}
		spinner.Stop()
	}

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = "assets." + format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Mapped %d figure(s)", len(m.Figures))
	printFile(output)
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/convert"
	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/pipeline"
	"github.com/figkit/figkit/pkg/project"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		formatsStr string
		dpi        float64
		background string
		dir        string
		force      bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "convert [figure]",
		Short: "Convert composed figures to print formats",
		Long: `Convert composed figures to print formats.

The composed SVG is handed to the external vector tool named by the
manifest (inkscape by default) to produce PDF and PNG. The figure is
recomposed first, so the conversion always reflects the current panels.
When the tool fails its message is passed through untouched; nothing is
retried.

With no argument every registered figure is converted. Which formats
are produced follows the manifest's [convert] toggles unless --format
names them explicitly.

--dir skips composition and converts every SVG already present in the
named directory, for outputs produced outside the figure registry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			if dir != "" && len(args) > 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--dir cannot be combined with a figure id")
			}
			return c.runConvert(cmd.Context(), optionalArg(args), convertParams{
				formats:    formats,
				dpi:        dpi,
				background: background,
				dir:        dir,
				force:      force,
				noCache:    noCache,
			})
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): pdf, png (comma-separated, default follows the manifest)")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "raster resolution, overrides the manifest")
	cmd.Flags().StringVar(&background, "background", "", "export background color, overrides the manifest")
	cmd.Flags().StringVar(&dir, "dir", "", "convert every SVG in a directory instead of a figure")
	cmd.Flags().BoolVar(&force, "force", false, "reconvert even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// convertParams carries the convert command's flag values.
type convertParams struct {
	formats    []string // explicit formats, nil follows the manifest
	dpi        float64  // raster resolution, 0 follows the manifest
	background string   // export background, empty follows the manifest
	dir        string   // bare directory mode, empty converts figures
	force      bool     // bypass cached artifacts
	noCache    bool     // disable the cache entirely
}

// runConvert composes and converts one figure, or all of them.
func (c *CLI) runConvert(ctx context.Context, figureID string, p convertParams) error {
	proj, err := c.loadProject()
	if err != nil {
		return err
	}
	if p.dpi != 0 {
		if err := errors.ValidateDPI(p.dpi); err != nil {
			return err
		}
		proj.Convert.DPI = p.dpi
	}
	if p.background != "" {
		if err := errors.ValidateColor(p.background); err != nil {
			return err
		}
		proj.Convert.Background = p.background
	}

	if p.dir != "" {
		return c.convertDir(ctx, proj, p)
	}

	figs, err := proj.Resolve(figureID)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(proj, p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Formats: p.formats,
		Refresh: p.force,
		Logger:  c.Logger,
	}

	for _, fig := range figs {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", fig.ID))
		spinner.Start()

		res, err := runner.Execute(ctx, proj, fig, opts)
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("Conversion of %s failed", fig.ID))
			return fmt.Errorf("convert %s: %w", fig.ID, err)
		}
		spinner.Stop()

		printSuccess("Converted %s", StyleHighlight.Render(fig.ID))
		printFile(res.SVGPath)
		for _, format := range []string{pipeline.FormatPDF, pipeline.FormatPNG} {
			if path, ok := res.Artifacts[format]; ok {
				printFile(path)
			}
		}
		printStats(res.Stats.PanelCount, len(res.Artifacts), res.CacheInfo.ConvertHit)
	}
	return nil
}

// convertDir converts whatever is in a directory without going through
// a figure spec. Every .svg gets a PDF and every eligible file gets a
// PNG, uncached.
func (c *CLI) convertDir(ctx context.Context, proj *project.Manifest, p convertParams) error {
	conv, err := convert.Detect(ctx, proj.Convert.Tool)
	if err != nil {
		return err
	}

	wantPDF, wantPNG := proj.Convert.PDF, proj.Convert.PNG
	if len(p.formats) > 0 {
		wantPDF, wantPNG = false, false
		for _, format := range p.formats {
			switch format {
			case pipeline.FormatPDF:
				wantPDF = true
			case pipeline.FormatPNG:
				wantPNG = true
			}
		}
	}

	copts := convert.Options{
		DPI:        proj.Convert.DPI,
		Background: proj.Convert.Background,
	}

	var outs []string
	if wantPDF || (wantPNG && conv.PNGSource() == "pdf") {
		pdfs, err := convert.PDFAll(ctx, conv, p.dir, copts)
		if err != nil {
			return fmt.Errorf("convert %s: %w", p.dir, err)
		}
		outs = append(outs, pdfs...)
	}
	if wantPNG {
		pngs, err := convert.PNGAll(ctx, conv, p.dir, copts)
		if err != nil {
			return fmt.Errorf("convert %s: %w", p.dir, err)
		}
		outs = append(outs, pngs...)
	}

	if len(outs) == 0 {
		c.Logger.Debug("nothing to convert", "dir", p.dir)
		printWarning("No convertible files in %s", p.dir)
		return nil
	}

	printSuccess("Converted %s", StyleHighlight.Render(p.dir))
	for _, out := range outs {
		printFile(out)
	}
	return nil
}

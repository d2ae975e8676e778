package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/style"
)

// styleCommand creates the style sheet management command.
func (c *CLI) styleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Validate, print, or scaffold the project style sheet",
	}

	cmd.AddCommand(c.styleCheckCommand())
	cmd.AddCommand(c.styleShowCommand())
	cmd.AddCommand(c.styleInitCommand())

	return cmd
}

// =============================================================================
// style check
// =============================================================================

// styleCheckCommand creates the "style check" subcommand.
func (c *CLI) styleCheckCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a style sheet against the schema",
		Long: `Validate a style sheet against the schema.

Without an argument the project sheet named by the manifest is checked.
Unknown keys are warnings; recognized keys whose values violate their
declared type or constraint are errors. Line numbers point into the
checked file. --strict fails the check on warnings too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStyleCheck(optionalArg(args), strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

// runStyleCheck validates one sheet and reports its problems.
func (c *CLI) runStyleCheck(path string, strict bool) error {
	resolved, err := c.resolveSheetPath(path)
	if err != nil {
		return err
	}
	if resolved == "" {
		printInfo("No project style sheet, the built-in defaults apply")
		return nil
	}

	sheet, err := style.Load(resolved)
	if err != nil {
		return err
	}

	problems := sheet.Validate()
	if len(problems) == 0 {
		printSuccess("%s is valid (%d directives)", resolved, sheet.Len())
		return nil
	}

	for _, p := range problems {
		if p.Severity == style.SeverityError {
			printError("%s", p)
		} else {
			printWarning("%s", p)
		}
	}

	if style.HasErrors(problems) || (strict && len(problems) > 0) {
		return errors.New(errors.ErrCodeInvalidStyle,
			"%d problem(s) in %s", len(problems), resolved)
	}
	printDetail("%d warning(s), rendering is unaffected", len(problems))
	return nil
}

// resolveSheetPath picks the sheet to operate on: the explicit argument
// when given, otherwise the manifest's style entry.
func (c *CLI) resolveSheetPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	proj, err := c.loadProject()
	if err != nil {
		return "", err
	}
	return proj.StylePath(), nil
}

// =============================================================================
// style show
// =============================================================================

// styleShowCommand creates the "style show" subcommand.
func (c *CLI) styleShowCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Print the resolved style sheet",
		Long: `Print the resolved style sheet.

The sheet is shown as composition sees it: the built-in defaults merged
with the project sheet (or the named file). Directives the sheet sets
itself are highlighted; inherited defaults are dimmed. --raw prints the
canonical key : value form for piping.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStyleShow(optionalArg(args), raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print canonical key : value lines")
	return cmd
}

// runStyleShow prints the merged sheet grouped by schema section.
func (c *CLI) runStyleShow(path string, raw bool) error {
	resolved, err := c.resolveSheetPath(path)
	if err != nil {
		return err
	}

	merged := style.Default()
	var overlay *style.Sheet
	if resolved != "" {
		overlay, err = style.Load(resolved)
		if err != nil {
			return err
		}
		merged = merged.Merge(overlay)
	}

	if raw {
		os.Stdout.Write(merged.Canonical())
		return nil
	}

	source := "built-in defaults"
	if resolved != "" {
		source = resolved
	}
	fmt.Println(StyleTitle.Render("Style sheet") + " " + StyleDim.Render("("+source+")"))
	printNewline()

	for _, group := range style.Groups {
		fmt.Println(StyleHighlight.Render(group))
		for _, key := range style.GroupKeys(group) {
			d, ok := merged.Get(key)
			if !ok {
				continue
			}
			line := fmt.Sprintf("  %-28s %s", key, d.Value)
			if overlay != nil && overlay.Has(key) {
				fmt.Println(StyleValue.Render(line))
			} else {
				fmt.Println(StyleDim.Render(line))
			}
		}
	}

	// Keys outside the schema still merge and render; list them so a
	// typo is visible.
	var unknown []string
	for _, key := range merged.Keys() {
		if _, known := style.Schema[key]; !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		printNewline()
		fmt.Println(StyleWarning.Render("unrecognized"))
		for _, key := range unknown {
			d, _ := merged.Get(key)
			fmt.Println(StyleWarning.Render(fmt.Sprintf("  %-28s %s", key, d.Value)))
		}
	}
	return nil
}

// =============================================================================
// style init
// =============================================================================

// styleInitCommand creates the "style init" subcommand.
func (c *CLI) styleInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default style sheet to a file",
		Long: `Write the default style sheet to a file.

The written sheet lists every directive figkit understands with its
default value, ready to edit. Without an argument the file named by the
manifest's style entry is written, falling back to paper.style in the
working directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStyleInit(optionalArg(args), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// runStyleInit writes the default sheet.
func (c *CLI) runStyleInit(path string, force bool) error {
	target := path
	if target == "" {
		if proj, err := c.loadProject(); err == nil && proj.StylePath() != "" {
			target = proj.StylePath()
		} else {
			target = "paper.style"
		}
	}

	if _, err := os.Stat(target); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidInput,
			"%s already exists (use --force to overwrite)", target)
	}

	if err := os.WriteFile(target, style.DefaultText(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing %s", target)
	}

	printSuccess("Wrote %s", target)
	printNextStep("Validate your edits", "figkit style check "+target)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/distribute"
	"github.com/figkit/figkit/pkg/project"
)

// Output state markers shown in the status table.
const (
	markPresent = "✓"
	markStale   = "stale"
	markMissing = "—"
)

// statusCommand creates the status command.
func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show output and delivery state for every figure",
		Long: `Show output and delivery state for every figure.

For each registered figure the table lists its panel count, whether the
composed SVG and converted PDF/PNG exist, and when the figure was last
delivered to the manuscript directory. An output is marked stale when a
panel fragment, the figure spec, or the style sheet changed after it
was written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

// figureStatus is one row of the status table.
type figureStatus struct {
	ID        string
	Name      string
	Panels    int
	SVG       string
	PDF       string
	PNG       string
	Delivered string
	Err       string // non-empty when the figure spec is unreadable
}

// runStatus prints the status table.
func (c *CLI) runStatus(ctx context.Context) error {
	proj, err := c.loadProject()
	if err != nil {
		return err
	}

	// Receipts are optional context; a missing store degrades to "—".
	var receipts *distribute.ReceiptStore
	if store, err := distribute.NewReceiptStore(""); err == nil {
		receipts = store
	}

	rows := buildStatusRows(ctx, proj, receipts)

	fmt.Println(StyleTitle.Render("Figures in " + proj.RootDir()))
	fmt.Println(renderStatusTable(rows))

	if remote := proj.RemoteDir(); remote != "" {
		printKeyValue("Remote", remote)
	}
	if sheet := proj.StylePath(); sheet != "" {
		printKeyValue("Style", sheet)
	}
	return nil
}

// buildStatusRows inspects every registered figure.
func buildStatusRows(ctx context.Context, proj *project.Manifest, receipts *distribute.ReceiptStore) []figureStatus {
	var rows []figureStatus
	for _, fig := range proj.AllFigures() {
		row := figureStatus{
			ID:        fig.ID,
			SVG:       markMissing,
			PDF:       markMissing,
			PNG:       markMissing,
			Delivered: markMissing,
		}

		spec, err := project.LoadSpec(fig)
		if err != nil {
			row.Err = err.Error()
			rows = append(rows, row)
			continue
		}
		row.Name = spec.Name
		row.Panels = len(spec.Panels)

		inputs := newestInput(proj, fig, spec)
		row.SVG = outputMark(spec.OutputBase(fig, "svg"), inputs)
		row.PDF = outputMark(spec.OutputBase(fig, "pdf"), inputs)
		row.PNG = outputMark(spec.OutputBase(fig, "png"), inputs)

		if receipts != nil {
			if r, err := receipts.Latest(ctx, fig.ID); err == nil && r != nil {
				row.Delivered = formatRelativeTime(r.CreatedAt)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// newestInput returns the most recent modification time among the
// figure spec, its panel fragments, and the project style sheet.
func newestInput(proj *project.Manifest, fig project.Figure, spec *project.Spec) time.Time {
	var newest time.Time
	consider := func(path string) {
		if info, err := os.Stat(path); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}

	consider(fig.SpecPath())
	for _, p := range spec.Panels {
		consider(filepath.Join(fig.Dir, p.Src))
	}
	if sheet := proj.StylePath(); sheet != "" {
		consider(sheet)
	}
	return newest
}

// outputMark classifies one output file against the input times.
func outputMark(path string, newestInput time.Time) string {
	info, err := os.Stat(path)
	if err != nil {
		return markMissing
	}
	if info.ModTime().Before(newestInput) {
		return markStale
	}
	return markPresent
}

// renderStatusTable lays the rows out as a bordered table.
func renderStatusTable(rows []figureStatus) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.Err != "" {
			data = append(data, []string{r.ID, "(unreadable spec)", "", "", "", "", ""})
			continue
		}
		data = append(data, []string{
			r.ID, r.Name, fmt.Sprintf("%d", r.Panels), r.SVG, r.PDF, r.PNG, r.Delivered,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Figure", "Panels", "SVG", "PDF", "PNG", "Delivered").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(rows) {
				return lipgloss.NewStyle()
			}
			if rows[row].Err != "" {
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			if col >= 3 && col <= 5 {
				switch data[row][col] {
				case markPresent:
					return lipgloss.NewStyle().Foreground(colorGreen)
				case markStale:
					return lipgloss.NewStyle().Foreground(colorYellow)
				default:
					return lipgloss.NewStyle().Foreground(colorDim)
				}
			}
			if col == 6 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

// formatRelativeTime renders t relative to now for recent times, and as
// a date for older ones.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

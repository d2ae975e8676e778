package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/figkit/figkit/pkg/distribute"
	"github.com/figkit/figkit/pkg/project"
)

// List styles
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// figuresCommand creates the figures browser command.
func (c *CLI) figuresCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Browse the figure registry",
		Long: `Browse the figure registry.

Opens an interactive list of every registered figure with its panel
count and output state. Selecting a figure prints its directory,
outputs, and delivery state. --plain prints a one-line-per-figure
listing instead, for scripts and non-interactive terminals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runFigures(cmd.Context(), plain)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a non-interactive listing")
	return cmd
}

// runFigures lists figures, interactively or as plain text.
func (c *CLI) runFigures(ctx context.Context, plain bool) error {
	proj, err := c.loadProject()
	if err != nil {
		return err
	}

	var receipts *distribute.ReceiptStore
	if store, err := distribute.NewReceiptStore(""); err == nil {
		receipts = store
	}
	rows := buildStatusRows(ctx, proj, receipts)

	if plain {
		for _, r := range rows {
			if r.Err != "" {
				fmt.Printf("%s\t(unreadable spec)\n", r.ID)
				continue
			}
			fmt.Printf("%s\t%s\t%d panels\n", r.ID, r.Name, r.Panels)
		}
		return nil
	}

	final, err := tea.NewProgram(NewFigureListModel(rows)).Run()
	if err != nil {
		return fmt.Errorf("figure browser: %w", err)
	}
	model, ok := final.(FigureListModel)
	if !ok || model.Selected == nil {
		return nil
	}
	return c.printFigureDetail(proj, *model.Selected)
}

// printFigureDetail shows one figure after interactive selection.
func (c *CLI) printFigureDetail(proj *project.Manifest, row figureStatus) error {
	fig, err := proj.Figure(row.ID)
	if err != nil {
		return err
	}

	printNewline()
	printKeyValue("Figure", row.ID)
	printKeyValue("Directory", fig.Dir)
	if row.Err != "" {
		printError("%s", row.Err)
		return nil
	}
	printKeyValue("Name", row.Name)
	printKeyValue("Panels", fmt.Sprintf("%d", row.Panels))
	printKeyValue("Delivered", row.Delivered)

	outputs, _ := filepath.Glob(filepath.Join(fig.OutputDir(), "*"))
	for _, out := range outputs {
		printFile(out)
	}

	printNewline()
	printNextStep("Rebuild and deliver", "figkit sync "+row.ID)
	return nil
}

// =============================================================================
// FigureListModel - Interactive figure browser
// =============================================================================

// FigureListModel is the bubbletea model for the figure browser.
type FigureListModel struct {
	Figures  []figureStatus
	Cursor   int
	Selected *figureStatus
	Height   int
	Offset   int
}

// NewFigureListModel creates a new figure list model.
func NewFigureListModel(figures []figureStatus) FigureListModel {
	return FigureListModel{
		Figures: figures,
		Height:  15,
	}
}

func (m FigureListModel) Init() tea.Cmd {
	return nil
}

func (m FigureListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Figures)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Figures) == 0 {
				return m, tea.Quit
			}
			row := m.Figures[m.Cursor]
			m.Selected = &row
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FigureListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Figures"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Figures) {
		end = len(m.Figures)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Figures[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		if r.Err != "" {
			rows = append(rows, []string{cursor, r.ID, "(unreadable spec)", "", "", "", ""})
			continue
		}
		rows = append(rows, []string{
			cursor, r.ID, r.Name, fmt.Sprintf("%d", r.Panels), r.SVG, r.PDF, r.PNG,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Figure", "Panels", "SVG", "PDF", "PNG").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Figures) {
				return lipgloss.NewStyle()
			}
			r := m.Figures[actualIdx]
			isCurrent := actualIdx == m.Cursor

			if r.Err != "" {
				if isCurrent {
					return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
				}
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			if isCurrent {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col >= 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Figures))))

	return b.String()
}

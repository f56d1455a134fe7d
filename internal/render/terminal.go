package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Terminal draws a styled table for interactive terminals.
type Terminal struct{}

// Render implements Renderer.
func (Terminal) Render(w io.Writer, t *Table) error {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row int, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if t.alignment(col) == AlignRight {
				return cellStyle.Align(lipgloss.Right)
			}

			return cellStyle
		}).
		Headers(t.Header...).
		Rows(t.Rows...)

	out := tbl.Render() + "\n"
	if len(t.Rows) == 0 {
		out += EmptyMarker + "\n"
	}

	_, err := io.WriteString(w, out)
	if err != nil {
		return fmt.Errorf("Failed to write terminal table: %w", err)
	}

	return nil
}

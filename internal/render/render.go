// Package render draws tabular results for the shortcut policies.
//
// Renderers work on a presentation Table: every cell is already formatted as text and every
// column carries its alignment, so renderers never need to know where the values came from.
package render

import (
	"io"
)

// Align is the horizontal alignment of a column.
type Align int

const (
	// AlignLeft is used for text columns.
	AlignLeft Align = iota

	// AlignRight is used for numeric columns.
	AlignRight
)

// EmptyMarker is printed in place of the data rows when a table has none.
const EmptyMarker = "(0 rows)"

// Table is a fully formatted table ready to be drawn.
type Table struct {
	Header []string
	Align  []Align
	Rows   [][]string
}

// Renderer draws a table to a writer.
type Renderer interface {
	Render(w io.Writer, t *Table) error
}

// alignment returns the alignment of column i, defaulting to left.
func (t *Table) alignment(i int) Align {
	if i < len(t.Align) {
		return t.Align[i]
	}

	return AlignLeft
}

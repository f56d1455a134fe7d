package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Text draws a bordered fixed-width table with `|` separated columns.
type Text struct{}

// Render implements Renderer.
func (Text) Render(w io.Writer, t *Table) error {
	// tablewriter swallows write errors, so draw into a buffer first.
	buf := &bytes.Buffer{}

	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(t.Header)

	aligns := make([]int, len(t.Header))
	for i := range aligns {
		aligns[i] = tablewriter.ALIGN_LEFT
		if t.alignment(i) == AlignRight {
			aligns[i] = tablewriter.ALIGN_RIGHT
		}
	}

	table.SetColumnAlignment(aligns)
	table.AppendBulk(t.Rows)
	table.Render()

	if len(t.Rows) == 0 {
		buf.WriteString(EmptyMarker + "\n")
	}

	_, err := w.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("Failed to write text table: %w", err)
	}

	return nil
}

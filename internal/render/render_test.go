package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func employees() *Table {
	return &Table{
		Header: []string{"id", "name"},
		Align:  []Align{AlignRight, AlignLeft},
		Rows: [][]string{
			{"1", "Alice"},
			{"10", "Bob"},
		},
	}
}

func TestTextRender(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Text{}.Render(buf, employees())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "| id | name  |", lines[1])
	assert.Equal(t, "|  1 | Alice |", lines[3])
	assert.Equal(t, "| 10 | Bob   |", lines[4])
	assert.NotContains(t, buf.String(), EmptyMarker)
}

func TestTextRenderHeaderOnly(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Text{}.Render(buf, &Table{Header: []string{"dep_id", "dep_name"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "| dep_id | dep_name |")
	assert.True(t, strings.HasSuffix(out, EmptyMarker+"\n"))
}

func TestTextRenderWriteError(t *testing.T) {
	err := Text{}.Render(failingWriter{}, employees())
	assert.Error(t, err)
}

func TestHTMLRender(t *testing.T) {
	tbl := employees()
	tbl.Rows = append(tbl.Rows, []string{"11", "<script>"})

	buf := &bytes.Buffer{}
	err := HTML{}.Render(buf, tbl)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<th>id</th><th>name</th>")
	assert.Contains(t, out, `<td class="num">10</td><td>Bob</td>`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, EmptyMarker)
	assert.Equal(t, 3, strings.Count(out, "<tr><td"))
}

func TestHTMLRenderText(t *testing.T) {
	buf := &bytes.Buffer{}
	err := HTML{}.RenderText(buf, "| a<b |\n")
	require.NoError(t, err)
	assert.Equal(t, "<pre class=\"sqlmagic\">| a&lt;b |\n</pre>\n", buf.String())

	err = HTML{}.RenderText(failingWriter{}, "text")
	assert.Error(t, err)
}

func TestHTMLRenderEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	err := HTML{}.Render(buf, &Table{Header: []string{"id"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<p>"+EmptyMarker+"</p>")
}

func TestTerminalRender(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Terminal{}.Render(buf, employees())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "name")
	assert.Less(t, strings.Index(out, "Alice"), strings.Index(out, "Bob"))

	err = Terminal{}.Render(failingWriter{}, employees())
	assert.Error(t, err)
}

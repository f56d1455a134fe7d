package render

import (
	"fmt"
	"html/template"
	"io"
)

var htmlTable = template.Must(template.New("table").Funcs(template.FuncMap{
	"right": func(t *Table, i int) bool { return t.alignment(i) == AlignRight },
}).Parse(`<table class="sqlmagic">
<thead>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- $t := . }}
{{- range .Rows}}
<tr>{{range $i, $cell := .}}<td{{if right $t $i}} class="num"{{end}}>{{$cell}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- if not .Rows}}
<p>` + EmptyMarker + `</p>
{{- end}}
`))

var htmlText = template.Must(template.New("text").Parse(`<pre class="sqlmagic">{{.}}</pre>
`))

// HTML draws a table as an HTML fragment for rich front ends.
type HTML struct{}

// Render implements Renderer.
func (HTML) Render(w io.Writer, t *Table) error {
	err := htmlTable.Execute(w, t)
	if err != nil {
		return fmt.Errorf("Failed to render HTML table: %w", err)
	}

	return nil
}

// RenderText wraps plain text output, such as a text table or a plan, in an HTML fragment.
func (HTML) RenderText(w io.Writer, text string) error {
	err := htmlText.Execute(w, text)
	if err != nil {
		return fmt.Errorf("Failed to render HTML text: %w", err)
	}

	return nil
}

package types

// ShortcutPost represents a shortcut invocation.
type ShortcutPost struct {
	// Query is the inline query text.
	Query string `json:"query" yaml:"query"`

	// Block is a multi-line query. It takes precedence over Query when not blank.
	Block string `json:"block" yaml:"block"`
}

// ShortcutResult represents the outcome of a shortcut invocation.
type ShortcutResult struct {
	Name string `json:"name" yaml:"name"`

	// Output is the text printed by the shortcut.
	Output string `json:"output" yaml:"output"`

	// Columns and Rows hold the materialized table, if the shortcut built one.
	Columns []Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"    yaml:"rows,omitempty"`
}

// Column represents a column of a result.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Relation represents a table of the database.
type Relation struct {
	Name    string   `json:"name"    yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    int      `json:"rows"    yaml:"rows"`
}

// Config represents the rendering options.
type Config struct {
	MaxDisplayRows *int  `json:"max_display_rows,omitempty" yaml:"max_display_rows,omitempty"`
	ExplainVerbose *bool `json:"explain_verbose,omitempty"  yaml:"explain_verbose,omitempty"`
}

// Package shortcut implements named SQL shortcuts.
//
// A shortcut forwards a query to an Executor and renders the returned Result with one of the
// registered policies. The built-in shortcuts are:
//
//   - raw:     return the lazy result handle without evaluating it.
//   - show:    print up to MaxDisplayRows rows as a text table.
//   - display: build an in-memory table of up to MaxDisplayRows rows and render it with the
//     rich renderer if one is available, or as a text table otherwise.
//   - explain: print the execution plan of the query.
package shortcut

import (
	"context"
	"strings"
)

// Name identifies a shortcut.
type Name string

// Built-in shortcuts.
const (
	Raw     Name = "raw"
	Show    Name = "show"
	Display Name = "display"
	Explain Name = "explain"
)

// Unregistered is the name reported to observers for dispatches of names that aren't registered.
// It can't be registered itself.
const Unregistered Name = "_unregistered"

// normalize returns the canonical lower-case form of the name.
func (n Name) normalize() Name {
	return Name(strings.ToLower(strings.TrimSpace(string(n))))
}

// Column describes one column of a result.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Row is an ordered list of nullable scalar values aligned to the result's columns.
type Row []any

// Executor is the query engine the shortcuts delegate to.
type Executor interface {
	// Execute returns a possibly lazy handle on the result of the query.
	Execute(ctx context.Context, query string) (Result, error)

	// Explain returns the textual plan of the query without evaluating it.
	Explain(ctx context.Context, query string, verbose bool) (string, error)
}

// Result is a possibly lazily evaluated relation returned by an Executor.
type Result interface {
	// Schema returns the ordered columns of the relation.
	Schema(ctx context.Context) ([]Column, error)

	// Materialize evaluates the relation and returns at most limit rows.
	Materialize(ctx context.Context, limit int) ([]Row, error)
}

// Table is a materialized result held in memory.
type Table struct {
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Output is the value returned by a policy.
type Output struct {
	// Result is set by the raw shortcut.
	Result Result

	// Table is set by the display shortcut.
	Table *Table
}

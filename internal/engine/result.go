package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canonical/sqlmagic/shortcut"
)

// queryResult is a lazy handle on a query. Nothing is evaluated until Schema or Materialize.
type queryResult struct {
	db    *sql.DB
	query string
}

// Schema implements shortcut.Result.
func (r *queryResult) Schema(ctx context.Context) ([]shortcut.Column, error) {
	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("Failed to execute query: %w", err)
	}

	defer rows.Close()

	return columns(rows)
}

// Materialize implements shortcut.Result. A negative limit returns every row.
func (r *queryResult) Materialize(ctx context.Context, limit int) ([]shortcut.Row, error) {
	if limit == 0 {
		return []shortcut.Row{}, nil
	}

	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("Failed to execute query: %w", err)
	}

	defer rows.Close()

	return scanRows(rows, limit)
}

// staticResult holds rows that were produced eagerly.
type staticResult struct {
	columns []shortcut.Column
	rows    []shortcut.Row
}

// Schema implements shortcut.Result.
func (r *staticResult) Schema(ctx context.Context) ([]shortcut.Column, error) {
	return r.columns, nil
}

// Materialize implements shortcut.Result.
func (r *staticResult) Materialize(ctx context.Context, limit int) ([]shortcut.Row, error) {
	if limit >= 0 && limit < len(r.rows) {
		return r.rows[:limit], nil
	}

	return r.rows, nil
}

func columns(rows *sql.Rows) ([]shortcut.Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch column types: %w", err)
	}

	columns := make([]shortcut.Column, len(types))
	for i, t := range types {
		columns[i] = shortcut.Column{Name: t.Name(), Type: t.DatabaseTypeName()}
	}

	return columns, nil
}

// scanRows reads at most limit rows, or all of them if limit is negative.
func scanRows(rows *sql.Rows, limit int) ([]shortcut.Row, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch column names: %w", err)
	}

	result := []shortcut.Row{}
	for (limit < 0 || len(result) < limit) && rows.Next() {
		row := make(shortcut.Row, len(names))
		rowPointers := make([]any, len(names))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		err := rows.Scan(rowPointers...)
		if err != nil {
			return nil, fmt.Errorf("Failed to scan row: %w", err)
		}

		for i, column := range row {
			// Convert bytes to string. This is safe as
			// long as we don't have any BLOB column type.
			data, ok := column.([]byte)
			if ok {
				row[i] = string(data)
			}
		}

		result = append(result, row)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("Got a row error: %w", err)
	}

	return result, nil
}

package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canonical/lxd/lxd/db/query"

	"github.com/canonical/sqlmagic/shortcut"
)

// Relation describes a table of the database.
type Relation struct {
	Name    string            `json:"name" yaml:"name"`
	Columns []shortcut.Column `json:"columns" yaml:"columns"`
	Rows    int               `json:"rows" yaml:"rows"`
}

// Relations lists the user tables of the database, sorted by name.
func (e *Engine) Relations(ctx context.Context) ([]Relation, error) {
	var relations []Relation
	err := e.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		names, err := query.SelectStrings(ctx, tx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
		if err != nil {
			return fmt.Errorf("Failed to list tables: %w", err)
		}

		relations = make([]Relation, 0, len(names))
		for _, name := range names {
			columns, err := tableColumns(ctx, tx, name)
			if err != nil {
				return err
			}

			count, err := query.Count(ctx, tx, QuoteIdentifier(name), "")
			if err != nil {
				return fmt.Errorf("Failed to count rows of %q: %w", name, err)
			}

			relations = append(relations, Relation{Name: name, Columns: columns, Rows: count})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return relations, nil
}

// tableColumns returns the declared columns of a table. The result is empty if the table doesn't exist.
func tableColumns(ctx context.Context, tx *sql.Tx, table string) ([]shortcut.Column, error) {
	columns := []shortcut.Column{}
	err := query.Scan(ctx, tx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(table)), func(scan func(dest ...any) error) error {
		var cid int
		var notNull int
		var pk int
		var defaultValue any
		column := shortcut.Column{}

		err := scan(&cid, &column.Name, &column.Type, &notNull, &defaultValue, &pk)
		if err != nil {
			return err
		}

		columns = append(columns, column)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch columns of %q: %w", table, err)
	}

	return columns, nil
}

package engine

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/lxd/lxd/db/query"
)

// Dump returns a SQL text dump of the database, or only of its schema, in the format of the
// sqlite3 .dump command.
func (e *Engine) Dump(ctx context.Context, schemaOnly bool) (string, error) {
	b := &strings.Builder{}
	b.WriteString("PRAGMA foreign_keys=OFF;\nBEGIN TRANSACTION;\n")

	err := e.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		type object struct {
			name      string
			kind      string
			statement string
		}

		objects := []object{}
		err := query.Scan(ctx, tx, "SELECT name, type, sql FROM sqlite_master WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%' ORDER BY type = 'table' DESC, name", func(scan func(dest ...any) error) error {
			o := object{}
			err := scan(&o.name, &o.kind, &o.statement)
			if err != nil {
				return err
			}

			objects = append(objects, o)

			return nil
		})
		if err != nil {
			return fmt.Errorf("Failed to read schema: %w", err)
		}

		for _, o := range objects {
			b.WriteString(o.statement + ";\n")
			if schemaOnly || o.kind != "table" {
				continue
			}

			err = dumpRows(ctx, tx, b, o.name)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Failed to dump database: %w", err)
	}

	b.WriteString("COMMIT;\n")

	return b.String(), nil
}

func dumpRows(ctx context.Context, tx *sql.Tx, b *strings.Builder, table string) error {
	rows, err := tx.QueryContext(ctx, "SELECT * FROM "+QuoteIdentifier(table))
	if err != nil {
		return fmt.Errorf("Failed to read rows of %q: %w", table, err)
	}

	defer rows.Close()

	values, err := scanRows(rows, -1)
	if err != nil {
		return err
	}

	for _, row := range values {
		literals := make([]string, len(row))
		for i, v := range row {
			literals[i] = sqlLiteral(v)
		}

		fmt.Fprintf(b, "INSERT INTO %s VALUES(%s);\n", QuoteIdentifier(table), strings.Join(literals, ","))
	}

	return nil
}

// sqlLiteral returns v as a SQLite literal.
func sqlLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "1"
		}

		return "0"
	case []byte:
		return "X'" + hex.EncodeToString(v) + "'"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}

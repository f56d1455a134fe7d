// Package dataset loads relation fixtures described in YAML into an engine.
package dataset

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/canonical/lxd/shared/logger"
	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlmagic/internal/engine"
	"github.com/canonical/sqlmagic/shortcut"
)

// Demo is the name of the built-in dataset.
const Demo = "demo"

//go:embed demo.yaml
var demo []byte

// Relation is a table with its rows.
type Relation struct {
	Name    string            `yaml:"name"`
	Columns []shortcut.Column `yaml:"columns"`
	Rows    [][]any           `yaml:"rows"`
}

// Dataset is a set of relations.
type Dataset struct {
	Relations []Relation `yaml:"relations"`
}

// Transactor runs a function in a database transaction.
type Transactor interface {
	Transaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	d := &Dataset{}
	err := yaml.Unmarshal(data, d)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse dataset: %w", err)
	}

	err = d.Validate()
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Read returns the dataset with the given name, or reads it from the given path.
func Read(source string) (*Dataset, error) {
	if source == Demo {
		return Parse(demo)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("Failed to read dataset %q: %w", source, err)
	}

	return Parse(data)
}

// Validate checks that every relation is named, has columns and has rows of the right width.
func (d *Dataset) Validate() error {
	seen := map[string]bool{}
	for _, r := range d.Relations {
		if r.Name == "" {
			return fmt.Errorf("Relation name cannot be empty")
		}

		if seen[r.Name] {
			return fmt.Errorf("Relation %q is defined more than once", r.Name)
		}

		seen[r.Name] = true

		if len(r.Columns) == 0 {
			return fmt.Errorf("Relation %q has no columns", r.Name)
		}

		for _, c := range r.Columns {
			if c.Name == "" {
				return fmt.Errorf("Relation %q has a column without a name", r.Name)
			}
		}

		for i, row := range r.Rows {
			if len(row) != len(r.Columns) {
				return fmt.Errorf("Row %d of relation %q has %d values, expected %d", i, r.Name, len(row), len(r.Columns))
			}
		}
	}

	return nil
}

// Load replaces the dataset's relations in the database.
func (d *Dataset) Load(ctx context.Context, db Transactor) error {
	return db.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, r := range d.Relations {
			err := r.load(ctx, tx)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (r Relation) load(ctx context.Context, tx *sql.Tx) error {
	table := engine.QuoteIdentifier(r.Name)
	_, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	if err != nil {
		return fmt.Errorf("Failed to drop relation %q: %w", r.Name, err)
	}

	definitions := make([]string, len(r.Columns))
	placeholders := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		definitions[i] = strings.TrimSpace(engine.QuoteIdentifier(c.Name) + " " + c.Type)
		placeholders[i] = "?"
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(definitions, ", ")))
	if err != nil {
		return fmt.Errorf("Failed to create relation %q: %w", r.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("Failed to prepare insert into %q: %w", r.Name, err)
	}

	defer stmt.Close()

	for _, row := range r.Rows {
		_, err = stmt.ExecContext(ctx, row...)
		if err != nil {
			return fmt.Errorf("Failed to insert into %q: %w", r.Name, err)
		}
	}

	logger.Debug("Loaded relation", logger.Ctx{"name": r.Name, "rows": len(r.Rows)})

	return nil
}

// Package engine adapts an embedded SQL database to the shortcut.Executor interface.
//
// Two backends are supported: a local SQLite database through go-sqlite3 and a dqlite node,
// which may join an existing dqlite cluster. Both are driven through database/sql, so every
// other part of the package is backend agnostic.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dqlite "github.com/canonical/go-dqlite/app"
	"github.com/canonical/lxd/lxd/db/query"
	"github.com/canonical/lxd/shared/logger"
	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlmagic/shortcut"
)

const (
	// DriverSQLite selects a local SQLite database.
	DriverSQLite = "sqlite3"

	// DriverDqlite selects a dqlite node.
	DriverDqlite = "dqlite"

	// MemoryPath is the SQLite path of a private in-memory database.
	MemoryPath = ":memory:"

	// DefaultDatabaseName is the name of the database opened on a dqlite node.
	DefaultDatabaseName = "sqlmagic"
)

// Args contains options for opening an Engine.
type Args struct {
	// Driver is DriverSQLite or DriverDqlite. Defaults to DriverSQLite.
	Driver string

	// Path of the SQLite database file. Defaults to MemoryPath.
	Path string

	// DataDir is the dqlite data directory.
	DataDir string

	// Address is the address the dqlite node listens on.
	Address string

	// Cluster lists the addresses of existing dqlite nodes to join.
	Cluster []string

	// Name of the dqlite database. Defaults to DefaultDatabaseName.
	Name string
}

// Engine runs queries against an embedded database.
type Engine struct {
	driver string
	db     *sql.DB
	node   *dqlite.App
}

// Open opens the database described by args.
func Open(ctx context.Context, args Args) (*Engine, error) {
	if args.Driver == "" {
		args.Driver = DriverSQLite
	}

	e := &Engine{driver: args.Driver}

	var err error
	switch args.Driver {
	case DriverSQLite:
		e.db, err = openSQLite(ctx, args)
	case DriverDqlite:
		e.node, e.db, err = openDqlite(ctx, args)
	default:
		return nil, fmt.Errorf("Unsupported engine driver %q", args.Driver)
	}

	if err != nil {
		return nil, err
	}

	return e, nil
}

func openSQLite(ctx context.Context, args Args) (*sql.DB, error) {
	path := args.Path
	if path == "" {
		path = MemoryPath
	}

	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open SQLite database %q: %w", path, err)
	}

	// Every connection to :memory: gets its own database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Failed to connect to SQLite database %q: %w", path, err)
	}

	logger.Info("Opened SQLite database", logger.Ctx{"path": path})

	return db, nil
}

// Driver returns the backend in use.
func (e *Engine) Driver() string {
	return e.driver
}

// DB returns the underlying database handle.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Close closes the database and stops the dqlite node, if any.
func (e *Engine) Close(ctx context.Context) error {
	err := e.db.Close()
	if err != nil {
		return fmt.Errorf("Failed to close database: %w", err)
	}

	if e.node != nil {
		return closeDqlite(ctx, e.node)
	}

	return nil
}

// Transaction runs f in a database transaction, retrying when the database is busy.
func (e *Engine) Transaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error {
	return query.Retry(ctx, func(ctx context.Context) error {
		return query.Transaction(ctx, e.db, f)
	})
}

// Execute implements shortcut.Executor.
//
// The query may hold several statements. All but the last one are run immediately. If the last
// one is a read-only query, the returned result is lazy and the query is only compiled. If it
// writes and returns rows, it is run and its rows are kept. Otherwise it is run and the result
// holds the number of affected rows.
func (e *Engine) Execute(ctx context.Context, q string) (shortcut.Result, error) {
	statements := splitStatements(q)
	if len(statements) == 0 {
		return nil, fmt.Errorf("No statement in query")
	}

	last := statements[len(statements)-1]
	leading := statements[:len(statements)-1]
	if len(leading) > 0 {
		err := e.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
			for _, stmt := range leading {
				_, err := tx.ExecContext(ctx, stmt)
				if err != nil {
					return fmt.Errorf("Failed to exec query %q: %w", stmt, err)
				}
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	kind, err := e.classify(ctx, last)
	if err != nil {
		return nil, fmt.Errorf("Failed to prepare query: %w", err)
	}

	switch kind {
	case kindQuery:
		return &queryResult{db: e.db, query: last}, nil
	case kindWriteQuery:
		return e.executeWriteQuery(ctx, last)
	}

	var affected int64
	err = e.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		r, err := tx.ExecContext(ctx, last)
		if err != nil {
			return fmt.Errorf("Failed to exec query: %w", err)
		}

		affected, err = r.RowsAffected()
		if err != nil {
			return fmt.Errorf("Failed to fetch affected rows: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &staticResult{
		columns: []shortcut.Column{{Name: "rows_affected", Type: "INTEGER"}},
		rows:    []shortcut.Row{{affected}},
	}, nil
}

// executeWriteQuery runs a statement that both changes the database and returns rows, keeping
// every returned row so that reading the result never runs it again.
func (e *Engine) executeWriteQuery(ctx context.Context, stmt string) (shortcut.Result, error) {
	result := &staticResult{}
	err := e.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("Failed to exec query: %w", err)
		}

		defer rows.Close()

		result.columns, err = columns(rows)
		if err != nil {
			return err
		}

		result.rows, err = scanRows(rows, -1)
		if err != nil {
			return err
		}

		return rows.Close()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// QuoteIdentifier quotes a table or column name for use in a statement.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

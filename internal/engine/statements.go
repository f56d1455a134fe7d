package engine

import (
	"context"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/canonical/sqlmagic/shortcut"
)

// splitStatements splits text into its statements. If the text can't be tokenized it is
// treated as a single statement.
func splitStatements(text string) []string {
	stmts, err := pg_query.SplitWithScanner(text, true)
	if err != nil {
		stmts = []string{text}
	}

	result := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(stmt), ";"))
		if stmt == "" {
			continue
		}

		result = append(result, stmt)
	}

	return result
}

// statementKind tells how a statement has to be run.
type statementKind int

const (
	// kindExec returns no rows.
	kindExec statementKind = iota

	// kindQuery returns rows and changes nothing, so it can be run lazily and repeatedly.
	kindQuery

	// kindWriteQuery returns rows and changes the database, like INSERT ... RETURNING.
	kindWriteQuery
)

// classify compiles the statement without running it and inspects its bytecode. A statement
// returns rows if its program emits a ResultRow, and writes if it opens a write transaction.
func (e *Engine) classify(ctx context.Context, stmt string) (statementKind, error) {
	// The program of an EXPLAIN statement can't be listed in turn.
	if strings.HasPrefix(strings.ToUpper(strings.TrimLeft(stmt, " \t\r\n(")), "EXPLAIN") {
		return kindQuery, nil
	}

	rows, err := e.explainRows(ctx, "EXPLAIN "+stmt)
	if err != nil {
		return kindExec, err
	}

	var returnsRows, writes bool
	for _, row := range rows {
		// addr, opcode, p1, p2, p3, p4, p5, comment
		if len(row) < 4 {
			continue
		}

		switch shortcut.FormatValue(row[1]) {
		case "ResultRow":
			returnsRows = true
		case "Transaction":
			if shortcut.FormatValue(row[3]) != "0" {
				writes = true
			}
		}
	}

	switch {
	case returnsRows && writes:
		return kindWriteQuery, nil
	case returnsRows:
		return kindQuery, nil
	default:
		return kindExec, nil
	}
}

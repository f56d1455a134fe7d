package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/canonical/sqlmagic/shortcut"
)

// Plan section titles, in the order they are printed.
const (
	ParsedPlan    = "Parsed Logical Plan"
	AnalyzedPlan  = "Analyzed Logical Plan"
	OptimizedPlan = "Optimized Logical Plan"
	PhysicalPlan  = "Physical Plan"
)

// Explain implements shortcut.Executor. It describes the last statement of the query without
// running it. The physical plan is the program SQLite compiles the statement into. In verbose
// mode it is preceded by the parsed statement, the relations it resolves to, and the access
// plan chosen by the query planner.
func (e *Engine) Explain(ctx context.Context, q string, verbose bool) (string, error) {
	statements := splitStatements(q)
	if len(statements) == 0 {
		return "", fmt.Errorf("No statement in query")
	}

	stmt := statements[len(statements)-1]

	type section struct {
		title string
		body  string
	}

	sections := []section{}
	if verbose {
		analyzed, err := e.analyzedPlan(ctx, stmt)
		if err != nil {
			return "", err
		}

		optimized, err := e.queryPlan(ctx, stmt)
		if err != nil {
			return "", err
		}

		sections = append(sections,
			section{title: ParsedPlan, body: parsedPlan(stmt)},
			section{title: AnalyzedPlan, body: analyzed},
			section{title: OptimizedPlan, body: optimized})
	}

	physical, err := e.program(ctx, stmt)
	if err != nil {
		return "", err
	}

	sections = append(sections, section{title: PhysicalPlan, body: physical})

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, fmt.Sprintf("== %s ==\n%s", s.title, s.body))
	}

	return strings.Join(parts, "\n\n") + "\n", nil
}

// parsedPlan returns the statement kind and its canonical text.
// Statements the parser doesn't understand are returned as written.
func parsedPlan(stmt string) string {
	tree, err := pg_query.Parse(stmt)
	if err != nil || len(tree.Stmts) == 0 {
		return stmt
	}

	deparsed, err := pg_query.Deparse(tree)
	if err != nil {
		return stmt
	}

	kind := strings.TrimPrefix(fmt.Sprintf("%T", tree.Stmts[0].GetStmt().GetNode()), "*pg_query.Node_")

	return kind + "\n" + deparsed
}

// referencedRelations returns the sorted names of the relations the statement reads or writes.
func referencedRelations(stmt string) []string {
	js, err := pg_query.ParseToJSON(stmt)
	if err != nil {
		return nil
	}

	var tree any
	err = json.Unmarshal([]byte(js), &tree)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var walk func(v any)
	walk = func(v any) {
		switch v := v.(type) {
		case map[string]any:
			rangeVar, ok := v["RangeVar"].(map[string]any)
			if ok {
				name, ok := rangeVar["relname"].(string)
				if ok {
					seen[name] = true
				}
			}

			for _, child := range v {
				walk(child)
			}

		case []any:
			for _, child := range v {
				walk(child)
			}
		}
	}

	walk(tree)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// analyzedPlan resolves the referenced relations against the catalog.
func (e *Engine) analyzedPlan(ctx context.Context, stmt string) (string, error) {
	names := referencedRelations(stmt)
	if len(names) == 0 {
		return "(no relations)", nil
	}

	lines := make([]string, 0, len(names))
	err := e.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, name := range names {
			columns, err := tableColumns(ctx, tx, name)
			if err != nil {
				return err
			}

			if len(columns) == 0 {
				lines = append(lines, fmt.Sprintf("Relation %s (unresolved)", name))
				continue
			}

			fields := make([]string, len(columns))
			for i, column := range columns {
				fields[i] = fmt.Sprintf("%s: %s", column.Name, column.Type)
			}

			lines = append(lines, fmt.Sprintf("Relation %s [%s]", name, strings.Join(fields, ", ")))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.Join(lines, "\n"), nil
}

// queryPlan renders the EXPLAIN QUERY PLAN tree of the statement.
func (e *Engine) queryPlan(ctx context.Context, stmt string) (string, error) {
	rows, err := e.explainRows(ctx, "EXPLAIN QUERY PLAN "+stmt)
	if err != nil {
		return "", err
	}

	if len(rows) == 0 {
		return "(no plan)", nil
	}

	depths := map[string]int{}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		// id, parent, notused, detail
		if len(row) < 4 {
			continue
		}

		id := shortcut.FormatValue(row[0])
		parent := shortcut.FormatValue(row[1])

		depth := 0
		parentDepth, ok := depths[parent]
		if ok {
			depth = parentDepth + 1
		}

		depths[id] = depth
		lines = append(lines, strings.Repeat("   ", depth)+"+- "+shortcut.FormatValue(row[3]))
	}

	return strings.Join(lines, "\n"), nil
}

// program renders the EXPLAIN bytecode listing of the statement.
func (e *Engine) program(ctx context.Context, stmt string) (string, error) {
	rows, err := e.explainRows(ctx, "EXPLAIN "+stmt)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf("%-4s %-14s %4s %4s %4s  %s", "addr", "opcode", "p1", "p2", "p3", "p4"))
	for _, row := range rows {
		// addr, opcode, p1, p2, p3, p4, p5, comment
		cells := make([]string, 6)
		for i := range cells {
			if i < len(row) && row[i] != nil {
				cells[i] = shortcut.FormatValue(row[i])
			}
		}

		line := fmt.Sprintf("%-4s %-14s %4s %4s %4s  %s", cells[0], cells[1], cells[2], cells[3], cells[4], cells[5])
		lines = append(lines, strings.TrimRight(line, " "))
	}

	return strings.Join(lines, "\n"), nil
}

func (e *Engine) explainRows(ctx context.Context, stmt string) ([]shortcut.Row, error) {
	rows, err := e.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("Failed to explain query: %w", err)
	}

	defer rows.Close()

	return scanRows(rows, -1)
}

package shortcut

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlmagic/internal/config"
	"github.com/canonical/sqlmagic/internal/render"
)

// Invocation carries everything a policy needs to render one dispatched query.
type Invocation struct {
	Name     Name
	Query    string
	Result   Result
	Executor Executor

	// Config is a snapshot of the rendering options taken when the dispatch started.
	Config config.RenderConfig

	// Out receives printed output.
	Out io.Writer

	// Rich renders tables for rich front ends. Nil when only text output is available.
	Rich render.Renderer
}

// Policy turns the result of a query into the output of a shortcut.
type Policy interface {
	Apply(ctx context.Context, inv *Invocation) (*Output, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(ctx context.Context, inv *Invocation) (*Output, error)

// Apply implements Policy.
func (f PolicyFunc) Apply(ctx context.Context, inv *Invocation) (*Output, error) {
	return f(ctx, inv)
}

// Builtins returns the built-in policies keyed by name.
func Builtins() map[Name]Policy {
	return map[Name]Policy{
		Raw:     PolicyFunc(applyRaw),
		Show:    PolicyFunc(applyShow),
		Display: PolicyFunc(applyDisplay),
		Explain: PolicyFunc(applyExplain),
	}
}

func applyRaw(ctx context.Context, inv *Invocation) (*Output, error) {
	return &Output{Result: inv.Result}, nil
}

func applyShow(ctx context.Context, inv *Invocation) (*Output, error) {
	tbl, err := materialize(ctx, inv)
	if err != nil {
		return nil, err
	}

	err = render.Text{}.Render(inv.Out, tbl.Presentation())
	if err != nil {
		return nil, RenderFailed(err)
	}

	return &Output{}, nil
}

func applyDisplay(ctx context.Context, inv *Invocation) (*Output, error) {
	tbl, err := materialize(ctx, inv)
	if err != nil {
		return nil, err
	}

	p := tbl.Presentation()
	if inv.Rich != nil {
		buf := &bytes.Buffer{}
		err = inv.Rich.Render(buf, p)
		if err == nil {
			_, err = inv.Out.Write(buf.Bytes())
			if err == nil {
				return &Output{Table: tbl}, nil
			}
		}

		logger.Warn("Rich rendering failed, falling back to text", logger.Ctx{"shortcut": inv.Name, "err": err})
	}

	err = render.Text{}.Render(inv.Out, p)
	if err != nil {
		return nil, RenderFailed(err)
	}

	return &Output{Table: tbl}, nil
}

func applyExplain(ctx context.Context, inv *Invocation) (*Output, error) {
	plan, err := inv.Executor.Explain(ctx, inv.Query, inv.Config.ExplainVerbose)
	if err != nil {
		return nil, ExecutionFailed(err)
	}

	if !strings.HasSuffix(plan, "\n") {
		plan += "\n"
	}

	_, err = io.WriteString(inv.Out, plan)
	if err != nil {
		return nil, RenderFailed(fmt.Errorf("Failed to write plan: %w", err))
	}

	return &Output{}, nil
}

// materialize evaluates at most MaxDisplayRows rows of the invocation's result.
func materialize(ctx context.Context, inv *Invocation) (*Table, error) {
	limit := inv.Config.MaxDisplayRows

	rows, err := inv.Result.Materialize(ctx, limit)
	if err != nil {
		return nil, ExecutionFailed(err)
	}

	columns, err := inv.Result.Schema(ctx)
	if err != nil {
		return nil, ExecutionFailed(err)
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// Presentation formats the table for the renderers. Numeric columns are right-aligned and
// nil values are printed as null.
func (t *Table) Presentation() *render.Table {
	p := &render.Table{
		Header: make([]string, len(t.Columns)),
		Align:  make([]render.Align, len(t.Columns)),
		Rows:   make([][]string, 0, len(t.Rows)),
	}

	for i, column := range t.Columns {
		p.Header[i] = column.Name
		if t.numeric(i) {
			p.Align[i] = render.AlignRight
		}
	}

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = FormatValue(row[i])
			} else {
				cells[i] = FormatValue(nil)
			}
		}

		p.Rows = append(p.Rows, cells)
	}

	return p
}

// numeric reports whether column i holds numbers, from its declared type or else its values.
func (t *Table) numeric(i int) bool {
	declared := strings.ToUpper(t.Columns[i].Type)
	if declared != "" {
		for _, text := range []string{"CHAR", "CLOB", "TEXT"} {
			if strings.Contains(declared, text) {
				return false
			}
		}

		for _, number := range []string{"INT", "REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL"} {
			if strings.Contains(declared, number) {
				return true
			}
		}

		return false
	}

	for _, row := range t.Rows {
		if i >= len(row) || row[i] == nil {
			continue
		}

		switch row[i].(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		default:
			return false
		}
	}

	return false
}

// FormatValue returns the text form of a scalar value.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case []byte:
		return string(v)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

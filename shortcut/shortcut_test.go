package shortcut

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/canonical/sqlmagic/internal/config"
	"github.com/canonical/sqlmagic/internal/render"
)

type fakeResult struct {
	columns []Column
	rows    []Row

	schemaErr      error
	materializeErr error

	materializeCalls []int
}

func (r *fakeResult) Schema(ctx context.Context) ([]Column, error) {
	if r.schemaErr != nil {
		return nil, r.schemaErr
	}

	return r.columns, nil
}

func (r *fakeResult) Materialize(ctx context.Context, limit int) ([]Row, error) {
	r.materializeCalls = append(r.materializeCalls, limit)
	if r.materializeErr != nil {
		return nil, r.materializeErr
	}

	if limit < len(r.rows) {
		return r.rows[:limit], nil
	}

	return r.rows, nil
}

type fakeExecutor struct {
	result     *fakeResult
	executeErr error
	explainErr error

	queries      []string
	explainCalls []bool
}

func (e *fakeExecutor) Execute(ctx context.Context, query string) (Result, error) {
	e.queries = append(e.queries, query)
	if e.executeErr != nil {
		return nil, e.executeErr
	}

	return e.result, nil
}

func (e *fakeExecutor) Explain(ctx context.Context, query string, verbose bool) (string, error) {
	e.explainCalls = append(e.explainCalls, verbose)
	if e.explainErr != nil {
		return "", e.explainErr
	}

	if verbose {
		return fmt.Sprintf("== Parsed Logical Plan ==\n%s\n\n== Physical Plan ==\nscan", query), nil
	}

	return "== Physical Plan ==\nscan", nil
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

type failingRenderer struct{}

func (failingRenderer) Render(w io.Writer, t *render.Table) error {
	return errors.New("no widget")
}

type countingObserver struct {
	names []Name
	errs  []error
}

func (o *countingObserver) Observe(name Name, elapsed time.Duration, err error) {
	o.names = append(o.names, name)
	o.errs = append(o.errs, err)
}

func employeeResult() *fakeResult {
	return &fakeResult{
		columns: []Column{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "TEXT"}, {Name: "manager_id", Type: "INTEGER"}, {Name: "dep_id", Type: "INTEGER"}},
		rows: []Row{
			{int64(1), "Alice", nil, int64(1)},
			{int64(2), "Bob", int64(1), int64(1)},
			{int64(3), "Carol", int64(1), int64(2)},
			{int64(4), "Dave", int64(2), int64(2)},
			{int64(5), "Eve", int64(2), int64(3)},
		},
	}
}

// dataLines returns the table lines holding cells, header included.
func dataLines(out string) []string {
	lines := []string{}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "|") {
			lines = append(lines, line)
		}
	}

	return lines
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name      string
		inline    string
		block     string
		expect    string
		expectErr bool
	}{
		{name: "Inline only", inline: "select 1", expect: "select 1"},
		{name: "Inline is trimmed", inline: "  select 1 \n", expect: "select 1"},
		{name: "Block wins", inline: "select 1", block: "select 2\nfrom t\n", expect: "select 2\nfrom t\n"},
		{name: "Block is verbatim", block: "\n  select 2\n", expect: "\n  select 2\n"},
		{name: "Blank block falls back to inline", inline: "select 1", block: " \n\t", expect: "select 1"},
		{name: "Both empty", expectErr: true},
		{name: "Both blank", inline: "  ", block: "\n", expectErr: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			query, err := Normalize(c.inline, c.block)
			if c.expectErr {
				assert.ErrorIs(t, err, ErrEmptyQuery)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, c.expect, query)
		})
	}
}

type dispatcherSuite struct {
	suite.Suite

	exec *fakeExecutor
	cfg  *config.Config
	out  *bytes.Buffer
	d    *Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(dispatcherSuite))
}

func (t *dispatcherSuite) SetupTest() {
	t.exec = &fakeExecutor{result: employeeResult()}
	t.cfg = config.NewConfig("")
	t.out = &bytes.Buffer{}
	t.d = NewDispatcher(t.exec, t.cfg, WithOutput(t.out))
}

func (t *dispatcherSuite) Test_builtins() {
	t.Equal([]Name{Display, Explain, Raw, Show}, t.d.Names())
}

func (t *dispatcherSuite) Test_showRowCap() {
	// Without data rows the name column is only as wide as its header.
	tests := []struct {
		maxRows    int
		expectRows int
		header     string
	}{
		{maxRows: 0, expectRows: 0, header: "| id | name | manager_id | dep_id |"},
		{maxRows: 1, expectRows: 1, header: "| id | name  | manager_id | dep_id |"},
		{maxRows: 3, expectRows: 3, header: "| id | name  | manager_id | dep_id |"},
		{maxRows: 5, expectRows: 5, header: "| id | name  | manager_id | dep_id |"},
		{maxRows: 50, expectRows: 5, header: "| id | name  | manager_id | dep_id |"},
	}

	for _, test := range tests {
		t.SetupTest()
		t.NoError(t.cfg.SetMaxDisplayRows(test.maxRows))

		_, err := t.d.Dispatch(context.Background(), Show, "select * from employee", "")
		t.NoError(err)

		lines := dataLines(t.out.String())
		t.Len(lines, test.expectRows+1, "max_display_rows=%d", test.maxRows)
		t.Equal(test.header, lines[0], "max_display_rows=%d", test.maxRows)

		if test.expectRows == 0 {
			t.Contains(t.out.String(), render.EmptyMarker)
		} else {
			t.NotContains(t.out.String(), render.EmptyMarker)
		}
	}
}

func (t *dispatcherSuite) Test_showNullsAndAlignment() {
	_, err := t.d.Dispatch(context.Background(), Show, "select * from employee", "")
	t.NoError(err)

	lines := dataLines(t.out.String())
	t.Equal("|  1 | Alice |       null |      1 |", lines[1])
	t.Equal("|  2 | Bob   |          1 |      1 |", lines[2])
}

func (t *dispatcherSuite) Test_columnOrder() {
	t.exec.result = &fakeResult{
		columns: []Column{{Name: "z"}, {Name: "a"}, {Name: "m"}},
		rows:    []Row{{"1", "2", "3"}},
	}

	_, err := t.d.Dispatch(context.Background(), Show, "select z, a, m from t", "")
	t.NoError(err)
	t.Equal("| z | a | m |", dataLines(t.out.String())[0])
}

func (t *dispatcherSuite) Test_materializeCalls() {
	tests := []struct {
		name   Name
		expect []int
	}{
		{name: Raw, expect: nil},
		{name: Show, expect: []int{50}},
		{name: Display, expect: []int{50}},
		{name: Explain, expect: nil},
	}

	for _, test := range tests {
		t.SetupTest()

		_, err := t.d.Dispatch(context.Background(), test.name, "select * from employee", "")
		t.NoError(err)
		t.Equal(test.expect, t.exec.result.materializeCalls, "Shortcut %q", test.name)
		t.Equal([]string{"select * from employee"}, t.exec.queries)
	}
}

func (t *dispatcherSuite) Test_raw() {
	out, err := t.d.Dispatch(context.Background(), Raw, "select * from employee", "")
	t.NoError(err)
	t.Same(t.exec.result, out.Result)
	t.Nil(out.Table)
	t.Empty(t.out.String())
}

func (t *dispatcherSuite) Test_displayText() {
	t.NoError(t.cfg.SetMaxDisplayRows(2))

	out, err := t.d.Dispatch(context.Background(), Display, "select * from employee", "")
	t.NoError(err)
	t.Require().NotNil(out.Table)
	t.Len(out.Table.Rows, 2)
	t.Equal(employeeResult().columns, out.Table.Columns)
	t.Len(dataLines(t.out.String()), 3)
}

func (t *dispatcherSuite) Test_displayRich() {
	t.d = NewDispatcher(t.exec, t.cfg, WithOutput(t.out), WithRichRenderer(render.HTML{}))

	out, err := t.d.Dispatch(context.Background(), Display, "select * from employee", "")
	t.NoError(err)
	t.Len(out.Table.Rows, 5)
	t.Contains(t.out.String(), "<table")
	t.Contains(t.out.String(), "<td>Alice</td>")
}

func (t *dispatcherSuite) Test_displayRichFallback() {
	out, err := t.d.Do(context.Background(), Request{Name: Display, Inline: "select * from employee", Rich: failingRenderer{}})
	t.NoError(err)
	t.Len(out.Table.Rows, 5)
	t.NotContains(t.out.String(), "<table")
	t.Len(dataLines(t.out.String()), 6)
}

func (t *dispatcherSuite) Test_explain() {
	_, err := t.d.Dispatch(context.Background(), Explain, "select 1", "")
	t.NoError(err)
	first := t.out.String()

	t.out.Reset()
	_, err = t.d.Dispatch(context.Background(), Explain, "select 1", "")
	t.NoError(err)
	t.Equal(first, t.out.String())
	t.Contains(first, "== Parsed Logical Plan ==")
	t.Equal([]bool{true, true}, t.exec.explainCalls)

	t.cfg.SetExplainVerbose(false)
	t.out.Reset()
	_, err = t.d.Dispatch(context.Background(), Explain, "select 1", "")
	t.NoError(err)
	t.Equal("== Physical Plan ==\nscan\n", t.out.String())
	t.Nil(t.exec.result.materializeCalls)
}

func (t *dispatcherSuite) Test_emptyQuery() {
	for _, name := range []Name{Raw, Show, Display, Explain, "missing"} {
		_, err := t.d.Dispatch(context.Background(), name, " ", "\n")
		t.ErrorIs(err, ErrEmptyQuery)
	}

	t.Empty(t.exec.queries)
}

func (t *dispatcherSuite) Test_unknownShortcut() {
	_, err := t.d.Dispatch(context.Background(), "count", "select 1", "")
	t.ErrorIs(err, ErrUnknownShortcut)
	t.Empty(t.exec.queries)
}

func (t *dispatcherSuite) Test_caseInsensitiveNames() {
	_, err := t.d.Dispatch(context.Background(), "SHOW", "select * from employee", "")
	t.NoError(err)
	t.Len(dataLines(t.out.String()), 6)
}

func (t *dispatcherSuite) Test_executionFailed() {
	engineErr := errors.New("no such table: employe")
	t.exec.executeErr = engineErr

	_, err := t.d.Dispatch(context.Background(), Show, "select * from employe", "")
	t.ErrorIs(err, ErrExecutionFailed)
	t.ErrorIs(err, engineErr)

	var dispatchErr *Error
	t.Require().ErrorAs(err, &dispatchErr)
	t.Equal(Show, dispatchErr.Name)
	t.Equal("select * from employe", dispatchErr.Query)
	t.Equal(`Shortcut "show": Query execution failed: no such table: employe`, err.Error())
}

func (t *dispatcherSuite) Test_evaluationFailed() {
	engineErr := errors.New("interrupted")
	t.exec.result.materializeErr = engineErr

	_, err := t.d.Dispatch(context.Background(), Display, "select * from employee", "")
	t.ErrorIs(err, ErrExecutionFailed)
	t.ErrorIs(err, engineErr)

	t.exec.explainErr = engineErr
	_, err = t.d.Dispatch(context.Background(), Explain, "select * from employee", "")
	t.ErrorIs(err, ErrExecutionFailed)
}

func (t *dispatcherSuite) Test_renderFailed() {
	for _, name := range []Name{Show, Display, Explain} {
		_, err := t.d.Do(context.Background(), Request{Name: name, Inline: "select * from employee", Out: failingWriter{}})
		t.ErrorIs(err, ErrRenderFailed, "Shortcut %q", name)

		var dispatchErr *Error
		t.Require().ErrorAs(err, &dispatchErr)
		t.Equal("select * from employee", dispatchErr.Query)
	}
}

func (t *dispatcherSuite) Test_registerDuplicate() {
	custom := PolicyFunc(func(ctx context.Context, inv *Invocation) (*Output, error) {
		return nil, errors.New("should never run")
	})

	for _, name := range []Name{"show", "SHOW", " Show "} {
		err := t.d.Register(name, custom)
		t.ErrorIs(err, ErrDuplicateShortcut)
	}

	_, err := t.d.Dispatch(context.Background(), Show, "select * from employee", "")
	t.NoError(err)
	t.Len(dataLines(t.out.String()), 6)
	t.Len(t.d.Names(), 4)
}

func (t *dispatcherSuite) Test_registerInvalid() {
	custom := PolicyFunc(applyRaw)

	for _, name := range []Name{"", "_count", "count_", "co__unt", "co-unt", "%count"} {
		t.ErrorIs(t.d.Register(name, custom), ErrInvalidShortcut, "Name %q", name)
	}

	t.ErrorIs(t.d.Register("count", nil), ErrInvalidShortcut)
	t.Len(t.d.Names(), 4)
}

func (t *dispatcherSuite) Test_registerCustom() {
	count := PolicyFunc(func(ctx context.Context, inv *Invocation) (*Output, error) {
		rows, err := inv.Result.Materialize(ctx, inv.Config.MaxDisplayRows)
		if err != nil {
			return nil, ExecutionFailed(err)
		}

		_, err = fmt.Fprintf(inv.Out, "%d\n", len(rows))
		if err != nil {
			return nil, err
		}

		return nil, nil
	})

	t.NoError(t.d.Register("row_count", count))
	t.Contains(t.d.Names(), Name("row_count"))

	out, err := t.d.Dispatch(context.Background(), "row_count", "", "select *\nfrom employee")
	t.NoError(err)
	t.NotNil(out)
	t.Equal("5\n", t.out.String())
	t.Equal([]string{"select *\nfrom employee"}, t.exec.queries)

	_, err = t.d.Do(context.Background(), Request{Name: "row_count", Inline: "select 1", Out: failingWriter{}})
	t.ErrorIs(err, ErrRenderFailed, "Untagged policy errors are render failures")
}

func (t *dispatcherSuite) Test_observer() {
	observer := &countingObserver{}
	t.d = NewDispatcher(t.exec, t.cfg, WithOutput(t.out), WithObserver(observer))

	_, err := t.d.Dispatch(context.Background(), "SHOW", "select 1", "")
	t.NoError(err)

	_, err = t.d.Dispatch(context.Background(), Raw, "", "")
	t.Error(err)

	_, err = t.d.Dispatch(context.Background(), "bogus", "select 1", "")
	t.ErrorIs(err, ErrUnknownShortcut)

	_, err = t.d.Dispatch(context.Background(), "other", "", "")
	t.ErrorIs(err, ErrEmptyQuery)

	t.Equal([]Name{Show, Raw, Unregistered, Unregistered}, observer.names)
	t.NoError(observer.errs[0])
	t.ErrorIs(observer.errs[1], ErrEmptyQuery)

	t.ErrorIs(t.d.Register(Unregistered, Builtins()[Show]), ErrInvalidShortcut)
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		value  any
		expect string
	}{
		{value: nil, expect: "null"},
		{value: int64(42), expect: "42"},
		{value: 1.5, expect: "1.5"},
		{value: float64(3), expect: "3"},
		{value: []byte("bytes"), expect: "bytes"},
		{value: "text", expect: "text"},
		{value: true, expect: "true"},
		{value: time.Date(2024, 7, 9, 8, 16, 0, 0, time.UTC), expect: "2024-07-09T08:16:00Z"},
	}

	for _, c := range cases {
		assert.Equal(t, c.expect, FormatValue(c.value))
	}
}

func TestPresentationInfersNumericColumns(t *testing.T) {
	tbl := &Table{
		Columns: []Column{{Name: "n"}, {Name: "s"}, {Name: "price", Type: "DECIMAL(10,2)"}, {Name: "code", Type: "VARCHAR(3)"}},
		Rows: []Row{
			{nil, nil, 1.25, "007"},
			{int64(7), "x", 2.5, "008"},
		},
	}

	p := tbl.Presentation()
	assert.Equal(t, []render.Align{render.AlignRight, render.AlignLeft, render.AlignRight, render.AlignLeft}, p.Align)
	assert.Equal(t, []string{"null", "null", "1.25", "007"}, p.Rows[0])
}

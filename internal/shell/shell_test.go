package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/canonical/sqlmagic/internal/config"
	"github.com/canonical/sqlmagic/internal/dataset"
	"github.com/canonical/sqlmagic/internal/engine"
	"github.com/canonical/sqlmagic/shortcut"
)

func TestParse(t *testing.T) {
	cases := []struct {
		line   string
		expect Input
	}{
		{line: "", expect: Input{Kind: KindEmpty}},
		{line: "   ", expect: Input{Kind: KindEmpty}},
		{line: "%show select 1", expect: Input{Kind: KindLine, Name: "show", Text: "select 1", Args: []string{"select", "1"}}},
		{line: "  %show   select  1  ", expect: Input{Kind: KindLine, Name: "show", Text: "select  1", Args: []string{"select", "1"}}},
		{line: "%%display", expect: Input{Kind: KindCell, Name: "display", Args: []string{}}},
		{line: ".set max_display_rows 3", expect: Input{Kind: KindCommand, Name: "set", Text: "max_display_rows 3", Args: []string{"max_display_rows", "3"}}},
		{line: ".tables", expect: Input{Kind: KindCommand, Name: "tables", Args: []string{}}},
	}

	for _, c := range cases {
		input, err := Parse(c.line)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.expect, *input, c.line)
	}

	for _, line := range []string{"select 1", "%", "%%", ".", "% show"} {
		_, err := Parse(line)
		assert.Error(t, err, line)
	}
}

type shellSuite struct {
	suite.Suite

	engine *engine.Engine
	out    *bytes.Buffer
	shell  *Shell
}

func TestShellSuite(t *testing.T) {
	suite.Run(t, new(shellSuite))
}

func (t *shellSuite) SetupTest() {
	ctx := context.Background()

	var err error
	t.engine, err = engine.Open(ctx, engine.Args{})
	t.Require().NoError(err)

	d, err := dataset.Read(dataset.Demo)
	t.Require().NoError(err)
	t.Require().NoError(d.Load(ctx, t.engine))

	t.out = &bytes.Buffer{}
	t.shell = New(shortcut.NewDispatcher(t.engine, config.NewConfig("")), t.engine, t.out)
}

func (t *shellSuite) TearDownTest() {
	t.NoError(t.engine.Close(context.Background()))
}

func (t *shellSuite) handle(lines ...string) error {
	for _, line := range lines {
		err := t.shell.Handle(context.Background(), line)
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *shellSuite) Test_line() {
	t.NoError(t.handle("%show select dep_name from department where dep_id = 2"))
	t.Contains(t.out.String(), "| Sales    |")
}

func (t *shellSuite) Test_cell() {
	t.NoError(t.handle("%%show", "select name", "from employee", "where dep_id = 1"))
	t.True(t.shell.Pending())
	t.Empty(t.out.String())

	t.NoError(t.handle(""))
	t.False(t.shell.Pending())
	t.Contains(t.out.String(), "| Alice |")
	t.Contains(t.out.String(), "| Bob   |")
	t.NotContains(t.out.String(), "Carol")
}

func (t *shellSuite) Test_flush() {
	t.NoError(t.handle("%%explain", "select * from department"))
	t.NoError(t.shell.Flush(context.Background()))
	t.Contains(t.out.String(), "== Physical Plan ==")

	t.NoError(t.shell.Flush(context.Background()))
}

func (t *shellSuite) Test_errors() {
	err := t.handle("%show")
	t.ErrorIs(err, shortcut.ErrEmptyQuery)

	err = t.handle("%plot select 1")
	t.ErrorIs(err, shortcut.ErrUnknownShortcut)

	err = t.handle("%show select * from employe")
	t.ErrorIs(err, shortcut.ErrExecutionFailed)

	err = t.handle(".frobnicate")
	t.Error(err)

	err = t.handle("select 1")
	t.Error(err)

	t.ErrorIs(t.handle(".exit"), ErrExit)
	t.ErrorIs(t.handle(".quit"), ErrExit)
}

func (t *shellSuite) Test_commands() {
	t.NoError(t.handle(".help"))
	t.Contains(t.out.String(), ".load <file|demo>")
	t.out.Reset()

	t.NoError(t.handle(".shortcuts"))
	t.Equal("display\nexplain\nraw\nshow\n", t.out.String())
	t.out.Reset()

	t.NoError(t.handle(".tables"))
	t.Contains(t.out.String(), "| department |       2 |    3 |")
	t.Contains(t.out.String(), "| employee   |       4 |    5 |")
	t.out.Reset()

	t.NoError(t.handle(".schema"))
	t.Contains(t.out.String(), `CREATE TABLE "employee"`)
	t.NotContains(t.out.String(), "INSERT INTO")
	t.out.Reset()

	t.NoError(t.handle(".dump"))
	t.Contains(t.out.String(), `INSERT INTO "department" VALUES(3,'Marketing');`)
}

func (t *shellSuite) Test_config() {
	t.NoError(t.handle(".set max_display_rows 2", ".set explain_verbose false"))
	t.Equal(config.RenderConfig{MaxDisplayRows: 2, ExplainVerbose: false}, t.shell.dispatcher.Config().Get())

	t.NoError(t.handle(".config"))
	t.Contains(t.out.String(), "| max_display_rows | 2     |")
	t.Contains(t.out.String(), "| explain_verbose  | false |")
	t.out.Reset()

	t.NoError(t.handle("%show select id from employee order by id"))
	t.Contains(t.out.String(), "|  2 |")
	t.NotContains(t.out.String(), "|  3 |")

	t.Error(t.handle(".set max_display_rows -1"))
	t.Error(t.handle(".set max_display_rows"))
	t.Error(t.handle(".set colour red"))
}

func (t *shellSuite) Test_load() {
	path := filepath.Join(t.T().TempDir(), "pets.yaml")
	t.Require().NoError(os.WriteFile(path, []byte("relations:\n- name: pet\n  columns: [{name: name, type: TEXT}]\n  rows: [[Rex], [Tom]]\n"), 0644))

	t.NoError(t.handle(".load " + path))
	t.NoError(t.handle("%show select count(*) as pets from pet"))
	t.Contains(t.out.String(), "|    2 |")

	err := t.handle(".load")
	t.Error(err)

	err = t.handle(".load " + filepath.Join(t.T().TempDir(), "missing.yaml"))
	t.Error(err)
	t.False(errors.Is(err, ErrExit))
}

// Package shell implements an interactive prompt for running shortcuts.
//
// Shortcuts are invoked with `%name query` on a single line, or with `%%name` followed by a block
// of lines ended by an empty line. Lines starting with a dot are shell commands (see .help).
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/canonical/lxd/shared/logger"
	"github.com/peterh/liner"

	"github.com/canonical/sqlmagic/internal/dataset"
	"github.com/canonical/sqlmagic/internal/engine"
	"github.com/canonical/sqlmagic/internal/render"
	"github.com/canonical/sqlmagic/shortcut"
)

const (
	prompt         = "sqlmagic> "
	continuePrompt = "     ...> "
)

const help = `Shortcuts:
  %<name> <query>      Run a shortcut on a single line query.
  %%<name>             Run a shortcut on the lines that follow, up to an empty line.

Commands:
  .help                Show this help.
  .shortcuts           List the registered shortcuts.
  .tables              List the tables of the database.
  .schema              Print the database schema.
  .dump                Print the database as SQL.
  .config              Show the rendering options.
  .set <key> <value>   Change a rendering option.
  .load <file|demo>    Load a YAML dataset.
  .exit                Leave the shell.
`

// ErrExit is returned by Handle when the user asked to leave.
var ErrExit = errors.New("Exit requested")

// Engine is the database the shell commands inspect.
type Engine interface {
	dataset.Transactor

	Relations(ctx context.Context) ([]engine.Relation, error)
	Dump(ctx context.Context, schemaOnly bool) (string, error)
}

// Shell reads shell input and runs it.
type Shell struct {
	dispatcher *shortcut.Dispatcher
	engine     Engine
	out        io.Writer

	// Cell being collected, if any.
	cell  *Input
	block []string
}

// New returns a shell writing to out.
func New(dispatcher *shortcut.Dispatcher, engine Engine, out io.Writer) *Shell {
	return &Shell{
		dispatcher: dispatcher,
		engine:     engine,
		out:        out,
	}
}

// Pending reports whether a block is being collected.
func (s *Shell) Pending() bool {
	return s.cell != nil
}

// Handle processes a single line of input. It returns ErrExit when the user asks to leave.
func (s *Shell) Handle(ctx context.Context, line string) error {
	if s.cell != nil {
		if strings.TrimSpace(line) != "" {
			s.block = append(s.block, line)
			return nil
		}

		cell := s.cell
		block := strings.Join(s.block, "\n")
		s.cell = nil
		s.block = nil

		return s.dispatch(ctx, cell, block)
	}

	input, err := Parse(line)
	if err != nil {
		return err
	}

	switch input.Kind {
	case KindEmpty:
		return nil
	case KindCell:
		s.cell = input
		s.block = []string{}
		return nil
	case KindLine:
		return s.dispatch(ctx, input, "")
	}

	return s.command(ctx, input)
}

// Flush runs the block being collected, if any.
func (s *Shell) Flush(ctx context.Context) error {
	if s.cell == nil {
		return nil
	}

	return s.Handle(ctx, "")
}

func (s *Shell) dispatch(ctx context.Context, input *Input, block string) error {
	_, err := s.dispatcher.Do(ctx, shortcut.Request{
		Name:   shortcut.Name(input.Name),
		Inline: input.Text,
		Block:  block,
		Out:    s.out,
	})

	return err
}

func (s *Shell) command(ctx context.Context, input *Input) error {
	switch input.Name {
	case "help":
		_, err := fmt.Fprint(s.out, help)
		return err
	case "exit", "quit":
		return ErrExit
	case "shortcuts":
		for _, name := range s.dispatcher.Names() {
			_, err := fmt.Fprintln(s.out, name)
			if err != nil {
				return err
			}
		}

		return nil
	case "tables":
		return s.tables(ctx)
	case "schema", "dump":
		dump, err := s.engine.Dump(ctx, input.Name == "schema")
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(s.out, dump)
		return err
	case "config":
		return render.Text{}.Render(s.out, &render.Table{
			Header: []string{"KEY", "VALUE"},
			Rows:   s.dispatcher.Config().Get().Values(),
		})

	case "set":
		if len(input.Args) != 2 {
			return fmt.Errorf("Usage: .set <key> <value>")
		}

		return s.dispatcher.Config().SetKey(input.Args[0], input.Args[1])
	case "load":
		if len(input.Args) != 1 {
			return fmt.Errorf("Usage: .load <file|demo>")
		}

		d, err := dataset.Read(input.Args[0])
		if err != nil {
			return err
		}

		return d.Load(ctx, s.engine)
	}

	return fmt.Errorf("Unknown command %q, see .help", "."+input.Name)
}

func (s *Shell) tables(ctx context.Context) error {
	relations, err := s.engine.Relations(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(relations))
	for _, r := range relations {
		rows = append(rows, []string{r.Name, strconv.Itoa(len(r.Columns)), strconv.Itoa(r.Rows)})
	}

	return render.Text{}.Render(s.out, &render.Table{
		Header: []string{"NAME", "COLUMNS", "ROWS"},
		Align:  []render.Align{render.AlignLeft, render.AlignRight, render.AlignRight},
		Rows:   rows,
	})
}

// Run reads lines from the terminal until the user exits or closes the input.
// History is loaded from and saved to historyPath when it is set.
func (s *Shell) Run(ctx context.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	if historyPath != "" {
		f, err := os.Open(historyPath)
		if err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}

		defer func() {
			f, err := os.Create(historyPath)
			if err != nil {
				logger.Warn("Failed to save shell history", logger.Ctx{"path": historyPath, "err": err})
				return
			}

			defer f.Close()

			_, err = line.WriteHistory(f)
			if err != nil {
				logger.Warn("Failed to save shell history", logger.Ctx{"path": historyPath, "err": err})
			}
		}()
	}

	_, _ = fmt.Fprintln(s.out, `Type ".help" for usage hints.`)

	for ctx.Err() == nil {
		p := prompt
		if s.Pending() {
			p = continuePrompt
		}

		text, err := line.Prompt(p)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				// Drop the block being collected.
				s.cell = nil
				s.block = nil
				continue
			}

			if errors.Is(err, io.EOF) {
				_, _ = fmt.Fprintln(s.out)
				return s.report(s.Flush(ctx))
			}

			return fmt.Errorf("Failed to read input: %w", err)
		}

		if strings.TrimSpace(text) != "" {
			line.AppendHistory(text)
		}

		err = s.Handle(ctx, text)
		if errors.Is(err, ErrExit) {
			return nil
		}

		_ = s.report(err)
	}

	return ctx.Err()
}

// report prints err for the user and returns nil.
func (s *Shell) report(err error) error {
	if err != nil && !errors.Is(err, ErrExit) {
		_, _ = fmt.Fprintf(s.out, "Error: %v\n", err)
	}

	return nil
}

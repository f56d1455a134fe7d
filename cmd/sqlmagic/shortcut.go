package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlmagic/client"
	"github.com/canonical/sqlmagic/internal/render"
	"github.com/canonical/sqlmagic/shortcut"
)

var builtinShortcuts = []shortcut.Name{shortcut.Raw, shortcut.Show, shortcut.Display, shortcut.Explain}

var shortcutUsage = map[shortcut.Name]string{
	shortcut.Raw:     "Run a query and print the schema of its result",
	shortcut.Show:    "Run a query and print its first rows as a text table",
	shortcut.Display: "Run a query and render its first rows as a rich table",
	shortcut.Explain: "Print the plan of a query without running it",
}

type cmdShortcut struct {
	common *CmdControl
	name   shortcut.Name

	flagFormat string
}

func (c *cmdShortcut) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(c.name) + " [<query>|-]",
		Short: shortcutUsage[c.name],
		Long: shortcutUsage[c.name] + `.

The query is given inline as arguments, or as a block read from standard input when the only
argument is "-" or no argument is given and standard input is not a terminal.`,
		RunE: c.run,
	}

	if c.name == shortcut.Raw {
		cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|json|table|yaml|compact)"+"``")
	}

	return cmd
}

// query returns the inline query and the block read from stdin, if any.
func (c *cmdShortcut) query(in *os.File, args []string) (string, string, error) {
	fromStdin := len(args) == 1 && args[0] == "-"
	if len(args) == 0 && !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
		fromStdin = true
	}

	if !fromStdin {
		return strings.Join(args, " "), "", nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", "", fmt.Errorf("Failed to read query from standard input: %w", err)
	}

	return "", string(data), nil
}

func (c *cmdShortcut) run(cmd *cobra.Command, args []string) error {
	inline, block, err := c.query(os.Stdin, args)
	if err != nil {
		return err
	}

	remote, err := c.common.client()
	if err != nil {
		return err
	}

	if remote != nil {
		return c.runRemote(cmd, remote, inline, block)
	}

	m, err := c.common.app(cmd.Context())
	if err != nil {
		return err
	}

	defer func() { _ = m.Close(cmd.Context()) }()

	req := shortcut.Request{Name: c.name, Inline: inline, Block: block, Out: cmd.OutOrStdout()}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		req.Rich = render.Terminal{}
	}

	output, err := m.Dispatcher().Do(cmd.Context(), req)
	if err != nil {
		return err
	}

	if output.Result != nil {
		columns, err := output.Result.Schema(cmd.Context())
		if err != nil {
			return err
		}

		return c.renderSchema(columns)
	}

	return nil
}

func (c *cmdShortcut) runRemote(cmd *cobra.Command, remote *client.Client, inline string, block string) error {
	result, err := remote.RunShortcut(cmd.Context(), string(c.name), client.ShortcutPost{Query: inline, Block: block})
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), result.Output)
	if err != nil {
		return err
	}

	if c.name == shortcut.Raw {
		columns := make([]shortcut.Column, len(result.Columns))
		for i, col := range result.Columns {
			columns[i] = shortcut.Column{Name: col.Name, Type: col.Type}
		}

		return c.renderSchema(columns)
	}

	return nil
}

func (c *cmdShortcut) renderSchema(columns []shortcut.Column) error {
	data := make([][]string, len(columns))
	for i, col := range columns {
		data[i] = []string{col.Name, col.Type}
	}

	return cli.RenderTable(c.flagFormat, []string{"COLUMN", "TYPE"}, data, columns)
}

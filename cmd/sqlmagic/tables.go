package main

import (
	"sort"
	"strconv"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlmagic/client"
)

type cmdTables struct {
	common *CmdControl

	flagFormat string
}

func (c *cmdTables) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		RunE:  c.run,
	}

	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|json|table|yaml|compact)"+"``")

	return cmd
}

func (c *cmdTables) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	var relations []client.Relation

	remote, err := c.common.client()
	if err != nil {
		return err
	}

	if remote != nil {
		relations, err = remote.GetRelations(cmd.Context())
		if err != nil {
			return err
		}
	} else {
		m, err := c.common.app(cmd.Context())
		if err != nil {
			return err
		}

		defer func() { _ = m.Close(cmd.Context()) }()

		local, err := m.Engine().Relations(cmd.Context())
		if err != nil {
			return err
		}

		for _, r := range local {
			columns := make([]client.Column, len(r.Columns))
			for i, col := range r.Columns {
				columns[i] = client.Column{Name: col.Name, Type: col.Type}
			}

			relations = append(relations, client.Relation{Name: r.Name, Columns: columns, Rows: r.Rows})
		}
	}

	data := make([][]string, len(relations))
	for i, r := range relations {
		data[i] = []string{r.Name, strconv.Itoa(len(r.Columns)), strconv.Itoa(r.Rows)}
	}

	header := []string{"NAME", "COLUMNS", "ROWS"}
	sort.Sort(cli.SortColumnsNaturally(data))

	return cli.RenderTable(c.flagFormat, header, data, relations)
}

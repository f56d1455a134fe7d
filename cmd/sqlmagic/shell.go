package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type cmdShell struct {
	common *CmdControl
}

func (c *cmdShell) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdShell) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	if c.common.FlagRemote != "" {
		return fmt.Errorf("The shell only runs against a local database")
	}

	m, err := c.common.app(cmd.Context())
	if err != nil {
		return err
	}

	defer func() { _ = m.Close(cmd.Context()) }()

	return m.Shell(cmd.Context(), cmd.OutOrStdout())
}

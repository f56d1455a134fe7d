package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type cmdServe struct {
	common *CmdControl

	flagListen string
}

func (c *cmdServe) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shortcuts over a REST API",
		RunE:  c.run,
	}

	cmd.Flags().StringVarP(&c.flagListen, "listen", "l", "127.0.0.1:8490", "Address to listen on, empty to only serve the control socket of the state directory"+"``")

	return cmd
}

func (c *cmdServe) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	if c.common.FlagRemote != "" {
		return fmt.Errorf("Cannot serve a remote server")
	}

	m, err := c.common.app(cmd.Context())
	if err != nil {
		return err
	}

	defer func() { _ = m.Close(cmd.Context()) }()

	return m.Serve(cmd.Context(), c.flagListen, nil, nil, nil)
}

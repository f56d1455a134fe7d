package main

import (
	"fmt"
	"strconv"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlmagic/client"
	"github.com/canonical/sqlmagic/internal/config"
)

type cmdConfig struct {
	common *CmdControl
}

func (c *cmdConfig) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the rendering options",
		RunE:  c.run,
	}

	var cmdGet = cmdConfigGet{common: c.common}
	cmd.AddCommand(cmdGet.command())

	var cmdSet = cmdConfigSet{common: c.common}
	cmd.AddCommand(cmdSet.command())

	return cmd
}

func (c *cmdConfig) run(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

type cmdConfigGet struct {
	common *CmdControl

	flagFormat string
}

func (c *cmdConfigGet) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the rendering options",
		RunE:  c.run,
	}

	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|json|table|yaml|compact)"+"``")

	return cmd
}

func (c *cmdConfigGet) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	var current config.RenderConfig

	remote, err := c.common.client()
	if err != nil {
		return err
	}

	if remote != nil {
		cfg, err := remote.GetConfig(cmd.Context())
		if err != nil {
			return err
		}

		current = config.DefaultRenderConfig()
		if cfg.MaxDisplayRows != nil {
			current.MaxDisplayRows = *cfg.MaxDisplayRows
		}

		if cfg.ExplainVerbose != nil {
			current.ExplainVerbose = *cfg.ExplainVerbose
		}
	} else {
		m, err := c.common.app(cmd.Context())
		if err != nil {
			return err
		}

		defer func() { _ = m.Close(cmd.Context()) }()

		current = m.Config().Get()
	}

	return cli.RenderTable(c.flagFormat, []string{"KEY", "VALUE"}, current.Values(), current)
}

type cmdConfigSet struct {
	common *CmdControl
}

func (c *cmdConfigSet) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a rendering option",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdConfigSet) run(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return cmd.Help()
	}

	remote, err := c.common.client()
	if err != nil {
		return err
	}

	if remote != nil {
		update := client.Config{}
		switch args[0] {
		case "max_display_rows":
			rows, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("Invalid value %q for %q: %w", args[1], args[0], err)
			}

			update.MaxDisplayRows = &rows
		case "explain_verbose":
			verbose, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("Invalid value %q for %q: %w", args[1], args[0], err)
			}

			update.ExplainVerbose = &verbose
		default:
			return fmt.Errorf("Unknown config key %q", args[0])
		}

		return remote.UpdateConfig(cmd.Context(), update)
	}

	if c.common.FlagEphemeral {
		return fmt.Errorf("Options can't be saved without a state directory")
	}

	m, err := c.common.app(cmd.Context())
	if err != nil {
		return err
	}

	defer func() { _ = m.Close(cmd.Context()) }()

	err = m.Config().SetKey(args[0], args[1])
	if err != nil {
		return err
	}

	return m.Config().Write()
}

// Package main provides the sqlmagic command line tool.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/sqlmagic/client"
	"github.com/canonical/sqlmagic/internal/engine"
	"github.com/canonical/sqlmagic/internal/sys"
	"github.com/canonical/sqlmagic/sqlmagic"
)

// CmdControl has functions that are common to the sqlmagic commands.
type CmdControl struct {
	FlagHelp       bool
	FlagVersion    bool
	FlagLogDebug   bool
	FlagLogVerbose bool
	FlagStateDir   string
	FlagEphemeral  bool
	FlagEngine     string
	FlagDatabase   string
	FlagDataset    string
	FlagRemote     string
	FlagAddress    string
	FlagJoin       []string
}

// app opens the local engine described by the common flags.
func (c *CmdControl) app(ctx context.Context) (*sqlmagic.SQLMagic, error) {
	args := sqlmagic.Args{
		Verbose: c.FlagLogVerbose,
		Debug:   c.FlagLogDebug,
		Dataset: c.FlagDataset,
		Engine: engine.Args{
			Driver:  c.FlagEngine,
			Address: c.FlagAddress,
			Cluster: c.FlagJoin,
		},
	}

	if !c.FlagEphemeral {
		args.StateDir = c.FlagStateDir
		if args.StateDir == "" {
			args.StateDir = sys.DefaultStateDir()
		}
	}

	if c.FlagEngine == engine.DriverDqlite {
		args.Engine.DataDir = c.FlagDatabase
	} else {
		args.Engine.Path = c.FlagDatabase
	}

	return sqlmagic.App(ctx, args)
}

// client returns a client for the server given with --remote, or nil when running locally.
func (c *CmdControl) client() (*client.Client, error) {
	if c.FlagRemote == "" {
		return nil, nil
	}

	return client.New(c.FlagRemote)
}

func main() {
	// common flags.
	commonCmd := CmdControl{}

	app := &cobra.Command{
		Use:               "sqlmagic",
		Short:             "Run SQL shortcuts against an embedded database",
		Version:           sqlmagic.Version,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	app.PersistentFlags().StringVar(&commonCmd.FlagStateDir, "state-dir", "", "Path to store state information (defaults to $"+sys.StateDir+" or ~/.sqlmagic)"+"``")
	app.PersistentFlags().BoolVar(&commonCmd.FlagEphemeral, "ephemeral", false, "Use an in-memory database and default options, without a state directory")
	app.PersistentFlags().StringVar(&commonCmd.FlagEngine, "engine", engine.DriverSQLite, "Database engine ("+engine.DriverSQLite+" or "+engine.DriverDqlite+")"+"``")
	app.PersistentFlags().StringVar(&commonCmd.FlagDatabase, "database", "", "SQLite database file or dqlite data directory"+"``")
	app.PersistentFlags().StringVar(&commonCmd.FlagDataset, "dataset", os.Getenv(sys.Dataset), "Dataset to load at startup (demo or a YAML file)"+"``")
	app.PersistentFlags().StringVar(&commonCmd.FlagAddress, "dqlite-address", "", "Address the dqlite node listens on"+"``")
	app.PersistentFlags().StringSliceVar(&commonCmd.FlagJoin, "dqlite-join", nil, "Addresses of existing dqlite nodes to join"+"``")
	app.PersistentFlags().StringVar(&commonCmd.FlagRemote, "remote", "", "Address or control socket path of a sqlmagic server to send requests to"+"``")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().BoolVar(&commonCmd.FlagVersion, "version", false, "Print version number")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagLogDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagLogVerbose, "verbose", "v", false, "Show all information messages")

	app.SetVersionTemplate("{{.Version}}\n")

	for _, name := range builtinShortcuts {
		var cmdShortcut = cmdShortcut{common: &commonCmd, name: name}
		app.AddCommand(cmdShortcut.command())
	}

	var cmdShell = cmdShell{common: &commonCmd}
	app.AddCommand(cmdShell.command())

	var cmdServe = cmdServe{common: &commonCmd}
	app.AddCommand(cmdServe.command())

	var cmdTables = cmdTables{common: &commonCmd}
	app.AddCommand(cmdTables.command())

	var cmdConfig = cmdConfig{common: &commonCmd}
	app.AddCommand(cmdConfig.command())

	app.InitDefaultHelpCmd()

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

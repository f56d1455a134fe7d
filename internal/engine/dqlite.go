package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dqlite "github.com/canonical/go-dqlite/app"
	"github.com/canonical/lxd/shared/logger"
)

func openDqlite(ctx context.Context, args Args) (*dqlite.App, *sql.DB, error) {
	if args.DataDir == "" {
		return nil, nil, fmt.Errorf("Missing dqlite data directory")
	}

	name := args.Name
	if name == "" {
		name = DefaultDatabaseName
	}

	options := []dqlite.Option{}
	if args.Address != "" {
		options = append(options, dqlite.WithAddress(args.Address))
	}

	if len(args.Cluster) > 0 {
		options = append(options, dqlite.WithCluster(args.Cluster))
	}

	node, err := dqlite.New(args.DataDir, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to start dqlite node: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = node.Ready(readyCtx)
	if err != nil {
		_ = node.Close()
		return nil, nil, fmt.Errorf("Failed to wait for dqlite node: %w", err)
	}

	db, err := node.Open(ctx, name)
	if err != nil {
		_ = node.Close()
		return nil, nil, fmt.Errorf("Failed to open dqlite database %q: %w", name, err)
	}

	logger.Info("Opened dqlite database", logger.Ctx{"name": name, "address": node.Address(), "dir": args.DataDir})

	return node, db, nil
}

func closeDqlite(ctx context.Context, node *dqlite.App) error {
	handoverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := node.Handover(handoverCtx)
	if err != nil {
		logger.Warn("Failed to hand over dqlite roles", logger.Ctx{"err": err})
	}

	err = node.Close()
	if err != nil {
		return fmt.Errorf("Failed to stop dqlite node: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/amonks/myt/internal/config"
	"github.com/amonks/myt/internal/paths"
	"github.com/amonks/myt/internal/taskenv"
	"github.com/amonks/myt/internal/ui"
	"github.com/amonks/myt/task"
)

// openStore opens the task database for one invocation and runs the daily
// recurrence pass.
func openStore(ctx context.Context) (*task.Store, error) {
	cfg, err := config.Load(globalConfigPath)
	if err != nil {
		return nil, err
	}
	ui.SetColor(cfg.View.Color)

	path, err := resolveDatabasePath(cfg)
	if err != nil {
		return nil, err
	}

	now, err := taskenv.Clock()
	if err != nil {
		return nil, err
	}

	horizons, err := cfg.Horizons()
	if err != nil {
		return nil, err
	}

	store, err := task.Open(path, task.OpenOptions{
		Now:      now,
		Logger:   newLogger(),
		Horizons: horizons,
	})
	if err != nil {
		return nil, err
	}

	if _, _, err := store.MaterializeDaily(ctx); err != nil {
		store.Release()
		return nil, fmt.Errorf("daily recurrence: %w", err)
	}
	return store, nil
}

// resolveDatabasePath picks the database path: --db, then $MYT_DB, then the
// config file, then the default location.
func resolveDatabasePath(cfg *config.Config) (string, error) {
	if globalDBPath != "" {
		return paths.ExpandHome(globalDBPath)
	}
	if envPath := taskenv.DatabasePath(); envPath != "" {
		return paths.ExpandHome(envPath)
	}
	configured, err := cfg.DatabasePath()
	if err != nil {
		return "", err
	}
	return paths.ResolveWithDefault(configured, paths.DefaultDatabasePath)
}

func newLogger() *slog.Logger {
	if !globalVerbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func parseFilter(store *task.Store, args []string) (task.Filter, error) {
	return task.ParseFilter(args, store.Today())
}

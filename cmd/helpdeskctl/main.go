package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spec-kit/helpdesk-core/internal/app"
	"github.com/spec-kit/helpdesk-core/internal/cli"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// migrate applies migrations itself and reports them.
	cfg.Postgres.RunMigrations = false

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	cliApp := &cli.App{
		Assignments: a.Assignments,
		Predictions: a.Predictions,
		Auth:        a.Auth,
		Clock:       a.Clock,
	}
	if a.Postgres.Enabled() {
		cliApp.Migrate = func(ctx context.Context) ([]string, error) {
			if err := persistence.RunMigrations(ctx, a.Postgres.PoolHandle(), logger); err != nil {
				return nil, err
			}
			return persistence.MigrationNames()
		}
	}

	return cli.NewRootCmd(cliApp).ExecuteContext(ctx)
}

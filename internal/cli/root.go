// Package cli implements the helpdeskctl operations commands.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// App holds the services CLI commands run against.
type App struct {
	Assignments *service.AssignmentService
	Predictions *service.PredictionService
	Auth        *service.AuthService
	Clock       clock.Clock
	// Migrate applies the embedded migrations and returns their names. Nil
	// when no database is configured.
	Migrate func(ctx context.Context) ([]string, error)
}

// NewRootCmd creates the top-level "helpdeskctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "helpdeskctl",
		Short:         "Operate the helpdesk scheduling core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(app),
		newAutoAssignCmd(app),
		newPredictCmd(app),
		newTokenCmd(app),
	)

	return root
}

func (a *App) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock.Now()
}

// weekFlag parses --week, defaulting to the current week.
func (a *App) weekFlag(value string) (time.Time, error) {
	now := a.now()
	if strings.TrimSpace(value) == "" {
		return domain.WeekStartOf(now), nil
	}
	week, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("--week must be YYYY-MM-DD: %w", err)
	}
	return week, nil
}

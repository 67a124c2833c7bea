package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Migrate == nil {
				return errors.New("POSTGRES_DSN is not set; nothing to migrate")
			}
			applied, err := app.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

func newAutoAssignCmd(app *App) *cobra.Command {
	var (
		workerID   string
		week       string
		categories []string
	)

	cmd := &cobra.Command{
		Use:   "auto-assign",
		Short: "Fill a worker's week with backlog tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := app.weekFlag(week)
			if err != nil {
				return err
			}
			created, err := app.Assignments.AutoAssign(cmd.Context(), workerID, weekStart, categories)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range created {
				fmt.Fprintf(out, "%s\t%s\n", domain.DateKey(a.ScheduledDate), a.TicketID)
			}
			fmt.Fprintf(out, "assigned %d ticket(s) to %s for week of %s\n", len(created), workerID, domain.DateKey(weekStart))
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker", "", "Worker id")
	cmd.Flags().StringVar(&week, "week", "", "Week start (YYYY-MM-DD), defaults to the current week")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Restrict to category ids")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

func newPredictCmd(app *App) *cobra.Command {
	var workerID, week string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast daily ticket throughput for a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := app.weekFlag(week)
			if err != nil {
				return err
			}
			days, err := app.Predictions.Predict(cmd.Context(), workerID, weekStart)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "DATE\tAVAILABLE\tTICKETS\tEFFICIENCY")
			for _, d := range days {
				fmt.Fprintf(out, "%s\t%d\t%d\t%.2f\n", domain.DateKey(d.Date), d.AvailableMinutes, d.PredictedCount, d.Efficiency)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker", "", "Worker id")
	cmd.Flags().StringVar(&week, "week", "", "Week start (YYYY-MM-DD), defaults to the current week")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

func newTokenCmd(app *App) *cobra.Command {
	var workerID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, exp, err := app.Auth.IssueToken(cmd.Context(), workerID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker", "", "Worker id")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// DayWorkload compares planned and spent minutes for one day.
type DayWorkload struct {
	Date           time.Time
	PlannedMinutes int
	SpentMinutes   int
	Ratio          float64
	Level          domain.WorkloadLevel
}

// WorkloadReport summarises a worker's week.
type WorkloadReport struct {
	WorkerID       string
	WeekStart      time.Time
	Days           []DayWorkload
	PlannedMinutes int
	SpentMinutes   int
	Ratio          float64
	Level          domain.WorkloadLevel
}

// ReportService builds workload reports from schedules and registered time.
type ReportService struct {
	tickets     repository.TicketRepository
	sessions    repository.WorkSessionRepository
	assignments repository.AssignmentRepository
	calculator  *EfficiencyCalculator
	clock       clock.Clock
}

// ReportDependencies bundles collaborators for reporting.
type ReportDependencies struct {
	TicketRepo     repository.TicketRepository
	SessionRepo    repository.WorkSessionRepository
	AssignmentRepo repository.AssignmentRepository
	History        TicketHistorySource
	Clock          clock.Clock
}

// NewReportService creates the service.
func NewReportService(deps ReportDependencies) *ReportService {
	c := deps.Clock
	if c == nil {
		c = clock.Real(nil)
	}
	return &ReportService{
		tickets:     deps.TicketRepo,
		sessions:    deps.SessionRepo,
		assignments: deps.AssignmentRepo,
		calculator:  NewEfficiencyCalculator(deps.History),
		clock:       c,
	}
}

// Workload compares the estimated minutes of the worker's scheduled tickets
// with the minutes they registered, per day and for the whole week. Active
// sessions count up to now.
func (s *ReportService) Workload(ctx context.Context, workerID string, weekStart time.Time) (*WorkloadReport, error) {
	if err := requireIDs(map[string]string{"worker_id": workerID}); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	days := domain.WeekDays(weekStart)
	estimator := newTicketEstimator(workerID, s.tickets, s.calculator)

	assignments, err := s.assignments.ListByWorker(ctx, workerID, days[0], days[len(days)-1])
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	planned := make(map[string]int, len(days))
	for _, a := range assignments {
		minutes, err := estimator.estimateByID(ctx, a.TicketID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		planned[domain.DateKey(a.ScheduledDate)] += minutes
	}

	sessions, err := s.sessions.ListByWorker(ctx, workerID, days[0], days[0].AddDate(0, 0, domain.DaysInWeek))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	spent := make(map[string]int, len(days))
	for i := range sessions {
		spent[domain.DateKey(sessions[i].StartedAt.In(days[0].Location()))] += sessions[i].Minutes(now)
	}

	report := &WorkloadReport{WorkerID: workerID, WeekStart: days[0], Days: make([]DayWorkload, 0, len(days))}
	for _, day := range days {
		key := domain.DateKey(day)
		ratio := domain.WorkloadRatio(spent[key], planned[key])
		report.Days = append(report.Days, DayWorkload{
			Date:           day,
			PlannedMinutes: planned[key],
			SpentMinutes:   spent[key],
			Ratio:          domain.RoundRatio(ratio),
			Level:          domain.ClassifyWorkload(ratio),
		})
		report.PlannedMinutes += planned[key]
		report.SpentMinutes += spent[key]
	}
	ratio := domain.WorkloadRatio(report.SpentMinutes, report.PlannedMinutes)
	report.Ratio = domain.RoundRatio(ratio)
	report.Level = domain.ClassifyWorkload(ratio)
	return report, nil
}

// EfficiencySummary reports a worker's efficiency in one category.
type EfficiencySummary struct {
	WorkerID         string
	CategoryID       string
	Efficiency       float64
	DefaultMinutes   int
	EstimatedMinutes int
}

// Efficiency returns the worker's efficiency in the category together with
// the estimate it yields for the category's default duration.
func (s *ReportService) Efficiency(ctx context.Context, workerID string, category domain.Category, from, to *time.Time) (*EfficiencySummary, error) {
	if err := requireIDs(map[string]string{"worker_id": workerID, "category_id": category.ID}); err != nil {
		return nil, err
	}
	eff, err := s.calculator.Efficiency(ctx, workerID, category.ID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &EfficiencySummary{
		WorkerID:         workerID,
		CategoryID:       category.ID,
		Efficiency:       eff,
		DefaultMinutes:   category.DefaultMinutes,
		EstimatedMinutes: domain.EstimatedMinutes(category.DefaultMinutes, domain.NeutralEfficiency(eff)),
	}, nil
}

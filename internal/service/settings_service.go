package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// SettingsUpdate carries a manager's auto-assignment preferences.
type SettingsUpdate struct {
	Enabled              bool
	ConsiderEfficiency   bool
	ConsiderAvailability bool
	MaxTicketsPerWorker  int
}

// RunSummary reports one manager-triggered auto-assignment run.
type RunSummary struct {
	ManagerID string
	WeekStart time.Time
	Skipped   bool
	// Assigned maps worker id to the assignments created for them.
	Assigned map[string][]domain.ScheduleAssignment
	// Busy lists workers whose run was already in progress.
	Busy []string
	// Failed maps worker id to the error that stopped their run.
	Failed map[string]error
	Total  int
}

// SettingsService manages per-manager auto-assignment settings and runs.
type SettingsService struct {
	settings    repository.SettingsRepository
	workers     repository.WorkerRepository
	assignments *AssignmentService
	clock       clock.Clock
	logger      *zap.Logger
}

// SettingsDependencies bundles collaborators for the settings service.
type SettingsDependencies struct {
	SettingsRepo repository.SettingsRepository
	WorkerRepo   repository.WorkerRepository
	Assignments  *AssignmentService
	Clock        clock.Clock
	Logger       *zap.Logger
}

// NewSettingsService creates the service.
func NewSettingsService(deps SettingsDependencies) *SettingsService {
	c := deps.Clock
	if c == nil {
		c = clock.Real(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		settings:    deps.SettingsRepo,
		workers:     deps.WorkerRepo,
		assignments: deps.Assignments,
		clock:       c,
		logger:      logger,
	}
}

// Get returns the manager's settings, or the defaults if none were saved.
func (s *SettingsService) Get(ctx context.Context, managerID string) (*domain.AutoAssignmentSettings, error) {
	if err := requireIDs(map[string]string{"manager_id": managerID}); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx, managerID)
	if err != nil {
		if isNotFound(err) {
			defaults := domain.DefaultAutoAssignmentSettings(managerID)
			return &defaults, nil
		}
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}

// Update stores the manager's settings. Run bookkeeping is preserved.
func (s *SettingsService) Update(ctx context.Context, managerID string, input SettingsUpdate) (*domain.AutoAssignmentSettings, error) {
	if err := requireIDs(map[string]string{"manager_id": managerID}); err != nil {
		return nil, err
	}
	if input.MaxTicketsPerWorker <= 0 {
		return nil, apperrors.NewValidationError("max_tickets_per_worker must be positive",
			map[string]any{"max_tickets_per_worker": input.MaxTicketsPerWorker})
	}
	current, err := s.Get(ctx, managerID)
	if err != nil {
		return nil, err
	}
	current.Enabled = input.Enabled
	current.ConsiderEfficiency = input.ConsiderEfficiency
	current.ConsiderAvailability = input.ConsiderAvailability
	current.MaxTicketsPerWorker = input.MaxTicketsPerWorker
	current.UpdatedAt = s.clock.Now()
	if err := s.settings.Save(ctx, current); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("auto-assign settings updated",
		zap.String("manager_id", managerID),
		zap.Bool("enabled", current.Enabled))
	return current, nil
}

// Run auto-assigns the given workers, or every active agent when none are
// given, and records the run against the manager's settings. A worker whose
// run fails is reported in Failed and the rest still run; the recorded total
// counts only assignments that were created. Disabled settings skip the run. Only Enabled is consulted; the other flags are
// informational.
func (s *SettingsService) Run(ctx context.Context, managerID string, workerIDs []string, weekStart time.Time) (*RunSummary, error) {
	settings, err := s.Get(ctx, managerID)
	if err != nil {
		return nil, err
	}
	summary := &RunSummary{
		ManagerID: managerID,
		WeekStart: domain.StartOfDay(weekStart),
		Assigned:  make(map[string][]domain.ScheduleAssignment),
		Failed:    make(map[string]error),
	}
	if !settings.Enabled {
		summary.Skipped = true
		return summary, nil
	}

	if len(workerIDs) == 0 {
		agent := domain.WorkerRoleAgent
		workers, err := s.workers.ListActive(ctx, &agent)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, w := range workers {
			workerIDs = append(workerIDs, w.ID)
		}
	}

	for _, workerID := range workerIDs {
		created, err := s.assignments.AutoAssign(ctx, workerID, weekStart, nil)
		if err != nil {
			if errors.Is(err, apperrors.ErrAutoAssignInProgress) {
				summary.Busy = append(summary.Busy, workerID)
				continue
			}
			summary.Failed[workerID] = err
			s.logger.Warn("auto-assign run failed for worker",
				zap.String("manager_id", managerID),
				zap.String("worker_id", workerID),
				zap.Error(err))
			continue
		}
		summary.Assigned[workerID] = created
		summary.Total += len(created)
	}

	if err := s.settings.RecordRun(ctx, managerID, s.clock.Now(), summary.Total); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("auto-assign run recorded",
		zap.String("manager_id", managerID),
		zap.Int("workers", len(workerIDs)),
		zap.Int("assigned", summary.Total),
		zap.Int("failed", len(summary.Failed)))
	return summary, nil
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// DefaultAverageMinutes is the per-ticket duration assumed when no category exists.
const DefaultAverageMinutes = 30

// DayPrediction forecasts how many tickets a worker can finish on one day.
type DayPrediction struct {
	Date             time.Time
	PredictedCount   int
	AvailableMinutes int
	Efficiency       float64
}

// PredictionService forecasts daily ticket throughput.
type PredictionService struct {
	workers        repository.WorkerRepository
	categories     repository.CategoryRepository
	availability   *AvailabilityAggregator
	calculator     *EfficiencyCalculator
	defaultMinutes int
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// PredictionDependencies bundles collaborators for the prediction engine.
type PredictionDependencies struct {
	WorkerRepo     repository.WorkerRepository
	CategoryRepo   repository.CategoryRepository
	Availability   AvailabilitySource
	History        TicketHistorySource
	DefaultMinutes int
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewPredictionService creates the service.
func NewPredictionService(deps PredictionDependencies) *PredictionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultMinutes := deps.DefaultMinutes
	if defaultMinutes <= 0 {
		defaultMinutes = DefaultAverageMinutes
	}
	return &PredictionService{
		workers:        deps.WorkerRepo,
		categories:     deps.CategoryRepo,
		availability:   NewAvailabilityAggregator(deps.Availability),
		calculator:     NewEfficiencyCalculator(deps.History),
		defaultMinutes: defaultMinutes,
		logger:         logger,
		metrics:        deps.Metrics,
	}
}

// Predict returns seven day forecasts starting at weekStart. Each day's count
// is its available minutes divided by the worker's efficiency-adjusted
// average ticket duration.
func (s *PredictionService) Predict(ctx context.Context, workerID string, weekStart time.Time) ([]DayPrediction, error) {
	if err := requireIDs(map[string]string{"worker_id": workerID}); err != nil {
		return nil, err
	}

	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, translateLookup(err, "worker", map[string]any{"worker_id": workerID})
	}

	available, err := s.availability.MinutesByDay(ctx, workerID, weekStart)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	categories, err := s.eligibleCategories(ctx, worker)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	avgDefault := float64(s.defaultMinutes)
	if len(categories) > 0 {
		total := 0
		for _, c := range categories {
			total += max(1, c.DefaultMinutes)
		}
		avgDefault = float64(total) / float64(len(categories))
	}

	var effSum float64
	var effCount int
	for _, c := range categories {
		eff, err := s.calculator.Efficiency(ctx, workerID, c.ID, nil, nil)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if eff > 0 {
			effSum += eff
			effCount++
		}
	}
	avgEfficiency := domain.NeutralEfficiencyValue
	if effCount > 0 {
		avgEfficiency = effSum / float64(effCount)
	}

	adjusted := domain.EstimateFromAverage(avgDefault, avgEfficiency)

	days := domain.WeekDays(weekStart)
	predictions := make([]DayPrediction, 0, len(days))
	for _, day := range days {
		minutes := available[domain.DateKey(day)]
		predictions = append(predictions, DayPrediction{
			Date:             day,
			PredictedCount:   max(0, minutes/adjusted),
			AvailableMinutes: minutes,
			Efficiency:       domain.RoundRatio(avgEfficiency),
		})
	}

	s.metrics.RecordPrediction()
	s.logger.Debug("prediction computed",
		zap.String("worker_id", workerID),
		zap.String("week_start", domain.DateKey(days[0])),
		zap.Int("adjusted_minutes", adjusted),
		zap.Int("categories", len(categories)))
	return predictions, nil
}

// eligibleCategories returns the worker's categories, or every category for
// a worker without any. Unknown category ids are ignored.
func (s *PredictionService) eligibleCategories(ctx context.Context, worker *domain.Worker) ([]domain.Category, error) {
	if len(worker.CategoryIDs) == 0 {
		return s.categories.List(ctx)
	}
	categories := make([]domain.Category, 0, len(worker.CategoryIDs))
	for _, id := range worker.CategoryIDs {
		c, err := s.categories.GetByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, nil
}

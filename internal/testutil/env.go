package testutil

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/repository/memory"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// Env is the whole service graph wired on the in-memory store and a fake clock.
type Env struct {
	Store      *memory.Store
	Clock      *clock.FakeClock
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Locker     *persistence.LocalLocker

	Tickets     repository.TicketRepository
	Sessions    repository.WorkSessionRepository
	Assignments repository.AssignmentRepository
	Slots       repository.AvailabilityRepository
	Categories  repository.CategoryRepository
	Workers     repository.WorkerRepository
	SettingsDB  repository.SettingsRepository
	UnitOfWork  repository.UnitOfWork

	Access       *auth.CategoryAccess
	Work         *service.WorkSessionService
	Scheduler    *service.AssignmentService
	Predictions  *service.PredictionService
	Reports      *service.ReportService
	Settings     *service.SettingsService
	Auth         *service.AuthService
	Efficiency   *service.EfficiencyCalculator
	Availability *service.AvailabilityAggregator
}

// TestAuthConfig is the auth configuration used by NewEnv.
var TestAuthConfig = config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}

// NewEnv wires every service with the clock set to now.
func NewEnv(now time.Time) *Env {
	store := memory.NewStore()
	env := &Env{
		Store:       store,
		Clock:       clock.Fake(now),
		Dispatcher:  events.NewInMemoryDispatcher(),
		Metrics:     observability.NewMetrics(),
		Locker:      persistence.NewLocalLocker(),
		Tickets:     memory.NewTicketRepository(store),
		Sessions:    memory.NewWorkSessionRepository(store),
		Assignments: memory.NewAssignmentRepository(store),
		Slots:       memory.NewAvailabilityRepository(store),
		Categories:  memory.NewCategoryRepository(store),
		Workers:     memory.NewWorkerRepository(store),
		SettingsDB:  memory.NewSettingsRepository(store),
		UnitOfWork:  memory.NewUnitOfWork(store),
	}
	ids := SequentialIDs("id")
	logger := zap.NewNop()

	env.Access = auth.NewCategoryAccess(env.Workers)
	env.Efficiency = service.NewEfficiencyCalculator(env.Tickets)
	env.Availability = service.NewAvailabilityAggregator(env.Slots)
	env.Work = service.NewWorkSessionService(service.WorkSessionDependencies{
		TicketRepo:  env.Tickets,
		SessionRepo: env.Sessions,
		UnitOfWork:  env.UnitOfWork,
		Clock:       env.Clock,
		IDGenerator: ids,
		Dispatcher:  env.Dispatcher,
		Logger:      logger,
		Metrics:     env.Metrics,
	})
	env.Scheduler = service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     env.Tickets,
		AssignmentRepo: env.Assignments,
		Backlog:        service.NewBacklogSource(env.Tickets, env.Workers),
		Availability:   env.Slots,
		History:        env.Tickets,
		Access:         env.Access,
		Locker:         env.Locker,
		LockTTL:        time.Minute,
		Clock:          env.Clock,
		IDGenerator:    ids,
		Dispatcher:     env.Dispatcher,
		Logger:         logger,
		Metrics:        env.Metrics,
	})
	env.Predictions = service.NewPredictionService(service.PredictionDependencies{
		WorkerRepo:   env.Workers,
		CategoryRepo: env.Categories,
		Availability: env.Slots,
		History:      env.Tickets,
		Logger:       logger,
		Metrics:      env.Metrics,
	})
	env.Reports = service.NewReportService(service.ReportDependencies{
		TicketRepo:     env.Tickets,
		SessionRepo:    env.Sessions,
		AssignmentRepo: env.Assignments,
		History:        env.Tickets,
		Clock:          env.Clock,
	})
	env.Settings = service.NewSettingsService(service.SettingsDependencies{
		SettingsRepo: env.SettingsDB,
		WorkerRepo:   env.Workers,
		Assignments:  env.Scheduler,
		Clock:        env.Clock,
		Logger:       logger,
	})
	env.Auth = service.NewAuthService(TestAuthConfig, service.AuthDependencies{
		WorkerRepo: env.Workers,
		Logger:     logger,
	})
	return env
}

// Package app assembles repositories and services from configuration. The
// API server and the helpdeskctl CLI share it.
package app

import (
	"context"
	"fmt"

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

// Repositories groups the store implementations in use.
type Repositories struct {
	Tickets     repository.TicketRepository
	Sessions    repository.WorkSessionRepository
	Assignments repository.AssignmentRepository
	Slots       repository.AvailabilityRepository
	Categories  repository.CategoryRepository
	Workers     repository.WorkerRepository
	Settings    repository.SettingsRepository
	UnitOfWork  repository.UnitOfWork
}

// App is the assembled service graph.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Repos      Repositories

	Work          *service.WorkSessionService
	Assignments   *service.AssignmentService
	Predictions   *service.PredictionService
	Reports       *service.ReportService
	Settings      *service.SettingsService
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Access        *auth.CategoryAccess
}

// New connects the configured stores and wires every service. Without a
// Postgres DSN the in-memory store is used; without Redis the run lock is
// process local.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rdb := persistence.NewRedis(cfg.Redis, logger)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Postgres:   pg,
		Redis:      rdb,
		Clock:      clock.Real(loc),
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(),
		Repos:      newRepositories(pg),
	}
	a.wire(persistence.NewRunLocker(rdb))
	return a, nil
}

func newRepositories(pg *persistence.Postgres) Repositories {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return Repositories{
			Tickets:     repository.NewTicketRepository(pool),
			Sessions:    repository.NewWorkSessionRepository(pool),
			Assignments: repository.NewAssignmentRepository(pool),
			Slots:       repository.NewAvailabilityRepository(pool),
			Categories:  repository.NewCategoryRepository(pool),
			Workers:     repository.NewWorkerRepository(pool),
			Settings:    repository.NewSettingsRepository(pool),
			UnitOfWork:  repository.NewUnitOfWork(pool),
		}
	}
	store := memory.NewStore()
	return Repositories{
		Tickets:     memory.NewTicketRepository(store),
		Sessions:    memory.NewWorkSessionRepository(store),
		Assignments: memory.NewAssignmentRepository(store),
		Slots:       memory.NewAvailabilityRepository(store),
		Categories:  memory.NewCategoryRepository(store),
		Workers:     memory.NewWorkerRepository(store),
		Settings:    memory.NewSettingsRepository(store),
		UnitOfWork:  memory.NewUnitOfWork(store),
	}
}

func (a *App) wire(locker persistence.RunLocker) {
	r := a.Repos
	a.Access = auth.NewCategoryAccess(r.Workers)
	a.Work = service.NewWorkSessionService(service.WorkSessionDependencies{
		TicketRepo:  r.Tickets,
		SessionRepo: r.Sessions,
		UnitOfWork:  r.UnitOfWork,
		Clock:       a.Clock,
		Dispatcher:  a.Dispatcher,
		Logger:      a.Logger,
		Metrics:     a.Metrics,
	})
	a.Assignments = service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     r.Tickets,
		AssignmentRepo: r.Assignments,
		Backlog:        service.NewBacklogSource(r.Tickets, r.Workers),
		Availability:   r.Slots,
		History:        r.Tickets,
		Access:         a.Access,
		Locker:         locker,
		LockTTL:        a.Config.Scheduler.LockTTL(),
		Clock:          a.Clock,
		Dispatcher:     a.Dispatcher,
		Logger:         a.Logger,
		Metrics:        a.Metrics,
	})
	a.Predictions = service.NewPredictionService(service.PredictionDependencies{
		WorkerRepo:     r.Workers,
		CategoryRepo:   r.Categories,
		Availability:   r.Slots,
		History:        r.Tickets,
		DefaultMinutes: a.Config.Scheduler.DefaultCategoryMinutes,
		Logger:         a.Logger,
		Metrics:        a.Metrics,
	})
	a.Reports = service.NewReportService(service.ReportDependencies{
		TicketRepo:     r.Tickets,
		SessionRepo:    r.Sessions,
		AssignmentRepo: r.Assignments,
		History:        r.Tickets,
		Clock:          a.Clock,
	})
	a.Settings = service.NewSettingsService(service.SettingsDependencies{
		SettingsRepo: r.Settings,
		WorkerRepo:   r.Workers,
		Assignments:  a.Assignments,
		Clock:        a.Clock,
		Logger:       a.Logger,
	})
	a.Auth = service.NewAuthService(a.Config.Auth, service.AuthDependencies{
		WorkerRepo: r.Workers,
		Logger:     a.Logger,
	})
	a.Notifications = service.NewNotificationService(a.Dispatcher, a.Logger, a.Config.Notification)
}

// Close releases store connections.
func (a *App) Close() {
	a.Redis.Close()
	a.Postgres.Close()
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Work           *handlers.WorkHandler
	Schedule       *handlers.ScheduleHandler
	Settings       *handlers.SettingsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/:id/work/start", cfg.Work.StartWork)
	tickets.Post("/:id/work/stop", cfg.Work.StopWork)
	tickets.Post("/:id/time-entries", cfg.Work.RegisterTime)
	tickets.Patch("/:id/status", cfg.Work.ChangeStatus)
	tickets.Post("/:id/close", cfg.Work.Close)
	tickets.Get("/:id/sessions", cfg.Work.ListSessions)

	api.Post("/schedule", cfg.Schedule.Assign)
	api.Delete("/schedule/:workerId/:ticketId/:date", cfg.Schedule.Remove)

	workers := api.Group("/workers")
	workers.Get("/:id/schedule", cfg.Schedule.Schedule)
	workers.Post("/:id/auto-assign", cfg.Schedule.AutoAssign)
	workers.Get("/:id/prediction", cfg.Schedule.Prediction)
	workers.Get("/:id/workload", cfg.Schedule.Workload)
	workers.Get("/:id/efficiency", cfg.Schedule.Efficiency)

	settings := api.Group("/settings/auto-assign", auth.RequireManager())
	settings.Get("/", cfg.Settings.Get)
	settings.Put("/", cfg.Settings.Update)
	settings.Post("/run", cfg.Settings.Run)
}

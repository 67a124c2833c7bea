package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// SettingsHandler exposes the caller's auto-assignment settings and runs.
// Routes are mounted behind auth.RequireManager.
type SettingsHandler struct {
	settings *service.SettingsService
	clock    clock.Clock
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings *service.SettingsService, c clock.Clock) *SettingsHandler {
	if c == nil {
		c = clock.Real(nil)
	}
	return &SettingsHandler{settings: settings, clock: c}
}

// Get GET /settings/auto-assign.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	settings, err := h.settings.Get(c.UserContext(), p.Worker.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SettingsFromDomain(settings)})
}

// Update PUT /settings/auto-assign.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	settings, err := h.settings.Update(c.UserContext(), p.Worker.ID, service.SettingsUpdate{
		Enabled:              req.Enabled,
		ConsiderEfficiency:   req.ConsiderEfficiency,
		ConsiderAvailability: req.ConsiderAvailability,
		MaxTicketsPerWorker:  req.MaxTicketsPerWorker,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SettingsFromDomain(settings)})
}

// Run POST /settings/auto-assign/run.
func (h *SettingsHandler) Run(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.RunRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	week, err := resolveWeek(req.WeekStart, h.clock.Now())
	if err != nil {
		return err
	}
	summary, err := h.settings.Run(c.UserContext(), p.Worker.ID, req.WorkerIDs, week)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RunFromService(summary)})
}

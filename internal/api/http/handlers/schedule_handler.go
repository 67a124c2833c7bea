package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// ScheduleHandler exposes calendars, auto-assignment and forecasts.
type ScheduleHandler struct {
	assignments *service.AssignmentService
	predictions *service.PredictionService
	reports     *service.ReportService
	categories  repository.CategoryRepository
	clock       clock.Clock
}

// ScheduleHandlerDeps bundles the handler's collaborators.
type ScheduleHandlerDeps struct {
	Assignments *service.AssignmentService
	Predictions *service.PredictionService
	Reports     *service.ReportService
	Categories  repository.CategoryRepository
	Clock       clock.Clock
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(deps ScheduleHandlerDeps) *ScheduleHandler {
	c := deps.Clock
	if c == nil {
		c = clock.Real(nil)
	}
	return &ScheduleHandler{
		assignments: deps.Assignments,
		predictions: deps.Predictions,
		reports:     deps.Reports,
		categories:  deps.Categories,
		clock:       c,
	}
}

// Assign POST /schedule.
func (h *ScheduleHandler) Assign(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	workerID, err := actingWorker(c, req.WorkerID)
	if err != nil {
		return err
	}
	date, err := parseDate(req.Date, h.clock.Now().Location())
	if err != nil {
		return err
	}
	assignedBy := p.Worker.ID
	assignment, err := h.assignments.Assign(c.UserContext(), req.TicketID, workerID, date, &assignedBy)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AssignmentFromDomain(assignment)})
}

// Remove DELETE /schedule/:workerId/:ticketId/:date.
func (h *ScheduleHandler) Remove(c *fiber.Ctx) error {
	workerID, err := actingWorker(c, c.Params("workerId"))
	if err != nil {
		return err
	}
	date, err := parseDate(c.Params("date"), h.clock.Now().Location())
	if err != nil {
		return err
	}
	if err := h.assignments.Remove(c.UserContext(), c.Params("ticketId"), workerID, date); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Schedule GET /workers/:id/schedule?week=YYYY-MM-DD.
func (h *ScheduleHandler) Schedule(c *fiber.Ctx) error {
	workerID, err := actingWorker(c, c.Params("id"))
	if err != nil {
		return err
	}
	week, err := resolveWeek(c.Query("week"), h.clock.Now())
	if err != nil {
		return err
	}
	list, err := h.assignments.ListSchedule(c.UserContext(), workerID, week)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssignmentsFromDomain(list)})
}

// AutoAssign POST /workers/:id/auto-assign.
func (h *ScheduleHandler) AutoAssign(c *fiber.Ctx) error {
	workerID, err := actingWorker(c, c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.AutoAssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	week, err := resolveWeek(req.WeekStart, h.clock.Now())
	if err != nil {
		return err
	}
	created, err := h.assignments.AutoAssign(c.UserContext(), workerID, week, req.CategoryIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssignmentsFromDomain(created)})
}

// Prediction GET /workers/:id/prediction?week=YYYY-MM-DD.
func (h *ScheduleHandler) Prediction(c *fiber.Ctx) error {
	workerID, err := actingWorker(c, c.Params("id"))
	if err != nil {
		return err
	}
	week, err := resolveWeek(c.Query("week"), h.clock.Now())
	if err != nil {
		return err
	}
	days, err := h.predictions.Predict(c.UserContext(), workerID, week)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PredictionsFromService(days)})
}

// Workload GET /workers/:id/workload?week=YYYY-MM-DD.
func (h *ScheduleHandler) Workload(c *fiber.Ctx) error {
	workerID, err := actingWorker(c, c.Params("id"))
	if err != nil {
		return err
	}
	week, err := resolveWeek(c.Query("week"), h.clock.Now())
	if err != nil {
		return err
	}
	report, err := h.reports.Workload(c.UserContext(), workerID, week)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkloadFromService(report)})
}

// Efficiency GET /workers/:id/efficiency?category=ID[&from=&to=].
func (h *ScheduleHandler) Efficiency(c *fiber.Ctx) error {
	workerID, err := actingWorker(c, c.Params("id"))
	if err != nil {
		return err
	}
	categoryID := c.Query("category")
	if categoryID == "" {
		return apperrors.NewInvalidArgument("category")
	}
	loc := h.clock.Now().Location()
	from, err := parseOptionalDate(c.Query("from"), loc)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(c.Query("to"), loc)
	if err != nil {
		return err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1).Add(-1)
		to = &end
	}
	category, err := h.categories.GetByID(c.UserContext(), categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return apperrors.MapError(err)
	}
	summary, err := h.reports.Efficiency(c.UserContext(), workerID, *category, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EfficiencyResponse{
		WorkerID:         summary.WorkerID,
		CategoryID:       summary.CategoryID,
		Efficiency:       summary.Efficiency,
		DefaultMinutes:   summary.DefaultMinutes,
		EstimatedMinutes: summary.EstimatedMinutes,
	}})
}

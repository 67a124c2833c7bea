package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// WorkHandler exposes the work-session state machine on tickets.
type WorkHandler struct {
	service *service.WorkSessionService
}

// NewWorkHandler constructs handler.
func NewWorkHandler(workService *service.WorkSessionService) *WorkHandler {
	return &WorkHandler{service: workService}
}

// StartWork POST /tickets/:id/work/start.
func (h *WorkHandler) StartWork(c *fiber.Ctx) error {
	var req dto.WorkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	workerID, err := actingWorker(c, req.WorkerID)
	if err != nil {
		return err
	}
	session, err := h.service.StartWork(c.UserContext(), c.Params("id"), workerID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionFromDomain(session)})
}

// StopWork POST /tickets/:id/work/stop.
func (h *WorkHandler) StopWork(c *fiber.Ctx) error {
	var req dto.StopWorkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	workerID, err := actingWorker(c, req.WorkerID)
	if err != nil {
		return err
	}
	session, err := h.service.StopWork(c.UserContext(), c.Params("id"), workerID, req.DurationMinutes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionFromDomain(session)})
}

// RegisterTime POST /tickets/:id/time-entries.
func (h *WorkHandler) RegisterTime(c *fiber.Ctx) error {
	var req dto.TimeEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	workerID, err := actingWorker(c, req.WorkerID)
	if err != nil {
		return err
	}
	session, err := h.service.RegisterManualTimeEntry(c.UserContext(), c.Params("id"), workerID, req.Minutes, req.IsPhoneCall)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionFromDomain(session)})
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *WorkHandler) ChangeStatus(c *fiber.Ctx) error {
	if _, err := principal(c); err != nil {
		return err
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Close POST /tickets/:id/close.
func (h *WorkHandler) Close(c *fiber.Ctx) error {
	var req dto.CloseTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	workerID, err := actingWorker(c, req.WorkerID)
	if err != nil {
		return err
	}
	ticket, err := h.service.Close(c.UserContext(), c.Params("id"), workerID, req.ClosedAt)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ListSessions GET /tickets/:id/sessions.
func (h *WorkHandler) ListSessions(c *fiber.Ctx) error {
	if _, err := principal(c); err != nil {
		return err
	}
	sessions, err := h.service.ListSessions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.WorkSessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, dto.SessionFromDomain(&sessions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dto.DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("dates use YYYY-MM-DD", map[string]any{"value": value})
	}
	return t, nil
}

func parseOptionalDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// resolveWeek parses the week start, defaulting to the Monday of now's week.
func resolveWeek(value string, now time.Time) (time.Time, error) {
	if value != "" {
		return parseDate(value, now.Location())
	}
	return domain.WeekStartOf(now), nil
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.Worker == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// actingWorker resolves the worker a request acts for. An empty id means the
// caller; agents may not act for anyone else.
func actingWorker(c *fiber.Ctx, requested string) (string, error) {
	p, err := principal(c)
	if err != nil {
		return "", err
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return p.Worker.ID, nil
	}
	if !p.CanActOn(requested) {
		return "", apperrors.NewForbidden("cannot act on another worker")
	}
	return requested, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

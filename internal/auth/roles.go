package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// RequireRole ensures the worker has one of the allowed roles.
func RequireRole(allowed ...domain.WorkerRole) fiber.Handler {
	allowedSet := make(map[domain.WorkerRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Worker == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Worker.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireManager admits managers and admins.
func RequireManager() fiber.Handler {
	return RequireRole(domain.WorkerRoleManager, domain.WorkerRoleAdmin)
}

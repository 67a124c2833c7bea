package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated worker.
type Principal struct {
	Worker *domain.Worker
}

// CanActOn reports whether the caller may act on the given worker's behalf.
// Agents act only for themselves; managers and admins act for anyone.
func (p *Principal) CanActOn(workerID string) bool {
	if p == nil || p.Worker == nil {
		return false
	}
	return p.Worker.ID == workerID || p.Worker.CanManage()
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	workers repository.WorkerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, workers repository.WorkerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, workers: workers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	worker, err := m.workers.GetByID(c.UserContext(), claims.WorkerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("worker not found")
		}
		return apperrors.MapError(err)
	}
	if !worker.Active {
		return apperrors.NewUnauthorized("worker inactive")
	}

	c.Locals(principalKey, &Principal{Worker: worker})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated worker.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

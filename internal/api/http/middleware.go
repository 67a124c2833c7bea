package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders every error as {"error": {code, message, details}}.
// Server faults are logged with the acting worker; rejected scheduling and
// work-session calls are logged at debug with their code.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					append(requestFields(c), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))...)
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				fields := append(requestFields(c), zap.String("code", domainErr.Code))
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", append(fields, zap.Error(domainErr))...)
				} else {
					logger.Debug("request rejected", append(fields, zap.Any("details", domainErr.Details))...)
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

func requestFields(c *fiber.Ctx) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}
	if p, ok := auth.PrincipalFromContext(c); ok && p.Worker != nil {
		fields = append(fields,
			zap.String("worker_id", p.Worker.ID),
			zap.String("role", string(p.Worker.Role)))
	}
	if ticketID := c.Params("id"); ticketID != "" && strings.HasPrefix(c.Path(), "/api/v1/tickets/") {
		fields = append(fields, zap.String("ticket_id", ticketID))
	}
	return fields
}

package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs each request and records it in metrics. Routes are
// keyed by their pattern so path parameters do not explode the counters.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		metrics.RecordRequest(path, c.Method(), status, elapsed)

		logger.Info("http request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uniportal/PortalBack/internal/metrics"
)

// Metrics records Prometheus request counters labelled by route pattern to
// keep cardinality bounded.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		status := c.Response().StatusCode()
		if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		}

		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}

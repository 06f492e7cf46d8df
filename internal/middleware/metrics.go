package middleware

import (
	"strconv"
	"time"

	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Metrics records request counts and latency by route pattern. It must run
// inside RequestLogger so the final status code is known.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		handleChainError(c, err)

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		m.ObserveRequest(c.Method(), route, strconv.Itoa(c.Response().StatusCode()), time.Since(start).Seconds())
		return nil
	}
}

func MetricsHandler(m *metrics.Metrics) fiber.Handler {
	return adaptor.HTTPHandler(m.Handler())
}

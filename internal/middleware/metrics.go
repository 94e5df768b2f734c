package middleware

import (
	"errors"
	"strconv"
	"time"

	"storefront/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics counts requests and observes latency per matched route.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		m.Requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.Latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

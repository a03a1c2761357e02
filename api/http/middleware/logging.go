package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs one line per request through apex/log. For streamed
// pages the line is written when headers are ready, not when the body ends.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		entry := log.WithFields(log.Fields{
			"method":  c.Method(),
			"path":    strings.Clone(c.Path()),
			"status":  status,
			"latency": time.Since(start),
			"ip":      c.IP(),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Warn("request")
		case status >= fiber.StatusBadRequest:
			entry.Info("request")
		default:
			entry.Debug("request")
		}
		return err
	}
}

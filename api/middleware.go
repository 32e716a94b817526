package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// observe tags the request with an id, then logs and measures it once it completes.
func (s *Server) observe(c fiber.Ctx) error {
	start := time.Now()

	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeader, id)

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	elapsed := time.Since(start)
	route := c.Route().Path

	if s.Metrics != nil {
		s.Metrics.ObserveRequest(c.Method(), route, status, elapsed)
	}
	s.logger().Info("request",
		zap.String("request_id", id),
		zap.String("method", c.Method()),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed))

	return err
}

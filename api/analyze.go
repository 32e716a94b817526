package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/walletflow/analysis"
	"go.uber.org/zap"
)

func (s *Server) analyze(c fiber.Ctx) error {
	var req analysis.Request
	if err := c.Bind().JSON(&req); err != nil || req.Flow == nil || req.Flow.Nodes == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid flow structure",
		})
	}
	req.Network = s.network(req.Network)
	if err := req.Normalize(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	ctx := c.Context()
	if s.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AnalysisTimeout)
		defer cancel()
	}

	report, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		s.logger().Error("analysis failed", zap.Error(err))
		details := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			details = "analysis timed out"
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Analysis failed",
			"details": details,
		})
	}
	return c.JSON(fiber.Map{"success": true, "analysis": report})
}

package analysis

import (
	"context"

	"go.uber.org/zap"
)

// Fallback asks primary first and secondary when primary fails.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    *zap.Logger
}

// NewFallback chains two providers. A nil logger discards the failure log.
func NewFallback(primary, secondary Provider, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Analyze(ctx context.Context, req Request) (*Report, error) {
	report, err := f.primary.Analyze(ctx, req)
	if err == nil {
		return report, nil
	}
	f.logger.Warn("primary analysis failed, using fallback", zap.Error(err))
	return f.secondary.Analyze(ctx, req)
}

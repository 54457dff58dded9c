package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs stage start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, s *Step, next Handler) error {
		logger.Info("stage started",
			slog.String("stage", s.Stage),
			slog.String("run_id", s.RunID.String()),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("stage failed",
				slog.String("stage", s.Stage),
				slog.String("run_id", s.RunID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("stage completed",
				slog.String("stage", s.Stage),
				slog.String("run_id", s.RunID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}

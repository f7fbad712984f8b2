package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/stayops/apisvc"
)

// LoggingInterceptor creates an interceptor that logs outgoing calls using slog.
// It logs the start and end of each call, including duration and status.
func LoggingInterceptor(logger *slog.Logger) apisvc.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req *apisvc.Request, next apisvc.Invoker) (*apisvc.Response, error) {
		start := time.Now()
		endpoint := req.Method + " " + req.Path

		logger.DebugContext(ctx, "request started",
			slog.String("endpoint", endpoint),
		)

		res, err := next(ctx, req)
		duration := time.Since(start)

		status := 0
		if res != nil {
			status = res.Status
		}

		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				slog.String("endpoint", endpoint),
				slog.Int("status", status),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			logger.InfoContext(ctx, "request completed",
				slog.String("endpoint", endpoint),
				slog.Int("status", status),
				slog.Duration("duration", duration),
			)
		}

		return res, err
	}
}

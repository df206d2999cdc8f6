package middleware

import (
	"context"
	"log/slog"
	"time"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/queries"
)

func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		if logger == nil {
			return next
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		if logger == nil {
			return next
		}
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, took time.Duration, err error) {
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, kind+" failed",
			slog.String("key", key),
			slog.Duration("duration", took),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.LogAttrs(ctx, slog.LevelDebug, kind+" handled",
		slog.String("key", key),
		slog.Duration("duration", took),
	)
}

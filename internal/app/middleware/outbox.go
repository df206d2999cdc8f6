package middleware

import (
	"context"
	"log/slog"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/outbox"
)

// OutboxFlush signals the outbox after every successful command. The command
// result stands even when the flush fails; staged records are picked up by the
// relay's next poll.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}

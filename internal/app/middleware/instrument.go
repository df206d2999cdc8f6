package middleware

import (
	"context"
	"time"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/queries"
)

// Recorder receives per-message outcomes, typically backed by Prometheus.
type Recorder interface {
	ObserveCommand(key string, err error, took time.Duration)
	ObserveQuery(key string, err error, took time.Duration)
}

func Instrument(rec Recorder) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		if rec == nil {
			return next
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			rec.ObserveCommand(cmd.Key(), err, time.Since(start))
			return res, err
		})
	}
}

func QueryInstrument(rec Recorder) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		if rec == nil {
			return next
		}
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			rec.ObserveQuery(q.Key(), err, time.Since(start))
			return res, err
		})
	}
}

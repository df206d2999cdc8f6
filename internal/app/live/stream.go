package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

const defaultPollInterval = 2 * time.Second

var errSignalClosed = errors.New("live: change signal closed")

// Gauge is satisfied by prometheus.Gauge.
type Gauge interface {
	Inc()
	Dec()
}

type Config struct {
	Signals policies.ChangeSignals
	Topic   string
	// Interval is the reload period used alongside signals, or alone without them.
	Interval time.Duration
	Logger   *slog.Logger
	Active   Gauge
}

// Stream delivers successive snapshots of a reloadable value. Delivery is
// latest-wins: a slow reader skips intermediate snapshots, never the newest.
// The stream ends on Close, on context cancellation, or on the first load or
// signal failure, which Err then reports wrapped in chat.ErrListener.
type Stream[T any] struct {
	updates chan T
	done    chan struct{}
	cancel  context.CancelFunc

	mu  sync.Mutex
	err error
}

func (s *Stream[T]) Updates() <-chan T { return s.updates }

func (s *Stream[T]) Done() <-chan struct{} { return s.done }

func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the stream and waits for its loop to exit.
func (s *Stream[T]) Close() {
	s.cancel()
	<-s.done
}

// Watch loads an initial snapshot and returns a stream that reloads whenever
// cfg.Topic is signalled or the interval elapses. equal suppresses reloads that
// changed nothing. An initial load failure is returned unwrapped.
func Watch[T any](ctx context.Context, cfg Config, load func(context.Context) (T, error), equal func(a, b T) bool) (*Stream[T], error) {
	if load == nil {
		return nil, errors.New("live: load function required")
	}
	ctx, cancel := context.WithCancel(ctx)

	var (
		trigger   <-chan struct{}
		unsubFunc = func() {}
	)
	if cfg.Signals != nil && cfg.Topic != "" {
		ch, unsub, err := cfg.Signals.Subscribe(ctx, cfg.Topic)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("%w: subscribe %s: %w", chat.ErrListener, cfg.Topic, err)
		}
		trigger = ch
		unsubFunc = unsub
	}

	initial, err := load(ctx)
	if err != nil {
		unsubFunc()
		cancel()
		return nil, err
	}

	s := &Stream[T]{
		updates: make(chan T, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	s.updates <- initial
	if cfg.Active != nil {
		cfg.Active.Inc()
	}

	go func() {
		defer close(s.done)
		defer close(s.updates)
		defer unsubFunc()
		if cfg.Active != nil {
			defer cfg.Active.Dec()
		}
		s.run(ctx, cfg, trigger, initial, load, equal)
	}()
	return s, nil
}

func (s *Stream[T]) run(ctx context.Context, cfg Config, trigger <-chan struct{}, last T, load func(context.Context) (T, error), equal func(a, b T) bool) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-trigger:
			if !ok {
				s.fail(cfg, errSignalClosed)
				return
			}
		case <-ticker.C:
		}

		next, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.fail(cfg, err)
			return
		}
		if equal != nil && equal(last, next) {
			continue
		}
		last = next
		s.offer(next)
	}
}

func (s *Stream[T]) offer(v T) {
	for {
		select {
		case s.updates <- v:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *Stream[T]) fail(cfg Config, err error) {
	wrapped := fmt.Errorf("%w: %w", chat.ErrListener, err)
	s.mu.Lock()
	s.err = wrapped
	s.mu.Unlock()
	if cfg.Logger != nil {
		cfg.Logger.Warn("live stream stopped", "topic", cfg.Topic, "error", err)
	}
}

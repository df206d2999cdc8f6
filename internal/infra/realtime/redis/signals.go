package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"campuschat/internal/app/policies"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Signals carries change pings over Redis pub/sub so every API replica wakes
// its live streams. Payloads are empty; subscribers reload from the stores.
type Signals struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

func NewSignals(client goredis.UniversalClient, logger *slog.Logger) *Signals {
	return &Signals{client: client, logger: logger}
}

func (s *Signals) Notify(ctx context.Context, topic string) error {
	if err := s.client.Publish(ctx, topic, "1").Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns a coalescing channel for topic. It is closed when the
// subscription ends.
func (s *Signals) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis: subscribe %s: %w", topic, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range ps.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			if err := ps.Close(); err != nil && s.logger != nil {
				s.logger.Debug("redis unsubscribe failed", "topic", topic, "error", err)
			}
		})
	}
	return out, unsubscribe, nil
}

var _ policies.ChangeSignals = (*Signals)(nil)

package memory

import (
	"context"
	"sync"

	"campuschat/internal/app/policies"
)

// Signals broadcasts change pings to subscribers in this process. A slow
// subscriber holds at most one pending ping.
type Signals struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewSignals() *Signals {
	return &Signals{subs: make(map[string]map[int]chan struct{})}
}

func (s *Signals) Notify(ctx context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *Signals) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.subs[topic] == nil {
		s.subs[topic] = make(map[int]chan struct{})
	}
	s.subs[topic][id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[topic], id)
			if len(s.subs[topic]) == 0 {
				delete(s.subs, topic)
			}
		})
	}, nil
}

// Subscribers reports the number of live subscriptions on topic.
func (s *Signals) Subscribers(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[topic])
}

var _ policies.ChangeSignals = (*Signals)(nil)

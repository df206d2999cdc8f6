package memory

import (
	"context"
	"sync"
	"time"

	"campuschat/internal/app/middleware"
)

// IdempotencyStore keeps send results for the retention window, after which a
// key behaves as unseen. Expired keys are pruned on save.
type IdempotencyStore struct {
	mu        sync.Mutex
	retention time.Duration
	now       func() time.Time
	items     map[string]idempotencyEntry
}

type idempotencyEntry struct {
	record  middleware.IdempotencyRecord
	savedAt time.Time
}

func NewIdempotencyStore(retention time.Duration) *IdempotencyStore {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &IdempotencyStore{
		retention: retention,
		now:       time.Now,
		items:     make(map[string]idempotencyEntry),
	}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if s.expired(entry, s.now()) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return entry.record, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.items {
		if s.expired(entry, now) {
			delete(s.items, key)
		}
	}
	s.items[rec.Key] = idempotencyEntry{record: rec, savedAt: now}
	return nil
}

// Len reports the number of keys held, expired or not.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *IdempotencyStore) expired(entry idempotencyEntry, now time.Time) bool {
	return now.Sub(entry.savedAt) >= s.retention
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)

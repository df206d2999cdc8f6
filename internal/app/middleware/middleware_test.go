package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/outbox"
)

type sendCommand struct {
	Actor   string
	IdemKey string
	Fail    bool
}

func (sendCommand) Key() string              { return "test.send" }
func (c sendCommand) IdempotencyKey() string { return c.IdemKey }
func (sendCommand) ResultPrototype() any     { return &sendResult{} }
func (c sendCommand) ActorID() string        { return c.Actor }
func (c sendCommand) Validate() error {
	if c.Fail {
		return errors.New("invalid")
	}
	return nil
}

type sendResult struct {
	N int `json:"n"`
}

type mapStore struct {
	mu   sync.Mutex
	recs map[string]IdempotencyRecord
}

func (s *mapStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	return rec, ok, nil
}

func (s *mapStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Key] = rec
	return nil
}

func countingBus(calls *int, failFirst bool) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	var mu sync.Mutex
	commands.RegisterHandler[sendCommand, *sendResult](bus, "test.send", commands.HandlerFunc[sendCommand, *sendResult](
		func(context.Context, sendCommand) (*sendResult, error) {
			mu.Lock()
			defer mu.Unlock()
			*calls++
			if failFirst && *calls == 1 {
				return nil, errors.New("transient")
			}
			return &sendResult{N: *calls}, nil
		},
	))
	return bus
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, false), Idempotency(&mapStore{recs: map[string]IdempotencyRecord{}}, nil, nil))

	first, err := commands.Dispatch[sendCommand, *sendResult](context.Background(), bus, sendCommand{IdemKey: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[sendCommand, *sendResult](context.Background(), bus, sendCommand{IdemKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.N, second.N)

	_, err = commands.Dispatch[sendCommand, *sendResult](context.Background(), bus, sendCommand{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_RetriesAfterFailure(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, true), Idempotency(&mapStore{recs: map[string]IdempotencyRecord{}}, nil, nil))

	_, err := bus.Dispatch(context.Background(), sendCommand{IdemKey: "k1"})
	require.Error(t, err)
	res, err := commands.Dispatch[sendCommand, *sendResult](context.Background(), bus, sendCommand{IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.N)
}

func TestIdempotency_ConcurrentSameKey(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, false), Idempotency(&mapStore{recs: map[string]IdempotencyRecord{}}, nil, nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = bus.Dispatch(context.Background(), sendCommand{IdemKey: "same"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

type failingSaveStore struct {
	mapStore
	saves int
}

func (s *failingSaveStore) Save(context.Context, IdempotencyRecord) error {
	s.saves++
	return errors.New("mongo down")
}

func TestIdempotency_CommittedResultSurvivesSaveFailure(t *testing.T) {
	calls := 0
	store := &failingSaveStore{mapStore: mapStore{recs: map[string]IdempotencyRecord{}}}
	bus := ChainCommands(countingBus(&calls, false), Idempotency(store, nil, nil))

	res, err := commands.Dispatch[sendCommand, *sendResult](context.Background(), bus, sendCommand{IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.N)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, calls)
}

func TestValidationAndAuthorization(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, false), Authorization(RequireActor{}), Validation(SelfValidator{}))

	_, err := bus.Dispatch(context.Background(), sendCommand{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = bus.Dispatch(context.Background(), sendCommand{Actor: "G", Fail: true})
	assert.EqualError(t, err, "invalid")

	_, err = bus.Dispatch(context.Background(), sendCommand{Actor: "G"})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type flushCounter struct {
	flushes int
	err     error
}

func (f *flushCounter) Add(context.Context, outbox.EventRecord) error { return nil }
func (f *flushCounter) Flush(context.Context) error {
	f.flushes++
	return f.err
}

func TestOutboxFlush(t *testing.T) {
	calls := 0
	box := &flushCounter{err: errors.New("broker down")}
	bus := ChainCommands(countingBus(&calls, true), OutboxFlush(box, nil))

	_, err := bus.Dispatch(context.Background(), sendCommand{})
	require.Error(t, err)
	assert.Equal(t, 0, box.flushes)

	_, err = bus.Dispatch(context.Background(), sendCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
}

type recorderStub struct {
	keys []string
	errs []error
}

func (r *recorderStub) ObserveCommand(key string, err error, _ time.Duration) {
	r.keys = append(r.keys, key)
	r.errs = append(r.errs, err)
}

func (r *recorderStub) ObserveQuery(string, error, time.Duration) {}

func TestInstrument(t *testing.T) {
	calls := 0
	rec := &recorderStub{}
	bus := ChainCommands(countingBus(&calls, true), Instrument(rec), Logging(nil))

	_, _ = bus.Dispatch(context.Background(), sendCommand{})
	_, _ = bus.Dispatch(context.Background(), sendCommand{})

	assert.Equal(t, []string{"test.send", "test.send"}, rec.keys)
	assert.Error(t, rec.errs[0])
	assert.NoError(t, rec.errs[1])
}

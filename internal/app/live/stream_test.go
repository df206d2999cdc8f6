package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/internal/domain/chat"
)

type fakeSignals struct {
	mu   sync.Mutex
	subs map[string]chan struct{}
	err  error
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{subs: map[string]chan struct{}{}}
}

func (f *fakeSignals) Notify(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[topic]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *fakeSignals) Subscribe(_ context.Context, topic string) (<-chan struct{}, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[topic] = ch
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		delete(f.subs, topic)
		f.mu.Unlock()
	}, nil
}

func (f *fakeSignals) close(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.subs[topic])
	delete(f.subs, topic)
}

type gaugeStub struct{ n atomic.Int64 }

func (g *gaugeStub) Inc() { g.n.Add(1) }
func (g *gaugeStub) Dec() { g.n.Add(-1) }

func next[T any](t *testing.T, s *Stream[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.Updates():
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	var zero T
	return zero
}

func TestWatch_DeliversOnSignal(t *testing.T) {
	signals := newFakeSignals()
	var value atomic.Int64
	gauge := &gaugeStub{}
	s, err := Watch(context.Background(), Config{Signals: signals, Topic: "t", Interval: time.Hour, Active: gauge},
		func(context.Context) (int64, error) { return value.Load(), nil },
		func(a, b int64) bool { return a == b },
	)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next(t, s))
	assert.Equal(t, int64(1), gauge.n.Load())

	value.Store(5)
	require.NoError(t, signals.Notify(context.Background(), "t"))
	assert.Equal(t, int64(5), next(t, s))

	s.Close()
	_, ok := <-s.Updates()
	assert.False(t, ok)
	assert.NoError(t, s.Err())
	assert.Equal(t, int64(0), gauge.n.Load())
}

func TestWatch_PollsWithoutSignals(t *testing.T) {
	var calls atomic.Int64
	s, err := Watch(context.Background(), Config{Interval: 10 * time.Millisecond},
		func(context.Context) (int64, error) { return calls.Add(1), nil },
		nil,
	)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, int64(1), next(t, s))
	assert.Greater(t, next(t, s), int64(1))
}

func TestWatch_LoadFailureEndsStream(t *testing.T) {
	signals := newFakeSignals()
	var fail atomic.Bool
	s, err := Watch(context.Background(), Config{Signals: signals, Topic: "t", Interval: time.Hour},
		func(context.Context) (int, error) {
			if fail.Load() {
				return 0, errors.New("store down")
			}
			return 1, nil
		},
		nil,
	)
	require.NoError(t, err)
	next(t, s)

	fail.Store(true)
	require.NoError(t, signals.Notify(context.Background(), "t"))
	<-s.Done()
	assert.ErrorIs(t, s.Err(), chat.ErrListener)
}

func TestWatch_SignalClosed(t *testing.T) {
	signals := newFakeSignals()
	s, err := Watch(context.Background(), Config{Signals: signals, Topic: "t", Interval: time.Hour},
		func(context.Context) (int, error) { return 1, nil }, nil)
	require.NoError(t, err)

	signals.close("t")
	<-s.Done()
	assert.ErrorIs(t, s.Err(), chat.ErrListener)
}

func TestWatch_Errors(t *testing.T) {
	signals := newFakeSignals()
	signals.err = errors.New("redis down")
	_, err := Watch(context.Background(), Config{Signals: signals, Topic: "t"},
		func(context.Context) (int, error) { return 1, nil }, nil)
	assert.ErrorIs(t, err, chat.ErrListener)

	_, err = Watch(context.Background(), Config{},
		func(context.Context) (int, error) { return 0, chat.ErrAccessDenied }, nil)
	assert.ErrorIs(t, err, chat.ErrAccessDenied)
}

func TestWatch_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := Watch(ctx, Config{Interval: time.Hour},
		func(context.Context) (int, error) { return 1, nil }, nil)
	require.NoError(t, err)
	cancel()
	<-s.Done()
	assert.NoError(t, s.Err())
}

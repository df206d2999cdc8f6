package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishSendsKeyAndHeaders(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "campuschat.notification.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "H" {
			return errors.New("unexpected key")
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "ce-id" {
			return errors.New("headers not sorted")
		}
		return nil
	})
	p := NewProducerFrom(sp)

	err := p.Publish(context.Background(), "campuschat.notification.events.v1", "H", []byte(`{}`), map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-id":        "evt-1",
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducer_PublishWrapsFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(sp)

	err := p.Publish(context.Background(), "t", "k", nil, nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

type handlerFunc func(ctx context.Context, payload []byte) error

func (f handlerFunc) Handle(ctx context.Context, payload []byte) error { return f(ctx, payload) }

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "m" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string                            { return "t" }
func (c fakeClaim) Partition() int32                         { return 0 }
func (c fakeClaim) InitialOffset() int64                     { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.ch }

func TestGroupHandler_RetriesThenMarks(t *testing.T) {
	attempts := map[int64]int{}
	h := groupHandler{
		backoff: []time.Duration{time.Millisecond, time.Millisecond},
		handler: handlerFunc(func(_ context.Context, payload []byte) error {
			switch string(payload) {
			case "flaky":
				attempts[1]++
				if attempts[1] < 2 {
					return errors.New("transient")
				}
				return nil
			case "poison":
				attempts[2]++
				return errors.New("cannot decode")
			default:
				attempts[0]++
				return nil
			}
		}),
	}

	claim := fakeClaim{ch: make(chan *sarama.ConsumerMessage, 3)}
	claim.ch <- &sarama.ConsumerMessage{Offset: 0, Value: []byte("ok")}
	claim.ch <- &sarama.ConsumerMessage{Offset: 1, Value: []byte("flaky")}
	claim.ch <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("poison")}
	close(claim.ch)
	sess := &fakeSession{ctx: context.Background()}

	require.NoError(t, h.ConsumeClaim(sess, claim))
	assert.Equal(t, []int64{0, 1, 2}, sess.marked)
	assert.Equal(t, 2, attempts[1])
	assert.Equal(t, 3, attempts[2])
}

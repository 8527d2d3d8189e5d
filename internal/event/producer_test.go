package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/backoffice/internal/domain"
	pkgkafka "github.com/utafrali/backoffice/pkg/kafka"
	"github.com/utafrali/backoffice/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	calls  int
	topics []string
	events []*pkgkafka.Event
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, ev *pkgkafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	r.events = append(r.events, ev)
	return nil
}

func newTestProducer(t *testing.T, pub Publisher) *Producer {
	t.Helper()
	p, err := NewProducer(pub, DefaultBreakerConfig(), prometheus.NewRegistry(), logger.Discard())
	require.NoError(t, err)
	return p
}

func TestProducer_UserRegistered(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestProducer(t, pub)

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	err := p.UserRegistered(ctx, &domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicUserRegistered, pub.topics[0])

	ev := pub.events[0]
	assert.Equal(t, "u-1", ev.AggregateID)
	assert.Equal(t, AggregateUser, ev.AggregateType)
	assert.Equal(t, Source, ev.Source)
	assert.Equal(t, "corr-9", ev.CorrelationID)

	var data UserRegisteredData
	require.NoError(t, ev.DecodeData(&data))
	assert.Equal(t, "alice", data.Username)
}

func TestProducer_TaskCompletedPayload(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestProducer(t, pub)

	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.TaskCompleted(context.Background(), &domain.Task{ID: "t-1", Title: "ship", Completed: true, UpdatedAt: done}))

	var data TaskCompletedData
	require.NoError(t, pub.events[0].DecodeData(&data))
	assert.Equal(t, TopicTaskCompleted, pub.topics[0])
	assert.True(t, done.Equal(data.CompletedAt))
}

func TestProducer_BreakerOpensAfterFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	p := newTestProducer(t, pub)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := p.ProductDeleted(ctx, "p-1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.ProductDeleted(ctx, "p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, 5, pub.calls, "open breaker must not reach the broker")
}

func TestDiscard(t *testing.T) {
	p := newTestProducer(t, Discard)
	assert.NoError(t, p.CustomerCreated(context.Background(), &domain.Customer{ID: "c-1"}))
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestNewProducer_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewProducer(Discard, DefaultBreakerConfig(), reg, logger.Discard())
	require.NoError(t, err)

	_, err = NewProducer(Discard, DefaultBreakerConfig(), reg, logger.Discard())
	assert.Error(t, err)
}

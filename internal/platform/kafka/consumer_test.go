package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader serves queued messages and then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func newTestConsumer(reader messageReader) *Consumer {
	c := newConsumer(reader, zap.NewNop())
	c.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return c
}

func TestConsumer_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{{Offset: 10}, {Offset: 11}}}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []int64
	failures := 1
	handler := func(_ context.Context, msg kafkago.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg.Offset)
		if msg.Offset == 10 && failures > 0 {
			failures--
			return errors.New("database unavailable")
		}
		if msg.Offset == 11 {
			cancel()
		}
		return nil
	}

	err := c.Consume(ctx, handler)
	require.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{10, 10, 11}, seen)
	assert.Equal(t, int64(10), reader.commits()[0])
}

func TestConsumer_DoesNotCommitWhileHandlerKeepsFailing(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{{Offset: 10}, {Offset: 11}}}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	handler := func(_ context.Context, msg kafkago.Message) error {
		require.Equal(t, int64(10), msg.Offset)
		attempts++
		if attempts == 5 {
			cancel()
		}
		return errors.New("database unavailable")
	}

	err := c.Consume(ctx, handler)
	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, attempts, 5)
	assert.Empty(t, reader.commits())
}

func TestConsumer_CommitsEachHandledMessage(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(_ context.Context, msg kafkago.Message) error {
		if msg.Offset == 3 {
			defer cancel()
		}
		return nil
	}

	err := c.Consume(ctx, handler)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
}

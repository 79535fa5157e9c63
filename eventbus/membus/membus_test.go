package membus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/bookstore/eventbus"
)

func TestPublishFanOut(t *testing.T) {
	bus := New(context.Background())

	var mu sync.Mutex
	var received []string

	for range 3 {
		bus.Subscribe("greetings", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, msg.Data.(string))
			return nil
		})
	}

	bus.Publish("greetings", "hello")
	require.NoError(t, eventbus.WaitTimeout(context.Background(), bus, time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := New(context.Background())
	bus.Publish("nobody-home", "hello")
	require.NoError(t, eventbus.WaitTimeout(context.Background(), bus, time.Second))
}

func TestEnqueueRoundRobin(t *testing.T) {
	bus := New(context.Background())

	var a, b atomic.Int64
	bus.SubscribeQueue("work", func(ctx context.Context, msg *eventbus.Message) error {
		a.Add(1)
		return nil
	})
	bus.SubscribeQueue("work", func(ctx context.Context, msg *eventbus.Message) error {
		b.Add(1)
		return nil
	})

	for range 10 {
		bus.Enqueue("work", "job")
	}
	require.NoError(t, eventbus.WaitTimeout(context.Background(), bus, time.Second))

	assert.Equal(t, int64(5), a.Load())
	assert.Equal(t, int64(5), b.Load())
}

func TestPanicRecovery(t *testing.T) {
	bus := New(context.Background())

	var after atomic.Bool
	bus.Subscribe("boom", func(ctx context.Context, msg *eventbus.Message) error {
		panic("subscriber blew up")
	})
	bus.Subscribe("boom", func(ctx context.Context, msg *eventbus.Message) error {
		after.Store(true)
		return nil
	})

	bus.Publish("boom", nil)
	require.NoError(t, eventbus.WaitTimeout(context.Background(), bus, time.Second))
	assert.True(t, after.Load())
}

func TestUnboundedWorkers(t *testing.T) {
	bus := New(context.Background(), WithWorkerPool(0))

	var count atomic.Int64
	bus.Subscribe("counter", func(ctx context.Context, msg *eventbus.Message) error {
		count.Add(1)
		return nil
	})

	for range 20 {
		bus.Publish("counter", nil)
	}
	require.NoError(t, eventbus.WaitTimeout(context.Background(), bus, time.Second))
	assert.Equal(t, int64(20), count.Load())
}

func TestShutdown(t *testing.T) {
	bus := New(context.Background())

	var count atomic.Int64
	bus.Subscribe("counter", func(ctx context.Context, msg *eventbus.Message) error {
		count.Add(1)
		return nil
	})
	bus.Publish("counter", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))
	assert.Equal(t, int64(1), count.Load())
}

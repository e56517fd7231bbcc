package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/value"
)

func TestPublishDeliversToRegisteredConsumer(t *testing.T) {
	b := New()
	defer b.Shutdown(context.Background())

	received := make(chan Event, 1)
	b.RegisterConsumer(RuntimeExecutionRequest, 1, func(ev Event) {
		received <- ev
	})

	builder := value.NewBuilder()
	b.Publish(Event{Category: RuntimeExecutionRequest, Topic: 1, Payload: builder.Int(42)})

	select {
	case ev := <-received:
		i, ok := ev.Payload.AsInt()
		require.True(t, ok)
		assert.Equal(t, int64(42), i)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestPublishPreservesPerTopicOrder(t *testing.T) {
	b := New()
	defer b.Shutdown(context.Background())

	var mu sync.Mutex
	var order []int64

	done := make(chan struct{})
	count := 0
	b.RegisterConsumer(RuntimeBackchannelA, 7, func(ev Event) {
		i, _ := ev.Payload.AsInt()
		mu.Lock()
		order = append(order, i)
		count++
		if count == 50 {
			close(done)
		}
		mu.Unlock()
	})

	builder := value.NewBuilder()
	for i := int64(0); i < 50; i++ {
		b.Publish(Event{Category: RuntimeBackchannelA, Topic: 7, Payload: builder.Int(i)})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all events")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, int64(i), v)
	}
}

func TestConsumerPanicDoesNotAffectSiblings(t *testing.T) {
	b := New()
	defer b.Shutdown(context.Background())

	var sawGood int32
	b.RegisterConsumer(RuntimeBackchannelB, 3, func(ev Event) {
		panic("boom")
	})
	b.RegisterConsumer(RuntimeBackchannelB, 3, func(ev Event) {
		atomic.AddInt32(&sawGood, 1)
	})

	builder := value.NewBuilder()
	b.Publish(Event{Category: RuntimeBackchannelB, Topic: 3, Payload: builder.Int(1)})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sawGood) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	b := New(WithQueueDepth(1))
	defer b.Shutdown(context.Background())

	block := make(chan struct{})
	var delivered int32
	b.RegisterConsumer(RuntimeExecutionRequest, 9, func(ev Event) {
		<-block
		atomic.AddInt32(&delivered, 1)
	})

	builder := value.NewBuilder()
	for i := 0; i < 10; i++ {
		b.Publish(Event{Category: RuntimeExecutionRequest, Topic: 9, Payload: builder.Int(int64(i))})
	}
	close(block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Shutdown(ctx))
	assert.Less(t, atomic.LoadInt32(&delivered), int32(10))
}

func TestShutdownDrainsPendingEvents(t *testing.T) {
	b := New()

	var count int32
	b.RegisterConsumer(RuntimeExecutionRequest, 5, func(ev Event) {
		atomic.AddInt32(&count, 1)
	})

	builder := value.NewBuilder()
	for i := 0; i < 5; i++ {
		b.Publish(Event{Category: RuntimeExecutionRequest, Topic: 5, Payload: builder.Int(int64(i))})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Shutdown(ctx))
	assert.Equal(t, int32(5), atomic.LoadInt32(&count))
}

func TestPublishAfterShutdownIsDropped(t *testing.T) {
	b := New()
	require.NoError(t, b.Shutdown(context.Background()))

	builder := value.NewBuilder()
	assert.NotPanics(t, func() {
		b.Publish(Event{Category: RuntimeExecutionRequest, Topic: 1, Payload: builder.Int(1)})
	})
}

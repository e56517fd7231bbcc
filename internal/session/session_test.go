package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/bus"
	"github.com/sxslang/sxs/internal/kvstore"
	"github.com/sxslang/sxs/internal/value"
)

func TestPublishEventDeniedWithoutPermission(t *testing.T) {
	b := bus.New()
	defer b.Shutdown(context.Background())

	builder := value.NewBuilder()
	entities := NewEntities(kvstore.NewMemory(), builder)
	e, err := entities.GetOrCreate("user1")
	require.NoError(t, err)

	s := NewSession("sess1", e, b)
	result := s.PublishEvent(bus.RuntimeExecutionRequest, 1, builder.Int(1))
	assert.Equal(t, PermissionDenied, result)
}

func TestPublishEventSucceedsWithPubPermission(t *testing.T) {
	b := bus.New()
	defer b.Shutdown(context.Background())

	builder := value.NewBuilder()
	entities := NewEntities(kvstore.NewMemory(), builder)
	e, err := entities.GetOrCreate("user1")
	require.NoError(t, err)
	e.Grant(bus.RuntimeExecutionRequest, 1, Pub)

	received := make(chan bus.Event, 1)
	b.RegisterConsumer(bus.RuntimeExecutionRequest, 1, func(ev bus.Event) { received <- ev })

	s := NewSession("sess1", e, b)
	result := s.PublishEvent(bus.RuntimeExecutionRequest, 1, builder.Int(7))
	assert.Equal(t, OK, result)

	select {
	case ev := <-received:
		i, _ := ev.Payload.AsInt()
		assert.Equal(t, int64(7), i)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

// fakeClock lets the rate-limit test advance time deterministically
// instead of sleeping a wall second.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(d)
}

func TestPublishEventRateLimitsExactlyMaxRPS(t *testing.T) {
	b := bus.New()
	defer b.Shutdown(context.Background())

	builder := value.NewBuilder()
	entities := NewEntities(kvstore.NewMemory(), builder)
	e, err := entities.GetOrCreate("user1")
	require.NoError(t, err)
	e.Grant(bus.RuntimeExecutionRequest, 1, Pub)
	require.NoError(t, entities.SetMaxRPS("user1", 10))

	b.RegisterConsumer(bus.RuntimeExecutionRequest, 1, func(ev bus.Event) {})

	clock := &fakeClock{now: 1_000_000_000}
	s := NewSession("sess1", e, b)
	s.Now = clock.Now

	successes := 0
	for i := 0; i < 10; i++ {
		if s.PublishEvent(bus.RuntimeExecutionRequest, 1, builder.Int(int64(i))) == OK {
			successes++
		}
	}
	assert.Equal(t, 10, successes)
	assert.Equal(t, RateLimitExceeded, s.PublishEvent(bus.RuntimeExecutionRequest, 1, builder.Int(99)))

	clock.Advance(1100 * time.Millisecond)
	assert.Equal(t, OK, s.PublishEvent(bus.RuntimeExecutionRequest, 1, builder.Int(100)))
}

func TestPublishEventUnlimitedWhenMaxRPSZero(t *testing.T) {
	b := bus.New()
	defer b.Shutdown(context.Background())

	builder := value.NewBuilder()
	entities := NewEntities(kvstore.NewMemory(), builder)
	e, err := entities.GetOrCreate("user1")
	require.NoError(t, err)
	e.Grant(bus.RuntimeExecutionRequest, 1, Pub)
	b.RegisterConsumer(bus.RuntimeExecutionRequest, 1, func(ev bus.Event) {})

	s := NewSession("sess1", e, b)
	for i := 0; i < 1000; i++ {
		require.Equal(t, OK, s.PublishEvent(bus.RuntimeExecutionRequest, 1, builder.Int(int64(i))))
	}
}

func TestConcurrentSessionsShareOneEntityBudget(t *testing.T) {
	b := bus.New()
	defer b.Shutdown(context.Background())

	builder := value.NewBuilder()
	entities := NewEntities(kvstore.NewMemory(), builder)
	e, err := entities.GetOrCreate("shared")
	require.NoError(t, err)
	e.Grant(bus.RuntimeExecutionRequest, 2, Pub)
	require.NoError(t, entities.SetMaxRPS("shared", 10))
	b.RegisterConsumer(bus.RuntimeExecutionRequest, 2, func(ev bus.Event) {})

	clock := &fakeClock{now: 1_000_000_000}
	s1 := NewSession("s1", e, b)
	s1.Now = clock.Now
	s2 := NewSession("s2", e, b)
	s2.Now = clock.Now

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	publish := func(s *Session) {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			if s.PublishEvent(bus.RuntimeExecutionRequest, 2, builder.Int(int64(i))) == OK {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}
	}
	wg.Add(2)
	go publish(s1)
	go publish(s2)
	wg.Wait()

	assert.Equal(t, 10, successes)
	assert.Equal(t, RateLimitExceeded, s1.PublishEvent(bus.RuntimeExecutionRequest, 2, builder.Int(10)))
	assert.Equal(t, RateLimitExceeded, s2.PublishEvent(bus.RuntimeExecutionRequest, 2, builder.Int(11)))
}

func TestEntitiesGetOrCreatePersistsAndRehydrates(t *testing.T) {
	store := kvstore.NewMemory()
	builder := value.NewBuilder()
	entities := NewEntities(store, builder)

	require.NoError(t, entities.SetMaxRPS("persisted", 42))
	require.NoError(t, entities.SetPermission("persisted", "workspace", ReadWrite))

	fresh := NewEntities(store, builder)
	e, err := fresh.GetOrCreate("persisted")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), e.MaxRPS)
	assert.Equal(t, ReadWrite, e.Permissions["workspace"])
}

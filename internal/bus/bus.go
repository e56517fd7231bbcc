// Package bus implements the topic-addressed event bus of spec §4.B:
// category x topic fan-out with per-topic FIFO ordering, many-to-many
// consumer registration, and a shutdown that drains on a timeout
// budget. The single-worker-per-topic goroutine is what gives FIFO
// ordering for free from Go channel semantics, the same shape the
// teacher's AsyncRegistry uses for its handle/goroutine bookkeeping
// (internal/eval/async.go).
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/sxslang/sxs/internal/logging"
	"github.com/sxslang/sxs/internal/value"
)

// Category is the closed enum of spec §6.4. Additional categories may
// be appended but never renumbered.
type Category uint8

const (
	RuntimeExecutionRequest Category = iota
	RuntimeBackchannelA
	RuntimeBackchannelB
)

func (c Category) String() string {
	switch c {
	case RuntimeExecutionRequest:
		return "runtime-execution-request"
	case RuntimeBackchannelA:
		return "runtime-backchannel-a"
	case RuntimeBackchannelB:
		return "runtime-backchannel-b"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Event is the payload routed by the bus (spec §3.6).
type Event struct {
	Category        Category
	Topic           uint16
	Payload         value.Value
	ProducerSession string
}

// Consumer receives events delivered for a topic it registered on.
type Consumer func(Event)

// Default sizing constants. The per-topic queue depth is configurable
// with WithQueueDepth; the worker count is not: each (category, topic)
// queue has exactly one worker goroutine.
const (
	DefaultQueueDepth = 256
)

type topicKey struct {
	category Category
	topic    uint16
}

type topicQueue struct {
	events    chan Event
	consumers []Consumer
	mu        sync.RWMutex
}

// Bus is the event bus itself.
type Bus struct {
	mu         sync.Mutex
	queues     map[topicKey]*topicQueue
	queueDepth int
	logger     logging.Logger
	wg         sync.WaitGroup
	closed     bool
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithQueueDepth overrides the default per-topic bounded channel size.
func WithQueueDepth(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueDepth = n
		}
	}
}

// WithLogger attaches a structured logger for drop/shutdown messages.
func WithLogger(l logging.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New creates a Bus ready to accept RegisterConsumer/Publish calls.
func New(opts ...Option) *Bus {
	b := &Bus{
		queues:     make(map[topicKey]*topicQueue),
		queueDepth: DefaultQueueDepth,
		logger:     logging.New(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterConsumer adds a consumer for (category, topic), starting
// that topic's single worker goroutine on first registration.
func (b *Bus) RegisterConsumer(cat Category, topic uint16, c Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	key := topicKey{cat, topic}
	q, ok := b.queues[key]
	if !ok {
		q = &topicQueue{events: make(chan Event, b.queueDepth)}
		b.queues[key] = q
		b.wg.Add(1)
		go b.runWorker(key, q)
	}
	q.mu.Lock()
	q.consumers = append(q.consumers, c)
	q.mu.Unlock()
}

// runWorker is the topic's single consumer-draining goroutine: at
// most one worker drains a given topic's queue at a time, which is
// what makes per-topic delivery order match write order.
func (b *Bus) runWorker(key topicKey, q *topicQueue) {
	defer b.wg.Done()
	for ev := range q.events {
		q.mu.RLock()
		consumers := append([]Consumer(nil), q.consumers...)
		q.mu.RUnlock()

		var dispatchWG sync.WaitGroup
		for _, c := range consumers {
			dispatchWG.Add(1)
			go func(c Consumer) {
				defer dispatchWG.Done()
				defer func() {
					if r := recover(); r != nil {
						b.logger.Errorf("bus consumer panicked: category=%s topic=%d panic=%v",
							key.category.String(), key.topic, r)
					}
				}()
				c(ev)
			}(c)
		}
		dispatchWG.Wait()
	}
}

// Publish writes ev to its (category, topic) queue. A full queue
// drops the event with a log line rather than blocking the writer
// (spec §9's "reference decision": blocking a producer can propagate
// backpressure into the single-threaded evaluator). Writes after
// Shutdown are silently dropped.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	key := topicKey{ev.Category, ev.Topic}
	q, ok := b.queues[key]
	if !ok {
		q = &topicQueue{events: make(chan Event, b.queueDepth)}
		b.queues[key] = q
		b.wg.Add(1)
		go b.runWorker(key, q)
	}
	b.mu.Unlock()

	select {
	case q.events <- ev:
	default:
		b.logger.Warnf("bus dropped event: queue full: category=%s topic=%d queue_depth=%s",
			ev.Category.String(), ev.Topic, humanize.Comma(int64(b.queueDepth)))
	}
}

// Shutdown stops accepting new events, closes every topic's queue so
// its worker drains remaining events and exits, and waits up to ctx's
// deadline for every worker to join.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	queues := make([]*topicQueue, 0, len(b.queues))
	for _, q := range b.queues {
		queues = append(queues, q)
	}
	b.mu.Unlock()

	for _, q := range queues {
		close(q.events)
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		b.logger.Warnf("bus shutdown timed out before all workers drained")
		return ctx.Err()
	}
}

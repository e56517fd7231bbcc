// Package session implements the session/entity layer of spec §4.S:
// per-entity permissions and a sliding-window publish-rate budget
// that gate every outbound event bus publication.
package session

import (
	"sync"
	"time"

	"github.com/sxslang/sxs/internal/bus"
)

// TopicPermission is the subscribe/publish grant an entity holds on a
// given topic (spec §3's Entity definition).
type TopicPermission uint8

const (
	NoAccess TopicPermission = iota
	Sub
	Pub
	PubSub
)

func (p TopicPermission) CanPublish() bool   { return p == Pub || p == PubSub }
func (p TopicPermission) CanSubscribe() bool { return p == Sub || p == PubSub }

// ScopePermission is a field-level grant on entity state itself.
type ScopePermission uint8

const (
	Read ScopePermission = iota
	ReadWrite
)

// Entity is a user/principal: identity, sliding-window rate budget,
// and the permission maps gating it. publishTimestamps is the
// sliding-window deque of §4.S.1, shared by every Session the entity
// opens.
type Entity struct {
	mu                sync.Mutex
	ID                string
	MaxRPS            uint32
	Permissions       map[string]ScopePermission
	TopicPermissions  map[bus.Category]map[uint16]TopicPermission
	publishTimestamps []int64 // monotonic nanoseconds, oldest first
}

func newEntity(id string) *Entity {
	return &Entity{
		ID:               id,
		Permissions:      make(map[string]ScopePermission),
		TopicPermissions: make(map[bus.Category]map[uint16]TopicPermission),
	}
}

// MaxRPSValue returns the entity's current rate budget under lock.
func (e *Entity) MaxRPSValue() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.MaxRPS
}

func (e *Entity) topicPermission(cat bus.Category, topic uint16) TopicPermission {
	e.mu.Lock()
	defer e.mu.Unlock()
	byTopic, ok := e.TopicPermissions[cat]
	if !ok {
		return NoAccess
	}
	return byTopic[topic]
}

// Grant records a topic permission for the entity.
func (e *Entity) Grant(cat bus.Category, topic uint16, perm TopicPermission) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.TopicPermissions[cat] == nil {
		e.TopicPermissions[cat] = make(map[uint16]TopicPermission)
	}
	e.TopicPermissions[cat][topic] = perm
}

// tryPublish implements §4.S.1's sliding-window algorithm exactly: it
// is the single mutex-guarded critical section shared by every
// session belonging to this entity, so concurrent sessions consume
// from the same budget.
func (e *Entity) tryPublish(nowNanos int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.MaxRPS == 0 {
		return true
	}

	cutoff := nowNanos - int64(time.Second)
	i := 0
	for i < len(e.publishTimestamps) && e.publishTimestamps[i] <= cutoff {
		i++
	}
	if i > 0 {
		e.publishTimestamps = e.publishTimestamps[i:]
	}

	if len(e.publishTimestamps) < int(e.MaxRPS) {
		e.publishTimestamps = append(e.publishTimestamps, nowNanos)
		return true
	}
	return false
}

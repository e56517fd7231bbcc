package session

import (
	"fmt"

	"github.com/sxslang/sxs/internal/bus"
	"github.com/sxslang/sxs/internal/logging"
	"github.com/sxslang/sxs/internal/value"
)

// PublishResult is the three-way outcome of publish_event (spec §4.S).
type PublishResult uint8

const (
	OK PublishResult = iota
	PermissionDenied
	RateLimitExceeded
)

func (r PublishResult) String() string {
	switch r {
	case OK:
		return "OK"
	case PermissionDenied:
		return "PERMISSION_DENIED"
	case RateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	default:
		return fmt.Sprintf("PublishResult(%d)", uint8(r))
	}
}

// NowFunc returns the current monotonic instant in nanoseconds.
// Exposed as a field so tests can supply a synthetic clock; production
// callers use MonotonicNow.
type NowFunc func() int64

// Session wraps one entity's connection to the runtime: its identity
// and the bus it publishes through. Multiple sessions may share one
// Entity (and therefore one rate budget) concurrently (spec §5,
// "sessions for one entity share the rate-limit deque").
type Session struct {
	ID     string
	Entity *Entity
	Bus    *bus.Bus
	Now    NowFunc
	logger logging.Logger
}

// NewSession creates a session for entity, publishing through b.
func NewSession(id string, entity *Entity, b *bus.Bus) *Session {
	return &Session{ID: id, Entity: entity, Bus: b, Now: MonotonicNow, logger: logging.New(nil)}
}

// WithLogger replaces the session's default logger.
func (s *Session) WithLogger(l logging.Logger) *Session {
	s.logger = l
	return s
}

// PublishEvent runs the three-step gate of spec §4.S: permission
// check, rate-limit token consumption, bus submission — in that
// order, since a rate-limited caller should never be billed a
// permission check it would also fail, and the token must not be
// consumed if the publish is ultimately rejected on permission.
func (s *Session) PublishEvent(cat bus.Category, topic uint16, payload value.Value) PublishResult {
	perm := s.Entity.topicPermission(cat, topic)
	if !perm.CanPublish() {
		s.logger.Warnf("session %q: publish denied: entity=%s category=%s topic=%d has no PUB/PUBSUB grant",
			s.ID, s.Entity.ID, cat.String(), topic)
		return PermissionDenied
	}

	if !s.Entity.tryPublish(s.Now()) {
		s.logger.Warnf("session %q: publish rate-limited: entity=%s category=%s topic=%d max_rps=%d",
			s.ID, s.Entity.ID, cat.String(), topic, s.Entity.MaxRPSValue())
		return RateLimitExceeded
	}

	s.Bus.Publish(bus.Event{
		Category:        cat,
		Topic:           topic,
		Payload:         payload,
		ProducerSession: s.ID,
	})
	return OK
}

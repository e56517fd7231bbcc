package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sxslang/sxs/internal/kvstore"
	"github.com/sxslang/sxs/internal/value"
)

// Entities owns the in-memory Entity registry and its kvstore-backed
// persistence. Keys are `entity/<id>/max_rps` and
// `entity/<id>/permission/<scope>` (spec §6.5); only max_rps and the
// scope permissions persist, the id being part of each key.
type Entities struct {
	mu      sync.Mutex
	store   kvstore.Store
	builder *value.Builder
	live    map[string]*Entity
}

// NewEntities creates an Entities registry persisting through store.
func NewEntities(store kvstore.Store, b *value.Builder) *Entities {
	return &Entities{
		store:   store,
		builder: b,
		live:    make(map[string]*Entity),
	}
}

// GetOrCreate returns the entity with id, constructing (and
// persisting a fresh default record for) it on first reference,
// or hydrating it from the store if a prior record exists.
func (es *Entities) GetOrCreate(id string) (*Entity, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	if e, ok := es.live[id]; ok {
		return e, nil
	}

	e := newEntity(id)
	rpsKey := entityKey(id, "max_rps")
	if v, ok, err := es.store.Get(rpsKey); err != nil {
		return nil, err
	} else if ok {
		i, _ := v.AsInt()
		e.MaxRPS = uint32(i)
	} else {
		if err := es.store.Put(rpsKey, es.builder.Int(0)); err != nil {
			return nil, err
		}
	}

	prefix := entityKey(id, "permission/")
	if err := es.store.Iterate(func(key string, v value.Value) bool {
		if !strings.HasPrefix(key, prefix) {
			return true
		}
		scope := strings.TrimPrefix(key, prefix)
		i, _ := v.AsInt()
		e.Permissions[scope] = ScopePermission(i)
		return true
	}); err != nil {
		return nil, err
	}

	es.live[id] = e
	return e, nil
}

// SetMaxRPS updates and persists the entity's rate budget.
func (es *Entities) SetMaxRPS(id string, rps uint32) error {
	e, err := es.GetOrCreate(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.MaxRPS = rps
	e.mu.Unlock()
	return es.store.Put(entityKey(id, "max_rps"), es.builder.Int(int64(rps)))
}

// SetPermission updates and persists a scope permission.
func (es *Entities) SetPermission(id, scope string, perm ScopePermission) error {
	e, err := es.GetOrCreate(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.Permissions[scope] = perm
	e.mu.Unlock()
	return es.store.Put(entityKey(id, "permission/"+scope), es.builder.Int(int64(perm)))
}

func entityKey(id, field string) string {
	return fmt.Sprintf("entity/%s/%s", id, field)
}

// History returns the revision history of an entity's max_rps field,
// newest first. Not load-bearing for any invariant: a debugging hook
// riding for free on the kvstore's version-history capability when
// the backing Store happens to support it.
func (es *Entities) History(id string, limit int) ([]kvstore.VersionEntry, error) {
	hs, ok := es.store.(kvstore.HistoryStore)
	if !ok {
		return nil, fmt.Errorf("session: backing store does not keep version history")
	}
	return hs.GetHistory(entityKey(id, "max_rps"), limit)
}

package kvstore

import (
	"sync"

	"github.com/sxslang/sxs/internal/parser"
	"github.com/sxslang/sxs/internal/value"
)

type versionedText struct {
	version int
	text    string
	ts      string
}

// Memory is an in-memory Store, used in tests and as a no-dependency
// fallback when no database path is configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]versionedText
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]versionedText)}
}

func (m *Memory) Get(key string) (value.Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.data[key]
	if len(versions) == 0 {
		return value.Value{}, false, nil
	}
	latest := versions[len(versions)-1]
	v, err := parseStoredText(latest.text)
	if err != nil {
		return value.Value{}, false, err
	}
	return v, true, nil
}

func (m *Memory) Put(key string, v value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	text := v.String()
	versions := m.data[key]
	if len(versions) > 0 && versions[len(versions)-1].text == text {
		return nil
	}
	nextVersion := 1
	if len(versions) > 0 {
		nextVersion = versions[len(versions)-1].version + 1
	}
	m.data[key] = append(versions, versionedText{version: nextVersion, text: text})
	return nil
}

func (m *Memory) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[key]) > 0, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Iterate(fn func(key string, v value.Value) bool) error {
	m.mu.RLock()
	snapshot := make(map[string]string, len(m.data))
	for k, versions := range m.data {
		if len(versions) > 0 {
			snapshot[k] = versions[len(versions)-1].text
		}
	}
	m.mu.RUnlock()

	for k, text := range snapshot {
		v, err := parseStoredText(text)
		if err != nil {
			return err
		}
		if !fn(k, v) {
			break
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// GetHistory returns every version of key, newest first; limit <= 0
// returns them all.
func (m *Memory) GetHistory(key string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.data[key]
	out := make([]VersionEntry, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		out = append(out, VersionEntry{Version: versions[i].version, Text: versions[i].text, Ts: versions[i].ts})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func parseStoredText(text string) (value.Value, error) {
	p := parser.NewFromString(text)
	v, ok, err := p.ParseOne()
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return p.Builder().None(), nil
	}
	return v, nil
}

var (
	_ Store        = (*Memory)(nil)
	_ HistoryStore = (*Memory)(nil)
)

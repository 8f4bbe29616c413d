package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store backed by plain maps, guarded by a
// single mutex. It
// never fails, so the fail-open paths of its callers are never taken
// against it.
type MemoryStore struct {
	mu sync.Mutex

	counters map[string]*bucket
	strings  map[string]stringEntry
	done     map[string]struct{}
	msgTS    map[string][]int64

	now func() int64
}

type bucket struct {
	windowStart int64
	count       int
}

type stringEntry struct {
	value     string
	expiresAt int64
	noExpiry  bool
}

// NewMemoryStore builds a MemoryStore. nowFunc supplies the current unix
// second (or millisecond, for message timestamps) clock; production code
// passes time.Now-derived closures, tests pass a deterministic stub.
func NewMemoryStore(nowFunc func() int64) *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*bucket),
		strings:  make(map[string]stringEntry),
		done:     make(map[string]struct{}),
		msgTS:    make(map[string][]int64),
		now:      nowFunc,
	}
}

func (m *MemoryStore) IncrementRate(_ context.Context, key string, windowSeconds int64, limit int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowSec := m.now()
	b, ok := m.counters[key]
	if !ok || nowSec-b.windowStart >= windowSeconds {
		b = &bucket{windowStart: nowSec, count: 0}
		m.counters[key] = b
	}
	b.count++
	return b.count, b.count <= limit, nil
}

func (m *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.strings[key]
	if !ok {
		return "", false, nil
	}
	if !e.noExpiry && m.now() >= e.expiresAt {
		delete(m.strings, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) SetString(_ context.Context, key, value string, ttlSeconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := stringEntry{value: value}
	if ttlSeconds <= 0 {
		e.noExpiry = true
	} else {
		e.expiresAt = m.now() + ttlSeconds
	}
	m.strings[key] = e
	return nil
}

func (m *MemoryStore) CheckAndSetIdempotent(_ context.Context, actionKey string, _ int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, done := m.done[actionKey]; done {
		return true, nil
	}
	m.done[actionKey] = struct{}{}
	return false, nil
}

func (m *MemoryStore) RecordMessageTimestamp(_ context.Context, chatID, userID int64, unixMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := MsgTSKey(chatID, userID)
	m.msgTS[key] = append(m.msgTS[key], unixMs)
	return nil
}

func (m *MemoryStore) CountMessagesInWindow(_ context.Context, chatID, userID int64, windowSeconds int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := MsgTSKey(chatID, userID)
	cutoff := m.now()*1000 - windowSeconds*1000
	kept := m.msgTS[key][:0]
	for _, ts := range m.msgTS[key] {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	m.msgTS[key] = kept
	return len(kept), nil
}

var _ Store = (*MemoryStore)(nil)

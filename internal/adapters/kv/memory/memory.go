// Package memory is an in-process implementation of pkg/ports.KV, used by
// cmd/saqshy run-local and by pkg/trust/pkg/action tests that need
// compare-and-swap semantics without a real redis instance.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

type entry struct {
	value   []byte
	version string
}

// KV is a mutex-guarded map satisfying pkg/ports.KV.
type KV struct {
	mu      sync.Mutex
	entries map[string]entry
	seq     int
}

// New builds an empty KV store.
func New() *KV {
	return &KV{entries: make(map[string]entry)}
}

func (k *KV) Get(_ context.Context, key string) ([]byte, string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		return nil, "", false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, e.version, true, nil
}

// Set performs a compare-and-swap write: expectedVersion must match the
// currently stored version (empty string matches "no entry yet"). TTL is
// accepted for interface conformance but not enforced by this in-memory
// store, which is acceptable for the short-lived tests/run-local use this
// adapter serves.
func (k *KV) Set(_ context.Context, key string, value []byte, _ int64, expectedVersion string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	current, exists := k.entries[key]
	currentVersion := ""
	if exists {
		currentVersion = current.version
	}
	if expectedVersion != currentVersion {
		return "", errVersionMismatch
	}

	newVersion := k.nextVersion(key)
	out := make([]byte, len(value))
	copy(out, value)
	k.entries[key] = entry{value: out, version: newVersion}
	return newVersion, nil
}

func (k *KV) nextVersion(key string) string {
	k.seq++
	return fmt.Sprintf("%s@%d", key, k.seq)
}

func (k *KV) Incr(_ context.Context, key string, by int64, _ int64) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	var n int64
	if ok {
		n, _ = strconv.ParseInt(string(e.value), 10, 64)
	}
	n += by
	k.entries[key] = entry{value: []byte(strconv.FormatInt(n, 10)), version: k.nextVersion(key)}
	return n, nil
}

func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
	return nil
}

var errVersionMismatch = errors.New("memory: version mismatch")

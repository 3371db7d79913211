package kv

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryAdapter is an in-process Adapter used by tests and ephemeral runs.
// It enforces the same quota contract as the SQLite adapter.
type MemoryAdapter struct {
	mu         sync.Mutex
	values     map[string]string
	quotaBytes int64
}

// NewMemoryAdapter returns an empty in-memory store. quotaBytes of zero
// means unlimited.
func NewMemoryAdapter(quotaBytes int64) *MemoryAdapter {
	return &MemoryAdapter{values: make(map[string]string), quotaBytes: quotaBytes}
}

func (a *MemoryAdapter) Get(key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	value, ok := a.values[key]
	return value, ok, nil
}

func (a *MemoryAdapter) Set(key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quotaBytes > 0 {
		var used int64
		for storedKey, storedValue := range a.values {
			if storedKey == key {
				continue
			}
			used += int64(len(storedKey) + len(storedValue))
		}
		if used+int64(len(key)+len(value)) > a.quotaBytes {
			return fmt.Errorf("%w: key %q", ErrQuotaExceeded, key)
		}
	}
	a.values[key] = value
	return nil
}

func (a *MemoryAdapter) Remove(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.values, key)
	return nil
}

func (a *MemoryAdapter) Keys(prefix string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.values))
	for key := range a.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

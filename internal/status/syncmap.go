package status

import (
	"cmp"
	"slices"
	"sync"
)

// SyncMap is a type-safe map guarded by a RWMutex.
type SyncMap[K cmp.Ordered, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// NewSyncMap creates an empty SyncMap.
func NewSyncMap[K cmp.Ordered, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: make(map[K]V)}
}

// Load returns the value stored for key and whether it was present.
func (sm *SyncMap[K, V]) Load(key K) (value V, ok bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok = sm.m[key]
	return
}

// Store sets the value for key, replacing any previous one.
func (sm *SyncMap[K, V]) Store(key K, value V) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.m[key] = value
}

// Values returns a copy of all values ordered by key.
func (sm *SyncMap[K, V]) Values() []V {
	sm.mu.RLock()
	keys := make([]K, 0, len(sm.m))
	for k := range sm.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	values := make([]V, 0, len(keys))
	for _, k := range keys {
		values = append(values, sm.m[k])
	}
	sm.mu.RUnlock()
	return values
}

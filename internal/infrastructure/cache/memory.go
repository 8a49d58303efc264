package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory vector store with expiration
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	done  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      []float32
	expireTime time.Time
}

var _ VectorCache = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
		done:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(5 * time.Minute)

	return store
}

// Set stores a vector with expiration; ttl <= 0 never expires
func (ms *MemoryStore) Set(key string, value []float32, expiration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item := &memoryItem{value: append([]float32(nil), value...)}
	if expiration > 0 {
		item.expireTime = time.Now().Add(expiration)
	}
	ms.items[key] = item
}

// Get retrieves a vector by key
func (ms *MemoryStore) Get(key string) ([]float32, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists || item.expired(time.Now()) {
		return nil, false
	}
	return item.value, true
}

// GetMany implements VectorCache
func (ms *MemoryStore) GetMany(_ context.Context, keys []string) ([][]float32, error) {
	out := make([][]float32, len(keys))
	for i, key := range keys {
		if vec, ok := ms.Get(key); ok {
			out[i] = vec
		}
	}
	return out, nil
}

// SetMany implements VectorCache
func (ms *MemoryStore) SetMany(_ context.Context, entries map[string][]float32, ttl time.Duration) error {
	for key, vec := range entries {
		ms.Set(key, vec, ttl)
	}
	return nil
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.done) })
	return nil
}

func (it *memoryItem) expired(now time.Time) bool {
	return !it.expireTime.IsZero() && now.After(it.expireTime)
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.done:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, item := range ms.items {
				if item.expired(now) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}

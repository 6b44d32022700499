package sizecache

import (
	"context"
	"sync"
	"time"

	"github.com/KexinAnswer/gitbook/internal/images"
)

const defaultMaxEntries = 10000

type memoryEntry struct {
	size    images.Size
	expires time.Time
}

// Memory is an in-process cache with a TTL and a size bound.
type Memory struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory creates a memory cache. maxEntries <= 0 uses the default bound.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Memory{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]memoryEntry),
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (*images.Size, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	size := e.size
	return &size, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, size images.Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evict(now)
	}
	m.entries[key] = memoryEntry{size: size, expires: now.Add(m.ttl)}
	return nil
}

// evict drops expired entries, then the entry closest to expiry if the
// cache is still full.
func (m *Memory) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = k, e.expires
		}
	}
	if len(m.entries) >= m.maxEntries && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Name implements Cache.
func (m *Memory) Name() string { return "memory" }

// Close implements Cache.
func (m *Memory) Close() error { return nil }

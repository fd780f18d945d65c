package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMemoryEntries = 10_000
	DefaultMemoryMaxTTL  = 24 * time.Hour
)

type entry struct {
	value     string
	expiresAt time.Time
}

// memoryCache is the in-process Cache used when no redis is configured. The
// LRU holds at most size entries and drops each one maxTTL after it was
// written; a shorter ttl passed to Set is enforced on read.
type memoryCache struct {
	lru         *expirable.LRU[string, entry]
	serviceName string
	now         func() time.Time
}

func NewMemoryCache(serviceName string) Cache {
	return NewBoundedMemoryCache(serviceName, DefaultMemoryEntries, DefaultMemoryMaxTTL)
}

func NewBoundedMemoryCache(serviceName string, size int, maxTTL time.Duration) Cache {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	if maxTTL <= 0 {
		maxTTL = DefaultMemoryMaxTTL
	}
	return &memoryCache{
		lru:         expirable.NewLRU[string, entry](size, nil, maxTTL),
		serviceName: serviceName,
		now:         time.Now,
	}
}

func (m *memoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return "", ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return generateKey(m.serviceName, operation, key)
}

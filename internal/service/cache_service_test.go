package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	failing bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("redis unavailable")
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("redis unavailable")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("redis unavailable")
	}
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, cache.Get(ctx, "registration:stats", &out))

	cache.Set(ctx, "registration:stats", map[string]int{"pending": 3}, 0)
	assert.True(t, cache.Get(ctx, "registration:stats", &out))
	assert.Equal(t, 3, out["pending"])

	cache.Invalidate(ctx, cachePatternRegistration)
	assert.False(t, cache.Get(ctx, "registration:stats", &out))

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(2), snap.CacheMisses)
}

func TestCacheServiceDisabledOrFailingIsSilent(t *testing.T) {
	ctx := context.Background()
	var out map[string]int

	disabled := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), false)
	disabled.Set(ctx, "k", 1, 0)
	assert.False(t, disabled.Get(ctx, "k", &out))

	repo := newMemoryCache()
	repo.failing = true
	failing := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	failing.Set(ctx, "k", 1, 0)
	failing.Invalidate(ctx, "k*")
	assert.False(t, failing.Get(ctx, "k", &out))

	var nilCache *CacheService
	assert.False(t, nilCache.Get(ctx, "k", &out))
	nilCache.Invalidate(ctx, "k*")
}

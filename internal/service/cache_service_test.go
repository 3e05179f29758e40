package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	cache := NewCacheService(newMemoryCache(), NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var out []string
	assert.False(t, cache.Get(ctx, "k", &out))

	cache.Set(ctx, "k", []string{"a"})
	assert.True(t, cache.Get(ctx, "k", &out))
	assert.Equal(t, []string{"a"}, out)

	cache.Invalidate(ctx, "k*")
	assert.False(t, cache.Get(ctx, "k", &out))
}

func TestCacheServiceDisabledAndBroken(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryCache()
	repo.entries["k"] = []byte(`["a"]`)

	var out []string
	assert.False(t, NewCacheService(repo, nil, 0, nil, false).Get(ctx, "k", &out))

	repo.getErr = errors.New("connection refused")
	assert.False(t, NewCacheService(repo, nil, 0, nil, true).Get(ctx, "k", &out))
}

package session

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"
)

// MemoryBackend keeps values in process memory. Single instance deployments only.
type MemoryBackend struct {
	cache *ccache.Cache[string]
	ttl   time.Duration
}

// NewMemoryBackend creates an in-memory store holding at most maxEntries values
func NewMemoryBackend(maxEntries int64, ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		cache: ccache.New(ccache.Configure[string]().MaxSize(maxEntries)),
		ttl:   ttl,
	}
}

func (b *MemoryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	id, ok := IDFromContext(ctx)
	if !ok {
		return "", false, ErrNoSession
	}
	item := b.cache.Get(memoryKey(id, key))
	if item == nil || item.Expired() {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (b *MemoryBackend) Set(ctx context.Context, key, value string) error {
	id, ok := IDFromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	b.cache.Set(memoryKey(id, key), value, b.ttl)
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	id, ok := IDFromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	b.cache.Delete(memoryKey(id, key))
	return nil
}

// Stop releases the cache's background worker
func (b *MemoryBackend) Stop() {
	b.cache.Stop()
}

func memoryKey(id, key string) string {
	return id + ":" + key
}

package blobstore

import (
	"context"

	"github.com/hupe1980/bitdex/internal/cache"
)

// CachingStore wraps a BlobStore and keeps recently opened blobs in memory.
// Snapshots are small and immutable once written, so whole blobs are
// cached rather than blocks.
type CachingStore struct {
	inner BlobStore
	cache cache.BlobCache
}

// NewCachingStore creates a new CachingStore.
func NewCachingStore(inner BlobStore, c cache.BlobCache) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: c,
	}
}

// Open returns a cached blob when present; otherwise it reads the blob
// from the inner store and caches it.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if data, ok := s.cache.Get(ctx, name); ok {
		return &memoryBlob{data: data}, nil
	}

	data, err := Get(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, name, data)
	return &memoryBlob{data: data}, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the cache hit and miss counters.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

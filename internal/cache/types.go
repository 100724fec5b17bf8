package cache

import "context"

// BlobCache caches whole immutable blobs by name. Returned slices must be
// treated as read-only.
type BlobCache interface {
	// Get returns a cached blob. ok=false if missing.
	Get(ctx context.Context, name string) (b []byte, ok bool)
	// Set caches a blob. The cache retains b; callers must not modify it
	// afterwards.
	Set(ctx context.Context, name string, b []byte)
	// Invalidate removes the entry for name, if any.
	Invalidate(name string)
	// Stats returns hit and miss counters.
	Stats() (hits, misses int64)
}

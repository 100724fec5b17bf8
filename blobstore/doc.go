// Package blobstore stores serialized bitmap indexes as immutable, named
// blobs.
//
// BlobStore is the interface for reading and writing blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests
//   - LocalStore: local filesystem with mmap reads and atomic renames
//   - CachingStore: LRU cache of whole blobs in front of another store
//   - s3.Store: Amazon S3 with multipart uploads and CRC32-C checksums
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs whose content already lives in memory may implement Mappable so
// ReadAll can skip the ReadAt round trip.
package blobstore

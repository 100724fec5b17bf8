// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	snaps := snapshot.NewStore(store)
//
// # Features
//
//   - Range reads through Blob.ReadAt
//   - Multipart uploads for blobs larger than one part
//   - CRC32-C checksums on every upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3

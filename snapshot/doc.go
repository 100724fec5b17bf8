// Package snapshot persists bitmap indexes as self-describing blobs.
//
// A snapshot frame wraps the binary encoding of an index:
//
//	"BDXS" | version | compression | uvarint raw length | CRC32-C | payload
//
// The payload is the index encoding, optionally compressed with LZ4 or
// ZSTD. Decode verifies the frame before handing the payload to the index,
// so a corrupt blob never reaches UnmarshalBinary.
//
// Store keeps named snapshots in a blobstore.BlobStore:
//
//	store := snapshot.NewStore(blobstore.NewLocalStore("data"),
//	    snapshot.WithCompression(snapshot.LZ4),
//	)
//	if err := store.Save(ctx, "prices", idx); err != nil { ... }
//
//	restored := bitdex.NewRange[float64](nil)
//	if err := store.Load(ctx, "prices", restored); err != nil { ... }
//
// SaveAll and LoadAll process many indexes concurrently, bounded by a
// resource.Controller.
package snapshot

// Package bitdex provides compressed bitmap indexes for columnar data.
//
// An Index maps every row of a column onto a bin key and maintains a set of
// bitstreams from which relational lookups (==, !=, <, <=, >, >=) are
// answered as bit vectors over the rows. Two policies shape an index:
//
//   - the binner (package binner) maps values onto order-preserving bin
//     keys, either exactly or at reduced precision;
//   - the coder (package coder) decides which bitstreams are kept: one per
//     distinct key (equality), one cumulative stream per key (range), or
//     one small coder per digit of a mixed-radix decomposition (multi-level).
//
// Bitstreams (package bitstream) are stored uncompressed, EWAH compressed or
// as roaring bitmaps.
//
// # Quick Start
//
//	idx := bitdex.NewRange[int64](nil)
//	for _, v := range []int64{5, 1, 9, 1} {
//	    _ = idx.PushBack(v)
//	}
//	rows, _ := idx.Lookup(coder.OpLessEqual, 1)  // rows 1 and 3
//
// Rows without a value are appended with Append's skip count and never match
// a lookup:
//
//	_ = idx.Append(7, 2, 1)  // two rows holding 7, one empty row
//
// Boolean columns use a singleton coder:
//
//	flags := bitdex.NewBool(nil)
//	_ = flags.PushBack(true)
//
// # Persistence
//
// Indexes implement encoding.BinaryMarshaler and encoding.BinaryUnmarshaler.
// Package snapshot frames them with a checksum and optional compression and
// stores them in a blobstore.BlobStore (local files, memory, S3 or MinIO).
//
// # Concurrency
//
// An Index is not synchronized. Any number of lookups may run concurrently,
// but appends and merges need exclusive access.
package bitdex

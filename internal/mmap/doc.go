// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps snapshot files instead of reading them, so
// decoding an index reads straight from the page cache:
//
//	m, err := mmap.Open("prices.bdx")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix systems use mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile. Bytes must not be used after Close.
package mmap

// Package hash provides the CRC32-Castagnoli checksum used to protect
// snapshot frames and S3 uploads.
//
//	sum := hash.CRC32C(payload)
//
// For data arriving in pieces:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	sum := h.Sum32()
//
// The standard library picks the hardware implementation (SSE4.2 or the
// ARM CRC extension) when available.
package hash

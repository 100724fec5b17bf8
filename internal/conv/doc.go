// Package conv provides safe integer type conversion utilities.
//
// They validate sizes read from untrusted data, such as the raw length in a
// snapshot header or the size reported by a blob store, before the value is
// used to allocate.
package conv

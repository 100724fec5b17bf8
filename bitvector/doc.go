// Package bitvector provides Vector, the raw bit storage underneath the
// uncompressed bitstream representation.
//
// A Vector knows nothing about compression or about what its bits mean. It
// offers appends of single bits, blocks and runs, positional access, population
// count, forward and backward set-bit search, shifts and in-place boolean
// operations. Binary operations require operands of equal length; callers
// equalise lengths first.
//
//	v := bitvector.New(0)
//	v.AppendBlock(0xf00f, 16)
//	v.AppendBits(10, true)
//	pos, ok := v.FindLast()
package bitvector

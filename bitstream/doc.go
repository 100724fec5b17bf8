// Package bitstream provides BitStream, a bit sequence behind one of several
// interchangeable representations.
//
// Three representations exist:
//
//   - KindNull stores one bit per position in a bitvector.Vector.
//   - KindEWAH run-length compresses clean 64-bit words and stores the rest
//     literally.
//   - KindRoaring keeps the set positions in a RoaringBitmap and is limited
//     to 2^32 positions.
//
// All kinds support the same operations: appends, positional access, set-bit
// search and iteration, in-place boolean algebra and a self-describing binary
// encoding. Mixing kinds in one binary operation is a programming error and
// panics.
//
//	a := bitstream.Make(bitstream.KindEWAH, 1000, false)
//	a.PushBack(true)
//	b := bitstream.Make(bitstream.KindEWAH, 1001, true)
//	a.And(&b)
//	for pos := range a.All() {
//		fmt.Println(pos)
//	}
package bitstream

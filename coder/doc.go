// Package coder maps bin keys onto bitstreams and answers relational
// predicates over them.
//
// Four schemes are provided:
//
//   - Singleton keeps one bit per row and serves boolean columns.
//   - Equality keeps one stream per distinct key and answers == and !=.
//   - Range keeps one cumulative stream per distinct key; stream t marks the
//     rows whose key is at most t, so every ordering predicate needs at most
//     two streams.
//   - MultiLevel splits keys into the digits of a mixed-radix Base and
//     encodes each digit with a Range (or Equality) coder.
//
// Rows appended as skip hold no value and match no predicate, not even !=.
//
//	c := coder.NewRange(bitstream.KindEWAH)
//	_ = c.Encode(5, 1, 0)
//	_ = c.Encode(9, 1, 0)
//	rows, _ := c.Decode(coder.OpGreaterThan, 5) // row 1
package coder

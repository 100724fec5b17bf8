// Package binner maps raw column values onto bin keys: unsigned integers
// whose unsigned order agrees with the order of the values.
//
// Order implements the order-preserving transform every binner ends with.
// Identity keeps full resolution. Precision drops low mantissa bits of
// floats, and Decimal rounds to a fixed number of decimal digits, trading
// query resolution for fewer distinct keys.
//
//	b, _ := binner.NewDecimal[float64](2)
//	b.Bin(3.14159) == b.Bin(3.14)
package binner

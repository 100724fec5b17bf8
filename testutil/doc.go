// Package testutil provides testing utilities for bitdex.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for bit patterns and column values, and
// brute-force helpers that compute the expected result of a lookup.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	bits := rng.Bits(1000)                 // runs and literal stretches
//	keys := rng.ZipfKeys(1000, 50, 1.5)    // skewed categorical keys
//	skip := rng.Missing(1000, 0.1)         // 10% missing rows
//
// # Ground Truth
//
//	want := testutil.Match(keys, skip, func(k uint64) bool { return k < 7 })
//	positions := testutil.Positions(want)
package testutil

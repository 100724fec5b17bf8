package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Bits generates n bits mixing long runs and random literal stretches, the
// shape that exercises both run-length and literal encodings.
func (r *RNG) Bits(n int) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bool, 0, n)
	for len(out) < n {
		run := min(1+r.rand.Intn(300), n-len(out))
		switch r.rand.Intn(3) {
		case 0:
			for range run {
				out = append(out, false)
			}
		case 1:
			for range run {
				out = append(out, true)
			}
		default:
			for range run {
				out = append(out, r.rand.Intn(2) == 1)
			}
		}
	}
	return out
}

// Int64s generates n values uniformly drawn from [lo, hi].
func (r *RNG) Int64s(n int, lo, hi int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := uint64(hi - lo)
	out := make([]int64, n)
	for i := range out {
		var off uint64
		if span == math.MaxUint64 {
			off = r.rand.Uint64()
		} else {
			off = r.rand.Uint64() % (span + 1)
		}
		out[i] = lo + int64(off)
	}
	return out
}

// Float64s generates n values in [-scale, scale), including both zeros.
func (r *RNG) Float64s(n int, scale float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, n)
	for i := range out {
		switch r.rand.Intn(16) {
		case 0:
			out[i] = 0
		case 1:
			out[i] = math.Copysign(0, -1)
		default:
			out[i] = (r.rand.Float64()*2 - 1) * scale
		}
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ZipfKeys generates n keys in [0, cardinality) with a Zipfian skew, the way
// categorical columns are usually distributed.
func (r *RNG) ZipfKeys(n, cardinality int, s float64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]uint64, n)
	for i := range n {
		keys[i] = uint64(r.zipfLocked(cardinality, s))
	}

	return keys
}

// Missing generates a skip mask: each entry is true with probability rate.
func (r *RNG) Missing(n int, rate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	skip := make([]bool, n)
	for i := range n {
		skip[i] = r.rand.Float64() < rate
	}

	return skip
}

// Positions returns the indices of the true entries of bits.
func Positions(bits []bool) []uint64 {
	var out []uint64
	for i, b := range bits {
		if b {
			out = append(out, uint64(i))
		}
	}
	return out
}

// Match returns the bit mask of rows i for which skip[i] is false and
// pred(values[i]) holds. A nil skip mask skips nothing.
func Match[T any](values []T, skip []bool, pred func(T) bool) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		if skip != nil && skip[i] {
			continue
		}
		out[i] = pred(v)
	}
	return out
}

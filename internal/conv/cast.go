package conv

import (
	"fmt"
	"math"
)

// Uint64ToInt converts uint64 to int safely.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}

// Int64ToInt converts int64 to int safely.
func Int64ToInt(v int64) (int, error) {
	if v < math.MinInt || v > math.MaxInt {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int", v)
	}
	return int(v), nil
}

package diff

import "math"

// safe returns fallback when v is NaN or infinite.
func safe(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

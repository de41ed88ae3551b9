package common

import "math/rand/v2"

// RandomRange returns a uniform value in [min, max).
func RandomRange(r *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	if r == nil {
		return min + rand.Float64()*(max-min)
	}
	return min + r.Float64()*(max-min)
}

// RandomInt returns a uniform integer in [min, max], both ends included.
func RandomInt(r *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	if r == nil {
		return min + rand.IntN(max-min+1)
	}
	return min + r.IntN(max-min+1)
}

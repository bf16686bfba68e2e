package model

import (
	"math"
	"math/rand/v2"
)

// trainTestSplit shuffles row indexes with a fixed seed and reserves
// ceil(testFraction*n) of them for testing.
func trainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := rng.Perm(n)

	nTest := int(math.Ceil(testFraction * float64(n)))
	nTest = min(max(nTest, 1), n-1)

	return perm[nTest:], perm[:nTest]
}

func pick[T any](values []T, indexes []int) []T {
	out := make([]T, len(indexes))
	for i, idx := range indexes {
		out[i] = values[idx]
	}
	return out
}

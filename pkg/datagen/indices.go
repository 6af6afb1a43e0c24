package datagen

import (
	"math"
	"sort"
)

// Indices returns floor(size*ratio) distinct row positions in [0, size), sorted ascending.
// Ratio is clamped into [0, 1].
func (g *Generator) Indices(size int, ratio float64) []int {
	if size <= 0 {
		return []int{}
	}

	count := int(math.Floor(float64(size) * ratio))
	switch {
	case count < 0:
		count = 0
	case count > size:
		count = size
	}

	perm := make([]int, size)
	for i := range perm {
		perm[i] = i
	}
	// Partial Fisher-Yates: only the first count positions need to be settled.
	for i := 0; i < count; i++ {
		j := i + g.random.Intn(size-i)
		perm[i], perm[j] = perm[j], perm[i]
	}

	out := perm[:count:count]
	sort.Ints(out)
	return out
}

// MiddleIndex returns the single row in the middle of size rows, or nothing for an empty input.
// It is used by single row access benchmarks, where the requested ratio is ignored.
func MiddleIndex(size int) []int {
	if size <= 0 {
		return []int{}
	}
	return []int{size / 2}
}

// Package datagen generates deterministic synthetic columnar data with a controlled statistical shape.
//
// It is mainly designed for compression and access benchmarks of columnar storage formats.
//
// Quick start:
//
//	// Create generator owning its random source.
//	g := datagen.NewGenerator(datagen.DefaultSeed)
//
//	// Generate a million values repeating in long runs and wrap them into a batch.
//	seq := g.Generate(datagen.Runs{RunLength: 100, UniqueValues: 10}, 1_000_000)
//	b := datagen.PatternBatch(seq)
//
//	// Sample 1% of rows for random access.
//	indices := datagen.NewGenerator(datagen.DefaultSeed).Indices(len(seq), 0.01)
//
// A Generator is not safe for concurrent use. The sequence of draws from its random source is part of the
// output, so two generators created with the same seed and asked for the same things in the same order
// produce identical data.
package datagen

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultSeed is used by every benchmark scenario, so that compression results stay comparable between runs.
const DefaultSeed int64 = 42

const (
	sparseMaxValue = 100

	// Repeated values of HighRepetition come from [0, lowRangeMax), unique ones from [highRangeMin, highRangeMax).
	lowRangeMax  = 1000
	highRangeMin = 1 << 20
	highRangeMax = 1 << 30
)

// Generator produces pattern sequences, row samples and feature batches from one seeded random source.
type Generator struct {
	random *rand.Rand
}

// NewGenerator creates generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{random: rand.New(rand.NewSource(seed))}
}

// Generate returns exactly size values shaped by p.
func (g *Generator) Generate(p Pattern, size int) []int32 {
	if size <= 0 {
		return []int32{}
	}

	switch v := p.(type) {
	case Runs:
		return g.runs(v, size)
	case Periodic:
		return periodic(v, size)
	case Sparse:
		return g.sparse(v, size)
	case Monotonic:
		return monotonic(v, size)
	case Random:
		return g.uniform(size)
	case HighRepetition:
		return g.highRepetition(v, size)
	case LowRepetition:
		return g.lowRepetition(v, size)
	default:
		panic(fmt.Sprintf("datagen: unknown pattern %T", p))
	}
}

func (g *Generator) runs(p Runs, size int) []int32 {
	unique, runLength := atLeastOne(p.UniqueValues), atLeastOne(p.RunLength)

	out := make([]int32, 0, size)
	for len(out) < size {
		v := int32(g.random.Intn(unique))
		out = appendRun(out, v, 1+g.random.Intn(runLength), size)
	}
	return out
}

// appendRun appends n copies of v, stopping at limit elements.
func appendRun(out []int32, v int32, n int, limit int) []int32 {
	for j := 0; j < n && len(out) < limit; j++ {
		out = append(out, v)
	}
	return out
}

func periodic(p Periodic, size int) []int32 {
	period, amplitude := int64(atLeastOne(p.Period)), int64(p.Amplitude)

	out := make([]int32, size)
	for i := range out {
		out[i] = int32((int64(i) % period) * amplitude / period)
	}
	return out
}

func (g *Generator) sparse(p Sparse, size int) []int32 {
	out := make([]int32, size)
	for i := range out {
		if g.random.Float64() < p.Density {
			out[i] = int32(g.random.Intn(sparseMaxValue))
		}
	}
	return out
}

func monotonic(p Monotonic, size int) []int32 {
	out := make([]int32, size)
	for i := range out {
		out[i] = int32(int64(i) * int64(p.Step))
	}
	return out
}

func (g *Generator) uniform(size int) []int32 {
	out := make([]int32, size)
	for i := range out {
		out[i] = int32(g.random.Uint32())
	}
	return out
}

func (g *Generator) highRepetition(p HighRepetition, size int) []int32 {
	out := make([]int32, 0, size)
	for len(out) < size {
		if g.random.Float64() >= p.RepetitionRate {
			out = append(out, int32(highRangeMin+g.random.Intn(highRangeMax-highRangeMin)))
			continue
		}

		n := 1
		if p.RunLength > 1 {
			n = 1 + g.random.Intn(p.RunLength)
		}
		out = appendRun(out, int32(g.random.Intn(lowRangeMax)), n, size)
	}
	return out
}

func (g *Generator) lowRepetition(p LowRepetition, size int) []int32 {
	unique := int(math.Floor(float64(size) * p.UniqueRatio))
	if unique >= size {
		return monotonic(Monotonic{Step: 1}, size)
	}
	unique = atLeastOne(unique)

	out := make([]int32, size)
	for i := 0; i < unique; i++ {
		out[i] = int32(i)
	}
	for i := unique; i < size; i++ {
		out[i] = out[g.random.Intn(unique)]
	}
	g.random.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

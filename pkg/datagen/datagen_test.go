package datagen

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/thanos-io/thanos/pkg/testutil"
)

var allPatterns = []Pattern{
	Runs{RunLength: 100, UniqueValues: 10},
	Periodic{Period: 100, Amplitude: 1000},
	Sparse{Density: 0.1},
	Monotonic{Step: 5},
	Random{},
	HighRepetition{RepetitionRate: 0.9, RunLength: 50},
	LowRepetition{UniqueRatio: 0.01},
}

func TestGenerate_Monotonic(t *testing.T) {
	testutil.Equals(t, []int32{0, 5, 10, 15, 20}, NewGenerator(DefaultSeed).Generate(Monotonic{Step: 5}, 5))
}

func TestGenerate_SparseZeroDensity(t *testing.T) {
	got := NewGenerator(DefaultSeed).Generate(Sparse{Density: 0}, 100)
	testutil.Equals(t, make([]int32, 100), got)
}

func TestGenerate_Periodic(t *testing.T) {
	got := NewGenerator(DefaultSeed).Generate(Periodic{Period: 4, Amplitude: 8}, 6)
	testutil.Equals(t, []int32{0, 2, 4, 6, 0, 2}, got)
}

func TestGenerate_Runs(t *testing.T) {
	got := NewGenerator(DefaultSeed).Generate(Runs{RunLength: 100, UniqueValues: 10}, 10000)
	testutil.Equals(t, 10000, len(got))

	runs := 1
	for i, v := range got {
		testutil.Assert(t, v >= 0 && v < 10, "value %d at %d out of [0, 10)", v, i)
		if i > 0 && got[i-1] != v {
			runs++
		}
	}
	// Average run is ~50 long, adjacent runs may share a value.
	testutil.Assert(t, runs < 1000, "too many runs: %d", runs)
}

func TestGenerate_LowRepetitionAllUnique(t *testing.T) {
	for _, size := range []int{1, 7, 1000} {
		got := NewGenerator(DefaultSeed).Generate(LowRepetition{UniqueRatio: 1}, size)
		testutil.Equals(t, size, len(got))

		seen := map[int32]struct{}{}
		for _, v := range got {
			_, ok := seen[v]
			testutil.Assert(t, !ok, "value %d repeated for size %d", v, size)
			seen[v] = struct{}{}
		}
	}
}

func TestGenerate_LowRepetitionDistinctCount(t *testing.T) {
	got := NewGenerator(DefaultSeed).Generate(LowRepetition{UniqueRatio: 0.1}, 1000)

	seen := map[int32]struct{}{}
	for _, v := range got {
		testutil.Assert(t, v >= 0 && v < 100, "value %d out of [0, 100)", v)
		seen[v] = struct{}{}
	}
	testutil.Equals(t, 100, len(seen))

	// Tiny ratio still produces one value instead of failing.
	testutil.Equals(t, []int32{0, 0, 0}, NewGenerator(DefaultSeed).Generate(LowRepetition{UniqueRatio: 0.001}, 3))
}

func TestGenerate_HighRepetitionRanges(t *testing.T) {
	for _, p := range []HighRepetition{
		{RepetitionRate: 0.5, RunLength: 10},
		{RepetitionRate: 0.9, RunLength: 0},
		{RepetitionRate: 0, RunLength: 1},
		{RepetitionRate: 1, RunLength: 3},
	} {
		t.Run(p.String(), func(t *testing.T) {
			got := NewGenerator(DefaultSeed).Generate(p, 5000)
			testutil.Equals(t, 5000, len(got))

			for i, v := range got {
				low := v >= 0 && v < lowRangeMax
				high := v >= highRangeMin && v < highRangeMax
				testutil.Assert(t, low != high, "value %d at %d is in neither range", v, i)
				if p.RepetitionRate == 0 {
					testutil.Assert(t, high, "expected only unique values, got %d", v)
				}
				if p.RepetitionRate == 1 {
					testutil.Assert(t, low, "expected only repeated values, got %d", v)
				}
			}
		})
	}
}

func TestGenerate_ZeroSize(t *testing.T) {
	for _, p := range allPatterns {
		testutil.Equals(t, 0, len(NewGenerator(DefaultSeed).Generate(p, 0)))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	for _, p := range allPatterns {
		t.Run(p.String(), func(t *testing.T) {
			a := NewGenerator(DefaultSeed).Generate(p, 4096)
			b := NewGenerator(DefaultSeed).Generate(p, 4096)
			testutil.Equals(t, a, b)
		})
	}
}

func TestGenerate_Length(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("generated sequence has exactly the requested length", prop.ForAll(
		func(idx int, size int) bool {
			return len(NewGenerator(DefaultSeed).Generate(allPatterns[idx], size)) == size
		},
		gen.IntRange(0, len(allPatterns)-1),
		gen.IntRange(0, 20000),
	))

	properties.TestingRun(t)
}

func TestIndices(t *testing.T) {
	got := NewGenerator(DefaultSeed).Indices(1000, 0.01)
	testutil.Equals(t, 10, len(got))
	for i, idx := range got {
		testutil.Assert(t, idx >= 0 && idx <= 999, "index %d out of range", idx)
		if i > 0 {
			testutil.Assert(t, got[i-1] < idx, "indices not strictly increasing: %v", got)
		}
	}

	testutil.Equals(t, got, NewGenerator(DefaultSeed).Indices(1000, 0.01))
	testutil.Equals(t, 0, len(NewGenerator(DefaultSeed).Indices(0, 0.5)))
	testutil.Equals(t, 0, len(NewGenerator(DefaultSeed).Indices(10, 0.05)))
	testutil.Equals(t, []int{0, 1, 2, 3}, NewGenerator(DefaultSeed).Indices(4, 1))
}

func TestIndices_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("indices are in range, strictly increasing and floor(size*ratio) long", prop.ForAll(
		func(size int, ratio float64) bool {
			got := NewGenerator(DefaultSeed).Indices(size, ratio)
			if len(got) != int(float64(size)*ratio) {
				return false
			}
			for i, idx := range got {
				if idx < 0 || idx >= size {
					return false
				}
				if i > 0 && got[i-1] >= idx {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 50000),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func TestMiddleIndex(t *testing.T) {
	testutil.Equals(t, []int{500}, MiddleIndex(1000))
	testutil.Equals(t, []int{0}, MiddleIndex(1))
	testutil.Equals(t, []int{}, MiddleIndex(0))
}

func TestPatternSpec(t *testing.T) {
	for _, p := range allPatterns {
		got, err := SpecFor(p).Pattern()
		testutil.Ok(t, err)
		testutil.Equals(t, p, got)
	}

	for _, s := range []PatternSpec{
		{Type: "zigzag"},
		{Type: RunsType, RunLength: 0, UniqueValues: 10},
		{Type: PeriodicType, Period: 0},
		{Type: SparseType, Density: 1.5},
		{Type: HighRepetitionType, RepetitionRate: 0.5, RunLength: -1},
		{Type: LowRepetitionType, UniqueRatio: -0.1},
	} {
		_, err := s.Pattern()
		testutil.NotOk(t, err)
	}
}

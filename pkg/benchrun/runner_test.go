package benchrun

import (
	"context"
	"testing"

	"github.com/go-kit/log"
	"github.com/thanos-io/thanos/pkg/testutil"

	"github.com/thanos-io/colbench/pkg/backend"
	"github.com/thanos-io/colbench/pkg/datagen"
)

func newTestRunner(t *testing.T, mode backend.Mode, iterations int) (*Runner, *backend.Store) {
	s, err := backend.NewStore(log.NewNopLogger(), mode)
	testutil.Ok(t, err)
	t.Cleanup(func() { testutil.Ok(t, s.Close()) })

	bs, err := backend.NewAll(backend.Names(), s)
	testutil.Ok(t, err)
	return NewRunner(log.NewNopLogger(), s, bs, iterations), s
}

func TestRatio(t *testing.T) {
	r, err := Ratio(4000, 1000)
	testutil.Ok(t, err)
	testutil.Equals(t, 4.0, r)

	_, err = Ratio(4000, 0)
	testutil.NotOk(t, err)
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRunner(t, backend.MemoryMode, 2)

	trials, err := TrialSpec{
		Pattern:    datagen.SpecFor(datagen.Runs{RunLength: 100, UniqueValues: 10}),
		Sizes:      []int{1000, 5000},
		Read:       true,
		TakeRatios: []float64{0.01, 0.1},
	}.Trials()
	testutil.Ok(t, err)

	results, err := r.Run(ctx, trials)
	testutil.Ok(t, err)
	// write, read and two takes for each backend and size.
	testutil.Equals(t, 2*3*4, len(results))

	i := 0
	for _, size := range []int{1000, 5000} {
		for _, name := range backend.Names() {
			for _, want := range []struct {
				op    Op
				rows  int
				ratio float64
			}{
				{op: OpWrite, rows: size},
				{op: OpRead, rows: size},
				{op: OpTake, rows: size / 100, ratio: 0.01},
				{op: OpTake, rows: size / 10, ratio: 0.1},
			} {
				res := results[i]
				i++
				testutil.Equals(t, name, res.Backend)
				testutil.Equals(t, size, res.Size)
				testutil.Equals(t, string(want.op), res.Op)
				testutil.Equals(t, want.rows, res.Rows)
				testutil.Equals(t, want.ratio, res.AccessRatio)
				testutil.Equals(t, int64(4*size), res.NativeSize)
				testutil.Assert(t, res.Bytes > 0, "no bytes recorded")
			}
		}
	}

	// Every trial object is released once the trial ends.
	for _, name := range backend.Names() {
		objs, err := s.Objects(ctx, name)
		testutil.Ok(t, err)
		testutil.Equals(t, 0, len(objs))
	}
	testutil.Equals(t, len(results), len(Measurements(results)))
}

func TestRunner_SingleRow(t *testing.T) {
	r, _ := newTestRunner(t, backend.FileMode, 1)

	trials, err := TrialSpec{Pattern: datagen.SpecFor(datagen.Monotonic{Step: 1}), Sizes: []int{1000}, SingleRow: true}.Trials()
	testutil.Ok(t, err)

	results, err := r.Run(context.Background(), trials)
	testutil.Ok(t, err)
	testutil.Equals(t, 2*3, len(results))
	for _, res := range results {
		if res.Op == string(OpTake) {
			testutil.Equals(t, 1, res.Rows)
			testutil.Equals(t, 0.001, res.AccessRatio)
		}
	}
}

func TestRunner_Compare(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRunner(t, backend.MemoryMode, 1)

	trials, err := TrialSpec{Pattern: datagen.SpecFor(datagen.Sparse{Density: 0.1}), Sizes: []int{10000}, Read: true}.Trials()
	testutil.Ok(t, err)

	first, err := r.Compare(ctx, trials)
	testutil.Ok(t, err)
	testutil.Equals(t, 1, len(first))
	testutil.Equals(t, 10000, first[0].Rows)
	testutil.Equals(t, "sparse(density=0.1)", first[0].Label)
	testutil.Equals(t, len(backend.Names()), len(first[0].Cells))

	best := 0
	for i, c := range first[0].Cells {
		testutil.Equals(t, backend.Names()[i], c.Backend)
		testutil.Assert(t, c.Ratio > 1, "sparse data must compress, got %v for %s", c.Ratio, c.Backend)
		if c.Best {
			best++
		}
	}
	testutil.Assert(t, best >= 1, "no best cell marked")

	// Same seed, pattern and size give bit for bit identical sizes.
	second, err := r.Compare(ctx, trials)
	testutil.Ok(t, err)
	testutil.Equals(t, first, second)
}

func TestRunner_Wide(t *testing.T) {
	r, _ := newTestRunner(t, backend.MemoryMode, 1)

	trials, err := TrialSpec{Layout: datagen.Nested, Features: 20, Sizes: []int{100}}.Trials()
	testutil.Ok(t, err)

	rows, err := r.Compare(context.Background(), trials)
	testutil.Ok(t, err)
	testutil.Equals(t, 1, len(rows))
	testutil.Equals(t, "", rows[0].Label)
	for _, c := range rows[0].Cells {
		testutil.Assert(t, c.Bytes > 0, "empty object for %s", c.Backend)
	}
}

func TestRunner_Canceled(t *testing.T) {
	r, _ := newTestRunner(t, backend.MemoryMode, 1)

	trials, err := TrialSpec{Pattern: datagen.SpecFor(datagen.Random{}), Sizes: []int{10}}.Trials()
	testutil.Ok(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, trials)
	testutil.NotOk(t, err)
}

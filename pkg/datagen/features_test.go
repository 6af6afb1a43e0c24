package datagen

import (
	"testing"

	"github.com/thanos-io/thanos/pkg/testutil"

	"github.com/thanos-io/colbench/pkg/batch"
)

func TestFeatureBatch(t *testing.T) {
	const rows, features = 200, 16

	flat := NewGenerator(DefaultSeed).FeatureBatch(Flat, rows, features)
	nested := NewGenerator(DefaultSeed).FeatureBatch(Nested, rows, features)

	testutil.Equals(t, rows, flat.NumRows())
	testutil.Equals(t, features+1, len(flat.Schema().Fields))
	testutil.Equals(t, 2, len(nested.Schema().Fields))
	testutil.Equals(t, batch.Struct, nested.Schema().Fields[1].Type)

	// Both layouts carry the same leaves with the same values.
	testutil.Equals(t, int64(rows*(8+8*features)), flat.NativeSize())
	testutil.Equals(t, flat.NativeSize(), nested.NativeSize())
	testutil.Equals(t, flat.LeafColumns(), nested.LeafColumns())

	uuid, ok := flat.Column("uuid")
	testutil.Assert(t, ok, "uuid column missing")
	for i, v := range uuid.(batch.Int64Column) {
		testutil.Equals(t, int64(i), v)
	}

	common := map[float64]struct{}{}
	for _, v := range commonValues {
		common[v] = struct{}{}
	}
	zeros, total := 0, 0
	for _, c := range flat.LeafColumns()[1:] {
		for _, v := range c.(batch.Float64Column) {
			total++
			if v == 0 {
				zeros++
			}
			if _, ok := common[v]; ok {
				continue
			}
			testutil.Assert(t, v >= -1000 && v < 1000, "value %v out of [-1000, 1000)", v)
		}
	}
	// Zero is expected in ~32% of values.
	testutil.Assert(t, zeros > total/5 && zeros < total/2, "unexpected share of zeros: %d/%d", zeros, total)
}

func TestFeatureBatch_Deterministic(t *testing.T) {
	a := NewGenerator(DefaultSeed).FeatureBatch(Nested, 100, 8)
	b := NewGenerator(DefaultSeed).FeatureBatch(Nested, 100, 8)
	testutil.Assert(t, batch.Equal(a, b), "feature batches differ for the same seed")
}

func TestPatternBatch(t *testing.T) {
	seq := NewGenerator(DefaultSeed).Generate(Random{}, 1000)
	b := PatternBatch(seq)

	testutil.Equals(t, 1000, b.NumRows())
	testutil.Equals(t, int64(4000), b.NativeSize())
	c, ok := b.Column(ValueField)
	testutil.Assert(t, ok, "value column missing")
	testutil.Equals(t, batch.Int32Column(seq), c)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("nested")
	testutil.Ok(t, err)
	testutil.Equals(t, Nested, l)

	_, err = ParseLayout("wide")
	testutil.NotOk(t, err)
}

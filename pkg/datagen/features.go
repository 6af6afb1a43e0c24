package datagen

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/thanos-io/colbench/pkg/batch"
)

// NumFeatures is the default width of feature schemas.
const NumFeatures = 3827

// ValueField is the only column of pattern batches.
const ValueField = "value"

var (
	// Values frequently seen in real feature vectors. Zero alone takes 40% of the weight.
	commonValues  = []float64{0, 1, -1, 2, -2, 5, -5, 10, -10, 100}
	commonWeights = []int{40, 15, 15, 8, 8, 4, 4, 3, 2, 1}
)

const (
	commonProbability = 0.8
	randomFeatureMin  = -1000.0
	randomFeatureMax  = 1000.0
)

// Layout selects how feature columns are placed in a wide schema.
type Layout string

const (
	// Flat places uuid and every feature as top level columns.
	Flat Layout = "flat"
	// Nested places features as children of a single "features" struct column.
	Nested Layout = "nested"
)

// Description is a human readable form of the layout used in report headings.
func (l Layout) Description(features int) string {
	if l == Nested {
		return fmt.Sprintf("Nested Schema: uuid (int64) + features (struct with %d double fields)", features)
	}
	return fmt.Sprintf("Flat Schema: uuid (int64) + %d double columns", features)
}

// PatternBatch wraps seq into a single int32 column batch named "value".
func PatternBatch(seq []int32) *batch.Batch {
	return batch.MustNew(
		batch.NewSchema(batch.Field{Name: ValueField, Type: batch.Int32}),
		batch.Int32Column(seq),
	)
}

// FeatureSchema returns the wide schema of given layout: uuid int64 followed by features float64 fields.
func FeatureSchema(l Layout, features int) batch.Schema {
	fields := make([]batch.Field, features)
	for i := range fields {
		fields[i] = batch.Field{Name: fmt.Sprintf("feature%d", i), Type: batch.Float64}
	}

	uuid := batch.Field{Name: "uuid", Type: batch.Int64}
	if l == Nested {
		return batch.NewSchema(uuid, batch.Field{Name: "features", Type: batch.Struct, Children: fields})
	}
	return batch.NewSchema(append([]batch.Field{uuid}, fields...)...)
}

// FeatureBatch generates rows rows of the wide schema. Uuid is the row number. Each feature draws, row by row,
// a weighted common value with probability 0.8 or a uniform value in [-1000, 1000) otherwise. Features are
// generated one after another, so flat and nested batches from equally seeded generators hold the same values.
func (g *Generator) FeatureBatch(l Layout, rows, features int) *batch.Batch {
	uuid := make(batch.Int64Column, rows)
	for i := range uuid {
		uuid[i] = int64(i)
	}

	cols := make([]batch.Column, features)
	for f := range cols {
		vals := make(batch.Float64Column, rows)
		for i := range vals {
			vals[i] = g.featureValue()
		}
		cols[f] = vals
	}

	schema := FeatureSchema(l, features)
	if l == Nested {
		st, err := batch.NewStructColumn(rows, cols...)
		if err != nil {
			panic(err)
		}
		return batch.MustNew(schema, uuid, st)
	}
	return batch.MustNew(schema, append([]batch.Column{uuid}, cols...)...)
}

func (g *Generator) featureValue() float64 {
	if g.random.Float64() < commonProbability {
		return commonValues[g.weightedIndex()]
	}
	return randomFeatureMin + g.random.Float64()*(randomFeatureMax-randomFeatureMin)
}

func (g *Generator) weightedIndex() int {
	total := 0
	for _, w := range commonWeights {
		total += w
	}
	n := g.random.Intn(total)
	for i, w := range commonWeights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(commonWeights) - 1
}

// ParseLayout parses layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case Flat, Nested:
		return Layout(s), nil
	}
	return "", errors.Errorf("unknown layout %q, expected %q or %q", s, Flat, Nested)
}

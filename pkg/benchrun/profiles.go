package benchrun

import (
	"sort"

	"github.com/thanos-io/colbench/pkg/datagen"
)

// ProfileMap holds hardcoded scenarios by name.
type ProfileMap map[string]Scenario

// Keys returns profile names, sorted.
func (p ProfileMap) Keys() (keys []string) {
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	throughputSizes  = []int{1_000, 10_000, 100_000, 1_000_000}
	wideSizes        = []int{1_000, 10_000, 100_000}
	compressionSizes = []int{1_000, 10_000, 100_000, 1_000_000}

	runs     = datagen.SpecFor(datagen.Runs{RunLength: 100, UniqueValues: 10})
	sparse   = datagen.SpecFor(datagen.Sparse{Density: 0.1})
	periodic = datagen.SpecFor(datagen.Periodic{Period: 100, Amplitude: 1000})
	mono     = datagen.SpecFor(datagen.Monotonic{Step: 5})
	random   = datagen.SpecFor(datagen.Random{})

	Profiles = ProfileMap{
		"wide-compression": {
			Kind:        Compression,
			Description: "Stored size of wide feature vectors: uuid plus 3827 mostly repeating doubles.",
			Sections: []Section{
				{
					Title:  datagen.Nested.Description(datagen.NumFeatures),
					Note:   "Data pattern: 40% zeros, 40% common values, 20% random values",
					Trials: []TrialSpec{{Layout: datagen.Nested, Features: datagen.NumFeatures, Sizes: wideSizes}},
				},
				{
					Title:  datagen.Flat.Description(datagen.NumFeatures),
					Note:   "Data pattern: 40% zeros, 40% common values, 20% random values",
					Trials: []TrialSpec{{Layout: datagen.Flat, Features: datagen.NumFeatures, Sizes: wideSizes}},
				},
			},
		},
		"patterns-compression": {
			Kind:        Compression,
			Description: "Stored size of a single int32 column for every data pattern.",
			Sections: []Section{{
				Title: "Data patterns: single int32 column",
				Trials: []TrialSpec{
					{Pattern: runs, Sizes: compressionSizes},
					{Pattern: periodic, Sizes: compressionSizes},
					{Pattern: sparse, Sizes: compressionSizes},
					{Pattern: mono, Sizes: compressionSizes},
					{Pattern: random, Sizes: compressionSizes},
					{Pattern: datagen.SpecFor(datagen.HighRepetition{RepetitionRate: 0.9, RunLength: 100}), Sizes: compressionSizes},
					{Pattern: datagen.SpecFor(datagen.LowRepetition{UniqueRatio: 0.01}), Sizes: compressionSizes},
				},
			}},
		},
		"throughput": {
			Kind:        Throughput,
			Description: "Write, full read and random row access timings of a single int32 column.",
			Sections: []Section{
				{
					Title: "Write and read",
					Trials: []TrialSpec{
						{Pattern: runs, Sizes: throughputSizes, Read: true},
						{Pattern: sparse, Sizes: throughputSizes, Read: true},
						{Pattern: periodic, Sizes: throughputSizes, Read: true},
						{Pattern: mono, Sizes: throughputSizes, Read: true},
						{Pattern: random, Sizes: throughputSizes, Read: true},
					},
				},
				{
					Title: "Take",
					Trials: []TrialSpec{
						{Pattern: runs, Sizes: throughputSizes, TakeRatios: []float64{0.01, 0.1, 0.5}},
						{Pattern: sparse, Sizes: throughputSizes, TakeRatios: []float64{0.01, 0.1}},
						{Pattern: random, Sizes: throughputSizes, TakeRatios: []float64{0.01, 0.1}},
					},
				},
			},
		},
		"single-row": {
			Kind:        Throughput,
			Description: "Access to the middle row of a single int32 column.",
			Sections: []Section{{
				Title: "Take: middle row",
				Trials: []TrialSpec{
					{Pattern: runs, Sizes: throughputSizes, SingleRow: true},
					{Pattern: random, Sizes: throughputSizes, SingleRow: true},
				},
			}},
		},
	}
)

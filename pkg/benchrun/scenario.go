package benchrun

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/thanos-io/colbench/pkg/batch"
	"github.com/thanos-io/colbench/pkg/datagen"
)

// Kind decides what a scenario measures.
type Kind string

const (
	// Compression writes every dataset once per backend and compares stored sizes.
	Compression Kind = "compression"
	// Throughput times write, read and take operations.
	Throughput Kind = "throughput"
)

// Scenario is a table of datasets to run against a set of backends. It is what profiles produce
// and what custom YAML configuration decodes into.
type Scenario struct {
	Kind        Kind   `yaml:"kind"`
	Description string `yaml:"description"`
	// Backends in declaration order. All known backends are used if empty.
	Backends []string  `yaml:"backends"`
	Sections []Section `yaml:"sections"`
}

// Section is a group of trials reported in one table.
type Section struct {
	Title  string      `yaml:"title"`
	Note   string      `yaml:"note"`
	Trials []TrialSpec `yaml:"trials"`
}

// TrialSpec describes a dataset at one or more sizes. Either Pattern or Layout must be set.
type TrialSpec struct {
	Label string `yaml:"label"`

	Pattern  datagen.PatternSpec `yaml:"pattern"`
	Layout   datagen.Layout      `yaml:"layout"`
	Features int                 `yaml:"features"`

	Sizes []int `yaml:"sizes"`

	Read       bool      `yaml:"read"`
	TakeRatios []float64 `yaml:"take_ratios"`
	// SingleRow takes only the middle row. TakeRatios are ignored.
	SingleRow bool `yaml:"single_row"`
}

// Trial is a single dataset run against every backend.
type Trial struct {
	Label    string
	Size     int
	Pattern  datagen.Pattern
	Layout   datagen.Layout
	Features int

	Read       bool
	TakeRatios []float64
	SingleRow  bool
}

// Batch generates the dataset of the trial with a fresh generator.
func (t Trial) Batch() *batch.Batch {
	g := datagen.NewGenerator(datagen.DefaultSeed)
	if t.Pattern != nil {
		return datagen.PatternBatch(g.Generate(t.Pattern, t.Size))
	}
	return g.FeatureBatch(t.Layout, t.Size, t.Features)
}

// Access is a single take of a trial.
type Access struct {
	Ratio   float64
	Indices []int
}

// Accesses returns takes of the trial. Each sampled index set is drawn from a fresh generator.
func (t Trial) Accesses() []Access {
	if t.SingleRow {
		a := Access{Indices: datagen.MiddleIndex(t.Size)}
		if t.Size > 0 {
			a.Ratio = 1 / float64(t.Size)
		}
		return []Access{a}
	}

	out := make([]Access, 0, len(t.TakeRatios))
	for _, r := range t.TakeRatios {
		out = append(out, Access{Ratio: r, Indices: datagen.NewGenerator(datagen.DefaultSeed).Indices(t.Size, r)})
	}
	return out
}

// Trials expands s into one trial per size.
func (s TrialSpec) Trials() ([]Trial, error) {
	if len(s.Sizes) == 0 {
		return nil, errors.New("no sizes")
	}
	for _, r := range s.TakeRatios {
		if r < 0 || r > 1 {
			return nil, errors.Errorf("take ratio %g out of [0, 1]", r)
		}
	}

	base := Trial{
		Label:      s.Label,
		Read:       s.Read,
		TakeRatios: s.TakeRatios,
		SingleRow:  s.SingleRow,
	}
	switch {
	case s.Pattern.Type != "" && s.Layout != "":
		return nil, errors.New("pattern and layout are mutually exclusive")
	case s.Pattern.Type != "":
		p, err := s.Pattern.Pattern()
		if err != nil {
			return nil, err
		}
		base.Pattern = p
		if base.Label == "" {
			base.Label = p.String()
		}
	case s.Layout != "":
		l, err := datagen.ParseLayout(string(s.Layout))
		if err != nil {
			return nil, err
		}
		base.Layout, base.Features = l, s.Features
		if base.Features <= 0 {
			base.Features = datagen.NumFeatures
		}
	default:
		return nil, errors.New("either pattern or layout is required")
	}

	out := make([]Trial, 0, len(s.Sizes))
	for _, size := range s.Sizes {
		if size < 0 {
			return nil, errors.Errorf("negative size %d", size)
		}
		t := base
		t.Size = size
		out = append(out, t)
	}
	return out, nil
}

// Validate checks every section expands into trials.
func (s Scenario) Validate() error {
	switch s.Kind {
	case Compression, Throughput:
	default:
		return errors.Errorf("unknown scenario kind %q", s.Kind)
	}
	if len(s.Sections) == 0 {
		return errors.New("scenario has no sections")
	}
	for i, sec := range s.Sections {
		if _, err := sec.Expand(); err != nil {
			return errors.Wrapf(err, "section %d %q", i, sec.Title)
		}
	}
	return nil
}

// Expand returns trials of all specs of the section, in order.
func (s Section) Expand() ([]Trial, error) {
	var out []Trial
	for i, spec := range s.Trials {
		ts, err := spec.Trials()
		if err != nil {
			return nil, errors.Wrapf(err, "trial %d", i)
		}
		out = append(out, ts...)
	}
	return out, nil
}

// ParseScenario strictly decodes and validates YAML scenario.
func ParseScenario(content []byte) (Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.SetStrict(true)
	if err := dec.Decode(&s); err != nil {
		return Scenario{}, errors.Wrap(err, "decode scenario")
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

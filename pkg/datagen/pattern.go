package datagen

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pattern is a statistical shape of a generated sequence. It is a closed set: only types of this
// package implement it.
type Pattern interface {
	fmt.Stringer
	// Validate returns error if pattern parameters are out of range.
	Validate() error

	isPattern()
}

var (
	_ Pattern = Runs{}
	_ Pattern = Periodic{}
	_ Pattern = Sparse{}
	_ Pattern = Monotonic{}
	_ Pattern = Random{}
	_ Pattern = HighRepetition{}
	_ Pattern = LowRepetition{}
)

// Runs repeats values drawn from [0, UniqueValues) in runs of length [1, RunLength].
type Runs struct {
	RunLength    int
	UniqueValues int
}

// Periodic is a sawtooth of given period reaching Amplitude.
type Periodic struct {
	Period    int
	Amplitude int
}

// Sparse emits a random value in [0, 100) with probability Density, zero otherwise.
type Sparse struct {
	Density float64
}

// Monotonic grows by Step on each position.
type Monotonic struct {
	Step int
}

// Random draws from the full int32 domain.
type Random struct{}

// HighRepetition emits runs of low range values with probability RepetitionRate and single high
// range values otherwise.
type HighRepetition struct {
	RepetitionRate float64
	RunLength      int
}

// LowRepetition has floor(size*UniqueRatio) distinct values, shuffled.
type LowRepetition struct {
	UniqueRatio float64
}

func (Runs) isPattern()           {}
func (Periodic) isPattern()       {}
func (Sparse) isPattern()         {}
func (Monotonic) isPattern()      {}
func (Random) isPattern()         {}
func (HighRepetition) isPattern() {}
func (LowRepetition) isPattern()  {}

func (p Runs) String() string {
	return fmt.Sprintf("runs(run_length=%d,unique_values=%d)", p.RunLength, p.UniqueValues)
}
func (p Periodic) String() string {
	return fmt.Sprintf("periodic(period=%d,amplitude=%d)", p.Period, p.Amplitude)
}
func (p Sparse) String() string    { return fmt.Sprintf("sparse(density=%g)", p.Density) }
func (p Monotonic) String() string { return fmt.Sprintf("monotonic(step=%d)", p.Step) }
func (Random) String() string      { return "random" }
func (p HighRepetition) String() string {
	return fmt.Sprintf("high_repetition(repetition_rate=%g,run_length=%d)", p.RepetitionRate, p.RunLength)
}
func (p LowRepetition) String() string {
	return fmt.Sprintf("low_repetition(unique_ratio=%g)", p.UniqueRatio)
}

func (p Runs) Validate() error {
	if p.RunLength < 1 {
		return errors.Errorf("runs: run_length must be positive, got %d", p.RunLength)
	}
	if p.UniqueValues < 1 {
		return errors.Errorf("runs: unique_values must be positive, got %d", p.UniqueValues)
	}
	return nil
}

func (p Periodic) Validate() error {
	if p.Period < 1 {
		return errors.Errorf("periodic: period must be positive, got %d", p.Period)
	}
	return nil
}

func (p Sparse) Validate() error { return validateProbability("sparse: density", p.Density) }

func (Monotonic) Validate() error { return nil }

func (Random) Validate() error { return nil }

// Validate accepts RunLength 0, which generates runs of length 1.
func (p HighRepetition) Validate() error {
	if p.RunLength < 0 {
		return errors.Errorf("high_repetition: run_length must not be negative, got %d", p.RunLength)
	}
	return validateProbability("high_repetition: repetition_rate", p.RepetitionRate)
}

func (p LowRepetition) Validate() error {
	return validateProbability("low_repetition: unique_ratio", p.UniqueRatio)
}

func validateProbability(name string, v float64) error {
	if v < 0 || v > 1 {
		return errors.Errorf("%s must be within [0, 1], got %g", name, v)
	}
	return nil
}

// PatternType names a pattern variant in configuration.
type PatternType string

const (
	RunsType           PatternType = "runs"
	PeriodicType       PatternType = "periodic"
	SparseType         PatternType = "sparse"
	MonotonicType      PatternType = "monotonic"
	RandomType         PatternType = "random"
	HighRepetitionType PatternType = "high_repetition"
	LowRepetitionType  PatternType = "low_repetition"
)

// PatternSpec is the YAML form of a Pattern. Only parameters of the chosen type are used.
type PatternSpec struct {
	Type PatternType `yaml:"type"`

	RunLength      int     `yaml:"run_length"`
	UniqueValues   int     `yaml:"unique_values"`
	Period         int     `yaml:"period"`
	Amplitude      int     `yaml:"amplitude"`
	Density        float64 `yaml:"density"`
	Step           int     `yaml:"step"`
	RepetitionRate float64 `yaml:"repetition_rate"`
	UniqueRatio    float64 `yaml:"unique_ratio"`
}

// Pattern converts s to a validated Pattern.
func (s PatternSpec) Pattern() (Pattern, error) {
	var p Pattern
	switch PatternType(strings.ToLower(string(s.Type))) {
	case RunsType:
		p = Runs{RunLength: s.RunLength, UniqueValues: s.UniqueValues}
	case PeriodicType:
		p = Periodic{Period: s.Period, Amplitude: s.Amplitude}
	case SparseType:
		p = Sparse{Density: s.Density}
	case MonotonicType:
		p = Monotonic{Step: s.Step}
	case RandomType:
		p = Random{}
	case HighRepetitionType:
		p = HighRepetition{RepetitionRate: s.RepetitionRate, RunLength: s.RunLength}
	case LowRepetitionType:
		p = LowRepetition{UniqueRatio: s.UniqueRatio}
	default:
		return nil, errors.Errorf("unknown pattern type: %q", s.Type)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SpecFor returns the YAML form of p.
func SpecFor(p Pattern) PatternSpec {
	switch v := p.(type) {
	case Runs:
		return PatternSpec{Type: RunsType, RunLength: v.RunLength, UniqueValues: v.UniqueValues}
	case Periodic:
		return PatternSpec{Type: PeriodicType, Period: v.Period, Amplitude: v.Amplitude}
	case Sparse:
		return PatternSpec{Type: SparseType, Density: v.Density}
	case Monotonic:
		return PatternSpec{Type: MonotonicType, Step: v.Step}
	case Random:
		return PatternSpec{Type: RandomType}
	case HighRepetition:
		return PatternSpec{Type: HighRepetitionType, RepetitionRate: v.RepetitionRate, RunLength: v.RunLength}
	case LowRepetition:
		return PatternSpec{Type: LowRepetitionType, UniqueRatio: v.UniqueRatio}
	default:
		panic(fmt.Sprintf("unknown pattern %T", p))
	}
}

package main

import (
	"context"
	"io"

	"github.com/efficientgo/tools/extkingpin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/thanos-io/thanos/pkg/runutil"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/thanos-io/colbench/pkg/backend"
	"github.com/thanos-io/colbench/pkg/benchrun"
	"github.com/thanos-io/colbench/pkg/report"
)

// benchFlags are shared by commands executing scenarios.
type benchFlags struct {
	profile    *string
	config     *extkingpin.PathOrContent
	store      *string
	backends   *[]string
	iterations *int
	features   *int
}

func registerBenchFlags(cmd *kingpin.CmdClause, defaultProfile string) *benchFlags {
	return &benchFlags{
		profile: cmd.Flag("profile", "Name of the hardcoded scenario to run. Ignored when a config is given.").
			Short('p').Default(defaultProfile).Enum(benchrun.Profiles.Keys()...),
		config: extkingpin.RegisterPathOrContent(cmd, "config", "YAML scenario to run instead of a profile. See 'plan' command output for the format."),
		store: cmd.Flag("store", "Where written objects are kept during the run. 'file' uses a temporary directory removed at exit.").
			Default(string(backend.MemoryMode)).Enum(string(backend.MemoryMode), string(backend.FileMode)),
		backends: cmd.Flag("backend", "Backend to run, in table order (repeated). If empty, scenario backends or all known backends are used.").
			PlaceHolder(backend.ColumnarRLEName).Strings(),
		iterations: cmd.Flag("iterations", "Number of times each timed operation is repeated. Mean time is reported.").Default("1").Int(),
		features: cmd.Flag("features", "Overrides the number of features of wide schemas. 0 keeps the scenario value.").Default("0").Int(),
	}
}

func (f *benchFlags) scenario() (benchrun.Scenario, error) {
	content, err := f.config.Content()
	if err != nil {
		return benchrun.Scenario{}, errors.Wrap(err, "read config")
	}

	var s benchrun.Scenario
	if len(content) > 0 {
		if s, err = benchrun.ParseScenario(content); err != nil {
			return benchrun.Scenario{}, err
		}
	} else {
		s = copyScenario(benchrun.Profiles[*f.profile])
	}

	if len(*f.backends) > 0 {
		s.Backends = *f.backends
	}
	if *f.features > 0 {
		for i := range s.Sections {
			for j := range s.Sections[i].Trials {
				if s.Sections[i].Trials[j].Layout != "" {
					s.Sections[i].Trials[j].Features = *f.features
				}
			}
		}
	}
	return s, s.Validate()
}

// copyScenario copies sections and trials, so that overrides do not leak into the profile table.
func copyScenario(s benchrun.Scenario) benchrun.Scenario {
	sections := make([]benchrun.Section, len(s.Sections))
	for i, sec := range s.Sections {
		sec.Trials = append([]benchrun.TrialSpec(nil), sec.Trials...)
		sections[i] = sec
	}
	s.Sections = sections
	s.Backends = append([]string(nil), s.Backends...)
	return s
}

func (f *benchFlags) run(ctx context.Context, logger log.Logger, kind benchrun.Kind, w io.Writer) error {
	s, err := f.scenario()
	if err != nil {
		return err
	}
	if s.Kind != kind {
		return errors.Errorf("expected %s scenario, got %s", kind, s.Kind)
	}
	mode, err := backend.ParseMode(*f.store)
	if err != nil {
		return err
	}
	return runScenario(ctx, logger, s, mode, *f.iterations, w)
}

func runScenario(ctx context.Context, logger log.Logger, s benchrun.Scenario, mode backend.Mode, iterations int, w io.Writer) (err error) {
	store, err := backend.NewStore(logger, mode)
	if err != nil {
		return err
	}
	defer runutil.CloseWithErrCapture(&err, store, "close store")

	names := s.Backends
	if len(names) == 0 {
		names = backend.Names()
	}
	bs, err := backend.NewAll(names, store)
	if err != nil {
		return err
	}
	r := benchrun.NewRunner(logger, store, bs, iterations)

	level.Info(logger).Log("msg", "starting scenario", "kind", s.Kind, "description", s.Description, "backends", len(bs), "store", mode)
	for _, sec := range s.Sections {
		trials, err := sec.Expand()
		if err != nil {
			return err
		}

		switch s.Kind {
		case benchrun.Compression:
			rows, err := r.Compare(ctx, trials)
			if err != nil {
				return err
			}
			if err := report.WriteSection(w, sec.Title, sec.Note); err != nil {
				return err
			}
			if err := report.WriteCompressionTable(w, r.Backends(), rows); err != nil {
				return err
			}
		case benchrun.Throughput:
			results, err := r.Run(ctx, trials)
			if err != nil {
				return err
			}
			if err := report.WriteSection(w, sec.Title, sec.Note); err != nil {
				return err
			}
			if err := report.WriteResultsTable(w, benchrun.Measurements(results)); err != nil {
				return err
			}
		}
	}

	if s.Kind == benchrun.Compression {
		return report.WriteFootnote(w)
	}
	return nil
}

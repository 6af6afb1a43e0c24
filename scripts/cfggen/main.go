package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fatih/structtag"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	yaml "gopkg.in/yaml.v2"

	"github.com/thanos-io/colbench/pkg/benchrun"
	"github.com/thanos-io/colbench/pkg/datagen"
)

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Config examples generator.")
	app.HelpFlag.Short('h')
	outputDir := app.Flag("output-dir", "Output directory for generated examples.").String()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if _, err := app.Parse(os.Args[1:]); err != nil {
		level.Error(logger).Log("err", err)
		os.Exit(1)
	}

	typ := "scenario"
	if err := generate(exampleScenario(), typ, *outputDir); err != nil {
		level.Error(logger).Log("msg", "failed to generate", "type", typ, "err", err)
		os.Exit(1)
	}

	typ = "pattern"
	if err := generate(datagen.SpecFor(datagen.HighRepetition{RepetitionRate: 0.9, RunLength: 100}), typ, *outputDir); err != nil {
		level.Error(logger).Log("msg", "failed to generate", "type", typ, "err", err)
		os.Exit(1)
	}
	logger.Log("msg", "success")
}

// exampleScenario sets every field at least once, so the output documents the whole format.
func exampleScenario() benchrun.Scenario {
	return benchrun.Scenario{
		Kind:        benchrun.Throughput,
		Description: "Example scenario.",
		Backends:    []string{"columnar-bitpacking", "columnar-rle", "parquet"},
		Sections: []benchrun.Section{
			{
				Title: "Take",
				Note:  "Random access at fixed ratios.",
				Trials: []benchrun.TrialSpec{{
					Label:      "runs",
					Pattern:    datagen.SpecFor(datagen.Runs{RunLength: 100, UniqueValues: 10}),
					Sizes:      []int{1000, 10000},
					Read:       true,
					TakeRatios: []float64{0.01, 0.1},
				}},
			},
			{
				Title: datagen.Flat.Description(16),
				Trials: []benchrun.TrialSpec{{
					Layout:    datagen.Flat,
					Features:  16,
					Sizes:     []int{1000},
					SingleRow: true,
				}},
			},
		},
	}
}

func generate(obj interface{}, typ string, outputDir string) error {
	// We forbid omitempty option. This is for simplification for doc generation.
	if err := checkForOmitEmptyTagOption(obj); err != nil {
		return errors.Wrap(err, "invalid type")
	}

	out, err := yaml.Marshal(obj)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(outputDir, fmt.Sprintf("config_%s.txt", typ)), out, os.ModePerm)
}

func checkForOmitEmptyTagOption(obj interface{}) error {
	return checkForOmitEmptyTagOptionRec(reflect.ValueOf(obj))
}

func checkForOmitEmptyTagOptionRec(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			structField := v.Type().Field(i).Tag
			if structField == "" {
				continue
			}

			tags, err := structtag.Parse(string(structField))
			if err != nil {
				return errors.Wrapf(err, "%s: failed to parse tag %q", v.Type().Field(i).Name, v.Type().Field(i).Tag)
			}

			tag, err := tags.Get("yaml")
			if err != nil {
				return errors.Wrapf(err, "%s: failed to get tag %q", v.Type().Field(i).Name, v.Type().Field(i).Tag)
			}

			for _, opts := range tag.Options {
				if opts == "omitempty" {
					return errors.Errorf("omitempty is forbidden for config, but spotted on field '%s'", v.Type().Field(i).Name)
				}
			}

			if err := checkForOmitEmptyTagOptionRec(v.Field(i)); err != nil {
				return errors.Wrapf(err, "%s", v.Type().Field(i).Name)
			}
		}

	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := checkForOmitEmptyTagOptionRec(v.Index(i)); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}

	case reflect.Ptr:
		return errors.New("nil pointers are not allowed in configuration")

	case reflect.Interface:
		return checkForOmitEmptyTagOptionRec(v.Elem())
	}

	return nil
}

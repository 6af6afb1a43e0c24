package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v2"

	"github.com/thanos-io/colbench/pkg/datagen"
)

func registerSample(m map[string]setupFunc, app *kingpin.Application) {
	cmd := app.Command("sample", `Generates a single pattern sequence and prints its head and shape statistics.

Example:

./colbench sample --pattern '{type: high_repetition, repetition_rate: 0.9, run_length: 20}' --size 10000 --ratio 0.001`)
	pattern := cmd.Flag("pattern", "Pattern in YAML flow form.").Default("{type: runs, run_length: 100, unique_values: 10}").String()
	size := cmd.Flag("size", "Number of values to generate.").Default("1000").Int()
	head := cmd.Flag("head", "Number of leading values to print.").Default("20").Int()
	ratio := cmd.Flag("ratio", "If positive, also prints row positions sampled with this access ratio.").Default("0").Float64()

	m["sample"] = func(g *run.Group, _ log.Logger) error {
		g.Add(func() error {
			var spec datagen.PatternSpec
			if err := yaml.UnmarshalStrict([]byte(*pattern), &spec); err != nil {
				return errors.Wrap(err, "parse pattern")
			}
			p, err := spec.Pattern()
			if err != nil {
				return err
			}
			return printSample(os.Stdout, p, *size, *head, *ratio)
		}, func(error) {})
		return nil
	}
}

func printSample(w io.Writer, p datagen.Pattern, size, head int, ratio float64) error {
	seq := datagen.NewGenerator(datagen.DefaultSeed).Generate(p, size)

	if head > len(seq) {
		head = len(seq)
	}
	vals := make([]string, 0, head)
	for _, v := range seq[:head] {
		vals = append(vals, fmt.Sprintf("%d", v))
	}

	distinct := map[int32]struct{}{}
	runs := 0
	var minV, maxV int32
	for i, v := range seq {
		distinct[v] = struct{}{}
		if i == 0 || seq[i-1] != v {
			runs++
		}
		if i == 0 || v < minV {
			minV = v
		}
		if i == 0 || v > maxV {
			maxV = v
		}
	}

	if _, err := fmt.Fprintf(w, "pattern: %s\nsize: %d\nhead: [%s]\ndistinct: %d\nruns: %d\nmin: %d\nmax: %d\n",
		p, len(seq), strings.Join(vals, ", "), len(distinct), runs, minV, maxV); err != nil {
		return err
	}
	if ratio <= 0 {
		return nil
	}

	indices := datagen.NewGenerator(datagen.DefaultSeed).Indices(size, ratio)
	_, err := fmt.Fprintf(w, "indices(%g): %v\n", ratio, indices)
	return err
}

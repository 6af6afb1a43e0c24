package main

import (
	"context"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/thanos-io/colbench/pkg/benchrun"
)

func registerRun(m map[string]setupFunc, app *kingpin.Application) {
	cmd := app.Command("run", `Times write, full read and row access operations of every backend and prints results as Markdown.

Example of custom scenario:

./colbench plan -p single-row > scenario.yaml && ./colbench run --config-file scenario.yaml --store file`)
	flags := registerBenchFlags(cmd, "throughput")

	m["run"] = func(g *run.Group, logger log.Logger) error {
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			if err := flags.run(ctx, logger, benchrun.Throughput, os.Stdout); err != nil {
				return err
			}
			level.Info(logger).Log("msg", "throughput benchmark done")
			return nil
		}, func(error) { cancel() })
		return nil
	}
}

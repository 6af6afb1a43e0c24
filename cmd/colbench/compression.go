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

func registerCompression(m map[string]setupFunc, app *kingpin.Application) {
	cmd := app.Command("compression", `Writes generated datasets with every backend and prints stored sizes with compression ratios as Markdown.

Example quick run on narrow wide schemas:

./colbench compression -p wide-compression --features 100`)
	flags := registerBenchFlags(cmd, "wide-compression")

	m["compression"] = func(g *run.Group, logger log.Logger) error {
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			if err := flags.run(ctx, logger, benchrun.Compression, os.Stdout); err != nil {
				return err
			}
			level.Info(logger).Log("msg", "compression benchmark done")
			return nil
		}, func(error) { cancel() })
		return nil
	}
}

package main

import (
	"os"

	"github.com/go-kit/log"
	"github.com/oklog/run"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v2"

	"github.com/thanos-io/colbench/pkg/benchrun"
)

func registerPlan(m map[string]setupFunc, app *kingpin.Application) {
	cmd := app.Command("plan", `Prints hardcoded scenario as YAML, ready to be edited and passed to 'run' or 'compression' with --config.

Example:

./colbench plan -p patterns-compression | ./colbench compression --config-file /dev/stdin`)
	profile := cmd.Flag("profile", "Name of the hardcoded profile to print.").Required().Short('p').Enum(benchrun.Profiles.Keys()...)

	m["plan"] = func(g *run.Group, _ log.Logger) error {
		g.Add(func() error {
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(benchrun.Profiles[*profile])
		}, func(error) {})
		return nil
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/domparty/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	scenariosKey = "scenarios"
	profileKey   = "profile"
	itersKey     = "iters"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure propagation latency through reactive state graphs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  scenariosKey,
				Usage: "YAML file with benchmark scenarios",
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this path",
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Samples per scenario",
				Value: 100,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type scenario struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

var defaultScenarios = []scenario{
	{Name: "propagate: 1 * 1", Width: 1, Height: 1},
	{Name: "propagate: 1 * 100", Width: 1, Height: 100},
	{Name: "propagate: 100 * 1", Width: 100, Height: 1},
	{Name: "propagate: 100 * 100", Width: 100, Height: 100},
	{Name: "propagate: 1000 * 10", Width: 1000, Height: 10},
}

func run(ctx context.Context, cmd *cli.Command) error {
	scenarios := defaultScenarios
	if path := cmd.String(scenariosKey); path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read scenarios: %w", err)
		}
		scenarios = nil
		if err := yaml.Unmarshal(contents, &scenarios); err != nil {
			return fmt.Errorf("parse scenarios: %w", err)
		}
	}

	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	log.Print("warming up")

	tbl := table.NewWriter()
	tbl.SetTitle("Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, sc := range scenarios {
		log.Printf("running %q", sc.Name)
		calc := benchmarkPropagation(sc, iters)
		tbl.AppendRows([]table.Row{
			{
				sc.Name,
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	tbl.Render()
	return nil
}

// benchmarkPropagation builds width independent chains of height derivation
// layers off one shared source, then times write+settle cycles.
func benchmarkPropagation(sc scenario, iters int) *tachymeter.Metrics {
	rt := reactive.NewRuntime(func(_ *reactive.Computation, err error) {
		log.Panic(err)
	})

	var src *reactive.Map
	err := reactive.Root(rt, func() error {
		src = reactive.WrapMap(rt, map[string]any{"v": 1})

		for i := 0; i < sc.Width; i++ {
			last := src
			for j := 0; j < sc.Height; j++ {
				prev := last
				derived := reactive.WrapMap(rt, map[string]any{"v": 0})
				reactive.Effect(rt, func() error {
					derived.Set("v", prev.GetInt("v")+1)
					return nil
				})
				last = derived
			}

			leaf := last
			reactive.Effect(rt, func() error {
				leaf.GetInt("v")
				return nil
			})
		}
		return nil
	})
	if err != nil {
		log.Panic(err)
	}
	rt.Settle()

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		start := time.Now()
		src.Set("v", src.GetInt("v")+1)
		rt.Settle()
		tach.AddTime(time.Since(start))
	}
	return tach.Calc()
}

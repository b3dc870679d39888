package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/domparty/dom"
	"github.com/delaneyj/domparty/template"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

var rowTpl = template.Define(`<li>`, `</li>`)
var listTpl = template.Define(`<ul>`, `</ul>`)

func main() {
	log.Print("Starting render benchmark, please wait...")
	defer log.Print("Finished render benchmark")

	cfgs := []renderTestConfig{
		{name: "create small", listSize: 10, changedPerPass: 10, iterations: 20000},
		{name: "create medium", listSize: 1000, changedPerPass: 1000, iterations: 500},
		{name: "sparse update", listSize: 1000, changedPerPass: 1, iterations: 20000},
		{name: "dense update", listSize: 1000, changedPerPass: 500, iterations: 500},
		{name: "bulk rebuild", listSize: 10000, changedPerPass: 10000, iterations: 50},
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"test", "size", "changed", "nTimes", "time",
		"itemsPerSec", "partCommits", "bulkReplaces",
	})

	testRepeats := 5
	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)

		best := time.Hour
		var stats template.Stats
		for i := 0; i < testRepeats; i++ {
			duration, s := runRenderTest(cfg)
			if duration < best {
				best = duration
				stats = s
			}
		}

		itemsPerSec := float64(cfg.listSize*cfg.iterations) / best.Seconds()
		tbl.Append([]string{
			cfg.name,
			humanize.Comma(int64(cfg.listSize)),
			humanize.Comma(int64(cfg.changedPerPass)),
			humanize.Comma(int64(cfg.iterations)),
			fmt.Sprint(best),
			humanize.Comma(int64(itemsPerSec)),
			humanize.Comma(int64(stats.PartCommits)),
			humanize.Comma(int64(stats.BulkReplaces)),
		})
	}
	tbl.Render()
}

type renderTestConfig struct {
	name           string // friendly name for the test, should be unique
	listSize       int    // entries in the rendered list
	changedPerPass int    // entries whose value changes between renders
	iterations     int    // render passes per run
}

// runRenderTest renders a list repeatedly, mutating changedPerPass entries
// between passes, and reports the wall time and renderer work counters.
func runRenderTest(cfg renderTestConfig) (time.Duration, template.Stats) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	values := make([]int, cfg.listSize)
	for i := range values {
		values[i] = i
	}
	bind := func() []any {
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = rowTpl.Bind(v)
		}
		return out
	}

	start := time.Now()
	for pass := 0; pass < cfg.iterations; pass++ {
		for i := 0; i < cfg.changedPerPass; i++ {
			at := (pass*cfg.changedPerPass + i) % len(values)
			values[at]++
		}
		if err := r.Render(listTpl.Bind(bind()), root); err != nil {
			log.Panic(err)
		}
	}
	return time.Since(start), r.Stats()
}

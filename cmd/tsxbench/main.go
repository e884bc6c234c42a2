// Profiling:
// go build ./cmd/tsxbench
// ./tsxbench assets/tilesets/deadworld.tsx cpu
// go tool pprof -http=":8000" ./tsxbench cpu.pprof

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"

	"tilekit/internal/anim"
	"tilekit/internal/layout"
	"tilekit/internal/tileset"
	"tilekit/internal/wang"
)

const (
	rounds      = 20
	frameSteps  = 100000
	layoutSize  = 256
	layoutSeeds = 5
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "Usage: tsxbench <file.tsx> [cpu|mem]")
		os.Exit(1)
	}
	ts, err := tileset.Load(os.Args[1])
	if err != nil {
		log.Fatalf("Load: %v", err)
	}

	mode := profile.CPUProfile
	if len(os.Args) == 3 && os.Args[2] == "mem" {
		mode = profile.MemProfileAllocs
	}
	p := profile.Start(mode, profile.ProfilePath("."), profile.NoShutdownHook)
	runFrames(ts)
	runFill(ts)
	p.Stop()
}

func runFrames(ts *tileset.Tileset) {
	an, err := anim.NewAnimator(ts)
	if err != nil {
		log.Fatalf("Animator: %v", err)
	}
	if len(an.Tiles()) == 0 {
		log.Printf("Warning: %s has no animations", ts.Name)
		return
	}

	start := time.Now()
	lookups := 0
	for range rounds {
		for step := range frameSteps {
			elapsed := uint64(step) * 7
			for _, id := range an.Tiles() {
				an.Frame(id, elapsed)
				lookups++
			}
		}
	}
	report("frame lookups", lookups, time.Since(start))
}

func runFill(ts *tileset.Tileset) {
	sets := ts.TerrainSets()
	if len(sets) == 0 {
		log.Printf("Warning: %s has no corner wang set", ts.Name)
		return
	}
	r := wang.NewResolver(ts, sets[0])

	var layouts []*layout.Layout
	for seed := range int64(layoutSeeds) {
		l, err := layout.Generate(layout.ConfigFor(ts.Name, sets[0], layoutSize, layoutSize, seed+1))
		if err != nil {
			log.Fatalf("Generate: %v", err)
		}
		layouts = append(layouts, l)
	}

	start := time.Now()
	cells, misses := 0, 0
	for range rounds {
		for _, l := range layouts {
			fill, err := l.Fill(r)
			if err != nil {
				log.Fatalf("Fill: %v", err)
			}
			cells += l.Width * l.Height
			misses += len(fill.Misses)
		}
	}
	report("wang cells", cells, time.Since(start))
	fmt.Printf("  %s unmatched\n", humanize.Comma(int64(misses)))
}

func report(what string, n int, d time.Duration) {
	perSec := float64(n) / d.Seconds()
	fmt.Printf("%s %s in %s (%s/s)\n", humanize.Comma(int64(n)), what, d.Round(time.Millisecond), humanize.SIWithDigits(perSec, 1, ""))
}

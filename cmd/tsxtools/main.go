package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tilekit/internal/anim"
	"tilekit/internal/catalog"
	"tilekit/internal/layout"
	"tilekit/internal/render"
	"tilekit/internal/tileset"
	"tilekit/internal/wang"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "validate":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools validate <dir>")
			os.Exit(1)
		}
		os.Exit(runValidate(os.Stdout, args[0]))
	case "anim":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools anim <file.tsx> <elapsed-ms>")
			os.Exit(1)
		}
		runAnim(args[0], args[1])
	case "wang":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools wang <file.tsx> <wangset> <tl,tr,br,bl>")
			os.Exit(1)
		}
		runWang(args[0], args[1], args[2])
	case "stats":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools stats <file.tsx>")
			os.Exit(1)
		}
		runStats(args[0])
	case "gen":
		if len(args) != 6 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools gen <file.tsx> <wangset> <w> <h> <seed> <out.json>")
			os.Exit(1)
		}
		runGen(args)
	case "viz":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools viz <file.tsx> <layout.json>")
			os.Exit(1)
		}
		runViz(args[0], args[1])
	case "index":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools index <dir> <db>")
			os.Exit(1)
		}
		os.Exit(runIndex(args[0], args[1]))
	case "catalog":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: tsxtools catalog <db>")
			os.Exit(1)
		}
		runCatalog(args[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: tsxtools <command> <args>

Commands:
  validate <dir>                              Validate all tilesets and layouts in directory
  anim     <file.tsx> <elapsed-ms>            Show the frame every animated tile shows at a time
  wang     <file.tsx> <wangset> <tl,tr,br,bl> Resolve corner terrains to a tile
  stats    <file.tsx>                         Show tile, animation and wang set counts
  gen      <file.tsx> <wangset> <w> <h> <seed> <out.json>
                                              Generate a noise layout
  viz      <file.tsx> <layout.json>           Render a layout as colored blocks
  index    <dir> <db>                         Index all tilesets into a SQLite catalog
  catalog  <db>                               List the tilesets of a catalog`)
}

func mustLoad(path string) *tileset.Tileset {
	ts, err := tileset.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return ts
}

func mustResolver(ts *tileset.Tileset, setName string) *wang.Resolver {
	ws := ts.TerrainSet(setName)
	if ws == nil {
		var names []string
		for _, s := range ts.TerrainSets() {
			names = append(names, s.Name)
		}
		fmt.Fprintf(os.Stderr, "Error: %s has no corner wang set %q (have %s)\n", ts.Name, setName, strings.Join(names, ", "))
		os.Exit(1)
	}
	return wang.NewResolver(ts, ws)
}

// --- validate ---

// runValidate checks every tileset and layout in dir, reporting each
// problem on w. It returns the exit status.
func runValidate(w io.Writer, dir string) int {
	all, err := tileset.ParseDir(dir)
	errors := 0
	if err != nil {
		if len(all) == 0 {
			fmt.Fprintf(w, "FAIL: %v\n", err)
			return 1
		}
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(w, "ERROR: %s\n", line)
			errors++
		}
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	valid := make(map[string]*tileset.Tileset, len(all))
	for _, name := range names {
		ts := all[name]
		fmt.Fprintf(w, "Validating %q (%s)...\n", name, filepath.Base(ts.Path))
		if err := ts.Validate(); err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "  ERROR: %s\n", line)
				errors++
			}
			continue
		}
		valid[name] = ts
		fmt.Fprintf(w, "  OK (%s tiles, %d animated, %d wang sets)\n",
			humanize.Comma(int64(ts.TileCount)), len(ts.Animated()), len(ts.WangSets))
	}

	layouts, err := layout.LoadDir(dir, valid)
	if err != nil {
		fmt.Fprintf(w, "  ERROR: %v\n", err)
		errors++
	}
	for name, l := range layouts {
		ts := valid[l.Tileset]
		fill, err := l.Fill(wang.NewResolver(ts, ts.TerrainSet(l.WangSet)))
		if err != nil {
			fmt.Fprintf(w, "  ERROR: layout %q: %v\n", name, err)
			errors++
			continue
		}
		fmt.Fprintf(w, "Layout %q: %dx%d, %d unmatched cells\n", name, l.Width, l.Height, len(fill.Misses))
	}

	if errors > 0 {
		fmt.Fprintf(w, "\n%d error(s) found\n", errors)
		return 1
	}
	fmt.Fprintf(w, "\nAll %d tilesets valid\n", len(all))
	return 0
}

// --- anim ---

func runAnim(path, elapsed string) {
	ts := mustLoad(path)
	ms, err := strconv.ParseUint(elapsed, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: elapsed %q: %v\n", elapsed, err)
		os.Exit(1)
	}

	animated := ts.Animated()
	fmt.Printf("%s at %s ms (%d animated tiles)\n\n", ts.Name, humanize.Comma(int64(ms)), len(animated))
	for _, a := range animated {
		frame, err := anim.ResolveFrame(*a, ms)
		if err != nil {
			fmt.Printf("  %5d  ERROR: %v\n", a.Tile, err)
			continue
		}
		fmt.Printf("  %5d → %5d  (%d frames, cycle %d ms)\n", a.Tile, frame, len(a.Frames), anim.CycleLength(*a))
	}
}

// --- wang ---

func runWang(path, setName, arg string) {
	ts := mustLoad(path)
	r := mustResolver(ts, setName)

	corners, err := parseCorners(r, arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	id := corners.WangID()
	fmt.Printf("%s / %s  wangid %s\n", ts.Name, setName, id)
	cands := r.Candidates(id)
	if len(cands) == 0 {
		fmt.Println("  no matching tile")
		os.Exit(2)
	}
	total := 0.0
	for _, c := range cands {
		total += c.Weight
	}
	for _, c := range cands {
		fmt.Printf("  tile %5d  weight %.2f (%4.1f%%)\n", c.Tile, c.Weight, c.Weight/total*100)
	}
	tile, _ := r.Resolve(corners, nil)
	fmt.Printf("Resolved: %d\n", tile)
}

// parseCorners reads "tl,tr,br,bl" as color names or 1-based indexes.
func parseCorners(r *wang.Resolver, arg string) (wang.Corners, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return wang.Corners{}, fmt.Errorf("corners %q: want tl,tr,br,bl", arg)
	}
	var c wang.Corners
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == layout.None {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			if n == 0 {
				continue
			}
			if n < 0 || n > 255 {
				return wang.Corners{}, fmt.Errorf("corner %d: no color %d", i, n)
			}
			if _, ok := r.Set().Color(uint8(n)); !ok {
				return wang.Corners{}, fmt.Errorf("corner %d: no color %d", i, n)
			}
			c[i] = uint8(n)
			continue
		}
		idx := r.ColorIndex(p)
		if idx == 0 {
			return wang.Corners{}, fmt.Errorf("corner %d: unknown terrain %q", i, p)
		}
		c[i] = idx
	}
	return c, nil
}

// --- stats ---

func runStats(path string) {
	ts := mustLoad(path)

	kind := "grid"
	if ts.IsCollection() {
		kind = "collection"
	}
	fmt.Printf("%s (%s, %s tiles of %dx%d)\n\n", ts.Name, kind, humanize.Comma(int64(ts.TileCount)), ts.TileWidth, ts.TileHeight)

	an, err := anim.NewAnimator(ts)
	if err != nil {
		fmt.Printf("Animations: ERROR: %v\n", err)
	} else {
		period := "beyond 64 bits"
		switch p := an.Period(); {
		case p <= math.MaxInt64:
			period = humanize.Comma(int64(p)) + " ms"
		case p != anim.PeriodOverflow:
			period = fmt.Sprintf("%d ms", p)
		}
		fmt.Printf("Animations: %d tiles, shared period %s\n", len(an.Tiles()), period)
	}

	for _, ws := range ts.TerrainSets() {
		r := wang.NewResolver(ts, ws)
		fmt.Printf("\nWang set %q: %d tiles, %d distinct ids\n", ws.Name, len(ws.Tiles), r.Distinct())

		counts := make([]int, len(ws.Colors)+1)
		for _, wt := range ws.Tiles {
			for _, c := range wt.WangID.Corners() {
				counts[c]++
			}
		}
		total := 4 * len(ws.Tiles)
		for i, c := range ws.Colors {
			pct := 0.0
			if total > 0 {
				pct = float64(counts[i+1]) / float64(total) * 100
			}
			bar := strings.Repeat("█", int(pct/2))
			fmt.Printf("  %-10s %4d corners (%5.1f%%) %s\n", c.Name, counts[i+1], pct, bar)
		}
	}
}

// --- gen ---

func runGen(args []string) {
	ts := mustLoad(args[0])
	r := mustResolver(ts, args[1])

	w, errW := strconv.Atoi(args[2])
	h, errH := strconv.Atoi(args[3])
	seed, errS := strconv.ParseInt(args[4], 10, 64)
	if errW != nil || errH != nil || errS != nil {
		fmt.Fprintln(os.Stderr, "Error: width, height and seed must be integers")
		os.Exit(1)
	}

	l, err := layout.Generate(layout.ConfigFor(ts.Name, r.Set(), w, h, seed))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	l.Name = strings.TrimSuffix(filepath.Base(args[5]), ".json")

	fill, err := l.Fill(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := l.Save(args[5]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s: %dx%d seed %d, %d of %s cells unmatched\n",
		args[5], w, h, l.Seed, len(fill.Misses), humanize.Comma(int64(w*h)))
}

// --- viz ---

func runViz(tsxPath, layoutPath string) {
	ts := mustLoad(tsxPath)
	l, err := layout.Load(layoutPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	r := mustResolver(ts, l.WangSet)

	fill, err := l.Fill(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	missed := make(map[[2]int]bool, len(fill.Misses))
	for _, p := range fill.Misses {
		missed[[2]int{p.X, p.Y}] = true
	}

	fmt.Printf("%s (%dx%d)\n", l.Name, l.Width, l.Height)
	for y := 0; y <= l.Height; y++ {
		var sb strings.Builder
		for x := 0; x <= l.Width; x++ {
			sb.WriteString(vertexColor(r, l.At(x, y)))
			if x < l.Width && y < l.Height && missed[[2]int{x, y}] {
				sb.WriteString("▒▒")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteString(render.Reset)
		fmt.Println(sb.String())
	}

	counts := l.Counts()
	fmt.Println()
	for _, c := range r.Set().Colors {
		fmt.Printf("%s  %s %-10s %d\n", vertexColor(r, c.Name), render.Reset, c.Name, counts[c.Name])
	}
	fmt.Printf("\nUnmatched cells: %d (▒)\n", len(fill.Misses))
}

// vertexColor returns the SGR background for a terrain name.
func vertexColor(r *wang.Resolver, name string) string {
	c, ok := r.Set().Color(r.ColorIndex(name))
	if !ok {
		return render.Background(0, 0, 0)
	}
	rgb, err := render.ParseHexColor(c.Color)
	if err != nil {
		rgb = render.IDColor(tileset.TileID(r.ColorIndex(name)))
	}
	return render.Background(rgb.R, rgb.G, rgb.B)
}

// --- index / catalog ---

func runIndex(dir, dbPath string) int {
	all, err := tileset.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		return 1
	}
	db, err := catalog.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		return 1
	}
	defer db.Close()

	start := time.Now()
	for _, ts := range all {
		if err := db.Index(ts); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %s: %v\n", ts.Name, err)
			return 1
		}
	}
	fmt.Printf("Indexed %d tilesets into %s in %s\n", len(all), dbPath, time.Since(start).Round(time.Millisecond))
	return 0
}

func runCatalog(dbPath string) {
	db, err := catalog.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	rows, err := db.Tilesets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	size := "?"
	if fi, err := os.Stat(dbPath); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Printf("%s (%s, %d tilesets)\n\n", dbPath, size, len(rows))
	for _, r := range rows {
		fmt.Printf("  %-20s %7s tiles  %3d animated  %5s wang tiles  indexed %s\n",
			r.Name, humanize.Comma(int64(r.TileCount)), r.Animations,
			humanize.Comma(int64(r.WangTiles)), humanize.Time(time.Unix(r.IndexedAt, 0)))
	}
}

// Package layout loads and edits terrain layouts: vertex grids of terrain
// names that the wang resolver turns into tile grids.
package layout

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tilekit/internal/tileset"
	"tilekit/internal/wang"
)

// None marks a vertex without terrain.
const None = "."

// Layout is a terrain layout for one wang set. Vertices has Height+1 rows of
// Width+1 terrain names each.
type Layout struct {
	Name     string
	Tileset  string
	WangSet  string
	Fallback tileset.TileID
	Seed     int64
	Width    int // in tiles
	Height   int
	Vertices [][]string // [y][x]
}

// jsonLayout is the on-disk JSON format.
type jsonLayout struct {
	Name     string     `json:"name"`
	Tileset  string     `json:"tileset"`
	WangSet  string     `json:"wangset"`
	Fallback uint32     `json:"fallback"`
	Seed     int64      `json:"seed,omitempty"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Vertices [][]string `json:"vertices"`
}

// Load reads a JSON layout file from disk.
func Load(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a JSON layout and checks the grid dimensions.
func Decode(r io.Reader) (*Layout, error) {
	var jl jsonLayout
	if err := json.NewDecoder(r).Decode(&jl); err != nil {
		return nil, fmt.Errorf("parse layout JSON: %w", err)
	}
	if jl.Width < 1 || jl.Height < 1 {
		return nil, fmt.Errorf("layout %q: size %dx%d, need at least 1x1", jl.Name, jl.Width, jl.Height)
	}
	if len(jl.Vertices) != jl.Height+1 {
		return nil, fmt.Errorf("vertex rows %d != declared height %d + 1", len(jl.Vertices), jl.Height)
	}
	for y, row := range jl.Vertices {
		if len(row) != jl.Width+1 {
			return nil, fmt.Errorf("vertex row %d has %d entries, expected %d", y, len(row), jl.Width+1)
		}
	}

	return &Layout{
		Name:     jl.Name,
		Tileset:  jl.Tileset,
		WangSet:  jl.WangSet,
		Fallback: tileset.TileID(jl.Fallback),
		Seed:     jl.Seed,
		Width:    jl.Width,
		Height:   jl.Height,
		Vertices: jl.Vertices,
	}, nil
}

// Encode writes l as indented JSON.
func (l *Layout) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonLayout{
		Name:     l.Name,
		Tileset:  l.Tileset,
		WangSet:  l.WangSet,
		Fallback: uint32(l.Fallback),
		Seed:     l.Seed,
		Width:    l.Width,
		Height:   l.Height,
		Vertices: l.Vertices,
	})
}

// Save writes l to path.
func (l *Layout) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create layout file: %w", err)
	}
	if err := l.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write layout: %w", err)
	}
	return f.Close()
}

// At returns the terrain name at vertex (x, y), None out of bounds.
func (l *Layout) At(x, y int) string {
	if x < 0 || x > l.Width || y < 0 || y > l.Height {
		return None
	}
	return l.Vertices[y][x]
}

// Paint sets vertex (x, y) to terrain name and returns the cells whose
// corners changed. A vertex touches up to four cells.
func (l *Layout) Paint(x, y int, name string) ([]image.Point, error) {
	if x < 0 || x > l.Width || y < 0 || y > l.Height {
		return nil, fmt.Errorf("vertex (%d,%d) outside %dx%d layout", x, y, l.Width, l.Height)
	}
	if name == "" {
		name = None
	}
	l.Vertices[y][x] = name

	var cells []image.Point
	for _, c := range []image.Point{{x - 1, y - 1}, {x, y - 1}, {x - 1, y}, {x, y}} {
		if c.X >= 0 && c.X < l.Width && c.Y >= 0 && c.Y < l.Height {
			cells = append(cells, c)
		}
	}
	return cells, nil
}

// Colors converts the vertex names to the wang color indices of r's set.
func (l *Layout) Colors(r *wang.Resolver) ([][]uint8, error) {
	out := make([][]uint8, len(l.Vertices))
	for y, row := range l.Vertices {
		out[y] = make([]uint8, len(row))
		for x, name := range row {
			if name == None || name == "" {
				continue
			}
			c := r.ColorIndex(name)
			if c == 0 {
				return nil, fmt.Errorf("vertex (%d,%d): unknown terrain %q in wangset %q", x, y, name, r.Set().Name)
			}
			out[y][x] = c
		}
	}
	return out, nil
}

// Fill resolves the whole layout against r, choosing variants per cell from
// the layout seed.
func (l *Layout) Fill(r *wang.Resolver) (wang.FillResult, error) {
	colors, err := l.Colors(r)
	if err != nil {
		return wang.FillResult{}, err
	}
	return wang.Fill(r, colors, wang.CellRand(l.Seed), l.Fallback)
}

// Counts returns how many vertices carry each terrain name.
func (l *Layout) Counts() map[string]int {
	counts := make(map[string]int)
	for _, row := range l.Vertices {
		for _, name := range row {
			counts[name]++
		}
	}
	return counts
}

// LoadDir scans a directory for *.json files, loads each as a Layout, and
// returns them indexed by Name. Layouts must name a loaded tileset and one
// of its wang sets.
func LoadDir(dir string, tilesets map[string]*tileset.Tileset) (map[string]*Layout, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read layouts directory: %w", err)
	}

	all := make(map[string]*Layout)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		l, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if l.Name == "" {
			l.Name = strings.TrimSuffix(entry.Name(), ".json")
		}
		if _, exists := all[l.Name]; exists {
			return nil, fmt.Errorf("duplicate layout name %q in %s", l.Name, entry.Name())
		}
		all[l.Name] = l
	}

	for name, l := range all {
		ts, ok := tilesets[l.Tileset]
		if !ok {
			return nil, fmt.Errorf("layout %q references unknown tileset %q", name, l.Tileset)
		}
		if ts.TerrainSet(l.WangSet) == nil {
			return nil, fmt.Errorf("layout %q references unknown wangset %q in tileset %q", name, l.WangSet, l.Tileset)
		}
	}
	return all, nil
}

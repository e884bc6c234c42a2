package layout

import (
	"image"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tilekit/internal/tileset"
	"tilekit/internal/wang"
)

func loadFixture(t *testing.T, name string) *tileset.Tileset {
	t.Helper()
	ts, err := tileset.Load(filepath.Join("..", "tileset", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

// island is a 3x2 sand patch in grass with one dirt vertex.
func island() *Layout {
	return &Layout{
		Name:     "island",
		Tileset:  "Deadworld",
		WangSet:  "Terrains",
		Fallback: 9,
		Seed:     5,
		Width:    3,
		Height:   2,
		Vertices: [][]string{
			{"grass", "grass", "grass", "grass"},
			{"grass", "sand", "sand", "grass"},
			{"grass", "sand", "dirt", "grass"},
		},
	}
}

func TestDecodeRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"zero size", `{"name":"a","width":0,"height":1,"vertices":[["."],["."]]}`},
		{"short rows", `{"name":"a","width":1,"height":1,"vertices":[[".","."]]}`},
		{"ragged row", `{"name":"a","width":1,"height":1,"vertices":[[".","."],["."]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.json)); err == nil {
				t.Errorf("Decode(%s) should fail", tt.json)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "island.json")
	want := island()
	if err := want.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestPaintAffectedCells(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		want []image.Point
	}{
		{"top-left corner", 0, 0, []image.Point{{0, 0}}},
		{"top edge", 1, 0, []image.Point{{0, 0}, {1, 0}}},
		{"interior", 1, 1, []image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
		{"bottom-right corner", 3, 2, []image.Point{{2, 1}}},
		{"right edge", 3, 1, []image.Point{{2, 0}, {2, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := island()
			got, err := l.Paint(tt.x, tt.y, "water")
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Paint(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
			if l.At(tt.x, tt.y) != "water" {
				t.Errorf("At(%d,%d) = %q after paint", tt.x, tt.y, l.At(tt.x, tt.y))
			}
		})
	}

	l := island()
	for _, p := range []image.Point{{-1, 0}, {4, 0}, {0, 3}} {
		if _, err := l.Paint(p.X, p.Y, "sand"); err == nil {
			t.Errorf("Paint(%d,%d) outside layout should fail", p.X, p.Y)
		}
	}
	if l.At(-1, 0) != None {
		t.Errorf("At out of bounds = %q, want %q", l.At(-1, 0), None)
	}
}

func TestFillThenPaint(t *testing.T) {
	ts := loadFixture(t, "deadworld.tsx")
	r := wang.NewResolver(ts, ts.TerrainSet("Terrains"))
	l := island()

	res, err := l.Fill(r)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]tileset.TileID{
		{120, 121, 122},
		{160, 9, 9},
	}
	if !reflect.DeepEqual(res.Tiles, want) {
		t.Errorf("Fill tiles = %v, want %v", res.Tiles, want)
	}
	if len(res.Misses) != 2 {
		t.Errorf("Fill misses = %v, want 2", res.Misses)
	}

	cells, err := l.Paint(2, 2, "sand")
	if err != nil {
		t.Fatal(err)
	}
	colors, err := l.Colors(r)
	if err != nil {
		t.Fatal(err)
	}
	if n := wang.Refill(r, &res, colors, cells, wang.CellRand(l.Seed), l.Fallback); n != 0 {
		t.Errorf("Refill missed %d cells", n)
	}
	if res.Tiles[1][1] != 161 || res.Tiles[1][2] != 162 {
		t.Errorf("row 1 after paint = %v, want [160 161 162]", res.Tiles[1])
	}
}

func TestFillLegacyTerrains(t *testing.T) {
	ts := loadFixture(t, "Overworld.tsx")
	r := wang.NewResolver(ts, ts.TerrainSet("Terrains"))
	l := island()
	l.Tileset = "Overworld"

	res, err := l.Fill(r)
	if err != nil {
		t.Fatal(err)
	}
	// The Overworld sheet shares deadworld's layout.
	if res.Tiles[0][0] != 120 || res.Tiles[1][0] != 160 {
		t.Errorf("Overworld fill = %v", res.Tiles)
	}
}

func TestColorsUnknownTerrain(t *testing.T) {
	ts := loadFixture(t, "deadworld.tsx")
	r := wang.NewResolver(ts, ts.TerrainSet("Terrains"))
	l := island()
	l.Vertices[0][0] = "lava"
	if _, err := l.Colors(r); err == nil || !strings.Contains(err.Error(), "lava") {
		t.Errorf("Colors err = %v, want unknown terrain lava", err)
	}

	l = island()
	l.Vertices[1][1] = None
	colors, err := l.Colors(r)
	if err != nil {
		t.Fatal(err)
	}
	if colors[1][1] != 0 || colors[0][0] != 1 {
		t.Errorf("Colors = %v", colors)
	}
}

func TestGenerate(t *testing.T) {
	ts := loadFixture(t, "deadworld.tsx")
	ws := ts.TerrainSet("Terrains")
	cfg := ConfigFor(ts.Name, ws, 24, 16, 1234)

	a, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Vertices, b.Vertices) {
		t.Error("same seed produced different layouts")
	}
	if a.Width != 24 || a.Height != 16 || len(a.Vertices) != 17 || len(a.Vertices[0]) != 25 {
		t.Fatalf("generated size %dx%d with %d vertex rows", a.Width, a.Height, len(a.Vertices))
	}
	for name := range a.Counts() {
		if ws.ColorIndex(name) == 0 {
			t.Errorf("generated unknown terrain %q", name)
		}
	}

	r := wang.NewResolver(ts, ws)
	res, err := a.Fill(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tiles) != 16 || len(res.Tiles[0]) != 24 {
		t.Errorf("filled grid %dx%d", len(res.Tiles[0]), len(res.Tiles))
	}

	cfg.Seed = 0
	c, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.Seed == 0 {
		t.Error("random seed not recorded")
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	for _, cfg := range []GenConfig{
		{Width: 0, Height: 4, Terrains: []string{"a"}},
		{Width: 4, Height: 4},
	} {
		if _, err := Generate(cfg); err == nil {
			t.Errorf("Generate(%+v) should fail", cfg)
		}
	}
}

func TestLoadDir(t *testing.T) {
	tilesets := map[string]*tileset.Tileset{
		"Deadworld": loadFixture(t, "deadworld.tsx"),
		"Overworld": loadFixture(t, "Overworld.tsx"),
	}

	dir := t.TempDir()
	l := island()
	if err := l.Save(filepath.Join(dir, "island.json")); err != nil {
		t.Fatal(err)
	}
	l.Name = ""
	l.Tileset = "Overworld"
	if err := l.Save(filepath.Join(dir, "legacy.json")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatal(err)
	}

	all, err := LoadDir(dir, tilesets)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["island"] == nil || all["legacy"] == nil {
		t.Fatalf("LoadDir = %v", all)
	}

	l.Name = "broken"
	l.Tileset = "Nowhere"
	if err := l.Save(filepath.Join(dir, "broken.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir, tilesets); err == nil || !strings.Contains(err.Error(), "Nowhere") {
		t.Errorf("LoadDir err = %v, want unknown tileset", err)
	}

	l.Tileset = "Deadworld"
	l.WangSet = "Fences"
	if err := l.Save(filepath.Join(dir, "broken.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir, tilesets); err == nil || !strings.Contains(err.Error(), "Fences") {
		t.Errorf("LoadDir err = %v, want unknown wangset", err)
	}
}

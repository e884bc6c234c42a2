package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tilekit/internal/anim"
	"tilekit/internal/tileset"
)

func loadFixture(t *testing.T, name string) *tileset.Tileset {
	t.Helper()
	ts, err := tileset.Load(filepath.Join("..", "tileset", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

// rowText returns the characters of screen row y of the last frame.
func rowText(e *Engine, y int) string {
	var sb strings.Builder
	for _, c := range e.current[y] {
		sb.WriteRune(c.Ch)
	}
	return sb.String()
}

func TestStampPixelSpriteHalfBlocks(t *testing.T) {
	e := NewEngine(4, 3)
	under := Cell{Ch: ' ', BgR: 1, BgG: 2, BgB: 3}
	for y := range e.next {
		for x := range e.next[y] {
			e.next[y][x] = under
		}
	}

	s := NewPixelSprite(3, 2)
	s.Set(0, 0, P(255, 0, 0))
	s.Set(0, 1, P(0, 0, 255))
	s.Set(1, 1, P(0, 255, 0))
	s.Set(2, 0, P(9, 9, 9))

	e.stampPixelSprite(1, 1, s, 3)

	tests := []struct {
		x    int
		want Cell
	}{
		{0, under},
		{1, Cell{Ch: '▀', FgR: 255, BgB: 255}},
		{2, Cell{Ch: '▄', FgG: 255, BgR: 1, BgG: 2, BgB: 3}},
		{3, Cell{Ch: '▀', FgR: 9, FgG: 9, FgB: 9, BgR: 1, BgG: 2, BgB: 3}},
	}
	for _, tt := range tests {
		if got := e.next[1][tt.x]; got != tt.want {
			t.Errorf("cell (%d,1) = %+v, want %+v", tt.x, got, tt.want)
		}
	}
	if e.next[0][1] != under || e.next[2][1] != under {
		t.Error("stamp leaked outside the sprite rows")
	}

	// Rows at the clip line are left alone.
	e.stampPixelSprite(1, 2, s, 2)
	if e.next[2][1] != under {
		t.Error("clipped row was drawn")
	}
}

func TestDownscale(t *testing.T) {
	s := NewPixelSprite(4, 4)
	// Top-left block: four opaque pixels averaging to (20, 40, 60).
	s.Set(0, 0, P(10, 20, 30))
	s.Set(1, 0, P(30, 60, 90))
	s.Set(0, 1, P(10, 20, 30))
	s.Set(1, 1, P(30, 60, 90))
	// Top-right block: one opaque pixel of four, stays transparent.
	s.Set(3, 0, P(255, 255, 255))
	// Bottom-left block: two of four opaque.
	s.Set(0, 2, P(100, 100, 100))
	s.Set(1, 3, P(200, 200, 200))

	d := s.Downscale(2)
	if d.W != 2 || d.H != 2 {
		t.Fatalf("Downscale(2) size = %dx%d", d.W, d.H)
	}
	tests := []struct {
		x, y int
		want Pixel
	}{
		{0, 0, P(20, 40, 60)},
		{1, 0, TransparentPixel()},
		{0, 1, P(150, 150, 150)},
		{1, 1, TransparentPixel()},
	}
	for _, tt := range tests {
		if got := d.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
		}
	}

	if s.Downscale(1).W != 4 {
		t.Error("Downscale(1) should be identity")
	}
	if odd := NewPixelSprite(5, 3).Downscale(2); odd.W != 3 || odd.H != 2 {
		t.Errorf("odd downscale size = %dx%d, want 3x2", odd.W, odd.H)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#3e9913", color.RGBA{0x3e, 0x99, 0x13, 255}, true},
		{"#ff3e9913", color.RGBA{0x3e, 0x99, 0x13, 255}, true},
		{"f1b8ff", color.RGBA{0xf1, 0xb8, 0xff, 255}, true},
		{"", color.RGBA{}, false},
		{"#12345", color.RGBA{}, false},
		{"#gggggg", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, %v, want %v ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestSheetPlaceholders(t *testing.T) {
	ts := loadFixture(t, "deadworld.tsx")
	sh := NewSheet(ts)
	if !sh.Placeholder {
		t.Fatal("fixture has no PNG, sheet should use placeholders")
	}

	grass := Pixel{R: 0xff, G: 0x92, B: 0x33}
	sand := Pixel{R: 0xf1, G: 0xb8, B: 0xff}

	all := sh.Sprite(161, 1)
	if all.W != 16 || all.H != 16 {
		t.Fatalf("sprite size = %dx%d", all.W, all.H)
	}
	for _, p := range all.Pix {
		if p != sand {
			t.Fatalf("all-sand tile pixel = %+v, want %+v", p, sand)
		}
	}

	// Tile 120 is grass with a sand bottom-right corner.
	q := sh.Sprite(120, 1)
	if q.At(0, 0) != grass || q.At(15, 0) != grass || q.At(0, 15) != grass || q.At(15, 15) != sand {
		t.Errorf("tile 120 corners = %v %v %v %v", q.At(0, 0), q.At(15, 0), q.At(0, 15), q.At(15, 15))
	}

	// Non-wang tiles get their id color, unknown ids magenta.
	want := PixelFromColor(IDColor(41))
	if got := sh.Sprite(41, 1).At(3, 3); got != want {
		t.Errorf("tile 41 = %+v, want %+v", got, want)
	}
	if got := sh.Sprite(99999, 2); got.W != 8 || got.At(0, 0) != P(255, 0, 255) {
		t.Errorf("unknown tile = %dx%d %+v", got.W, got.H, got.At(0, 0))
	}
}

func TestSheetLegacyTerrainPalette(t *testing.T) {
	ts := loadFixture(t, "Overworld.tsx")
	sh := NewSheet(ts)
	// Tile 120 carries legacy terrain 0,0,0,2: grass with sand bottom-right.
	s := sh.Sprite(120, 1)
	grass := PixelFromColor(terrainPalette[0])
	sand := PixelFromColor(terrainPalette[2])
	if s.At(0, 0) != grass || s.At(15, 15) != sand {
		t.Errorf("Overworld 120 = %+v / %+v, want %+v / %+v", s.At(0, 0), s.At(15, 15), grass, sand)
	}
}

func writeTinySheet(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for id := 0; id < 4; id++ {
		c := color.RGBA{R: uint8(id * 60), G: 10, B: uint8(200 - id*40), A: 255}
		x0, y0 := (id%2)*2, (id/2)*2
		for y := y0; y < y0+2; y++ {
			for x := x0; x < x0+2; x++ {
				img.Set(x, y, c)
			}
		}
	}
	img.Set(2, 2, color.RGBA{R: 255, B: 255, A: 255}) // magenta key in tile 3

	f, err := os.Create(filepath.Join(dir, "tiny.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tsx := `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.9" name="tiny" tilewidth="2" tileheight="2" tilecount="4" columns="2">
 <image source="tiny.png" width="4" height="4"/>
</tileset>`
	path := filepath.Join(dir, "tiny.tsx")
	if err := os.WriteFile(path, []byte(tsx), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSheetFromPNG(t *testing.T) {
	ts, err := tileset.Load(writeTinySheet(t))
	if err != nil {
		t.Fatal(err)
	}
	sh := NewSheet(ts)
	if sh.Placeholder {
		t.Fatal("sheet should load the PNG")
	}

	for id := 0; id < 4; id++ {
		want := P(uint8(id*60), 10, uint8(200-id*40))
		s := sh.Sprite(tileset.TileID(id), 1)
		if s.W != 2 || s.H != 2 {
			t.Fatalf("tile %d size = %dx%d", id, s.W, s.H)
		}
		if got := s.At(1, 1); got != want {
			t.Errorf("tile %d pixel = %+v, want %+v", id, got, want)
		}
	}
	if !sh.Sprite(3, 1).At(0, 0).Transparent {
		t.Error("magenta pixel should be transparent")
	}
	if r, ok := sh.Rect(3); !ok || r != image.Rect(2, 2, 4, 4) {
		t.Errorf("Rect(3) = %v, %v", r, ok)
	}
}

func TestSheetCollection(t *testing.T) {
	ts := loadFixture(t, "Stickers.tsx")
	sh := NewSheet(ts)
	if len(sh.rects) != len(ts.TileIDs()) {
		t.Errorf("collection rects = %d, want %d", len(sh.rects), len(ts.TileIDs()))
	}
	if s := sh.Sprite(14, 1); s.W != 32 || s.H != 64 {
		t.Errorf("flag sticker size = %dx%d, want 32x64", s.W, s.H)
	}
	if s := sh.Sprite(1, 1); s.W != 48 || s.H != 48 {
		t.Errorf("fountain sticker size = %dx%d, want 48x48", s.W, s.H)
	}
}

func TestViewport(t *testing.T) {
	tests := []struct {
		name                   string
		fx, fy, vw, vh, mw, mh int
		wantCamX, wantCamY     int
	}{
		{"centered", 50, 40, 20, 10, 100, 80, 40, 35},
		{"clamped top-left", 2, 1, 20, 10, 100, 80, 0, 0},
		{"clamped bottom-right", 99, 79, 20, 10, 100, 80, 80, 70},
		{"map smaller than view", 3, 3, 20, 10, 8, 6, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewViewport(tt.fx, tt.fy, tt.vw, tt.vh, tt.mw, tt.mh)
			if vp.CamX != tt.wantCamX || vp.CamY != tt.wantCamY {
				t.Errorf("NewViewport cam = (%d,%d), want (%d,%d)", vp.CamX, vp.CamY, tt.wantCamX, tt.wantCamY)
			}
			if !vp.Contains(vp.CamX, vp.CamY) {
				t.Error("viewport should contain its own corner")
			}
		})
	}
}

func TestFlow(t *testing.T) {
	sizes := []image.Point{{4, 2}, {4, 3}, {4, 1}, {10, 1}, {2, 2}}
	got := Flow(sizes, 12, 2, 1)
	want := []image.Point{{0, 0}, {6, 0}, {0, 4}, {0, 6}, {0, 8}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Flow box %d at %v, want %v", i, got[i], want[i])
		}
	}

	// A box wider than the row still gets a row of its own.
	if got := Flow([]image.Point{{20, 1}}, 12, 2, 1); got[0] != (image.Point{}) {
		t.Errorf("oversized box at %v, want origin", got[0])
	}
}

func TestRenderDiff(t *testing.T) {
	ts := loadFixture(t, "deadworld.tsx")
	an, err := anim.NewAnimator(ts)
	if err != nil {
		t.Fatal(err)
	}
	sc := Scene{Mode: ViewGallery, Sheet: NewSheet(ts), Animator: an, Scale: 2, Count: 1}

	e := NewEngine(80, 24)
	first := e.Render(sc, 80, 24)
	if !strings.HasPrefix(first, MoveTo(1, 1)) {
		t.Error("first frame should start at the origin")
	}
	if again := e.Render(sc, 80, 24); again != "" {
		t.Errorf("unchanged frame emitted %d bytes", len(again))
	}

	// Tile 40 advances a frame every 100ms.
	sc.ElapsedMs = 150
	if moved := e.Render(sc, 80, 24); moved == "" {
		t.Error("animation step emitted nothing")
	}

	hud := rowText(e, 23)
	for _, want := range []string{"Deadworld", "gallery", "16 animated", "period 12000ms"} {
		if !strings.Contains(hud, want) {
			t.Errorf("HUD %q missing %q", hud, want)
		}
	}
	if !strings.Contains(rowText(e, 1), "#40 8f 800ms") {
		t.Errorf("first gallery label row = %q", rowText(e, 1))
	}

	// Switching views repaints everything.
	sc.Mode = ViewTerrain
	if full := e.Render(sc, 80, 24); strings.Count(full, "m") < 80*24 {
		t.Error("view switch should redraw the whole screen")
	}
	if !strings.Contains(rowText(e, 11), "no terrain layout") {
		t.Errorf("terrain without layout row = %q", rowText(e, 11))
	}
}

func TestRenderTerrain(t *testing.T) {
	ts := loadFixture(t, "deadworld.tsx")
	an, err := anim.NewAnimator(ts)
	if err != nil {
		t.Fatal(err)
	}
	grid := [][]tileset.TileID{
		{161, 161, 161},
		{161, 40, 161},
	}
	sc := Scene{
		Mode: ViewTerrain, Sheet: NewSheet(ts), Animator: an,
		Terrain: grid, TerrainName: "pond", Misses: 1, Scale: 4,
	}

	e := NewEngine(100, 10)
	e.Render(sc, 100, 10)

	cw, ch := TerrainCellSize(sc.Sheet, 4)
	if cw != 4 || ch != 2 {
		t.Fatalf("TerrainCellSize = %d,%d, want 4,2", cw, ch)
	}
	sand := e.current[0][0]
	if sand.Ch != '▀' || sand.FgR != 0xf1 || sand.BgR != 0xf1 {
		t.Errorf("sand cell = %+v", sand)
	}

	// Tile 40 resolves to frame 41 at 100ms; the cell takes that tile's color.
	sc.ElapsedMs = 100
	e.Render(sc, 100, 10)
	want := PixelFromColor(IDColor(41))
	got := e.current[ch][cw]
	if got.FgR != want.R || got.FgG != want.G || got.FgB != want.B {
		t.Errorf("animated cell = %+v, want color of tile 41 %+v", got, want)
	}

	if hud := rowText(e, 9); !strings.Contains(hud, "pond 3x2, 1 misses") {
		t.Errorf("HUD = %q", hud)
	}
}

func TestViewModeNext(t *testing.T) {
	if ViewGallery.Next() != ViewTerrain || ViewTerrain.Next() != ViewGallery {
		t.Error("Next should cycle gallery and terrain")
	}
}

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"tilekit/internal/tileset"
)

// Missing is the color drawn for tiles the sheet knows nothing about.
var Missing = colornames.Magenta

// terrainPalette colors legacy terrains, which carry no color of their own.
var terrainPalette = []color.RGBA{
	colornames.Forestgreen,
	colornames.Saddlebrown,
	colornames.Sandybrown,
	colornames.Steelblue,
	colornames.Slategray,
	colornames.Darkkhaki,
	colornames.Indianred,
	colornames.Mediumpurple,
}

// LoadPNG decodes a PNG file.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Sheet holds the pixels of every tile of one tileset: either sliced from
// the tileset image(s) or painted as placeholders when those are missing.
// Read-only after NewSheet.
type Sheet struct {
	ts      *tileset.Tileset
	atlas   image.Image
	rects   map[tileset.TileID]image.Rectangle
	sprites map[tileset.TileID]PixelSprite

	// Placeholder reports whether any tile was painted instead of loaded.
	Placeholder bool
}

// NewSheet loads the images of ts. Missing or unreadable images are logged
// and replaced with placeholders; it never fails.
func NewSheet(ts *tileset.Tileset) *Sheet {
	sh := &Sheet{
		ts:      ts,
		rects:   make(map[tileset.TileID]image.Rectangle),
		sprites: make(map[tileset.TileID]PixelSprite),
	}
	if ts.IsCollection() {
		sh.buildCollection()
	} else {
		sh.buildGrid()
	}
	for id, r := range sh.rects {
		sh.sprites[id] = SpriteFromImage(sh.atlas, r)
	}
	return sh
}

func (sh *Sheet) buildGrid() {
	ts := sh.ts
	if ts.Image != nil {
		img, err := LoadPNG(ts.ImagePath(ts.Image))
		if err == nil {
			sh.atlas = img
			for _, id := range sh.gridIDs() {
				if r, ok := ts.SourceRect(id); ok {
					sh.rects[id] = r
				}
			}
			return
		}
		log.Printf("Warning: tileset %s: %v, using placeholders", ts.Name, err)
	}

	sh.Placeholder = true
	cols := max(ts.Columns, 1)
	rows := max(ts.Rows(), 1)
	atlas := image.NewRGBA(image.Rect(0, 0, cols*ts.TileWidth, rows*ts.TileHeight))
	wangIDs := sh.wangIndex()
	for _, id := range sh.gridIDs() {
		col, row, _ := ts.GridPosition(id)
		r := image.Rect(col*ts.TileWidth, row*ts.TileHeight, (col+1)*ts.TileWidth, (row+1)*ts.TileHeight)
		paintPlaceholder(atlas, r, id, wangIDs[id])
		sh.rects[id] = r
	}
	sh.atlas = atlas
}

// buildCollection packs every tile image into one horizontal strip.
func (sh *Sheet) buildCollection() {
	ts := sh.ts
	wangIDs := sh.wangIndex()
	type entry struct {
		id  tileset.TileID
		img image.Image
		w   int
		h   int
	}
	var entries []entry
	width, height := 0, 0
	for _, id := range ts.TileIDs() {
		img := ts.ImageFor(id)
		if img == nil {
			continue
		}
		e := entry{id: id, w: img.Width, h: img.Height}
		if e.w == 0 || e.h == 0 {
			e.w, e.h = ts.TileWidth, ts.TileHeight
		}
		if loaded, err := LoadPNG(ts.ImagePath(img)); err == nil {
			e.img = loaded
			e.w, e.h = loaded.Bounds().Dx(), loaded.Bounds().Dy()
		} else {
			log.Printf("Warning: tileset %s tile %d: %v, using placeholder", ts.Name, id, err)
			sh.Placeholder = true
		}
		entries = append(entries, e)
		width += e.w
		height = max(height, e.h)
	}

	atlas := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	x := 0
	for _, e := range entries {
		r := image.Rect(x, 0, x+e.w, e.h)
		if e.img != nil {
			draw.Draw(atlas, r, e.img, e.img.Bounds().Min, draw.Src)
		} else {
			paintPlaceholder(atlas, r, e.id, wangIDs[e.id])
		}
		sh.rects[e.id] = r
		x += e.w
	}
	sh.atlas = atlas
}

func (sh *Sheet) gridIDs() []tileset.TileID {
	ids := make([]tileset.TileID, sh.ts.TileCount)
	for i := range ids {
		ids[i] = tileset.TileID(i)
	}
	return ids
}

// cornerColors is the placeholder color of each corner, TL, TR, BR, BL.
type cornerColors [4]color.RGBA

// wangIndex maps each tile of a corner set to the colors of its corners.
// The first set declaring a tile wins.
func (sh *Sheet) wangIndex() map[tileset.TileID]*cornerColors {
	out := make(map[tileset.TileID]*cornerColors)
	for _, ws := range sh.ts.TerrainSets() {
		for _, wt := range ws.Tiles {
			if _, seen := out[wt.TileID]; seen {
				continue
			}
			var cc cornerColors
			for i, c := range wt.WangID.Corners() {
				cc[i] = terrainColor(ws, c)
			}
			out[wt.TileID] = &cc
		}
	}
	return out
}

// terrainColor returns the display color of wang color index c.
func terrainColor(ws *tileset.WangSet, c uint8) color.RGBA {
	wc, ok := ws.Color(c)
	if !ok {
		return colornames.Black
	}
	if rgb, err := ParseHexColor(wc.Color); err == nil {
		return rgb
	}
	return terrainPalette[int(c-1)%len(terrainPalette)]
}

// paintPlaceholder fills r with the corner colors of a wang tile, or a hue
// derived from the id for everything else.
func paintPlaceholder(dst *image.RGBA, r image.Rectangle, id tileset.TileID, cc *cornerColors) {
	if cc == nil {
		draw.Draw(dst, r, image.NewUniform(IDColor(id)), image.Point{}, draw.Src)
		return
	}
	mx, my := r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2
	quads := [4]image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, mx, my), // TL
		image.Rect(mx, r.Min.Y, r.Max.X, my), // TR
		image.Rect(mx, my, r.Max.X, r.Max.Y), // BR
		image.Rect(r.Min.X, my, mx, r.Max.Y), // BL
	}
	for i, q := range quads {
		draw.Draw(dst, q, image.NewUniform(cc[i]), image.Point{}, draw.Src)
	}
}

// IDColor is a stable, fairly saturated color for a tile id.
func IDColor(id tileset.TileID) color.RGBA {
	h := float64((uint32(id) * 47) % 360)
	return hsv(h, 0.45, 0.75)
}

func hsv(h, s, v float64) color.RGBA {
	c := v * s
	hp := h / 60
	x := c * (1 - abs(mod2(hp)-1))
	var r, g, b float64
	switch int(hp) % 6 {
	case 0:
		r, g = c, x
	case 1:
		r, g = x, c
	case 2:
		g, b = c, x
	case 3:
		g, b = x, c
	case 4:
		r, b = x, c
	default:
		r, b = c, x
	}
	m := v - c
	return color.RGBA{R: uint8((r + m) * 255), G: uint8((g + m) * 255), B: uint8((b + m) * 255), A: 255}
}

func mod2(f float64) float64 {
	return f - 2*float64(int(f/2))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// ParseHexColor parses "#rrggbb" or "#aarrggbb" as Tiled writes colors.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 8 {
		hex = hex[2:]
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Tileset returns the tileset the sheet was built from.
func (sh *Sheet) Tileset() *tileset.Tileset {
	return sh.ts
}

// Atlas returns the image all tile rectangles refer to.
func (sh *Sheet) Atlas() image.Image {
	return sh.atlas
}

// Rect returns the atlas rectangle of id.
func (sh *Sheet) Rect(id tileset.TileID) (image.Rectangle, bool) {
	r, ok := sh.rects[id]
	return r, ok
}

// Sprite returns the pixels of id downscaled by scale. Unknown ids get a
// magenta tile of the tileset's tile size.
func (sh *Sheet) Sprite(id tileset.TileID, scale int) PixelSprite {
	s, ok := sh.sprites[id]
	if !ok {
		// Built directly: PixelFromColor treats magenta as transparent.
		s = FillPixelSprite(max(sh.ts.TileWidth, 1), max(sh.ts.TileHeight, 1), P(Missing.R, Missing.G, Missing.B))
	}
	return s.Downscale(scale)
}

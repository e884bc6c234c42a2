// Package tileset holds the immutable in-memory form of a Tiled tileset
// (.tsx) and the load-time validation that guards it.
package tileset

import (
	"image"
	"sort"
)

// TileID is a zero-based tile index local to one tileset.
type TileID uint32

// Image is an image reference relative to the .tsx file.
type Image struct {
	Source string
	Width  int
	Height int
}

// Frame is one step of an animation loop.
type Frame struct {
	TileID   TileID
	Duration uint32 // milliseconds
}

// Animation is the looping frame sequence declared on a tile.
type Animation struct {
	Tile   TileID
	Frames []Frame
}

// TerrainType is a legacy (<terraintypes>) terrain class.
type TerrainType struct {
	Name string
	Tile int // -1 = none
}

// Tile holds the per-tile declarations. Only tiles that declare something
// appear in Tileset.Tiles.
type Tile struct {
	ID          TileID
	Class       string
	Probability float64 // 0 = not declared
	Image       *Image
	Animation   *Animation

	// Terrain holds legacy corner terrain indices in TL, TR, BL, BR order,
	// -1 for no terrain. Nil when the tile declares none.
	Terrain []int
}

// Weight returns the tile's substitution weight. Undeclared probability is 1.
func (t *Tile) Weight() float64 {
	if t == nil || t.Probability == 0 {
		return 1
	}
	return t.Probability
}

// Tileset is a loaded tileset. It is never mutated after Load returns.
type Tileset struct {
	Name            string
	Path            string // file the tileset was loaded from
	TileWidth       int
	TileHeight      int
	Spacing         int
	Margin          int
	TileCount       int
	Columns         int // 0 = image collection, one image per tile
	ObjectAlignment string
	Image           *Image
	Terrains        []TerrainType
	Tiles           map[TileID]*Tile
	WangSets        []*WangSet
}

// IsCollection reports whether the tileset stores one image per tile.
func (ts *Tileset) IsCollection() bool {
	return ts.Columns == 0
}

// Rows returns the number of grid rows. Zero for collections.
func (ts *Tileset) Rows() int {
	if ts.Columns <= 0 {
		return 0
	}
	return (ts.TileCount + ts.Columns - 1) / ts.Columns
}

// Valid reports whether id refers to a tile of this tileset.
func (ts *Tileset) Valid(id TileID) bool {
	if ts.IsCollection() {
		_, ok := ts.Tiles[id]
		return ok
	}
	return int(id) < ts.TileCount
}

// Tile returns the declared tile for id, or nil.
func (ts *Tileset) Tile(id TileID) *Tile {
	return ts.Tiles[id]
}

// TileIDAt returns the id of the grid cell at (col, row).
func (ts *Tileset) TileIDAt(col, row int) (TileID, bool) {
	if ts.Columns <= 0 || col < 0 || col >= ts.Columns || row < 0 {
		return 0, false
	}
	id := row*ts.Columns + col
	if id >= ts.TileCount {
		return 0, false
	}
	return TileID(id), true
}

// GridPosition returns the (col, row) of id in the sheet.
func (ts *Tileset) GridPosition(id TileID) (col, row int, ok bool) {
	if ts.Columns <= 0 || int(id) >= ts.TileCount {
		return 0, 0, false
	}
	return int(id) % ts.Columns, int(id) / ts.Columns, true
}

// SourceRect returns the pixel rectangle of id inside its image. For
// collections that is the tile's own image bounds.
func (ts *Tileset) SourceRect(id TileID) (image.Rectangle, bool) {
	if ts.IsCollection() {
		t := ts.Tiles[id]
		if t == nil || t.Image == nil {
			return image.Rectangle{}, false
		}
		return image.Rect(0, 0, t.Image.Width, t.Image.Height), true
	}

	col, row, ok := ts.GridPosition(id)
	if !ok {
		return image.Rectangle{}, false
	}
	x := ts.Margin + col*(ts.TileWidth+ts.Spacing)
	y := ts.Margin + row*(ts.TileHeight+ts.Spacing)
	return image.Rect(x, y, x+ts.TileWidth, y+ts.TileHeight), true
}

// ImageFor returns the image that holds id: the sheet image, or the tile's
// own image for collections.
func (ts *Tileset) ImageFor(id TileID) *Image {
	if ts.IsCollection() {
		if t := ts.Tiles[id]; t != nil {
			return t.Image
		}
		return nil
	}
	return ts.Image
}

// Animated returns the animations of the tileset ordered by tile id.
func (ts *Tileset) Animated() []*Animation {
	var out []*Animation
	for _, t := range ts.Tiles {
		if t.Animation != nil {
			out = append(out, t.Animation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tile < out[j].Tile })
	return out
}

// TileIDs returns the ids of all declared tiles in ascending order.
func (ts *Tileset) TileIDs() []TileID {
	ids := make([]TileID, 0, len(ts.Tiles))
	for id := range ts.Tiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WangSet returns the wang set with the given name, or nil.
func (ts *Tileset) WangSet(name string) *WangSet {
	for _, ws := range ts.WangSets {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}

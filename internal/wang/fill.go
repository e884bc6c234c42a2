package wang

import (
	"fmt"
	"image"

	"tilekit/internal/tileset"
)

// FillResult is a resolved tile grid.
type FillResult struct {
	Tiles  [][]tileset.TileID // [y][x]
	Misses []image.Point      // cells that fell back
}

// CellCorners returns the corners of cell (x, y) from a vertex grid.
func CellCorners(vertices [][]uint8, x, y int) Corners {
	return Corners{
		TopLeft:     vertices[y][x],
		TopRight:    vertices[y][x+1],
		BottomRight: vertices[y+1][x+1],
		BottomLeft:  vertices[y+1][x],
	}
}

// Fill resolves every cell of a vertex grid. vertices has one more row and
// column than the tile grid; cell (x, y) takes its corners from the vertices
// around it. Cells without a matching wang tile get fallback and are listed
// in Misses.
func Fill(r *Resolver, vertices [][]uint8, rnd func(x, y int) Rand, fallback tileset.TileID) (FillResult, error) {
	if len(vertices) < 2 {
		return FillResult{}, fmt.Errorf("vertex grid needs at least 2 rows, got %d", len(vertices))
	}
	cols := len(vertices[0])
	if cols < 2 {
		return FillResult{}, fmt.Errorf("vertex grid needs at least 2 columns, got %d", cols)
	}
	for y, row := range vertices {
		if len(row) != cols {
			return FillResult{}, fmt.Errorf("vertex row %d has %d columns, expected %d", y, len(row), cols)
		}
	}

	h, w := len(vertices)-1, cols-1
	res := FillResult{Tiles: make([][]tileset.TileID, h)}
	for y := 0; y < h; y++ {
		res.Tiles[y] = make([]tileset.TileID, w)
		for x := 0; x < w; x++ {
			var src Rand
			if rnd != nil {
				src = rnd(x, y)
			}
			tile, ok := r.Resolve(CellCorners(vertices, x, y), src)
			if !ok {
				tile = fallback
				res.Misses = append(res.Misses, image.Pt(x, y))
			}
			res.Tiles[y][x] = tile
		}
	}
	return res, nil
}

// Refill re-resolves the given cells of res in place after a paint, and
// returns how many of them fell back.
func Refill(r *Resolver, res *FillResult, vertices [][]uint8, cells []image.Point, rnd func(x, y int) Rand, fallback tileset.TileID) int {
	missed := make(map[image.Point]bool, len(res.Misses))
	for _, p := range res.Misses {
		missed[p] = true
	}

	n := 0
	for _, p := range cells {
		if p.Y < 0 || p.Y >= len(res.Tiles) || p.X < 0 || p.X >= len(res.Tiles[p.Y]) {
			continue
		}
		var src Rand
		if rnd != nil {
			src = rnd(p.X, p.Y)
		}
		tile, ok := r.Resolve(CellCorners(vertices, p.X, p.Y), src)
		if !ok {
			tile = fallback
			n++
		}
		missed[p] = !ok
		res.Tiles[p.Y][p.X] = tile
	}

	res.Misses = res.Misses[:0]
	for y := range res.Tiles {
		for x := range res.Tiles[y] {
			if missed[image.Pt(x, y)] {
				res.Misses = append(res.Misses, image.Pt(x, y))
			}
		}
	}
	return n
}

// cellRand is a stateless per-cell random value.
type cellRand float64

func (c cellRand) Float64() float64 { return float64(c) }

// CellRand returns a deterministic Rand source per cell, so the same layout
// always picks the same variants.
func CellRand(seed int64) func(x, y int) Rand {
	return func(x, y int) Rand {
		h := uint64(seed) ^ uint64(int64(x))*0x9E3779B97F4A7C15 ^ uint64(int64(y))*0xC2B2AE3D27D4EB4F
		// splitmix64 finalizer
		h ^= h >> 30
		h *= 0xBF58476D1CE4E5B9
		h ^= h >> 27
		h *= 0x94D049BB133111EB
		h ^= h >> 31
		return cellRand(float64(h>>11) / float64(1<<53))
	}
}

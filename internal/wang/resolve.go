// Package wang picks concrete tiles for terrain corner assignments using a
// tileset's wang tables.
package wang

import (
	"tilekit/internal/tileset"
)

// Corner indices of Corners, clockwise from the top-left.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Corners holds the terrain colors at the four corners of a cell.
// Color 0 is "no terrain".
type Corners [4]uint8

// WangID expands the corners to the 8-slot encoding of a corner wang set.
func (c Corners) WangID() tileset.WangID {
	return tileset.CornerWangID(c[TopLeft], c[TopRight], c[BottomRight], c[BottomLeft])
}

// Uniform returns corners all set to color.
func Uniform(color uint8) Corners {
	return Corners{color, color, color, color}
}

// Rand is the random source for weighted variant choice. *math/rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// Candidate is one tile matching a wang id, with its substitution weight.
type Candidate struct {
	Tile   tileset.TileID
	Weight float64
}

// ResolveTile returns the tile whose wang id matches corners exactly. When
// several tiles share the id, one is picked by weight using rnd; a nil rnd
// picks the first declared. ok is false when nothing matches.
func ResolveTile(ts *tileset.Tileset, ws *tileset.WangSet, corners Corners, rnd Rand) (tileset.TileID, bool) {
	want := corners.WangID()
	var cands []Candidate
	for _, wt := range ws.Tiles {
		if wt.WangID == want {
			cands = append(cands, Candidate{Tile: wt.TileID, Weight: weightOf(ts, wt.TileID)})
		}
	}
	if len(cands) == 0 {
		return 0, false
	}
	return choose(cands, rnd), true
}

// Resolver indexes one wang set for repeated lookups. Read-only after
// NewResolver; safe for concurrent use as long as each caller passes its own
// Rand.
type Resolver struct {
	ts    *tileset.Tileset
	set   *tileset.WangSet
	index map[tileset.WangID][]Candidate
	ids   map[tileset.TileID]tileset.WangID
}

// NewResolver indexes ws. ts supplies tile probabilities and may be nil.
func NewResolver(ts *tileset.Tileset, ws *tileset.WangSet) *Resolver {
	r := &Resolver{
		ts:    ts,
		set:   ws,
		index: make(map[tileset.WangID][]Candidate, len(ws.Tiles)),
		ids:   make(map[tileset.TileID]tileset.WangID, len(ws.Tiles)),
	}
	for _, wt := range ws.Tiles {
		r.index[wt.WangID] = append(r.index[wt.WangID], Candidate{Tile: wt.TileID, Weight: weightOf(ts, wt.TileID)})
		if _, seen := r.ids[wt.TileID]; !seen {
			r.ids[wt.TileID] = wt.WangID
		}
	}
	return r
}

// Set returns the indexed wang set.
func (r *Resolver) Set() *tileset.WangSet {
	return r.set
}

// Tileset returns the tileset the resolver weighs tiles with, possibly nil.
func (r *Resolver) Tileset() *tileset.Tileset {
	return r.ts
}

// Resolve is ResolveTile against the index.
func (r *Resolver) Resolve(corners Corners, rnd Rand) (tileset.TileID, bool) {
	return r.ResolveID(corners.WangID(), rnd)
}

// ResolveID matches a full 8-slot id, for edge and mixed sets.
func (r *Resolver) ResolveID(id tileset.WangID, rnd Rand) (tileset.TileID, bool) {
	cands := r.index[id]
	if len(cands) == 0 {
		return 0, false
	}
	return choose(cands, rnd), true
}

// Candidates returns every tile matching id in declaration order.
func (r *Resolver) Candidates(id tileset.WangID) []Candidate {
	return r.index[id]
}

// WangIDOf returns the wang id declared for tile.
func (r *Resolver) WangIDOf(tile tileset.TileID) (tileset.WangID, bool) {
	id, ok := r.ids[tile]
	return id, ok
}

// ColorIndex returns the 1-based color index for name, 0 if unknown.
func (r *Resolver) ColorIndex(name string) uint8 {
	return r.set.ColorIndex(name)
}

// Distinct returns the number of distinct wang ids in the set.
func (r *Resolver) Distinct() int {
	return len(r.index)
}

func weightOf(ts *tileset.Tileset, id tileset.TileID) float64 {
	if ts == nil {
		return 1
	}
	return ts.Tile(id).Weight()
}

func choose(cands []Candidate, rnd Rand) tileset.TileID {
	if len(cands) == 1 || rnd == nil {
		return cands[0].Tile
	}

	var total float64
	for _, c := range cands {
		total += c.Weight
	}
	x := rnd.Float64() * total
	var acc float64
	for _, c := range cands {
		acc += c.Weight
		if x < acc {
			return c.Tile
		}
	}
	return cands[len(cands)-1].Tile
}

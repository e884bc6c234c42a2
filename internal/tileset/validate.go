package tileset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAnimation marks an animation that cannot be played: no
	// frames, or a frame with zero duration.
	ErrInvalidAnimation = errors.New("invalid animation")
	// ErrUnknownTileReference marks a reference to a tile id outside the
	// tileset.
	ErrUnknownTileReference = errors.New("unknown tile reference")
	// ErrMalformedWangID marks a wangid with the wrong slot count or a color
	// the wang set does not declare.
	ErrMalformedWangID = errors.New("malformed wangid")
	// ErrInvalidProbability marks a probability outside (0,1].
	ErrInvalidProbability = errors.New("invalid probability")
	// ErrInvalidGeometry marks a tileset whose sizes cannot address tiles.
	ErrInvalidGeometry = errors.New("invalid tileset geometry")
)

// Validate checks every cross-reference of the tileset and returns all
// problems joined, or nil.
func (ts *Tileset) Validate() error {
	var errs []error

	if ts.TileWidth <= 0 || ts.TileHeight <= 0 {
		errs = append(errs, fmt.Errorf("%w: tile size %dx%d", ErrInvalidGeometry, ts.TileWidth, ts.TileHeight))
	}
	if ts.Columns < 0 || ts.TileCount < 0 {
		errs = append(errs, fmt.Errorf("%w: columns=%d tilecount=%d", ErrInvalidGeometry, ts.Columns, ts.TileCount))
	}
	if !ts.IsCollection() && ts.Image == nil {
		errs = append(errs, fmt.Errorf("%w: grid tileset without image", ErrInvalidGeometry))
	}

	for _, id := range ts.TileIDs() {
		t := ts.Tiles[id]
		if !ts.IsCollection() && !ts.Valid(id) {
			errs = append(errs, fmt.Errorf("tile %d: %w (tilecount %d)", id, ErrUnknownTileReference, ts.TileCount))
		}
		if ts.IsCollection() && t.Image == nil {
			errs = append(errs, fmt.Errorf("tile %d: %w: collection tile without image", id, ErrInvalidGeometry))
		}
		if t.Animation != nil {
			errs = append(errs, ts.validateAnimation(t.Animation)...)
		}
		for corner, terrain := range t.Terrain {
			if terrain >= len(ts.Terrains) {
				errs = append(errs, fmt.Errorf("tile %d corner %d: %w: terrain %d of %d", id, corner, ErrUnknownTileReference, terrain, len(ts.Terrains)))
			}
		}
	}

	for _, tr := range ts.Terrains {
		if tr.Tile >= 0 && !ts.Valid(TileID(tr.Tile)) {
			errs = append(errs, fmt.Errorf("terrain %q: %w: tile %d", tr.Name, ErrUnknownTileReference, tr.Tile))
		}
	}

	for _, ws := range ts.WangSets {
		errs = append(errs, ts.validateWangSet(ws)...)
	}

	return errors.Join(errs...)
}

func (ts *Tileset) validateAnimation(a *Animation) []error {
	if len(a.Frames) == 0 {
		return []error{fmt.Errorf("tile %d: %w: no frames", a.Tile, ErrInvalidAnimation)}
	}
	var errs []error
	for i, f := range a.Frames {
		if f.Duration == 0 {
			errs = append(errs, fmt.Errorf("tile %d frame %d: %w: zero duration", a.Tile, i, ErrInvalidAnimation))
		}
		if !ts.Valid(f.TileID) {
			errs = append(errs, fmt.Errorf("tile %d frame %d: %w: tile %d", a.Tile, i, ErrUnknownTileReference, f.TileID))
		}
	}
	return errs
}

func (ts *Tileset) validateWangSet(ws *WangSet) []error {
	var errs []error
	if ws.Tile >= 0 && !ts.Valid(TileID(ws.Tile)) {
		errs = append(errs, fmt.Errorf("wangset %q: %w: tile %d", ws.Name, ErrUnknownTileReference, ws.Tile))
	}
	for _, c := range ws.Colors {
		if c.Tile >= 0 && !ts.Valid(TileID(c.Tile)) {
			errs = append(errs, fmt.Errorf("wangset %q color %q: %w: tile %d", ws.Name, c.Name, ErrUnknownTileReference, c.Tile))
		}
	}
	for _, wt := range ws.Tiles {
		if !ts.Valid(wt.TileID) {
			errs = append(errs, fmt.Errorf("wangset %q: %w: wangtile %d", ws.Name, ErrUnknownTileReference, wt.TileID))
		}
		for slot, c := range wt.WangID {
			if int(c) > len(ws.Colors) {
				errs = append(errs, fmt.Errorf("wangset %q wangtile %d slot %d: %w: color %d of %d", ws.Name, wt.TileID, slot, ErrMalformedWangID, c, len(ws.Colors)))
			}
		}
	}
	return errs
}

package render

import (
	"fmt"
	"image"
)

// drawGallery lays out every animated tile in rows, each with a label of
// its id, frame count and cycle length.
func (e *Engine) drawGallery(sc Scene) {
	clipH := e.height - HUDRows
	an := sc.Animator
	if an == nil || len(an.Tiles()) == 0 {
		e.drawCenteredText(clipH/2, "no animated tiles in "+sc.Sheet.Tileset().Name, 160, 160, 175)
		return
	}

	const gap = 2
	ids := an.Tiles()
	sprites := make([]PixelSprite, len(ids))
	labels := make([]string, len(ids))
	sizes := make([]image.Point, len(ids))
	for i, id := range ids {
		sprites[i] = sc.Sheet.Sprite(an.Frame(id, sc.ElapsedMs), sc.Scale)
		labels[i] = fmt.Sprintf("#%d %df %dms", id, an.FrameCount(id), an.Cycle(id))
		cols, rows := sprites[i].CellSize()
		sizes[i] = image.Pt(max(cols, len(labels[i])), rows+1)
	}

	for i, p := range Flow(sizes, e.width-1, gap, 1) {
		x, y := 1+p.X, 1+p.Y-sc.ScrollY
		if y >= 0 && y < clipH {
			e.writeText(y, x, x+sizes[i].X, labels[i], 160, 160, 175, 18, 18, 24, false)
		}
		e.stampPixelSprite(x, y+1, sprites[i], clipH)
	}
}

// Flow places boxes of the given sizes left to right, wrapping to a new row
// when a box would cross width. It returns each box's top-left corner.
func Flow(sizes []image.Point, width, gapX, gapY int) []image.Point {
	out := make([]image.Point, len(sizes))
	x, y, rowH := 0, 0, 0
	for i, s := range sizes {
		if x > 0 && x+s.X > width {
			x = 0
			y += rowH + gapY
			rowH = 0
		}
		out[i] = image.Pt(x, y)
		x += s.X + gapX
		rowH = max(rowH, s.Y)
	}
	return out
}

// TerrainCellSize returns the terminal footprint of one terrain tile at the
// given scale.
func TerrainCellSize(sh *Sheet, scale int) (cols, rows int) {
	ts := sh.Tileset()
	scale = max(scale, 1)
	w := (max(ts.TileWidth, 1) + scale - 1) / scale
	h := (max(ts.TileHeight, 1) + scale - 1) / scale
	return w, (h + 1) / 2
}

// drawTerrain draws the visible part of the layout, each cell animated.
func (e *Engine) drawTerrain(sc Scene) {
	clipH := e.height - HUDRows
	if len(sc.Terrain) == 0 || len(sc.Terrain[0]) == 0 {
		e.drawCenteredText(clipH/2, "no terrain layout for "+sc.Sheet.Tileset().Name, 160, 160, 175)
		return
	}

	cw, ch := TerrainCellSize(sc.Sheet, sc.Scale)
	mapH, mapW := len(sc.Terrain), len(sc.Terrain[0])
	vp := NewViewport(sc.FocusX, sc.FocusY, max(e.width/cw, 1), max(clipH/ch, 1), mapW, mapH)

	// One extra row and column so partial tiles fill the edges.
	for ty := 0; ty <= vp.ViewH; ty++ {
		for tx := 0; tx <= vp.ViewW; tx++ {
			wx, wy := vp.CamX+tx, vp.CamY+ty
			if wx < 0 || wx >= mapW || wy < 0 || wy >= mapH {
				continue
			}
			id := sc.Terrain[wy][wx]
			if sc.Animator != nil {
				id = sc.Animator.Frame(id, sc.ElapsedMs)
			}
			e.stampPixelSprite(tx*cw, ty*ch, sc.Sheet.Sprite(id, sc.Scale), clipH)
		}
	}
}

// drawHUD fills the bottom row with the tileset, view and clock.
func (e *Engine) drawHUD(sc Scene) {
	hudY := e.height - HUDRows
	if hudY < 0 {
		return
	}
	bgR, bgG, bgB := uint8(15), uint8(18), uint8(30)
	for x := 0; x < e.width; x++ {
		e.next[hudY][x] = Cell{Ch: ' ', BgR: bgR, BgG: bgG, BgB: bgB}
	}

	name := "no tileset"
	if sc.Sheet != nil {
		name = sc.Sheet.Tileset().Name
	}
	sep := func(col int) int {
		return e.writeText(hudY, col, e.width, "  │  ", 60, 65, 85, bgR, bgG, bgB, false)
	}

	col := e.writeText(hudY, 1, e.width, name, 255, 220, 100, bgR, bgG, bgB, true)
	if sc.Count > 1 {
		col = e.writeText(hudY, col, e.width, fmt.Sprintf(" %d/%d", sc.Index+1, sc.Count), 130, 130, 145, bgR, bgG, bgB, false)
	}
	col = sep(col)
	col = e.writeText(hudY, col, e.width, sc.Mode.String(), 100, 220, 220, bgR, bgG, bgB, true)
	col = sep(col)
	col = e.writeText(hudY, col, e.width, fmt.Sprintf("t %.1fs", float64(sc.ElapsedMs)/1000), 180, 180, 195, bgR, bgG, bgB, false)
	col = sep(col)

	var info string
	switch sc.Mode {
	case ViewGallery:
		if sc.Animator != nil {
			info = fmt.Sprintf("%d animated, period %dms", len(sc.Animator.Tiles()), sc.Animator.Period())
		}
	case ViewTerrain:
		if len(sc.Terrain) > 0 {
			info = fmt.Sprintf("%s %dx%d, %d misses", sc.TerrainName, len(sc.Terrain[0]), len(sc.Terrain), sc.Misses)
		}
	}
	if info != "" {
		col = e.writeText(hudY, col, e.width, info, 180, 180, 195, bgR, bgG, bgB, false)
		col = sep(col)
	}
	if sc.Sessions > 0 {
		col = e.writeText(hudY, col, e.width, fmt.Sprintf("%d online", sc.Sessions), 180, 180, 195, bgR, bgG, bgB, false)
		col = sep(col)
	}
	e.writeText(hudY, col, e.width, "Tab view  n/p tileset  +/- zoom  ←↑↓→ scroll  q quit", 130, 130, 145, bgR, bgG, bgB, false)
}

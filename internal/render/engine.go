package render

import (
	"strings"

	"tilekit/internal/anim"
	"tilekit/internal/tileset"
)

// HUDRows is the number of terminal rows reserved for the status bar.
const HUDRows = 1

// Cell represents a single terminal cell with full RGB color.
type Cell struct {
	Ch            rune
	FgR, FgG, FgB uint8
	BgR, BgG, BgB uint8
	Bold          bool
}

var sentinel = Cell{Ch: '\x00', FgR: 255, BgB: 255, Bold: true}

// ViewMode selects what a frame shows.
type ViewMode int

const (
	ViewGallery ViewMode = iota // every animated tile, side by side
	ViewTerrain                 // a wang-filled layout
	viewModes
)

func (v ViewMode) String() string {
	switch v {
	case ViewGallery:
		return "gallery"
	case ViewTerrain:
		return "terrain"
	}
	return "unknown"
}

// Next cycles to the following view.
func (v ViewMode) Next() ViewMode {
	return (v + 1) % viewModes
}

// Scene is everything one frame needs.
type Scene struct {
	Mode     ViewMode
	Sheet    *Sheet
	Animator *anim.Animator

	// Terrain is the resolved tile grid of the current layout, [y][x]. Nil
	// when the tileset has no wang set.
	Terrain     [][]tileset.TileID
	TerrainName string
	Misses      int

	// FocusX, FocusY is the terrain cell the camera centers on. ScrollY is
	// the gallery scroll in terminal rows.
	FocusX, FocusY int
	ScrollY        int

	ElapsedMs uint64
	Scale     int // pixel downscale factor, 0 or 1 = full size

	Index, Count int // position of the tileset among those loaded
	Sessions     int
}

// Engine is a per-session double-buffer diff renderer.
type Engine struct {
	width, height int
	current       [][]Cell
	next          [][]Cell
	firstFrame    bool
	lastMode      ViewMode
	lastSheet     *Sheet
}

// NewEngine creates a renderer for the given terminal dimensions.
func NewEngine(width, height int) *Engine {
	e := &Engine{
		width:      width,
		height:     height,
		firstFrame: true,
	}
	e.current = e.makeBuffer(sentinel)
	e.next = e.makeBuffer(Cell{})
	return e
}

// Resize adjusts the renderer for a new terminal size.
func (e *Engine) Resize(width, height int) {
	e.width = width
	e.height = height
	e.current = e.makeBuffer(sentinel)
	e.next = e.makeBuffer(Cell{})
	e.firstFrame = true
}

func (e *Engine) makeBuffer(fill Cell) [][]Cell {
	buf := make([][]Cell, e.height)
	for y := 0; y < e.height; y++ {
		buf[y] = make([]Cell, e.width)
		for x := 0; x < e.width; x++ {
			buf[y][x] = fill
		}
	}
	return buf
}

// Render produces the ANSI byte output for the current frame. Only cells
// that changed since the previous frame are emitted.
func (e *Engine) Render(sc Scene, termW, termH int) string {
	if termW != e.width || termH != e.height {
		e.Resize(termW, termH)
	}
	if sc.Mode != e.lastMode || sc.Sheet != e.lastSheet {
		e.firstFrame = true
		e.lastMode = sc.Mode
		e.lastSheet = sc.Sheet
	}

	bg := Cell{Ch: ' ', BgR: 18, BgG: 18, BgB: 24}
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			e.next[y][x] = bg
		}
	}

	if sc.Sheet != nil {
		switch sc.Mode {
		case ViewGallery:
			e.drawGallery(sc)
		case ViewTerrain:
			e.drawTerrain(sc)
		}
	}
	e.drawHUD(sc)

	return e.emitDiff()
}

// emitDiff performs the buffer diff and produces ANSI output.
func (e *Engine) emitDiff() string {
	var sb strings.Builder
	sb.Grow(16384)

	lastRow, lastCol := -1, -1
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			nc := e.next[y][x]
			if e.firstFrame || nc != e.current[y][x] {
				// Only emit cursor position if not consecutive
				if y != lastRow || x != lastCol {
					sb.WriteString(MoveTo(y+1, x+1))
				}
				WriteCellSGR(&sb, nc)
				lastRow = y
				lastCol = x + 1
			}
		}
	}

	if sb.Len() > 0 {
		sb.WriteString(Reset)
	}

	// Swap buffers
	e.current, e.next = e.next, e.current
	e.firstFrame = false

	return sb.String()
}

// stampPixelSprite draws a sprite with its top-left at screen cell (sx, sy),
// two pixel rows per cell using half blocks. Rows at or below clipH are not
// drawn. Transparent pixels keep the background underneath.
func (e *Engine) stampPixelSprite(sx, sy int, s PixelSprite, clipH int) {
	cols, rows := s.CellSize()
	for row := 0; row < rows; row++ {
		y := sy + row
		if y < 0 || y >= e.height || y >= clipH {
			continue
		}
		for col := 0; col < cols; col++ {
			x := sx + col
			if x < 0 || x >= e.width {
				continue
			}
			top := s.At(col, row*2)
			bot := s.At(col, row*2+1)
			under := e.next[y][x]

			switch {
			case top.Transparent && bot.Transparent:
				continue
			case top.Transparent:
				e.next[y][x] = Cell{Ch: '▄', FgR: bot.R, FgG: bot.G, FgB: bot.B, BgR: under.BgR, BgG: under.BgG, BgB: under.BgB}
			case bot.Transparent:
				e.next[y][x] = Cell{Ch: '▀', FgR: top.R, FgG: top.G, FgB: top.B, BgR: under.BgR, BgG: under.BgG, BgB: under.BgB}
			default:
				e.next[y][x] = Cell{Ch: '▀', FgR: top.R, FgG: top.G, FgB: top.B, BgR: bot.R, BgG: bot.G, BgB: bot.B}
			}
		}
	}
}

// writeText writes colored text into a bounded region [col, maxCol). Returns the next column position.
func (e *Engine) writeText(row, col, maxCol int, text string, fgR, fgG, fgB, bgR, bgG, bgB uint8, bold bool) int {
	for _, r := range text {
		if col >= maxCol || col >= e.width {
			break
		}
		if row >= 0 && row < e.height && col >= 0 {
			e.next[row][col] = Cell{Ch: r, FgR: fgR, FgG: fgG, FgB: fgB, BgR: bgR, BgG: bgG, BgB: bgB, Bold: bold}
		}
		col++
	}
	return col
}

// drawCenteredText writes text centered on row over the current background.
func (e *Engine) drawCenteredText(row int, text string, fgR, fgG, fgB uint8) {
	if row < 0 || row >= e.height || e.width == 0 {
		return
	}
	col := (e.width - len([]rune(text))) / 2
	if col < 0 {
		col = 0
	}
	bg := e.next[row][0]
	e.writeText(row, col, e.width, text, fgR, fgG, fgB, bg.BgR, bg.BgG, bg.BgB, false)
}

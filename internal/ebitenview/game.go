// Package ebitenview shows a preview bundle in a desktop window.
package ebitenview

import (
	"fmt"
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/colornames"

	"tilekit/internal/preview"
	"tilekit/internal/render"
	"tilekit/internal/tileset"
)

const (
	labelHeight = 16 // debug font line
	hudHeight   = 20
	gap         = 12
)

type binding struct {
	key    ebiten.Key
	action preview.Action
}

// bindings maps keyboard input to preview actions, like the SSH session
// does. Keys pressed in the same tick apply in this order.
var bindings = []binding{
	{ebiten.KeyArrowUp, preview.ActionUp},
	{ebiten.KeyW, preview.ActionUp},
	{ebiten.KeyArrowDown, preview.ActionDown},
	{ebiten.KeyS, preview.ActionDown},
	{ebiten.KeyArrowLeft, preview.ActionLeft},
	{ebiten.KeyA, preview.ActionLeft},
	{ebiten.KeyArrowRight, preview.ActionRight},
	{ebiten.KeyD, preview.ActionRight},
	{ebiten.KeyTab, preview.ActionNextView},
	{ebiten.KeyN, preview.ActionNextTileset},
	{ebiten.KeyP, preview.ActionPrevTileset},
	{ebiten.KeyEqual, preview.ActionZoomIn},
	{ebiten.KeyKPAdd, preview.ActionZoomIn},
	{ebiten.KeyMinus, preview.ActionZoomOut},
	{ebiten.KeyKPSubtract, preview.ActionZoomOut},
	{ebiten.KeyQ, preview.ActionQuit},
	{ebiten.KeyEscape, preview.ActionQuit},
}

// pressedActions lists the actions whose keys satisfy pressed, in binding
// order.
func pressedActions(pressed func(ebiten.Key) bool) []preview.Action {
	var actions []preview.Action
	for _, b := range bindings {
		if pressed(b.key) {
			actions = append(actions, b.action)
		}
	}
	return actions
}

// Game implements ebiten.Game over a preview bundle. Animation runs on the
// wall clock from when the game was created.
type Game struct {
	bundle *preview.Bundle
	view   preview.View
	start  time.Time

	atlases map[*render.Sheet]*ebiten.Image
	missing *ebiten.Image
	w, h    int
}

// New creates a game starting on the named tileset.
func New(b *preview.Bundle, name string) *Game {
	missing := ebiten.NewImage(1, 1)
	missing.Fill(render.Missing)
	return &Game{
		bundle:  b,
		view:    preview.NewView(b, name),
		start:   time.Now(),
		atlases: make(map[*render.Sheet]*ebiten.Image),
		missing: missing,
	}
}

// Update applies the keys pressed since the last tick.
func (g *Game) Update() error {
	if g.view.ApplyAll(pressedActions(inpututil.IsKeyJustPressed), g.bundle) {
		return ebiten.Termination
	}
	return nil
}

// Layout uses the window size one to one.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.w, g.h = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Draw renders the current view.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)

	elapsed := uint64(time.Since(g.start) / time.Millisecond)
	sc := g.bundle.Scene(g.view, elapsed, 0)
	switch sc.Mode {
	case render.ViewGallery:
		g.drawGallery(screen, sc)
	case render.ViewTerrain:
		g.drawTerrain(screen, sc)
	}
	g.drawHUD(screen, sc)
}

// zoom turns the view's downscale factor into a magnification.
func zoom(scale int) float64 {
	return float64(preview.MaxScale) / float64(max(scale, 1))
}

// atlas uploads a sheet's image the first time it is drawn.
func (g *Game) atlas(sh *render.Sheet) *ebiten.Image {
	img, ok := g.atlases[sh]
	if !ok {
		img = ebiten.NewImageFromImage(sh.Atlas())
		g.atlases[sh] = img
	}
	return img
}

// drawTile draws tile id of sh with its top-left at (x, y), scaled by z.
func (g *Game) drawTile(screen *ebiten.Image, sh *render.Sheet, id tileset.TileID, x, y, z float64) {
	op := &ebiten.DrawImageOptions{}
	r, ok := sh.Rect(id)
	src := g.missing
	if ok {
		src = g.atlas(sh).SubImage(r).(*ebiten.Image)
	} else {
		ts := sh.Tileset()
		op.GeoM.Scale(float64(max(ts.TileWidth, 1)), float64(max(ts.TileHeight, 1)))
	}
	op.GeoM.Scale(z, z)
	op.GeoM.Translate(x, y)
	screen.DrawImage(src, op)
}

func (g *Game) drawGallery(screen *ebiten.Image, sc render.Scene) {
	an := sc.Animator
	if an == nil || len(an.Tiles()) == 0 {
		ebitenutil.DebugPrintAt(screen, "no animated tiles in "+sc.Sheet.Tileset().Name, gap, gap)
		return
	}

	z := zoom(sc.Scale)
	ids := an.Tiles()
	labels := make([]string, len(ids))
	sizes := make([]image.Point, len(ids))
	for i, id := range ids {
		labels[i] = fmt.Sprintf("#%d %df %dms", id, an.FrameCount(id), an.Cycle(id))
		r, ok := sc.Sheet.Rect(id)
		if !ok {
			ts := sc.Sheet.Tileset()
			r = image.Rect(0, 0, ts.TileWidth, ts.TileHeight)
		}
		w := max(int(float64(r.Dx())*z), 6*len(labels[i]))
		sizes[i] = image.Pt(w, int(float64(r.Dy())*z)+labelHeight)
	}

	scroll := sc.ScrollY * labelHeight
	for i, p := range render.Flow(sizes, g.w-2*gap, gap, gap) {
		x, y := gap+p.X, gap+p.Y-scroll
		ebitenutil.DebugPrintAt(screen, labels[i], x, y)
		g.drawTile(screen, sc.Sheet, an.Frame(ids[i], sc.ElapsedMs), float64(x), float64(y+labelHeight), z)
	}
}

func (g *Game) drawTerrain(screen *ebiten.Image, sc render.Scene) {
	if len(sc.Terrain) == 0 || len(sc.Terrain[0]) == 0 {
		ebitenutil.DebugPrintAt(screen, "no terrain layout for "+sc.Sheet.Tileset().Name, gap, gap)
		return
	}

	z := zoom(sc.Scale)
	ts := sc.Sheet.Tileset()
	tw, th := float64(ts.TileWidth)*z, float64(ts.TileHeight)*z
	mapH, mapW := len(sc.Terrain), len(sc.Terrain[0])
	viewW := max(int(float64(g.w)/tw), 1)
	viewH := max(int(float64(g.h-hudHeight)/th), 1)
	vp := render.NewViewport(sc.FocusX, sc.FocusY, viewW, viewH, mapW, mapH)

	for ty := 0; ty <= vp.ViewH; ty++ {
		for tx := 0; tx <= vp.ViewW; tx++ {
			wx, wy := vp.CamX+tx, vp.CamY+ty
			if wx >= mapW || wy >= mapH {
				continue
			}
			id := sc.Animator.Frame(sc.Terrain[wy][wx], sc.ElapsedMs)
			g.drawTile(screen, sc.Sheet, id, float64(tx)*tw, float64(ty)*th, z)
		}
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, sc render.Scene) {
	info := fmt.Sprintf("%d animated, period %dms", len(sc.Animator.Tiles()), sc.Animator.Period())
	if sc.Mode == render.ViewTerrain && len(sc.Terrain) > 0 {
		info = fmt.Sprintf("%s %dx%d, %d misses", sc.TerrainName, len(sc.Terrain[0]), len(sc.Terrain), sc.Misses)
	}
	line := fmt.Sprintf("%s %d/%d | %s | t %.1fs | %s | Tab view  N/P tileset  +/- zoom  arrows scroll  Q quit",
		sc.Sheet.Tileset().Name, sc.Index+1, sc.Count, sc.Mode, float64(sc.ElapsedMs)/1000, info)
	ebitenutil.DebugPrintAt(screen, line, gap/2, g.h-labelHeight)
}

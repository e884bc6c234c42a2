package render

// Viewport is the window of tiles a frame shows.
type Viewport struct {
	CamX, CamY   int // top-left map coordinate
	ViewW, ViewH int // viewport size in tiles
}

// NewViewport calculates the camera position centered on the focus cell,
// clamped to map edges.
func NewViewport(focusX, focusY, viewW, viewH, mapW, mapH int) Viewport {
	camX := focusX - viewW/2
	camY := focusY - viewH/2

	// Clamp to map edges
	if camX+viewW > mapW {
		camX = mapW - viewW
	}
	if camY+viewH > mapH {
		camY = mapH - viewH
	}
	if camX < 0 {
		camX = 0
	}
	if camY < 0 {
		camY = 0
	}

	return Viewport{
		CamX:  camX,
		CamY:  camY,
		ViewW: viewW,
		ViewH: viewH,
	}
}

// Contains reports whether map cell (x, y) is inside the viewport.
func (v Viewport) Contains(x, y int) bool {
	return x >= v.CamX && x < v.CamX+v.ViewW && y >= v.CamY && y < v.CamY+v.ViewH
}

package preview

import "tilekit/internal/render"

// Action represents a session input action.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionNextView
	ActionNextTileset
	ActionPrevTileset
	ActionZoomIn
	ActionZoomOut
	ActionQuit
)

// Zoom limits, as pixel downscale factors.
const (
	MinScale     = 1
	MaxScale     = 4
	DefaultScale = 2
)

// View is one session's position in the bundle.
type View struct {
	Tileset        int
	Mode           render.ViewMode
	FocusX, FocusY int
	ScrollY        int
	Scale          int
}

// NewView starts on the named tileset, or the first one when name is not
// loaded, centered on its layout.
func NewView(b *Bundle, name string) View {
	i, _ := b.Index(name)
	v := View{Tileset: i, Scale: DefaultScale}
	v.center(b)
	return v
}

func (v *View) center(b *Bundle) {
	v.FocusX, v.FocusY, v.ScrollY = 0, 0, 0
	if l := b.At(v.Tileset).Layout; l != nil {
		v.FocusX, v.FocusY = l.Width/2, l.Height/2
	}
}

// ApplyAll applies actions in order and reports whether one of them was
// ActionQuit. Actions after a quit are dropped.
func (v *View) ApplyAll(actions []Action, b *Bundle) (quit bool) {
	for _, a := range actions {
		if a == ActionQuit {
			return true
		}
		v.Apply(a, b)
	}
	return false
}

// Apply updates v for one action. Movement scrolls the gallery or pans the
// terrain depending on the mode.
func (v *View) Apply(a Action, b *Bundle) {
	dx, dy := 0, 0
	switch a {
	case ActionUp:
		dy = -1
	case ActionDown:
		dy = 1
	case ActionLeft:
		dx = -1
	case ActionRight:
		dx = 1
	case ActionNextView:
		v.Mode = v.Mode.Next()
	case ActionNextTileset:
		v.Tileset = (v.Tileset + 1) % b.Len()
		v.center(b)
	case ActionPrevTileset:
		v.Tileset = (v.Tileset + b.Len() - 1) % b.Len()
		v.center(b)
	case ActionZoomIn:
		v.Scale /= 2
	case ActionZoomOut:
		v.Scale *= 2
	}

	if v.Mode == render.ViewTerrain {
		v.FocusX += dx
		v.FocusY += dy
	} else {
		v.ScrollY += dy
	}
	v.clamp(b)
}

func (v *View) clamp(b *Bundle) {
	v.Scale = min(max(v.Scale, MinScale), MaxScale)
	v.ScrollY = max(v.ScrollY, 0)
	w, h := 1, 1
	if l := b.At(v.Tileset).Layout; l != nil {
		w, h = l.Width, l.Height
	}
	v.FocusX = min(max(v.FocusX, 0), w-1)
	v.FocusY = min(max(v.FocusY, 0), h-1)
}

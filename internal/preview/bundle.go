// Package preview holds the state shared by every preview session: the
// loaded tilesets with their animators, resolvers and filled layouts, and the
// hub that ticks the clock they all animate against.
package preview

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"tilekit/internal/anim"
	"tilekit/internal/layout"
	"tilekit/internal/render"
	"tilekit/internal/tileset"
	"tilekit/internal/wang"
)

// Size and seed of the layout generated for tilesets that ship without one.
const (
	GeneratedWidth  = 48
	GeneratedHeight = 32
	GeneratedSeed   = 1
)

// Entry is one tileset and everything derived from it.
type Entry struct {
	Tileset  *tileset.Tileset
	Sheet    *render.Sheet
	Animator *anim.Animator

	// Resolver, Layout and Terrain are nil when the tileset has no corner
	// wang set.
	Resolver *wang.Resolver
	Layout   *layout.Layout
	Terrain  *wang.FillResult
}

// Bundle is the read-only set of entries, ordered by tileset name.
type Bundle struct {
	entries []*Entry
	index   map[string]int
}

// LoadBundle loads every tileset and layout in dir.
func LoadBundle(dir string) (*Bundle, error) {
	tilesets, err := tileset.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	layouts, err := layout.LoadDir(dir, tilesets)
	if err != nil {
		return nil, err
	}
	return NewBundle(tilesets, layouts)
}

// NewBundle builds entries for tilesets. Each tileset shows the first of its
// layouts by name; tilesets with a wang set but no layout get a generated one.
func NewBundle(tilesets map[string]*tileset.Tileset, layouts map[string]*layout.Layout) (*Bundle, error) {
	if len(tilesets) == 0 {
		return nil, errors.New("no tilesets to preview")
	}

	layoutNames := make([]string, 0, len(layouts))
	for name := range layouts {
		layoutNames = append(layoutNames, name)
	}
	sort.Strings(layoutNames)
	chosen := make(map[string]*layout.Layout)
	for _, name := range layoutNames {
		l := layouts[name]
		if _, ok := chosen[l.Tileset]; !ok {
			chosen[l.Tileset] = l
		}
	}

	names := make([]string, 0, len(tilesets))
	for name := range tilesets {
		names = append(names, name)
	}
	sort.Strings(names)

	b := &Bundle{index: make(map[string]int, len(names))}
	for i, name := range names {
		e, err := newEntry(tilesets[name], chosen[name])
		if err != nil {
			return nil, err
		}
		b.entries = append(b.entries, e)
		b.index[name] = i
	}
	return b, nil
}

func newEntry(ts *tileset.Tileset, l *layout.Layout) (*Entry, error) {
	an, err := anim.NewAnimator(ts)
	if err != nil {
		return nil, fmt.Errorf("tileset %s: %w", ts.Name, err)
	}
	e := &Entry{Tileset: ts, Sheet: render.NewSheet(ts), Animator: an}

	if l == nil {
		ws := firstCornerSet(ts)
		if ws == nil {
			return e, nil
		}
		l, err = layout.Generate(layout.ConfigFor(ts.Name, ws, GeneratedWidth, GeneratedHeight, GeneratedSeed))
		if err != nil {
			return nil, fmt.Errorf("tileset %s: %w", ts.Name, err)
		}
	}

	r := wang.NewResolver(ts, ts.TerrainSet(l.WangSet))
	fill, err := l.Fill(r)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", l.Name, err)
	}
	if len(fill.Misses) > 0 {
		log.Printf("Warning: layout %s: %d of %d cells have no matching tile", l.Name, len(fill.Misses), l.Width*l.Height)
	}
	e.Resolver, e.Layout, e.Terrain = r, l, &fill
	return e, nil
}

// Len returns the number of entries.
func (b *Bundle) Len() int {
	return len(b.entries)
}

// At returns entry i, wrapping out-of-range indexes.
func (b *Bundle) At(i int) *Entry {
	n := len(b.entries)
	return b.entries[((i%n)+n)%n]
}

// Index returns the position of the named tileset.
func (b *Bundle) Index(name string) (int, bool) {
	i, ok := b.index[name]
	return i, ok
}

// Names returns the tileset names in bundle order.
func (b *Bundle) Names() []string {
	out := make([]string, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Tileset.Name
	}
	return out
}

// Scene assembles what the renderer needs to draw v at elapsedMs.
func (b *Bundle) Scene(v View, elapsedMs uint64, sessions int) render.Scene {
	e := b.At(v.Tileset)
	sc := render.Scene{
		Mode:      v.Mode,
		Sheet:     e.Sheet,
		Animator:  e.Animator,
		FocusX:    v.FocusX,
		FocusY:    v.FocusY,
		ScrollY:   v.ScrollY,
		ElapsedMs: elapsedMs,
		Scale:     v.Scale,
		Index:     ((v.Tileset % len(b.entries)) + len(b.entries)) % len(b.entries),
		Count:     len(b.entries),
		Sessions:  sessions,
	}
	if e.Terrain != nil {
		sc.Terrain = e.Terrain.Tiles
		sc.TerrainName = e.Layout.Name
		sc.Misses = len(e.Terrain.Misses)
	}
	return sc
}

// firstCornerSet returns the first terrain set a layout can be generated
// from. Edge and mixed sets have no corner colors to paint.
func firstCornerSet(ts *tileset.Tileset) *tileset.WangSet {
	for _, ws := range ts.TerrainSets() {
		if ws.Type == tileset.WangCorner {
			return ws
		}
	}
	return nil
}

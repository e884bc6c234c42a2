// Package anim resolves tile animations against elapsed time. Resolution is a
// pure function of the frame table and a clock value, so every viewer of the
// same tile shows the same frame without sharing a frame counter.
package anim

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"tilekit/internal/tileset"
)

// ErrInvalidAnimation is returned for animations whose frames sum to zero
// duration.
var ErrInvalidAnimation = tileset.ErrInvalidAnimation

// CycleLength returns the total duration of one loop in milliseconds.
func CycleLength(a tileset.Animation) uint64 {
	var total uint64
	for _, f := range a.Frames {
		total += uint64(f.Duration)
	}
	return total
}

// ResolveFrame returns the tile visible elapsedMs after the clock origin.
func ResolveFrame(a tileset.Animation, elapsedMs uint64) (tileset.TileID, error) {
	cycle := CycleLength(a)
	if cycle == 0 {
		return 0, fmt.Errorf("tile %d: %w: zero cycle length", a.Tile, ErrInvalidAnimation)
	}

	t := elapsedMs % cycle
	var sum uint64
	for _, f := range a.Frames {
		sum += uint64(f.Duration)
		if sum > t {
			return f.TileID, nil
		}
	}
	// Unreachable: t < cycle == sum after the loop.
	return a.Frames[len(a.Frames)-1].TileID, nil
}

// track is an animation with precomputed frame end times.
type track struct {
	frames []tileset.TileID
	ends   []uint64 // ends[i] = sum of durations of frames 0..i
	cycle  uint64
}

func (tr *track) at(elapsedMs uint64) tileset.TileID {
	t := elapsedMs % tr.cycle
	i := sort.Search(len(tr.ends), func(i int) bool { return tr.ends[i] > t })
	return tr.frames[i]
}

// Animator resolves every animated tile of one tileset. It is read-only
// after NewAnimator and safe for concurrent use.
type Animator struct {
	tracks map[tileset.TileID]*track
	order  []tileset.TileID
	period uint64
}

// NewAnimator precomputes frame tables for all animations of ts.
func NewAnimator(ts *tileset.Tileset) (*Animator, error) {
	a := &Animator{tracks: make(map[tileset.TileID]*track)}
	for _, an := range ts.Animated() {
		if err := a.add(*an); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// NewAnimatorFrom builds an Animator from loose animations.
func NewAnimatorFrom(anims ...tileset.Animation) (*Animator, error) {
	a := &Animator{tracks: make(map[tileset.TileID]*track)}
	for _, an := range anims {
		if err := a.add(an); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Animator) add(an tileset.Animation) error {
	cycle := CycleLength(an)
	if cycle == 0 {
		return fmt.Errorf("tile %d: %w: zero cycle length", an.Tile, ErrInvalidAnimation)
	}
	if _, dup := a.tracks[an.Tile]; dup {
		return fmt.Errorf("tile %d animated twice", an.Tile)
	}

	tr := &track{
		frames: make([]tileset.TileID, len(an.Frames)),
		ends:   make([]uint64, len(an.Frames)),
		cycle:  cycle,
	}
	var sum uint64
	for i, f := range an.Frames {
		sum += uint64(f.Duration)
		tr.frames[i] = f.TileID
		tr.ends[i] = sum
	}

	a.tracks[an.Tile] = tr
	a.order = append(a.order, an.Tile)
	sort.Slice(a.order, func(i, j int) bool { return a.order[i] < a.order[j] })
	if a.period == 0 {
		a.period = cycle
	} else {
		a.period = lcm(a.period, cycle)
	}
	return nil
}

// Frame returns the tile to draw in place of id. Tiles without an animation
// resolve to themselves.
func (a *Animator) Frame(id tileset.TileID, elapsedMs uint64) tileset.TileID {
	tr, ok := a.tracks[id]
	if !ok {
		return id
	}
	return tr.at(elapsedMs)
}

// IsAnimated reports whether id has an animation.
func (a *Animator) IsAnimated(id tileset.TileID) bool {
	_, ok := a.tracks[id]
	return ok
}

// Tiles returns the animated tile ids in ascending order.
func (a *Animator) Tiles() []tileset.TileID {
	return a.order
}

// Cycle returns the loop length of id in milliseconds, 0 if not animated.
func (a *Animator) Cycle(id tileset.TileID) uint64 {
	if tr, ok := a.tracks[id]; ok {
		return tr.cycle
	}
	return 0
}

// FrameCount returns the number of frames of id, 0 if not animated.
func (a *Animator) FrameCount(id tileset.TileID) int {
	if tr, ok := a.tracks[id]; ok {
		return len(tr.frames)
	}
	return 0
}

// Resolve returns the visible tile for every animated tile at elapsedMs.
func (a *Animator) Resolve(elapsedMs uint64) map[tileset.TileID]tileset.TileID {
	out := make(map[tileset.TileID]tileset.TileID, len(a.tracks))
	for id, tr := range a.tracks {
		out[id] = tr.at(elapsedMs)
	}
	return out
}

// PeriodOverflow is reported by Period when the shared period does not fit
// in a uint64.
const PeriodOverflow = math.MaxUint64

// Period returns the time after which every animation of the set is back at
// its first frame together. Zero when nothing is animated, PeriodOverflow
// when the cycles are too large and coprime to share one.
func (a *Animator) Period() uint64 {
	return a.period
}

func gcd(x, y uint64) uint64 {
	for y != 0 {
		x, y = y, x%y
	}
	return x
}

// lcm saturates at PeriodOverflow, and stays there once reached.
func lcm(x, y uint64) uint64 {
	if x == PeriodOverflow || y == PeriodOverflow {
		return PeriodOverflow
	}
	hi, lo := bits.Mul64(x/gcd(x, y), y)
	if hi != 0 {
		return PeriodOverflow
	}
	return lo
}

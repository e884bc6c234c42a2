package preview

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

const (
	TickRate      = 20 // ticks per second
	FrameChanSize = 2
)

// Frame is one clock tick sent to each session for rendering.
type Frame struct {
	Tick      uint64
	ElapsedMs uint64
	Sessions  int
}

// FrameChan is the per-session channel that receives frames.
type FrameChan chan Frame

// Session is a connected viewer.
type Session struct {
	ID     string
	User   string
	Joined time.Time
	frames FrameChan
}

// Hub ticks one shared clock and broadcasts it to every session, so all
// viewers see animations in step.
type Hub struct {
	bundle    *Bundle
	start     time.Time
	tickCount uint64

	mu       deadlock.RWMutex
	sessions map[string]*Session
	saved    map[string]View // keyed by username

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub serving b. The clock starts now.
func NewHub(b *Bundle) *Hub {
	return &Hub{
		bundle:   b,
		start:    time.Now(),
		sessions: make(map[string]*Session),
		saved:    make(map[string]View),
		stopCh:   make(chan struct{}),
	}
}

// Bundle returns the shared tilesets.
func (h *Hub) Bundle() *Bundle {
	return h.bundle
}

// Join registers a session for user. The returned view is the one user left
// with last time, or a fresh view on the tileset named like the user.
func (h *Hub) Join(user string) (string, <-chan Frame, View) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Session{
		ID:     uuid.NewString(),
		User:   user,
		Joined: time.Now(),
		frames: make(FrameChan, FrameChanSize),
	}
	h.sessions[s.ID] = s

	v, ok := h.saved[user]
	if !ok || v.Tileset >= h.bundle.Len() {
		v = NewView(h.bundle, user)
	}
	return s.ID, s.frames, v
}

// Leave remembers the session's last view and unregisters it.
func (h *Hub) Leave(id string, last View) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[id]
	if !ok {
		return
	}
	h.saved[s.User] = last
	close(s.frames)
	delete(h.sessions, id)
}

// Sessions returns the connected sessions, oldest first.
func (h *Hub) Sessions() []Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, Session{ID: s.ID, User: s.User, Joined: s.Joined})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Joined.Equal(out[j].Joined) {
			return out[i].ID < out[j].ID
		}
		return out[i].Joined.Before(out[j].Joined)
	})
	return out
}

// Elapsed returns the milliseconds since the hub was created.
func (h *Hub) Elapsed() uint64 {
	return uint64(time.Since(h.start) / time.Millisecond)
}

// Run ticks until Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.tick()
		}
	}
}

// Stop shuts down the tick loop. Later calls do nothing.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Hub) tick() {
	h.tickCount++
	elapsed := h.Elapsed()

	h.mu.RLock()
	defer h.mu.RUnlock()

	f := Frame{Tick: h.tickCount, ElapsedMs: elapsed, Sessions: len(h.sessions)}
	for _, s := range h.sessions {
		select {
		case s.frames <- f:
		default:
			// Drop frame if the session is slow
		}
	}
}

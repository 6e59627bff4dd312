// Package session tracks the games being played over remote connections.
package session

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/loop/config"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("session not found")

// EventType identifies a registry to session notification.
type EventType int

const (
	EventShutdown EventType = iota
)

// Event is sent from the registry to a running session.
type Event struct {
	Type EventType
}

// Info is the public view of a session.
type Info struct {
	ID      int       `json:"id"`
	User    string    `json:"user"`
	Started time.Time `json:"started"`
	HUD     loop.HUD  `json:"hud"`
}

// Session is one player's game. It is both the game's Renderer and HUDSink:
// it keeps the latest frame and HUD for observers and pushes throttled HUD
// updates to subscribers.
type Session struct {
	ID      int
	User    string
	Started time.Time
	Events  chan Event

	frame   atomic.Pointer[loop.Frame]
	hud     atomic.Pointer[loop.HUD]
	limiter *rate.Limiter
	reg     *Registry
}

// Render keeps a copy of f for observers.
func (s *Session) Render(f *loop.Frame) error {
	s.frame.Store(f.Clone())
	return nil
}

// Frame returns the last rendered frame, or nil before the first one.
func (s *Session) Frame() *loop.Frame {
	return s.frame.Load()
}

// UpdateHUD records h and broadcasts it at most HUDBroadcastRate times a second.
func (s *Session) UpdateHUD(h loop.HUD) {
	s.hud.Store(&h)
	if s.limiter.Allow() {
		s.reg.broadcast(s.Info())
	}
}

// Info returns the public view of s.
func (s *Session) Info() Info {
	info := Info{ID: s.ID, User: s.User, Started: s.Started}
	if h := s.hud.Load(); h != nil {
		info.HUD = *h
	}
	return info
}

// Registry holds all live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int]*Session
	nextID   int
	subs     map[int]chan Info
	nextSub  int
	now      func() time.Time

	// OnChange, if set, is called with the session count after every change.
	OnChange func(n int)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int]*Session),
		nextID:   1,
		subs:     make(map[int]chan Info),
		now:      time.Now,
	}
}

// Register creates a session for user.
func (r *Registry) Register(user string) *Session {
	r.mu.Lock()
	s := &Session{
		ID:      r.nextID,
		User:    user,
		Started: r.now(),
		Events:  make(chan Event, 1),
		limiter: rate.NewLimiter(rate.Limit(config.HUDBroadcastRate), 1),
		reg:     r,
	}
	r.nextID++
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.changed(n)
	return s
}

// Unregister removes the session with id. Unknown IDs are ignored.
func (r *Registry) Unregister(id int) {
	r.mu.Lock()
	if _, ok := r.sessions[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	r.changed(n)
}

func (r *Registry) changed(n int) {
	if r.OnChange != nil {
		r.OnChange(n)
	}
}

// Get returns the session with id.
func (r *Registry) Get(id int) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns every live session ordered by ID.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.Info())
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b Info) int { return a.ID - b.ID })
	return infos
}

// Subscribe returns a channel of HUD updates from every session and a
// function that cancels the subscription. Slow subscribers miss updates.
func (r *Registry) Subscribe(buf int) (<-chan Info, func()) {
	ch := make(chan Info, buf)
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}

func (r *Registry) broadcast(info Info) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- info:
		default:
		}
	}
}

// Shutdown notifies every session and waits for all of them to unregister,
// up to timeout.
func (r *Registry) Shutdown(timeout time.Duration) {
	r.mu.RLock()
	for _, s := range r.sessions {
		select {
		case s.Events <- Event{Type: EventShutdown}:
		default:
		}
	}
	r.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if r.Len() == 0 {
			return
		}
		select {
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}

// Input wraps src so the game quits on shutdown, after InactivityTimeout
// without input, or after lingering on the game over screen for
// GameOverLingerLimit.
func (s *Session) Input(src loop.InputSource) loop.InputSource {
	return &guardedInput{src: src, sess: s, now: s.reg.now}
}

type guardedInput struct {
	src  loop.InputSource
	sess *Session
	now  func() time.Time

	lastActive   time.Time
	lastAim      [2]float64
	gameOverFrom time.Time
}

func (g *guardedInput) Poll() input.Input {
	in := g.src.Poll()
	now := g.now()

	select {
	case ev := <-g.sess.Events:
		if ev.Type == EventShutdown {
			in.Quit = true
			return in
		}
	default:
	}

	if g.lastActive.IsZero() || active(in, g.lastAim) {
		g.lastActive = now
	}
	g.lastAim = [2]float64{in.AimX, in.AimY}
	if now.Sub(g.lastActive) >= config.InactivityTimeout {
		in.Quit = true
	}

	if h := g.sess.hud.Load(); h != nil && h.State == loop.StateGameOver.String() {
		if g.gameOverFrom.IsZero() {
			g.gameOverFrom = now
		}
		if now.Sub(g.gameOverFrom) >= config.GameOverLingerLimit {
			in.Quit = true
		}
	} else {
		g.gameOverFrom = time.Time{}
	}
	return in
}

func active(in input.Input, lastAim [2]float64) bool {
	if in.Up || in.Down || in.Left || in.Right || in.ShootHeld {
		return true
	}
	if in.Start || in.Shoot || in.Restart || in.Menu || in.Mute || in.Quit {
		return true
	}
	return in.HasAim && (in.AimX != lastAim[0] || in.AimY != lastAim[1])
}

package loop

import (
	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/object"
)

// State is the current game phase.
type State int

const (
	StateMenu     State = iota // Title screen, simulation suppressed
	StatePlaying               // Active gameplay
	StateGameOver              // Player died, show restart prompt
)

// String returns the state name shown on the HUD.
func (s State) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "gameover"
	default:
		return "unknown"
	}
}

// World holds the live entities of one game.
// Particles spawned during a tick are queued and only become live on flush.
type World struct {
	Player    *object.Player
	Bullets   []*object.Bullet
	Enemies   []*object.Enemy
	Particles []*object.Particle
	toSpawn   []*object.Particle
}

// NewWorld creates a world with the player at (x, y).
func NewWorld(x, y float64) *World {
	return &World{
		Player:  object.NewPlayer(x, y),
		Bullets: make([]*object.Bullet, 0, config.BulletCapacity),
	}
}

// Spawn queues a particle to be added after the current update cycle.
// Implements object.Spawner interface.
func (w *World) Spawn(p *object.Particle) {
	w.toSpawn = append(w.toSpawn, p)
}

// Pending returns the number of queued particles.
func (w *World) Pending() int {
	return len(w.toSpawn)
}

// FlushSpawned adds all queued particles to the world and clears the queue.
func (w *World) FlushSpawned() {
	w.Particles = append(w.Particles, w.toSpawn...)
	clear(w.toSpawn)
	w.toSpawn = w.toSpawn[:0]
}

// Clear removes every bullet, enemy and particle, queued ones included.
func (w *World) Clear() {
	for _, p := range w.Particles {
		p.Release()
	}
	for _, p := range w.toSpawn {
		p.Release()
	}
	clear(w.Bullets)
	clear(w.Enemies)
	clear(w.Particles)
	clear(w.toSpawn)
	w.Bullets = w.Bullets[:0]
	w.Enemies = w.Enemies[:0]
	w.Particles = w.Particles[:0]
	w.toSpawn = w.toSpawn[:0]
}

// updateBullets moves bullets and drops expired or escaped ones.
func (w *World) updateBullets(ctx object.UpdateContext) {
	kept := w.Bullets[:0] // reuse backing array
	for _, b := range w.Bullets {
		if !b.Update(ctx) {
			kept = append(kept, b)
		}
	}
	clear(w.Bullets[len(kept):])
	w.Bullets = kept
}

func (w *World) updateEnemies(ctx object.UpdateContext) {
	for _, e := range w.Enemies {
		e.Update(ctx)
	}
}

// updateParticles moves particles and returns dead ones to the pool.
func (w *World) updateParticles(ctx object.UpdateContext) {
	kept := w.Particles[:0]
	for _, p := range w.Particles {
		if p.Update(ctx) {
			p.Release()
			continue
		}
		kept = append(kept, p)
	}
	clear(w.Particles[len(kept):])
	w.Particles = kept
}

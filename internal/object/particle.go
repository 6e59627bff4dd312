package object

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/physics"
)

// particlePool is a sync.Pool for reusing Particle objects to reduce allocations.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is a short-lived visual effect.
type Particle struct {
	X, Y     float64
	VX, VY   float64
	Lifetime float64 // Milliseconds remaining
	Size     float64
	Color    Color
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, lifetime, size float64, color Color) *Particle {
	p := particlePool.Get().(*Particle)
	*p = Particle{X: x, Y: y, VX: vx, VY: vy, Lifetime: lifetime, Size: size, Color: color}
	return p
}

// Release returns the particle to the pool for reuse.
// Should be called when the particle is removed from the game.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// SpawnExplosion queues count particles bursting out of (x, y) in random
// directions. A non-positive count uses BurstDefault.
func SpawnExplosion(r *rand.Rand, x, y float64, count int, color Color, spawner Spawner) {
	if spawner == nil || r == nil {
		return
	}
	if count <= 0 {
		count = config.BurstDefault
	}

	for range count {
		angle := r.Float64() * 2 * math.Pi
		speed := config.ParticleMinSpeed + r.Float64()*config.ParticleSpeedVar
		life := config.ParticleMinLifeMS + r.Float64()*config.ParticleLifeVarMS
		size := config.ParticleMinSize + r.Float64()*config.ParticleSizeVar

		spawner.Spawn(NewParticle(x, y, math.Cos(angle)*speed, math.Sin(angle)*speed, life, size, color))
	}
}

// Update drifts the particle under light gravity and shrinks it.
// Returns true if the particle should be removed.
func (p *Particle) Update(ctx UpdateContext) bool {
	p.X += p.VX
	p.Y += p.VY
	p.VY += config.ParticleGravity
	p.Lifetime -= ctx.Delta
	p.Size *= config.ParticleShrink
	return p.Lifetime <= 0 || p.Size < config.ParticleMinAlive
}

// Alpha is the particle opacity derived from its remaining lifetime.
func (p *Particle) Alpha() float64 {
	return physics.Clamp(p.Lifetime/config.ParticleFadeMS, 0.12, 1)
}

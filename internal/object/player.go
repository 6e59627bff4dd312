package object

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/physics"
)

// Player is the ship controlled by the user.
type Player struct {
	X, Y     float64
	VX, VY   float64
	Radius   float64
	Speed    float64
	HP       int
	MaxHP    int
	HitFlash float64 // Counts down after contact damage

	// Shooting is limited against game time, not wall time.
	trigger *rate.Limiter
	clock   float64 // Milliseconds of game time since Reset
}

// NewPlayer creates a player at (x, y) with full health.
func NewPlayer(x, y float64) *Player {
	p := &Player{
		Radius: config.PlayerRadius,
		Speed:  config.PlayerSpeed,
		MaxHP:  config.PlayerMaxHP,
	}
	p.Reset(x, y)
	return p
}

// Reset puts the player at (x, y) with full health and a ready trigger.
func (p *Player) Reset(x, y float64) {
	p.X, p.Y = x, y
	p.VX, p.VY = 0, 0
	p.HP = p.MaxHP
	p.HitFlash = 0
	p.clock = 0
	p.trigger = rate.NewLimiter(rate.Every(config.CooldownTick), 1)
}

// now returns the player's game clock as a time value for the trigger limiter.
func (p *Player) now() time.Time {
	return time.Unix(0, 0).Add(time.Duration(p.clock * float64(time.Millisecond)))
}

// TryFire consumes the trigger if the cooldown has elapsed.
func (p *Player) TryFire() bool {
	return p.trigger.AllowN(p.now(), 1)
}

// Update applies directional input, clamps to the field and decays the hit flash.
func (p *Player) Update(ctx UpdateContext) {
	p.clock += ctx.Delta

	dx, dy := ctx.Input.Direction()
	nx, ny := physics.Normalize(dx, dy)
	p.VX = nx * p.Speed
	p.VY = ny * p.Speed

	p.X += p.VX
	p.Y += p.VY
	p.ClampTo(ctx.Field)

	if p.HitFlash > 0 {
		p.HitFlash = max(0, p.HitFlash-ctx.Delta*config.HitFlashDecay)
	}
}

// ClampTo keeps the player inside the field, inset by the edge padding.
func (p *Player) ClampTo(f Field) {
	pad := config.PlayerEdgePad
	p.X = physics.Clamp(p.X, pad, f.Width-pad)
	p.Y = physics.Clamp(p.Y, pad, f.Height-pad)
}

// Damage subtracts amount from HP, clamping at zero.
// It reports whether this call brought the player down.
func (p *Player) Damage(amount int) bool {
	if p.HP <= 0 {
		return false
	}
	p.HP = max(0, p.HP-amount)
	p.HitFlash = config.HitFlashFrames
	return p.HP == 0
}

// HPFraction is HP over max HP in [0, 1].
func (p *Player) HPFraction() float64 {
	if p.MaxHP <= 0 {
		return 0
	}
	return float64(p.HP) / float64(p.MaxHP)
}

// Aim returns the point the player shoots at: the pointer when known,
// otherwise a spot straight above the ship.
func (p *Player) Aim(in Input) (float64, float64) {
	if in.HasAim {
		return in.AimX, in.AimY
	}
	return p.X, p.Y + config.AimFallbackDY
}

package object

import (
	"math"

	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/physics"
)

// Edge is a side of the field.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// Enemy chases the player and dies after enough bullet hits.
type Enemy struct {
	X, Y   float64
	Radius float64
	Speed  float64
	HP     int
	Hit    float64 // Hit cooldown, drives the hit color
}

// NewEnemy creates an enemy of the given size with the health and speed
// that size and the current score imply.
func NewEnemy(x, y, size, speed float64) *Enemy {
	return &Enemy{
		X:      x,
		Y:      y,
		Radius: size,
		Speed:  speed,
		HP:     int(math.Round(size/6)) + 1,
	}
}

// NewEnemyAtEdge creates an enemy just outside a random field edge.
// Faster enemies appear as the score climbs.
func NewEnemyAtEdge(ctx UpdateContext, score int) *Enemy {
	r := ctx.Rand
	f := ctx.Field
	off := config.EnemyEdgeOffset

	var x, y float64
	switch Edge(r.IntN(4)) {
	case EdgeTop:
		x, y = r.Float64()*f.Width, -off
	case EdgeRight:
		x, y = f.Width+off, r.Float64()*f.Height
	case EdgeBottom:
		x, y = r.Float64()*f.Width, f.Height+off
	default:
		x, y = -off, r.Float64()*f.Height
	}

	size := config.EnemyMinSize + r.Float64()*config.EnemySizeRange
	bump := min(float64(score)/config.EnemyScoreSpeed, config.EnemyMaxScoreBump)
	speed := config.EnemyBaseSpeed + r.Float64()*config.EnemySpeedRange + bump
	return NewEnemy(x, y, size, speed)
}

// Update steers the enemy straight at the target and decays its hit cooldown.
func (e *Enemy) Update(ctx UpdateContext) {
	dx, dy, _ := physics.Direction(e.X, e.Y, ctx.TargetX, ctx.TargetY)
	e.X += dx * e.Speed
	e.Y += dy * e.Speed

	if e.Hit > 0 {
		e.Hit = max(0, e.Hit-ctx.Delta*config.EnemyHitDecay)
	}
}

// TakeHit registers one bullet hit. It reports whether the enemy died.
func (e *Enemy) TakeHit() bool {
	e.HP--
	e.Hit = config.EnemyHitCooldown
	return e.HP <= 0
}

// KnockBack pushes the enemy dist units directly away from (x, y).
func (e *Enemy) KnockBack(x, y, dist float64) {
	dx, dy, _ := physics.Direction(x, y, e.X, e.Y)
	e.X += dx * dist
	e.Y += dy * dist
}

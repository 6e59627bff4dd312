package object

import (
	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/physics"
)

// Bullet is a projectile fired by the player.
type Bullet struct {
	X, Y     float64
	VX, VY   float64
	Lifetime float64 // Milliseconds remaining
	Radius   float64
}

// NewBullet fires a bullet from (x, y) toward (tx, ty).
// An aim point on top of the origin fires straight up.
func NewBullet(x, y, tx, ty float64) *Bullet {
	dx, dy, _ := physics.Direction(x, y, tx, ty)
	if dx == 0 && dy == 0 {
		dy = -1
	}
	return &Bullet{
		X:        x,
		Y:        y,
		VX:       dx * config.BulletSpeed,
		VY:       dy * config.BulletSpeed,
		Lifetime: config.BulletLifeMS,
		Radius:   config.BulletRadius,
	}
}

// Update moves the bullet. Returns true if the bullet should be removed.
func (b *Bullet) Update(ctx UpdateContext) bool {
	b.X += b.VX
	b.Y += b.VY
	b.Lifetime -= ctx.Delta
	if b.Lifetime <= 0 {
		return true
	}
	m := config.BulletMargin
	return b.X < -m || b.X > ctx.Field.Width+m || b.Y < -m || b.Y > ctx.Field.Height+m
}

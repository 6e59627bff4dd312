package draw

import (
	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

// Glow and cockpit proportions of the ship.
const (
	shipGlowPad   = 18.0
	shipGlowAlpha = 0.07
	cockpitScale  = 0.45
	cockpitLift   = 4.0
	starColor     = object.Color(0xffffff)
	starAlpha     = 0.8
)

// DrawFrame rasterizes f onto c: backdrop, particles, enemies, the ship,
// then bullets on top.
func DrawFrame(c *Canvas, f *loop.Frame) {
	c.Clear(object.ColorBackground)

	for _, s := range f.Stars {
		c.FillCircle(s.X, s.Y, s.Radius, starColor, starAlpha*s.Brightness(f.Elapsed))
	}

	for i := range f.Particles {
		p := &f.Particles[i]
		c.FillCircle(p.X, p.Y, p.Size, p.Color, p.Alpha())
	}

	for i := range f.Enemies {
		e := &f.Enemies[i]
		col := object.ColorEnemy
		if e.Hit > 0 {
			col = object.ColorEnemyHit
		}
		pts := EnemyShape(c.BorrowPoints(enemyVertices), e.X, e.Y, e.Radius)
		c.FillPolygon(pts, col)
	}

	drawShip(c, f.Player)

	for i := range f.Bullets {
		b := &f.Bullets[i]
		c.FillCircle(b.X, b.Y, b.Radius, object.ColorBullet, 1)
	}
}

func drawShip(c *Canvas, p loop.PlayerView) {
	c.FillCircle(p.X, p.Y, p.Radius+shipGlowPad, object.ColorPlayer, shipGlowAlpha)

	col := object.ColorPlayer
	if p.HitFlash > 0 {
		col = object.ColorPlayerHit
	}
	c.FillPolygon(ShipShape(c.BorrowPoints(3), p.X, p.Y, p.Radius), col)
	c.FillCircle(p.X, p.Y-cockpitLift, p.Radius*cockpitScale, object.ColorCockpit, 1)
}

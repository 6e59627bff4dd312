package loop

import (
	"math"

	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/object"
	"github.com/tomz197/galaxyblaster/internal/physics"
)

// resolveCollisions handles enemy contact with the player and bullet hits on
// enemies, enemy by enemy in collection order. It reports whether the player
// died, in which case the remaining enemies are not processed.
func (g *Game) resolveCollisions() bool {
	w := g.world
	p := w.Player

	g.grid.Clear()
	for i, b := range w.Bullets {
		g.grid.Insert(b.X, b.Y, i)
	}
	n := len(w.Bullets)
	if cap(g.consumed) < n {
		g.consumed = make([]bool, n)
	}
	consumed := g.consumed[:n]
	clear(consumed)

	over := false
	for _, e := range w.Enemies {
		if g.checkContact(e) {
			over = true
			break
		}

		hit := g.firstBulletHit(e, consumed)
		if hit < 0 {
			continue
		}
		consumed[hit] = true
		b := w.Bullets[hit]
		g.score += config.ScoreBulletHit
		killed := e.TakeHit()
		g.burst(b.X, b.Y, config.BurstSmall, object.ColorSpark)
		if killed {
			g.score += config.ScoreEnemyKill
			g.burst(e.X, e.Y, config.BurstLarge, object.ColorDebris)
		}
	}

	w.removeConsumedBullets(consumed)
	w.removeDeadEnemies()

	if over {
		p.HP = 0
		g.endRun()
	}
	return over
}

// checkContact damages the player when e touches it and knocks e back.
// It reports whether the contact was fatal.
func (g *Game) checkContact(e *object.Enemy) bool {
	p := g.world.Player
	reach := e.Radius + p.Radius - config.ContactSlack
	if !physics.WithinRange(p.X, p.Y, e.X, e.Y, reach) {
		return false
	}

	dmg := config.ContactBaseDamage + int(math.Floor(e.Radius/6))
	dead := p.Damage(dmg)
	e.KnockBack(p.X, p.Y, config.ContactKnockback)
	return dead
}

// firstBulletHit returns the lowest index live bullet overlapping e, or -1.
func (g *Game) firstBulletHit(e *object.Enemy, consumed []bool) int {
	bullets := g.world.Bullets
	best := -1
	g.grid.QueryAround(e.X, e.Y, func(i int) bool {
		if consumed[i] || (best >= 0 && i > best) {
			return false
		}
		b := bullets[i]
		if physics.CirclesOverlap(b.X, b.Y, b.Radius, e.X, e.Y, e.Radius) {
			best = i
		}
		return false
	})
	return best
}

func (w *World) removeConsumedBullets(consumed []bool) {
	kept := w.Bullets[:0]
	for i, b := range w.Bullets {
		if !consumed[i] {
			kept = append(kept, b)
		}
	}
	clear(w.Bullets[len(kept):])
	w.Bullets = kept
}

func (w *World) removeDeadEnemies() {
	kept := w.Enemies[:0]
	for _, e := range w.Enemies {
		if e.HP > 0 {
			kept = append(kept, e)
		}
	}
	clear(w.Enemies[len(kept):])
	w.Enemies = kept
}

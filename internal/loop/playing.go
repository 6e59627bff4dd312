package loop

import (
	"math"

	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop/config"
)

// step runs one playing tick: integrate, collide, flush effects, spawn, score.
func (g *Game) step(dt float64, in input.Input) {
	w := g.world
	ctx := g.updateContext(dt, in)

	w.Player.Update(ctx)
	ctx.TargetX, ctx.TargetY = w.Player.X, w.Player.Y

	w.updateBullets(ctx)
	w.updateEnemies(ctx)
	w.updateParticles(ctx)

	over := g.resolveCollisions()
	w.FlushSpawned()
	if over {
		return
	}

	if e := g.spawner.Update(ctx, g.score); e != nil {
		w.Enemies = append(w.Enemies, e)
	}

	g.score += survivalPoints(dt, g.score)
}

// survivalPoints is the score trickle for staying alive dt milliseconds.
// It grows with the score, up to three times the base rate.
func survivalPoints(dt float64, score int) int {
	mult := 1 + min(config.SurvivalMaxMult, float64(score)/config.SurvivalBonusAt)
	return int(math.Floor(dt * config.SurvivalRate * mult))
}

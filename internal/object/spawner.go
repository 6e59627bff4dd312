package object

import "github.com/tomz197/galaxyblaster/internal/loop/config"

// EnemySpawner releases enemies on a timer that shortens as the score grows.
type EnemySpawner struct {
	Timer    float64 // Milliseconds since the last spawn
	Interval float64 // Milliseconds between spawns
}

// NewEnemySpawner creates a spawner at the starting cadence.
func NewEnemySpawner() *EnemySpawner {
	s := &EnemySpawner{}
	s.Reset()
	return s
}

// Reset restores the starting cadence.
func (s *EnemySpawner) Reset() {
	s.Timer = 0
	s.Interval = config.SpawnIntervalMS
}

// Update advances the timer and returns a new enemy when one is due.
func (s *EnemySpawner) Update(ctx UpdateContext, score int) *Enemy {
	s.Timer += ctx.Delta
	if s.Timer <= s.Interval {
		return nil
	}
	s.Timer = 0
	s.Interval = NextSpawnInterval(s.Interval, score)
	return NewEnemyAtEdge(ctx, score)
}

// NextSpawnInterval shortens interval by up to SpawnStepMS depending on score,
// never going below the floor.
func NextSpawnInterval(interval float64, score int) float64 {
	step := config.SpawnStepMS * min(1, float64(score)/config.SpawnScoreScale)
	return max(config.SpawnIntervalMinMS, interval-step)
}

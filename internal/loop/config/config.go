// Package config centralizes all tunable game parameters.
// Distances are logical field units, durations are milliseconds of game time.
package config

import "time"

// Field dimensions in logical units.
// Renderers scale this to whatever surface they draw on.
const (
	FieldWidth  = 900
	FieldHeight = 500
)

// Simulation step
const (
	MaxDeltaMS   = 40.0 // Larger gaps (tab switch, stalled terminal) are capped
	TargetFPS    = 60
	CooldownTick = 160 * time.Millisecond // Minimum game time between shots
)

// Player
const (
	PlayerRadius     = 16.0
	PlayerSpeed      = 3.4
	PlayerMaxHP      = 100
	PlayerEdgePad    = 12.0
	HitFlashFrames   = 10.0
	HitFlashDecay    = 0.03 // per ms
	DangerHPFraction = 0.35
	AimFallbackDY    = -40.0 // Default aim point relative to the player
)

// Bullets
const (
	BulletSpeed    = 7.5
	BulletLifeMS   = 1200.0
	BulletRadius   = 4.0
	BulletMargin   = 20.0 // Removed once this far outside the field
	BulletCapacity = 64
)

// Enemies
const (
	EnemyEdgeOffset   = 30.0
	EnemyMinSize      = 12.0
	EnemySizeRange    = 18.0
	EnemyBaseSpeed    = 0.6
	EnemySpeedRange   = 1.6
	EnemyScoreSpeed   = 1200.0 // score per +1 speed
	EnemyMaxScoreBump = 1.6
	EnemyHitCooldown  = 6.0
	EnemyHitDecay     = 0.01 // per ms
	ContactSlack      = 4.0  // Player/enemy contact distance is r1+r2-ContactSlack
	ContactBaseDamage = 8
	ContactKnockback  = 20.0
	AttractEnemies    = 3 // Enemies placed behind the title screen
)

// Spawning
const (
	SpawnIntervalMS    = 1300.0
	SpawnIntervalMinMS = 400.0
	SpawnStepMS        = 10.0
	SpawnScoreScale    = 1200.0
)

// Scoring
const (
	ScoreBulletHit  = 35
	ScoreEnemyKill  = 80
	SurvivalRate    = 0.02 // points per ms
	SurvivalBonusAt = 1000.0
	SurvivalMaxMult = 2.0
)

// Particles
const (
	BurstSmall        = 8
	BurstLarge        = 18
	BurstDefault      = 14
	ParticleMinSpeed  = 1.0
	ParticleSpeedVar  = 3.0
	ParticleMinLifeMS = 600.0
	ParticleLifeVarMS = 600.0
	ParticleMinSize   = 2.0
	ParticleSizeVar   = 3.0
	ParticleGravity   = 0.02
	ParticleShrink    = 0.997
	ParticleMinAlive  = 0.3
	ParticleFadeMS    = 800.0
)

// Broad phase
const (
	GridCellSize = 40.0 // >= BulletRadius + largest enemy radius
)

// Backdrop
const (
	StarCount = 160
)

// Sessions
const (
	HUDBroadcastRate    = 10 // HUD pushes per second per session
	MaxUsernameLength   = 16
	InactivityTimeout   = 120 * time.Second
	GameOverLingerLimit = 10 * time.Minute
)

// Package loop runs the game: the state machine, the per-tick pipeline and
// the frame driver that connects it to input, rendering and sound.
package loop

import (
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/object"
	"github.com/tomz197/galaxyblaster/internal/physics"
)

// Options configures a Game. Zero values get sensible defaults.
type Options struct {
	Field  object.Field
	Rand   *rand.Rand
	Store  HighScoreStore
	Cues   CuePlayer
	HUD    HUDSink
	Logger *log.Logger
	Muted  bool
}

// Game is one independent simulation: a single player, its enemies and its
// score. It is not safe for concurrent use; drive it from one goroutine.
type Game struct {
	field   object.Field
	rng     *rand.Rand
	store   HighScoreStore
	cues    CuePlayer
	hud     HUDSink
	log     *log.Logger
	state   State
	world   *World
	spawner *object.EnemySpawner
	grid    *physics.SpatialGrid
	stars   []Star

	// Reusable collision scratch (avoids allocations)
	consumed []bool

	score     int
	highScore int
	newHigh   bool // last run set a new high score
	muted     bool
	elapsed   float64 // Milliseconds of ticks since construction

	frames   [2]Frame // double-buffered render snapshots
	frameIdx int
}

// NewGame creates a game on the title screen. The high score is loaded from
// the store; a failing store counts as no high score yet.
func NewGame(opts Options) *Game {
	if opts.Field.Width <= 0 || opts.Field.Height <= 0 {
		opts.Field = object.Field{Width: config.FieldWidth, Height: config.FieldHeight}
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if opts.Store == nil {
		opts.Store = nopStore{}
	}
	if opts.Cues == nil {
		opts.Cues = nopCues{}
	}
	if opts.HUD == nil {
		opts.HUD = nopHUD{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	cx, cy := opts.Field.Center()
	m := config.BulletMargin + config.EnemyEdgeOffset
	g := &Game{
		field:   opts.Field,
		rng:     opts.Rand,
		store:   opts.Store,
		cues:    opts.Cues,
		hud:     opts.HUD,
		log:     opts.Logger,
		state:   StateMenu,
		world:   NewWorld(cx, cy),
		spawner: object.NewEnemySpawner(),
		grid:    physics.NewSpatialGrid(-m, -m, opts.Field.Width+2*m, opts.Field.Height+2*m, config.GridCellSize),
		muted:   opts.Muted,
	}
	g.stars = newStars(g.rng, g.field, config.StarCount)

	high, err := g.store.Load()
	if err != nil {
		g.log.Warn("could not load high score", "err", err)
		high = 0
	}
	g.highScore = max(high, 0)

	// Something to look at behind the title screen.
	ctx := g.updateContext(0, input.Input{})
	for range config.AttractEnemies {
		g.world.Enemies = append(g.world.Enemies, object.NewEnemyAtEdge(ctx, 0))
	}
	return g
}

// State returns the current game phase.
func (g *Game) State() State { return g.state }

// Score returns the current run's score.
func (g *Game) Score() int { return g.score }

// HighScore returns the best score seen so far.
func (g *Game) HighScore() int { return g.highScore }

// Muted reports whether sound cues are suppressed.
func (g *Game) Muted() bool { return g.muted }

// World exposes the live entities. Callers must not keep references across ticks.
func (g *Game) World() *World { return g.world }

// Field returns the play area.
func (g *Game) Field() object.Field { return g.field }

// SetMuted turns sound cues off or on.
func (g *Game) SetMuted(m bool) { g.muted = m }

// Start begins a run from the title screen. It does nothing in other states.
func (g *Game) Start() {
	if g.state != StateMenu {
		return
	}
	g.reset()
	g.log.Debug("run started")
	g.play(CueStart)
}

// Restart begins a fresh run from any state.
func (g *Game) Restart() {
	g.reset()
	g.log.Debug("run restarted")
	g.play(CueRestart)
}

// ShowMenu returns to the title screen without touching entities or score.
func (g *Game) ShowMenu() {
	g.state = StateMenu
}

// Shoot fires a bullet toward the aim point if the trigger cooldown allows.
// On the title screen it starts a run first.
func (g *Game) Shoot(in input.Input) {
	if g.state == StateMenu {
		g.Start()
	}
	if g.state != StatePlaying {
		return
	}
	p := g.world.Player
	if !p.TryFire() {
		return
	}
	tx, ty := p.Aim(in)
	g.world.Bullets = append(g.world.Bullets, object.NewBullet(p.X, p.Y, tx, ty))
	g.play(CueShot)
}

// Tick advances the game by dt milliseconds using the given input snapshot.
// dt is capped so a stalled frame cannot tunnel entities through each other.
func (g *Game) Tick(dt float64, in input.Input) {
	dt = physics.Clamp(dt, 0, config.MaxDeltaMS)
	g.elapsed += dt

	g.handleActions(in)
	if g.state == StatePlaying {
		g.step(dt, in)
	}
	g.hud.UpdateHUD(g.HUD())
}

// HUD returns the current status line.
func (g *Game) HUD() HUD {
	frac := g.world.Player.HPFraction()
	return HUD{
		Score:      g.score,
		HighScore:  g.highScore,
		HPFraction: frac,
		Danger:     frac < config.DangerHPFraction,
		State:      g.state.String(),
		Muted:      g.muted,
	}
}

func (g *Game) handleActions(in input.Input) {
	if in.Mute {
		g.muted = !g.muted
	}
	if in.Menu {
		g.ShowMenu()
	}
	if in.Start {
		g.Start()
	}
	if in.Restart {
		g.Restart()
	}
	if in.Shoot || (in.ShootHeld && g.state == StatePlaying) {
		g.Shoot(in)
	}
}

// reset puts everything back to the start of a run.
func (g *Game) reset() {
	cx, cy := g.field.Center()
	g.state = StatePlaying
	g.score = 0
	g.newHigh = false
	g.world.Player.Reset(cx, cy)
	g.world.Clear()
	g.spawner.Reset()
}

// endRun moves to game over and records a new high score if one was set.
func (g *Game) endRun() {
	g.state = StateGameOver
	if g.score <= g.highScore {
		g.log.Debug("run ended", "score", g.score)
		g.play(CueGameOver)
		return
	}

	g.highScore = g.score
	g.newHigh = true
	if err := g.store.Save(g.highScore); err != nil {
		g.log.Error("could not save high score", "score", g.highScore, "err", err)
	}
	g.log.Info("new high score", "score", g.highScore)
	g.play(CueNewHighScore)
}

func (g *Game) play(c Cue) {
	if g.muted {
		return
	}
	g.cues.Play(c)
}

// burst emits an explosion and its sound.
func (g *Game) burst(x, y float64, count int, color object.Color) {
	object.SpawnExplosion(g.rng, x, y, count, color, g.world)
	g.play(CueExplosion)
}

func (g *Game) updateContext(dt float64, in input.Input) object.UpdateContext {
	ctx := object.UpdateContext{
		Delta:   dt,
		Input:   in,
		Field:   g.field,
		Spawner: g.world,
		Rand:    g.rng,
	}
	if p := g.world.Player; p != nil {
		ctx.TargetX, ctx.TargetY = p.X, p.Y
	}
	return ctx
}

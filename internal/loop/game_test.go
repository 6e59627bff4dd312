package loop

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/object"
)

type memStore struct {
	high    int
	loadErr error
	saveErr error
	saves   []int
}

func (m *memStore) Load() (int, error) { return m.high, m.loadErr }

func (m *memStore) Save(score int) error {
	m.saves = append(m.saves, score)
	if m.saveErr != nil {
		return m.saveErr
	}
	m.high = score
	return nil
}

type cueLog []Cue

func (c *cueLog) Play(cue Cue) { *c = append(*c, cue) }

func (c cueLog) count(cue Cue) int {
	n := 0
	for _, x := range c {
		if x == cue {
			n++
		}
	}
	return n
}

func newTestGame(t *testing.T, store HighScoreStore) (*Game, *cueLog) {
	t.Helper()
	cues := &cueLog{}
	g := NewGame(Options{
		Rand:  rand.New(rand.NewPCG(7, 11)),
		Store: store,
		Cues:  cues,
	})
	return g, cues
}

// playing returns a game in a fresh run with no enemies.
func playing(t *testing.T, store HighScoreStore) (*Game, *cueLog) {
	t.Helper()
	g, cues := newTestGame(t, store)
	g.Start()
	if g.State() != StatePlaying {
		t.Fatalf("state = %v after Start, want playing", g.State())
	}
	*cues = nil
	return g, cues
}

func TestNewGameStartsOnMenu(t *testing.T) {
	g, _ := newTestGame(t, &memStore{high: 420})

	if g.State() != StateMenu {
		t.Fatalf("state = %v, want menu", g.State())
	}
	if g.HighScore() != 420 {
		t.Fatalf("high score = %d, want 420", g.HighScore())
	}
	if n := len(g.World().Enemies); n != config.AttractEnemies {
		t.Fatalf("menu enemies = %d, want %d", n, config.AttractEnemies)
	}
}

func TestNewGameBrokenStore(t *testing.T) {
	g, _ := newTestGame(t, &memStore{high: 99, loadErr: errors.New("corrupt")})
	if g.HighScore() != 0 {
		t.Fatalf("high score = %d, want 0 on load failure", g.HighScore())
	}
}

func TestMenuSuppressesSimulation(t *testing.T) {
	g, _ := newTestGame(t, nil)
	before := *g.World().Enemies[0]

	for range 10 {
		g.Tick(16, input.Input{Up: true})
	}

	if *g.World().Enemies[0] != before {
		t.Fatal("enemies moved on the menu")
	}
	if g.Score() != 0 {
		t.Fatal("score changed on the menu")
	}
}

func TestStartResetsRun(t *testing.T) {
	g, cues := newTestGame(t, nil)
	g.Tick(16, input.Input{Start: true})

	w := g.World()
	cx, cy := g.Field().Center()
	if g.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", g.State())
	}
	if w.Player.X != cx || w.Player.Y != cy || w.Player.HP != w.Player.MaxHP {
		t.Fatalf("player not reset: %+v", *w.Player)
	}
	if len(w.Enemies) != 0 || len(w.Bullets) != 0 || len(w.Particles) != 0 {
		t.Fatal("entities survived the start")
	}
	if cues.count(CueStart) != 1 {
		t.Fatalf("cues = %v, want one start", *cues)
	}
}

func TestRestartIsIdempotent(t *testing.T) {
	g, _ := playing(t, nil)
	w := g.World()
	w.Enemies = append(w.Enemies, object.NewEnemy(10, 10, 12, 1))
	w.Bullets = append(w.Bullets, object.NewBullet(10, 10, 20, 20))
	w.Spawn(object.NewParticle(0, 0, 0, 0, 100, 2, object.ColorBurst))
	g.score = 500
	w.Player.HP = 3

	g.Restart()
	first := g.Frame().Clone()
	g.Restart()
	second := g.Frame().Clone()

	if first.HUD != second.HUD || first.Player != second.Player {
		t.Fatalf("restart not idempotent: %+v vs %+v", first.HUD, second.HUD)
	}
	if len(second.Enemies) != 0 || len(second.Bullets) != 0 || len(second.Particles) != 0 || w.Pending() != 0 {
		t.Fatal("restart left entities behind")
	}
	if g.spawner.Interval != config.SpawnIntervalMS || g.spawner.Timer != 0 {
		t.Fatal("restart did not reset the spawner")
	}
	if g.Score() != 0 || w.Player.HP != w.Player.MaxHP {
		t.Fatal("restart did not reset score or health")
	}
}

func TestRestartFromGameOver(t *testing.T) {
	g, cues := playing(t, nil)
	g.state = StateGameOver

	g.Tick(16, input.Input{Restart: true})
	if g.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", g.State())
	}
	if cues.count(CueRestart) != 1 {
		t.Fatalf("cues = %v, want one restart", *cues)
	}
}

func TestMenuKeepsRun(t *testing.T) {
	g, _ := playing(t, nil)
	g.score = 300

	g.Tick(16, input.Input{Menu: true})
	if g.State() != StateMenu || g.Score() != 300 {
		t.Fatalf("menu should keep the run, got state %v score %d", g.State(), g.Score())
	}
}

func TestBoundaryClamp(t *testing.T) {
	g, _ := playing(t, nil)
	p := g.World().Player
	p.X, p.Y = 0, 0

	g.Tick(16, input.Input{Up: true, Left: true})
	if p.X != 12 || p.Y != 12 {
		t.Fatalf("player at (%v, %v), want (12, 12)", p.X, p.Y)
	}
}

func TestDeltaIsCapped(t *testing.T) {
	g, _ := playing(t, nil)
	g.Tick(1000, input.Input{})
	if g.spawner.Timer != config.MaxDeltaMS {
		t.Fatalf("spawn timer = %v, want %v", g.spawner.Timer, config.MaxDeltaMS)
	}
	g.Tick(-5, input.Input{})
	if g.spawner.Timer != config.MaxDeltaMS {
		t.Fatal("negative delta moved the clock")
	}
}

func TestBulletKillsEnemy(t *testing.T) {
	g, cues := playing(t, nil)
	w := g.World()
	w.Enemies = append(w.Enemies, object.NewEnemy(200, 200, 5, 0))
	w.Enemies[0].HP = 1
	w.Bullets = append(w.Bullets, &object.Bullet{X: 200, Y: 200, Lifetime: 1000, Radius: config.BulletRadius})

	g.Tick(16, input.Input{})

	if g.Score() != config.ScoreBulletHit+config.ScoreEnemyKill {
		t.Fatalf("score = %d, want 115", g.Score())
	}
	if len(w.Enemies) != 0 || len(w.Bullets) != 0 {
		t.Fatal("bullet or enemy survived the kill")
	}

	var sparks, debris int
	for _, p := range w.Particles {
		switch p.Color {
		case object.ColorSpark:
			sparks++
		case object.ColorDebris:
			debris++
		}
	}
	if sparks != config.BurstSmall || debris != config.BurstLarge {
		t.Fatalf("bursts = %d small, %d large; want %d and %d", sparks, debris, config.BurstSmall, config.BurstLarge)
	}
	if cues.count(CueExplosion) != 2 {
		t.Fatalf("explosion cues = %d, want 2", cues.count(CueExplosion))
	}
}

func TestOneHitPerEnemyPerTick(t *testing.T) {
	g, _ := playing(t, nil)
	w := g.World()
	w.Enemies = append(w.Enemies, object.NewEnemy(200, 200, 12, 0))
	first := &object.Bullet{X: 205, Y: 200, Lifetime: 1000, Radius: config.BulletRadius}
	second := &object.Bullet{X: 195, Y: 200, Lifetime: 1000, Radius: config.BulletRadius}
	w.Bullets = append(w.Bullets, first, second)

	g.Tick(16, input.Input{})

	if hp := w.Enemies[0].HP; hp != 2 {
		t.Fatalf("enemy hp = %d, want 2", hp)
	}
	if len(w.Bullets) != 1 || w.Bullets[0] != second {
		t.Fatal("the first bullet in collection order should be consumed")
	}
	if w.Enemies[0].Hit != config.EnemyHitCooldown {
		t.Fatalf("hit cooldown = %v, want %v", w.Enemies[0].Hit, config.EnemyHitCooldown)
	}
}

func TestBulletConsumedOnce(t *testing.T) {
	g, _ := playing(t, nil)
	w := g.World()
	a := object.NewEnemy(200, 200, 12, 0)
	b := object.NewEnemy(206, 200, 12, 0)
	w.Enemies = append(w.Enemies, a, b)
	w.Bullets = append(w.Bullets, &object.Bullet{X: 203, Y: 200, Lifetime: 1000, Radius: config.BulletRadius})

	g.Tick(16, input.Input{})

	if a.HP != 2 || b.HP != 3 {
		t.Fatalf("hp = %d/%d, want only the first enemy hit", a.HP, b.HP)
	}
}

func TestContactDamageAndKnockback(t *testing.T) {
	g, _ := playing(t, nil)
	w := g.World()
	p := w.Player
	e := object.NewEnemy(p.X+10, p.Y, 12, 0)
	w.Enemies = append(w.Enemies, e)
	startX := e.X

	g.Tick(16, input.Input{})

	if want := config.PlayerMaxHP - 10; p.HP != want {
		t.Fatalf("hp = %d, want %d", p.HP, want)
	}
	if p.HitFlash != config.HitFlashFrames {
		t.Fatalf("hit flash = %v, want %v", p.HitFlash, config.HitFlashFrames)
	}
	if e.X != startX+config.ContactKnockback {
		t.Fatalf("enemy x = %v, want knocked back to %v", e.X, startX+config.ContactKnockback)
	}
}

func TestGameOverNewHighScore(t *testing.T) {
	store := &memStore{high: 40}
	g, cues := playing(t, store)
	w := g.World()
	p := w.Player
	p.HP = 5
	g.score = 50
	w.Enemies = append(w.Enemies, object.NewEnemy(p.X+10, p.Y, 12, 0))

	g.Tick(16, input.Input{})

	if g.State() != StateGameOver {
		t.Fatalf("state = %v, want gameover", g.State())
	}
	if p.HP != 0 {
		t.Fatalf("hp = %d, want 0", p.HP)
	}
	if g.HighScore() != 50 || len(store.saves) != 1 || store.saves[0] != 50 {
		t.Fatalf("high score %d, saves %v; want 50 saved once", g.HighScore(), store.saves)
	}
	if cues.count(CueNewHighScore) != 1 || cues.count(CueGameOver) != 0 {
		t.Fatalf("cues = %v", *cues)
	}
	if !g.Frame().NewHighScore {
		t.Fatal("frame should flag the new high score")
	}

	before := g.Score()
	g.Tick(16, input.Input{})
	if g.Score() != before || len(store.saves) != 1 {
		t.Fatal("game over must not keep simulating or saving")
	}
}

func TestGameOverWithoutRecord(t *testing.T) {
	store := &memStore{high: 1000}
	g, cues := playing(t, store)
	w := g.World()
	w.Player.HP = 1
	g.score = 50
	w.Enemies = append(w.Enemies, object.NewEnemy(w.Player.X, w.Player.Y+5, 20, 0))

	g.Tick(16, input.Input{})

	if g.State() != StateGameOver {
		t.Fatalf("state = %v, want gameover", g.State())
	}
	if len(store.saves) != 0 || g.HighScore() != 1000 {
		t.Fatal("score below the record must not be saved")
	}
	if cues.count(CueGameOver) != 1 {
		t.Fatalf("cues = %v, want one gameover", *cues)
	}
}

func TestGameOverSaveFailureIsSwallowed(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	g, _ := playing(t, store)
	w := g.World()
	w.Player.HP = 1
	g.score = 10
	w.Enemies = append(w.Enemies, object.NewEnemy(w.Player.X, w.Player.Y, 12, 0))

	g.Tick(16, input.Input{})

	if g.State() != StateGameOver || g.HighScore() != 10 {
		t.Fatalf("state %v high %d; save errors must not affect the run", g.State(), g.HighScore())
	}
}

func TestShootCooldown(t *testing.T) {
	g, cues := playing(t, nil)
	w := g.World()

	for range 10 {
		g.Tick(16, input.Input{ShootHeld: true})
	}
	if len(w.Bullets) != 1 {
		t.Fatalf("bullets = %d after 160ms of fire, want 1", len(w.Bullets))
	}
	g.Tick(16, input.Input{})
	g.Tick(16, input.Input{ShootHeld: true, Shoot: true})
	if len(w.Bullets) != 2 {
		t.Fatalf("bullets = %d, want 2 once the cooldown elapsed", len(w.Bullets))
	}
	if cues.count(CueShot) != 2 {
		t.Fatalf("shot cues = %d, want 2", cues.count(CueShot))
	}
}

func TestShootAimsAtPointer(t *testing.T) {
	g, _ := playing(t, nil)
	p := g.World().Player

	g.Shoot(input.Input{HasAim: true, AimX: p.X + 100, AimY: p.Y})
	b := g.World().Bullets[0]
	if b.VX != config.BulletSpeed || b.VY != 0 {
		t.Fatalf("bullet velocity = (%v, %v), want straight right", b.VX, b.VY)
	}
}

func TestShootOnMenuStartsRun(t *testing.T) {
	g, cues := newTestGame(t, nil)
	g.Tick(16, input.Input{Shoot: true})

	if g.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", g.State())
	}
	if cues.count(CueStart) != 1 {
		t.Fatalf("cues = %v, want a start cue", *cues)
	}
}

func TestMuteToggle(t *testing.T) {
	g, cues := newTestGame(t, nil)
	g.Tick(16, input.Input{Mute: true})
	if !g.Muted() || !g.HUD().Muted {
		t.Fatal("mute should toggle on")
	}
	g.Tick(16, input.Input{Start: true})
	if len(*cues) != 0 {
		t.Fatalf("muted game played %v", *cues)
	}
	g.Tick(16, input.Input{Mute: true})
	if g.Muted() {
		t.Fatal("mute should toggle off")
	}
}

func TestSpawnerRunsWhilePlaying(t *testing.T) {
	g, _ := playing(t, nil)
	for range 40 {
		g.Tick(40, input.Input{})
	}
	if len(g.World().Enemies) == 0 {
		t.Fatal("no enemy spawned after 1.6s of play")
	}
}

func TestSurvivalPoints(t *testing.T) {
	tests := []struct {
		dt    float64
		score int
		want  int
	}{
		{16, 0, 0},
		{40, 0, 0},
		{40, 1000, 1},
		{40, 5000, 2},
		{110, 0, 2},
	}
	for _, tt := range tests {
		if got := survivalPoints(tt.dt, tt.score); got != tt.want {
			t.Errorf("survivalPoints(%v, %d) = %d, want %d", tt.dt, tt.score, got, tt.want)
		}
	}
}

func TestHUDDanger(t *testing.T) {
	var last HUD
	g := NewGame(Options{Rand: rand.New(rand.NewPCG(1, 1)), HUD: HUDFunc(func(h HUD) { last = h })})
	g.Start()
	g.World().Player.HP = 30

	g.Tick(16, input.Input{})
	if !last.Danger || last.State != "playing" {
		t.Fatalf("hud = %+v, want danger while playing", last)
	}
	if last.HPFraction != 0.3 {
		t.Fatalf("hp fraction = %v, want 0.3", last.HPFraction)
	}
}

func TestFrameCloneIsIndependent(t *testing.T) {
	g, _ := playing(t, nil)
	g.World().Bullets = append(g.World().Bullets, object.NewBullet(100, 100, 100, 0))

	kept := g.Frame().Clone()
	g.Frame()
	g.World().Bullets[0].X = 999
	g.Frame()

	if kept.Bullets[0].X != 100 {
		t.Fatalf("cloned frame changed to %v", kept.Bullets[0].X)
	}
}

// Package input turns raw key and pointer events into per-tick snapshots.
package input

import "time"

// keyHoldDuration is how long a key is considered "held" after its last press.
// Terminals only report presses (auto-repeat), never releases.
const keyHoldDuration = 120 * time.Millisecond

// Input represents the current tick's input state.
// Directional and ShootHeld are level-triggered; the action fields are set
// only on the first snapshot after the key was pressed.
type Input struct {
	Up, Down, Left, Right bool
	ShootHeld             bool

	Start   bool
	Shoot   bool
	Restart bool
	Menu    bool
	Mute    bool
	Quit    bool

	// Aim is the last known pointer position in field coordinates.
	AimX, AimY float64
	HasAim     bool
}

// Direction returns the raw movement vector from the directional keys.
func (in Input) Direction() (dx, dy float64) {
	if in.Up {
		dy--
	}
	if in.Down {
		dy++
	}
	if in.Left {
		dx--
	}
	if in.Right {
		dx++
	}
	return dx, dy
}

// Key identifies a logical game key, independent of the device that produced it.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyShoot
	KeyStart
	KeyRestart
	KeyMenu
	KeyMute
	KeyQuit
	keyCount
)

// Tracker records key presses and folds them into snapshots.
// It is not safe for concurrent use; feed it from the goroutine that polls.
type Tracker struct {
	last    [keyCount]time.Time
	pending [keyCount]bool
	aimX    float64
	aimY    float64
	hasAim  bool
}

// Press records a key press at now.
func (t *Tracker) Press(k Key, now time.Time) {
	if k <= KeyNone || k >= keyCount {
		return
	}
	t.last[k] = now
	t.pending[k] = true
}

// Aim records the pointer position in field coordinates.
func (t *Tracker) Aim(x, y float64) {
	t.aimX, t.aimY = x, y
	t.hasAim = true
}

// Click records a pointer click: aim at (x, y) and fire once.
func (t *Tracker) Click(x, y float64) {
	t.Aim(x, y)
	t.pending[KeyShoot] = true
}

// Snapshot builds the input for the tick at now and clears pending actions.
func (t *Tracker) Snapshot(now time.Time) Input {
	held := func(k Key) bool {
		return !t.last[k].IsZero() && now.Sub(t.last[k]) < keyHoldDuration
	}

	in := Input{
		Up:        held(KeyUp),
		Down:      held(KeyDown),
		Left:      held(KeyLeft),
		Right:     held(KeyRight),
		ShootHeld: held(KeyShoot),
		Start:     t.pending[KeyStart],
		Shoot:     t.pending[KeyShoot],
		Restart:   t.pending[KeyRestart],
		Menu:      t.pending[KeyMenu],
		Mute:      t.pending[KeyMute],
		Quit:      t.pending[KeyQuit],
		AimX:      t.aimX,
		AimY:      t.aimY,
		HasAim:    t.hasAim,
	}
	t.pending = [keyCount]bool{}
	return in
}

// KeyForByte maps a single terminal byte to a game key.
func KeyForByte(b byte) Key {
	switch b {
	case 'q', 'Q', 0x03:
		return KeyQuit
	case 'a', 'A', 'h', 'H':
		return KeyLeft
	case 'd', 'D', 'l', 'L':
		return KeyRight
	case 'w', 'W', 'k', 'K':
		return KeyUp
	case 's', 'S', 'j', 'J':
		return KeyDown
	case ' ':
		return KeyShoot
	case '\n', '\r':
		return KeyStart
	case 'r', 'R':
		return KeyRestart
	case 'm', 'M':
		return KeyMute
	case '\x1b':
		return KeyMenu
	}
	return KeyNone
}

package loop

import (
	"errors"

	"github.com/tomz197/galaxyblaster/internal/input"
)

// Cue is a sound event emitted by the game.
type Cue int

const (
	CueShot Cue = iota
	CueExplosion
	CueStart
	CueRestart
	CueGameOver
	CueNewHighScore
)

// String returns the cue name used in logs and metric labels.
func (c Cue) String() string {
	switch c {
	case CueShot:
		return "shot"
	case CueExplosion:
		return "explosion"
	case CueStart:
		return "start"
	case CueRestart:
		return "restart"
	case CueGameOver:
		return "gameover"
	case CueNewHighScore:
		return "highscore"
	default:
		return "unknown"
	}
}

// Cues lists every cue, in declaration order.
var Cues = []Cue{CueShot, CueExplosion, CueStart, CueRestart, CueGameOver, CueNewHighScore}

// HUD is the status line shown next to the play field.
type HUD struct {
	Score      int     `json:"score"`
	HighScore  int     `json:"highScore"`
	HPFraction float64 `json:"hp"`
	Danger     bool    `json:"danger"`
	State      string  `json:"state"`
	Muted      bool    `json:"muted"`
}

// Renderer draws a frame. The frame is only valid for the duration of the call.
type Renderer interface {
	Render(f *Frame) error
}

// CuePlayer plays sound cues. Play must not block.
type CuePlayer interface {
	Play(c Cue)
}

// InputSource yields the input snapshot for the next tick.
type InputSource interface {
	Poll() input.Input
}

// HUDSink receives the HUD after every tick.
type HUDSink interface {
	UpdateHUD(h HUD)
}

// HighScoreStore persists the best score.
type HighScoreStore interface {
	Load() (int, error)
	Save(score int) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f *Frame) error

// Render calls fn(f).
func (fn RendererFunc) Render(f *Frame) error { return fn(f) }

// CueFunc adapts a function to CuePlayer.
type CueFunc func(c Cue)

// Play calls fn(c).
func (fn CueFunc) Play(c Cue) { fn(c) }

// HUDFunc adapts a function to HUDSink.
type HUDFunc func(h HUD)

// UpdateHUD calls fn(h).
func (fn HUDFunc) UpdateHUD(h HUD) { fn(h) }

// MultiRenderer renders to every renderer in order and joins their errors.
type MultiRenderer []Renderer

// Render draws f with each renderer, even after one fails.
func (m MultiRenderer) Render(f *Frame) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiCues fans a cue out to several players.
type MultiCues []CuePlayer

// Play plays c on every player.
func (m MultiCues) Play(c Cue) {
	for _, p := range m {
		p.Play(c)
	}
}

// MultiHUD fans the HUD out to several sinks.
type MultiHUD []HUDSink

// UpdateHUD forwards h to every sink.
func (m MultiHUD) UpdateHUD(h HUD) {
	for _, s := range m {
		s.UpdateHUD(h)
	}
}

type nopCues struct{}

func (nopCues) Play(Cue) {}

type nopHUD struct{}

func (nopHUD) UpdateHUD(HUD) {}

type nopStore struct{}

func (nopStore) Load() (int, error) { return 0, nil }
func (nopStore) Save(int) error     { return nil }

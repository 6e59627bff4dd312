package loop

import (
	"math"
	"math/rand/v2"

	"github.com/tomz197/galaxyblaster/internal/object"
)

// Star is a backdrop point that twinkles over time.
type Star struct {
	X, Y    float64
	Radius  float64
	Twinkle float64 // Twinkle speed factor
}

// Brightness returns the star's opacity at the given game time in ms.
func (s Star) Brightness(elapsed float64) float64 {
	return 0.5 + math.Sin(elapsed*0.001*s.Twinkle)*0.5
}

func newStars(r *rand.Rand, f object.Field, n int) []Star {
	stars := make([]Star, n)
	for i := range stars {
		stars[i] = Star{
			X:       r.Float64() * f.Width,
			Y:       r.Float64() * f.Height,
			Radius:  r.Float64() * 1.6,
			Twinkle: 0.2 + r.Float64()*0.8,
		}
	}
	return stars
}

// PlayerView is the drawable part of the player.
type PlayerView struct {
	X, Y     float64
	Radius   float64
	HitFlash float64
}

// Frame is a read-only snapshot of everything a renderer needs.
// Frames handed to Render are reused by the game on later ticks; call Clone
// to keep one.
type Frame struct {
	Field        object.Field
	State        State
	HUD          HUD
	NewHighScore bool
	Elapsed      float64 // Milliseconds of game time
	Player       PlayerView
	Bullets      []object.Bullet
	Enemies      []object.Enemy
	Particles    []object.Particle
	Stars        []Star // Shared, never modified
}

// Clone returns a deep copy that stays valid after the next tick.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Bullets = append([]object.Bullet(nil), f.Bullets...)
	c.Enemies = append([]object.Enemy(nil), f.Enemies...)
	c.Particles = append([]object.Particle(nil), f.Particles...)
	return &c
}

// Frame captures the current state into one of two reusable buffers.
func (g *Game) Frame() *Frame {
	f := &g.frames[g.frameIdx]
	g.frameIdx = 1 - g.frameIdx // Toggle for next frame

	w := g.world
	f.Field = g.field
	f.State = g.state
	f.HUD = g.HUD()
	f.NewHighScore = g.newHigh
	f.Elapsed = g.elapsed
	f.Stars = g.stars
	f.Player = PlayerView{
		X:        w.Player.X,
		Y:        w.Player.Y,
		Radius:   w.Player.Radius,
		HitFlash: w.Player.HitFlash,
	}

	f.Bullets = f.Bullets[:0]
	for _, b := range w.Bullets {
		f.Bullets = append(f.Bullets, *b)
	}
	f.Enemies = f.Enemies[:0]
	for _, e := range w.Enemies {
		f.Enemies = append(f.Enemies, *e)
	}
	f.Particles = f.Particles[:0]
	for _, p := range w.Particles {
		f.Particles = append(f.Particles, *p)
	}
	return f
}

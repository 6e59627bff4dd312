// Package object holds the game entities and the rules that move them.
package object

import (
	"math/rand/v2"

	"github.com/tomz197/galaxyblaster/internal/input"
)

// Spawner allows entities to queue new particles during update.
// Queued particles join the live set only when the owner flushes them.
type Spawner interface {
	Spawn(p *Particle)
}

// Input is an alias for the input package's Input type.
type Input = input.Input

// Field is the rectangular play area in logical units.
type Field struct {
	Width  float64
	Height float64
}

// Center returns the middle of the field.
func (f Field) Center() (float64, float64) {
	return f.Width / 2, f.Height / 2
}

// UpdateContext provides all the information an entity needs during update.
type UpdateContext struct {
	Delta   float64 // Milliseconds since the previous tick, already capped
	Input   Input
	Field   Field
	Spawner Spawner
	Rand    *rand.Rand

	// Pursuit target for enemies.
	TargetX, TargetY float64
}

// Color is a 24-bit RGB color tag carried by particles and used by renderers.
type Color uint32

// RGB splits the color into its components.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Palette
const (
	ColorBackground Color = 0x081526
	ColorPlayer     Color = 0x39ffbf
	ColorPlayerHit  Color = 0xff8aa1
	ColorCockpit    Color = 0x083544
	ColorEnemy      Color = 0xff6b88
	ColorEnemyHit   Color = 0xffd7d7
	ColorBullet     Color = 0xfff3b0
	ColorSpark      Color = 0xffd88a // bullet impact
	ColorDebris     Color = 0xff8aa1 // enemy destroyed
	ColorBurst      Color = 0xffb86b
	ColorStar       Color = 0x9fb4d9
	ColorDanger     Color = 0xff4d6d
	ColorHealth     Color = 0x39ffbf
	ColorText       Color = 0xe6f1ff
)

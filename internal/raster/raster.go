// Package raster draws frames into images for observers outside the terminal.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"

	"github.com/tomz197/galaxyblaster/internal/draw"
	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

const (
	shipGlowPad   = 18.0
	shipGlowAlpha = 0.07
	cockpitScale  = 0.45
	cockpitLift   = 4.0
	starAlpha     = 0.8
	hudMargin     = 12.0
	hudLine       = 16.0
)

// Rasterizer renders frames at a fixed scale of the field.
// It reuses one drawing context and is safe for concurrent use.
type Rasterizer struct {
	mu    sync.Mutex
	scale float64
	dc    *gg.Context
	pts   []draw.Point
}

// New creates a rasterizer; scale 1 draws one pixel per field unit.
func New(scale float64) *Rasterizer {
	if scale <= 0 {
		scale = 1
	}
	return &Rasterizer{scale: scale}
}

// Size returns the image size for field.
func (r *Rasterizer) Size(field object.Field) (w, h int) {
	return int(field.Width * r.scale), int(field.Height * r.scale)
}

func (r *Rasterizer) context(field object.Field) *gg.Context {
	w, h := r.Size(field)
	if r.dc == nil || r.dc.Width() != w || r.dc.Height() != h {
		r.dc = gg.NewContext(w, h)
	}
	return r.dc
}

// Image draws f and returns a copy of the result.
func (r *Rasterizer) Image(f *loop.Frame) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := r.render(f)
	src := dc.Image()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.(*image.RGBA).Pix)
	return out
}

// EncodePNG draws f and writes it to w as PNG.
func (r *Rasterizer) EncodePNG(w io.Writer, f *loop.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.render(f).EncodePNG(w); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

func (r *Rasterizer) render(f *loop.Frame) *gg.Context {
	dc := r.context(f.Field)
	dc.Identity()
	dc.Scale(r.scale, r.scale)

	setColor(dc, object.ColorBackground, 1)
	dc.Clear()

	for _, s := range f.Stars {
		dc.SetRGBA(1, 1, 1, starAlpha*s.Brightness(f.Elapsed))
		dc.DrawCircle(s.X, s.Y, s.Radius)
		dc.Fill()
	}

	for i := range f.Particles {
		p := &f.Particles[i]
		setColor(dc, p.Color, p.Alpha())
		dc.DrawCircle(p.X, p.Y, p.Size)
		dc.Fill()
	}

	for i := range f.Enemies {
		e := &f.Enemies[i]
		col := object.ColorEnemy
		if e.Hit > 0 {
			col = object.ColorEnemyHit
		}
		r.pts = draw.EnemyShape(r.pts, e.X, e.Y, e.Radius)
		r.fillPolygon(dc, col)
	}

	r.drawShip(dc, f.Player)

	setColor(dc, object.ColorBullet, 1)
	for i := range f.Bullets {
		b := &f.Bullets[i]
		dc.DrawCircle(b.X, b.Y, b.Radius)
		dc.Fill()
	}

	drawHUD(dc, f)
	return dc
}

func (r *Rasterizer) drawShip(dc *gg.Context, p loop.PlayerView) {
	setColor(dc, object.ColorPlayer, shipGlowAlpha)
	dc.DrawCircle(p.X, p.Y, p.Radius+shipGlowPad)
	dc.Fill()

	col := object.ColorPlayer
	if p.HitFlash > 0 {
		col = object.ColorPlayerHit
	}
	r.pts = draw.ShipShape(r.pts, p.X, p.Y, p.Radius)
	r.fillPolygon(dc, col)

	setColor(dc, object.ColorCockpit, 1)
	dc.DrawCircle(p.X, p.Y-cockpitLift, p.Radius*cockpitScale)
	dc.Fill()
}

func (r *Rasterizer) fillPolygon(dc *gg.Context, col object.Color) {
	if len(r.pts) == 0 {
		return
	}
	dc.NewSubPath()
	for _, p := range r.pts {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	setColor(dc, col, 1)
	dc.Fill()
}

// drawHUD writes the score line and, outside of play, the screen title.
// Text uses gg's built-in face so no font file is needed.
func drawHUD(dc *gg.Context, f *loop.Frame) {
	setColor(dc, object.ColorText, 1)
	dc.DrawString(fmt.Sprintf("Score: %d   High: %d", f.HUD.Score, f.HUD.HighScore), hudMargin, hudMargin+hudLine/2)

	barW := 120.0
	setColor(dc, object.ColorText, 0.2)
	dc.DrawRectangle(hudMargin, hudMargin+hudLine, barW, 6)
	dc.Fill()
	bar := object.ColorHealth
	if f.HUD.Danger {
		bar = object.ColorDanger
	}
	setColor(dc, bar, 1)
	dc.DrawRectangle(hudMargin, hudMargin+hudLine, barW*f.HUD.HPFraction, 6)
	dc.Fill()

	panel, ok := draw.PanelFor(f)
	if !ok {
		return
	}
	cx, cy := f.Field.Center()
	top := cy - float64(len(panel.Lines)+1)*hudLine/2
	setColor(dc, panel.Title.Color, 1)
	dc.DrawStringAnchored(panel.Title.Text, cx, top, 0.5, 0.5)
	for i, line := range panel.Lines {
		setColor(dc, line.Color, 1)
		dc.DrawStringAnchored(line.Text, cx, top+float64(i+1)*hudLine, 0.5, 0.5)
	}
}

func setColor(dc *gg.Context, c object.Color, alpha float64) {
	r, g, b := c.RGB()
	dc.SetColor(color.NRGBA{R: r, G: g, B: b, A: uint8(clamp01(alpha) * 255)})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

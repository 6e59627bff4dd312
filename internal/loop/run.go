package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/tomz197/galaxyblaster/internal/loop/config"
)

// RunOptions tunes the frame driver.
type RunOptions struct {
	FPS int

	// OnTick, if set, receives the time spent simulating and rendering each frame.
	OnTick func(work time.Duration)
}

// Run drives g with the standard Input → Update → Draw cycle until the input
// asks to quit or ctx is cancelled. Render errors end the loop.
func Run(ctx context.Context, g *Game, src InputSource, r Renderer, opts RunOptions) error {
	fps := opts.FPS
	if fps <= 0 {
		fps = config.TargetFPS
	}
	frameTime := time.Second / time.Duration(fps)

	lastTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frameStart := time.Now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		// ===== INPUT PHASE =====
		in := src.Poll()
		if in.Quit {
			return nil
		}

		// ===== UPDATE PHASE =====
		g.Tick(float64(delta)/float64(time.Millisecond), in)

		// ===== DRAW PHASE =====
		if err := r.Render(g.Frame()); err != nil {
			return fmt.Errorf("render frame: %w", err)
		}

		// ===== FRAME TIMING =====
		elapsed := time.Since(frameStart)
		if opts.OnTick != nil {
			opts.OnTick(elapsed)
		}
		if elapsed < frameTime {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(frameTime - elapsed):
			}
		}
	}
}

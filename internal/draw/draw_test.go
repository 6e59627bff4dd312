package draw

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name                 string
		cols, rows           int
		w, h, offCol, offRow int
	}{
		{"wide terminal", 200, 50, 180, 50, 10, 0},
		{"tall terminal", 90, 100, 90, 25, 0, 37},
		{"degenerate", 0, 10, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, oc, or := Fit(tt.cols, tt.rows, 900, 500)
			if w != tt.w || h != tt.h || oc != tt.offCol || or != tt.offRow {
				t.Fatalf("Fit() = %d,%d,%d,%d; want %d,%d,%d,%d", w, h, oc, or, tt.w, tt.h, tt.offCol, tt.offRow)
			}
		})
	}
}

func TestBlend(t *testing.T) {
	if got := Blend(0x000000, 0xffffff, 0.5); got != 0x808080 {
		t.Fatalf("Blend half = %06x, want 808080", uint32(got))
	}
	if got := Blend(0x123456, 0xffffff, 0); got != 0x123456 {
		t.Fatal("zero alpha must keep the background")
	}
	if got := Blend(0x123456, 0xabcdef, 1); got != 0xabcdef {
		t.Fatal("full alpha must replace the background")
	}
}

func TestCanvasShapes(t *testing.T) {
	c := NewScaledCanvas(90, 25, 900, 500) // 10 logical units per pixel
	c.Clear(object.ColorBackground)

	c.FillCircle(455, 245, 1, object.ColorBullet, 1)
	if top, _ := c.Cell(45, 12); top != object.ColorBullet {
		t.Fatalf("tiny circle not drawn: %06x", uint32(top))
	}

	c.FillPolygon(EnemyShape(c.BorrowPoints(enemyVertices), 200, 200, 30), object.ColorEnemy)
	if top, bottom := c.Cell(20, 10); top != object.ColorEnemy || bottom != object.ColorEnemy {
		t.Fatalf("enemy center not filled: %06x/%06x", uint32(top), uint32(bottom))
	}

	c.SetFloat(-5, -5, object.ColorDanger)
	c.SetFloat(5000, 5000, object.ColorDanger)
}

func TestCanvasRenderDiff(t *testing.T) {
	c := NewScaledCanvas(4, 2, 4, 4)
	c.Clear(object.ColorBackground)

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), string(BlockUpperHalf)); n != 8 {
		t.Fatalf("first render wrote %d cells, want 8", n)
	}

	buf.Reset()
	if err := c.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("unchanged canvas wrote %q", buf.String())
	}

	c.SetFloat(1, 0, object.ColorBullet)
	c.MarkDirty(4, 2, 1)
	buf.Reset()
	if err := c.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), string(BlockUpperHalf)); n != 2 {
		t.Fatalf("diff render wrote %d cells, want 2", n)
	}
	if !strings.Contains(buf.String(), "\033[38;2;255;243;176m") {
		t.Fatalf("missing bullet color in %q", buf.String())
	}
}

func TestViewportToLogical(t *testing.T) {
	v := Viewport{Cols: 90, Rows: 25, OffCol: 5, OffRow: 1, ScaleX: 0.5, ScaleY: 0.25}

	x, y, ok := v.ToLogical(6, 2)
	if !ok || x != 1 || y != 4 {
		t.Fatalf("ToLogical(6,2) = %v,%v,%v", x, y, ok)
	}
	if _, _, ok := v.ToLogical(5, 2); ok {
		t.Fatal("cell left of the canvas must be rejected")
	}
	if _, _, ok := (Viewport{}).ToLogical(1, 1); ok {
		t.Fatal("empty viewport must reject everything")
	}
}

func TestHUDSegments(t *testing.T) {
	segs := HUDSegments(loop.HUD{Score: 12, HighScore: 90, HPFraction: 0.25, Danger: true})
	var text strings.Builder
	for _, s := range segs {
		text.WriteString(s.Text)
	}
	if !strings.Contains(text.String(), "Score: 12") || !strings.Contains(text.String(), "High: 90") {
		t.Fatalf("hud text = %q", text.String())
	}
	if segs[3].Color != object.ColorDanger || strings.Count(segs[3].Text, string(BlockFull)) != 3 {
		t.Fatalf("health bar = %+v", segs[3])
	}
}

func TestPanelFor(t *testing.T) {
	if _, ok := PanelFor(&loop.Frame{State: loop.StatePlaying}); ok {
		t.Fatal("no panel while playing")
	}
	p, ok := PanelFor(&loop.Frame{State: loop.StateGameOver, NewHighScore: true, HUD: loop.HUD{Score: 77}})
	if !ok || p.Title.Text != "GAME OVER" {
		t.Fatalf("panel = %+v", p)
	}
	if p.Lines[0].Text != "Score: 77" || p.Lines[1].Text != "New high score!" {
		t.Fatalf("game over lines = %+v", p.Lines)
	}
	if p.Width() < 20 {
		t.Fatalf("width %d too small", p.Width())
	}
}

func TestTerminalRender(t *testing.T) {
	var out bytes.Buffer
	size := func() (int, int, error) { return 100, 30, nil }
	field := object.Field{Width: 900, Height: 500}
	term := NewTerminal(&out, size, field)

	g := loop.NewGame(loop.Options{Rand: rand.New(rand.NewPCG(1, 2))})
	if err := term.Render(g.Frame()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out.String(), "GALAXY BLASTER") {
		t.Fatal("menu frame should show the title box")
	}
	if !strings.Contains(out.String(), "Score: 0") {
		t.Fatal("frame should show the HUD")
	}

	x, y, ok := term.PointerToField(51, 16)
	if !ok || x <= 0 || x >= field.Width || y <= 0 || y >= field.Height {
		t.Fatalf("PointerToField = %v,%v,%v", x, y, ok)
	}

	g.Start()
	g.Tick(16, input.Input{})
	out.Reset()
	if err := term.Render(g.Frame()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "GALAXY BLASTER") {
		t.Fatal("title box should be gone while playing")
	}
}

type writeSizes struct {
	sizes []int
	bytes.Buffer
}

func (w *writeSizes) Write(p []byte) (int, error) {
	w.sizes = append(w.sizes, len(p))
	return w.Buffer.Write(p)
}

func TestChunkWriterFlush(t *testing.T) {
	out := &writeSizes{}
	cw := NewChunkWriter(out)

	cw.WriteAt(3, 2, strings.Repeat("x", 3000))
	if err := cw.Flush(); err != nil {
		t.Fatal(err)
	}

	want := "\033[2;3H" + strings.Repeat("x", 3000)
	if out.String() != want {
		t.Fatalf("flushed %d bytes, want %d", out.Len(), len(want))
	}
	if len(out.sizes) != 3 {
		t.Errorf("writes = %v, want 3 chunks", out.sizes)
	}
	for _, n := range out.sizes {
		if n > maxChunkSize {
			t.Errorf("chunk of %d bytes exceeds %d", n, maxChunkSize)
		}
	}

	if err := cw.Flush(); err != nil || len(out.sizes) != 3 {
		t.Errorf("empty flush wrote again: %v, %v", out.sizes, err)
	}
}

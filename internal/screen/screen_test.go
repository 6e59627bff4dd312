package screen

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

var testField = object.Field{Width: 900, Height: 500}

func newSimScreen(t *testing.T) (tcell.SimulationScreen, *Screen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	s.SetSize(100, 30)
	sc := New(s, testField)
	t.Cleanup(sc.Close)
	return s, sc
}

// pollUntil polls until cond holds; events travel through a goroutine.
func pollUntil(t *testing.T, sc *Screen, cond func(input.Input) bool) input.Input {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if in := sc.Poll(); cond(in) {
			return in
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
	return input.Input{}
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want input.Key
	}{
		{tcell.KeyUp, 0, input.KeyUp},
		{tcell.KeyLeft, 0, input.KeyLeft},
		{tcell.KeyEnter, 0, input.KeyStart},
		{tcell.KeyEscape, 0, input.KeyMenu},
		{tcell.KeyCtrlC, 0, input.KeyQuit},
		{tcell.KeyRune, 'd', input.KeyRight},
		{tcell.KeyRune, ' ', input.KeyShoot},
		{tcell.KeyRune, 'r', input.KeyRestart},
		{tcell.KeyRune, 'é', input.KeyNone},
	}
	for _, tt := range tests {
		if got := KeyFor(tt.key, tt.r); got != tt.want {
			t.Errorf("KeyFor(%v, %q) = %v, want %v", tt.key, tt.r, got, tt.want)
		}
	}
}

func TestPollKeys(t *testing.T) {
	s, sc := newSimScreen(t)

	s.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'm', tcell.ModNone)
	pollUntil(t, sc, func(in input.Input) bool { return in.Up && in.Mute })
}

func TestRenderAndClick(t *testing.T) {
	s, sc := newSimScreen(t)
	g := loop.NewGame(loop.Options{Field: testField, Rand: rand.New(rand.NewPCG(5, 6))})

	if err := sc.Render(g.Frame()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	r, _, _, _ := s.GetContent(sc.view.OffCol, 0)
	if r != 'S' {
		t.Fatalf("HUD starts with %q, want 'S'", r)
	}
	r, _, _, _ = s.GetContent(sc.view.OffCol, sc.view.OffRow+sc.view.Rows-1)
	if r != '▀' {
		t.Fatalf("field cell = %q, want half block", r)
	}

	col := sc.view.OffCol + sc.view.Cols/2
	row := sc.view.OffRow + sc.view.Rows/2
	s.InjectMouse(col, row, tcell.Button1, tcell.ModNone)
	in := pollUntil(t, sc, func(in input.Input) bool { return in.Shoot })
	if !in.HasAim || in.AimX < 400 || in.AimX > 500 || in.AimY < 200 || in.AimY > 300 {
		t.Fatalf("click aimed at (%v, %v), want near the field center", in.AimX, in.AimY)
	}
}

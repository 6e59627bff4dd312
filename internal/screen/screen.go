// Package screen is a full-screen tcell frontend: it renders frames and turns
// keyboard and mouse events into input snapshots.
package screen

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/galaxyblaster/internal/draw"
	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

// hudRows is the number of rows reserved above the field.
const hudRows = 1

// Screen renders to a tcell screen and polls it for input.
// Render and Poll must be called from the same goroutine.
type Screen struct {
	s       tcell.Screen
	field   object.Field
	canvas  *draw.Canvas
	view    draw.Viewport
	events  chan tcell.Event
	done    chan struct{}
	tracker input.Tracker
	buttons tcell.ButtonMask
	cols    int
	rows    int
	now     func() time.Time
}

// Open creates and initializes a terminal screen with mouse reporting.
func Open(field object.Field) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	s.EnableMouse(tcell.MouseMotionEvents)
	s.HideCursor()
	return New(s, field), nil
}

// New wraps an initialized tcell screen and starts reading its events.
func New(s tcell.Screen, field object.Field) *Screen {
	sc := &Screen{
		s:      s,
		field:  field,
		canvas: draw.NewScaledCanvas(1, 1, field.Width, field.Height),
		events: make(chan tcell.Event, 256),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	go sc.pump()
	return sc
}

// pump forwards screen events until the screen is finalized.
func (sc *Screen) pump() {
	for {
		ev := sc.s.PollEvent()
		if ev == nil {
			close(sc.events)
			return
		}
		select {
		case sc.events <- ev:
		case <-sc.done:
			return
		}
	}
}

// Close restores the terminal.
func (sc *Screen) Close() {
	close(sc.done)
	sc.s.Fini()
}

// Poll implements loop.InputSource.
func (sc *Screen) Poll() input.Input {
	now := sc.now()
	closed := false

drain:
	for {
		select {
		case ev, ok := <-sc.events:
			if !ok {
				closed = true
				break drain
			}
			sc.handle(ev, now)
		default:
			break drain
		}
	}

	in := sc.tracker.Snapshot(now)
	if closed {
		in.Quit = true
	}
	return in
}

func (sc *Screen) handle(ev tcell.Event, now time.Time) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		sc.tracker.Press(KeyFor(ev.Key(), ev.Rune()), now)
	case *tcell.EventMouse:
		col, row := ev.Position()
		x, y, ok := sc.view.ToLogical(col+1, row+1)
		if !ok {
			sc.buttons = ev.Buttons()
			return
		}
		pressed := ev.Buttons()&tcell.Button1 != 0 && sc.buttons&tcell.Button1 == 0
		sc.buttons = ev.Buttons()
		if pressed {
			sc.tracker.Click(x, y)
		} else {
			sc.tracker.Aim(x, y)
		}
	case *tcell.EventResize:
		sc.s.Sync()
	}
}

// KeyFor maps a tcell key to a game key.
func KeyFor(k tcell.Key, r rune) input.Key {
	switch k {
	case tcell.KeyUp:
		return input.KeyUp
	case tcell.KeyDown:
		return input.KeyDown
	case tcell.KeyLeft:
		return input.KeyLeft
	case tcell.KeyRight:
		return input.KeyRight
	case tcell.KeyEnter:
		return input.KeyStart
	case tcell.KeyEscape:
		return input.KeyMenu
	case tcell.KeyCtrlC:
		return input.KeyQuit
	case tcell.KeyRune:
		if r < 0x80 {
			return input.KeyForByte(byte(r))
		}
	}
	return input.KeyNone
}

// Render implements loop.Renderer.
func (sc *Screen) Render(f *loop.Frame) error {
	cols, rows := sc.s.Size()
	if cols != sc.cols || rows != sc.rows {
		sc.layout(cols, rows)
	}

	draw.DrawFrame(sc.canvas, f)
	for row := 0; row < sc.view.Rows; row++ {
		for col := 0; col < sc.view.Cols; col++ {
			top, bottom := sc.canvas.Cell(col, row)
			style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
			sc.s.SetContent(col+sc.view.OffCol, row+sc.view.OffRow, draw.BlockUpperHalf, nil, style)
		}
	}

	sc.drawHUD(f.HUD)
	if p, ok := draw.PanelFor(f); ok {
		sc.drawPanel(p)
	}
	sc.s.Show()
	return nil
}

func (sc *Screen) layout(cols, rows int) {
	sc.cols, sc.rows = cols, rows
	w, h, offCol, offRow := draw.Fit(cols, rows-hudRows, sc.field.Width, sc.field.Height)
	sc.canvas.Resize(w, h)
	sc.view = draw.Viewport{
		Cols:   w,
		Rows:   h,
		OffCol: offCol,
		OffRow: offRow + hudRows,
		ScaleX: float64(w) / sc.field.Width,
		ScaleY: float64(h*2) / sc.field.Height,
	}
	sc.s.Clear()
}

func (sc *Screen) drawHUD(h loop.HUD) {
	bg := tcell.StyleDefault.Background(rgb(object.ColorBackground))
	for col := 0; col < sc.cols; col++ {
		sc.s.SetContent(col, 0, ' ', nil, bg)
	}
	col := sc.view.OffCol
	for _, s := range draw.HUDSegments(h) {
		col = sc.text(col, 0, s, object.ColorBackground)
	}
}

func (sc *Screen) drawPanel(p draw.Panel) {
	inner := p.Width() + 4
	height := len(p.Lines) + 4
	left := sc.view.OffCol + max((sc.view.Cols-inner-2)/2, 0)
	top := sc.view.OffRow + max((sc.view.Rows-height)/2, 0)

	border := tcell.StyleDefault.Foreground(rgb(p.Title.Color)).Background(rgb(object.ColorBackground))
	fill := tcell.StyleDefault.Background(rgb(object.ColorBackground))
	for y := 0; y < height; y++ {
		for x := 0; x <= inner+1; x++ {
			ch, style := ' ', fill
			switch {
			case (y == 0 || y == height-1) && (x == 0 || x == inner+1):
				ch, style = corner(x == 0, y == 0), border
			case y == 0 || y == height-1:
				ch, style = tcell.RuneHLine, border
			case x == 0 || x == inner+1:
				ch, style = tcell.RuneVLine, border
			}
			sc.s.SetContent(left+x, top+y, ch, nil, style)
		}
	}

	centered := func(row int, s draw.Segment) {
		w := len([]rune(s.Text))
		sc.text(left+1+(inner-w)/2, row, s, object.ColorBackground)
	}
	centered(top+1, p.Title)
	for i, l := range p.Lines {
		centered(top+3+i, l)
	}
}

func corner(left, top bool) rune {
	switch {
	case left && top:
		return tcell.RuneULCorner
	case top:
		return tcell.RuneURCorner
	case left:
		return tcell.RuneLLCorner
	default:
		return tcell.RuneLRCorner
	}
}

// text writes s at (col, row) and returns the column after it.
func (sc *Screen) text(col, row int, s draw.Segment, bg object.Color) int {
	style := tcell.StyleDefault.Foreground(rgb(s.Color)).Background(rgb(bg)).Bold(s.Bold)
	for _, r := range s.Text {
		sc.s.SetContent(col, row, r, nil, style)
		col++
	}
	return col
}

func rgb(c object.Color) tcell.Color {
	r, g, b := c.RGB()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

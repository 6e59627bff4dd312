package draw

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

// hudRows is the number of terminal rows reserved above the field.
const hudRows = 1

// Viewport maps terminal cells to field coordinates for one canvas layout.
type Viewport struct {
	Cols, Rows     int // Canvas size in cells
	OffCol, OffRow int // 0-based terminal offsets of the canvas
	ScaleX, ScaleY float64
}

// ToLogical converts a 1-based terminal cell to field coordinates.
// ok is false outside the canvas.
func (v Viewport) ToLogical(col, row int) (x, y float64, ok bool) {
	cx := col - 1 - v.OffCol
	cy := row - 1 - v.OffRow
	if cx < 0 || cx >= v.Cols || cy < 0 || cy >= v.Rows || v.ScaleX == 0 || v.ScaleY == 0 {
		return 0, 0, false
	}
	return (float64(cx) + 0.5) / v.ScaleX, (float64(cy*2) + 1) / v.ScaleY, true
}

// Terminal renders frames to an ANSI true-color terminal: the field as
// half blocks, the HUD on the top row and lipgloss-styled message boxes.
type Terminal struct {
	cw     *ChunkWriter
	size   TermSizeFunc
	field  object.Field
	canvas *Canvas
	styles *lipgloss.Renderer
	cols   int
	rows   int
	view   atomic.Pointer[Viewport]
}

// NewTerminal creates a renderer writing to w. size reports the terminal
// dimensions and is polled every frame to follow resizes.
func NewTerminal(w io.Writer, size TermSizeFunc, field object.Field) *Terminal {
	styles := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.TrueColor))
	styles.SetColorProfile(termenv.TrueColor)
	styles.SetHasDarkBackground(true)

	t := &Terminal{
		cw:     NewChunkWriter(w),
		size:   size,
		field:  field,
		canvas: NewScaledCanvas(1, 1, field.Width, field.Height),
		styles: styles,
	}
	t.view.Store(&Viewport{})
	return t
}

// PointerToField converts a 1-based terminal cell to field coordinates using
// the most recent layout. It is safe to call from any goroutine.
func (t *Terminal) PointerToField(col, row int) (float64, float64, bool) {
	return t.view.Load().ToLogical(col, row)
}

// Render implements loop.Renderer.
func (t *Terminal) Render(f *loop.Frame) error {
	cols, rows, err := t.size()
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}
	if cols != t.cols || rows != t.rows {
		t.layout(cols, rows)
	}

	DrawFrame(t.canvas, f)
	if err := t.canvas.Render(t.cw); err != nil {
		return err
	}
	t.drawHUD(f.HUD)
	if p, ok := PanelFor(f); ok {
		t.drawPanel(p)
	}
	return t.cw.Flush()
}

// Close restores the default attributes.
func (t *Terminal) Close() error {
	ClearScreen(t.cw)
	return t.cw.Flush()
}

func (t *Terminal) layout(cols, rows int) {
	t.cols, t.rows = cols, rows
	w, h, offCol, offRow := Fit(cols, rows-hudRows, t.field.Width, t.field.Height)
	t.canvas.Resize(w, h)
	t.canvas.SetOffset(offCol, offRow+hudRows)
	ClearScreen(t.cw)

	t.view.Store(&Viewport{
		Cols:   w,
		Rows:   h,
		OffCol: offCol,
		OffRow: offRow + hudRows,
		ScaleX: float64(w) / t.field.Width,
		ScaleY: float64(h*2) / t.field.Height,
	})
}

func (t *Terminal) style(s Segment) lipgloss.Style {
	return t.styles.NewStyle().
		Foreground(lipgloss.Color(hexColor(s.Color))).
		Bold(s.Bold)
}

func (t *Terminal) drawHUD(h loop.HUD) {
	var b strings.Builder
	for _, s := range HUDSegments(h) {
		b.WriteString(t.style(s).Render(s.Text))
	}
	t.cw.WriteAt(1, 1, "\033[0m\033[2K")
	t.cw.WriteAt(t.canvas.OffsetCol()+1, 1, b.String())
}

func (t *Terminal) drawPanel(p Panel) {
	lines := make([]string, 0, len(p.Lines)+2)
	lines = append(lines, t.style(p.Title).Render(p.Title.Text), "")
	for _, l := range p.Lines {
		lines = append(lines, t.style(l).Render(l.Text))
	}

	box := t.styles.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(hexColor(p.Title.Color))).
		Background(lipgloss.Color(hexColor(object.ColorBackground))).
		Padding(0, 2).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))

	rendered := strings.Split(box, "\n")
	width := lipgloss.Width(box)
	col := t.canvas.OffsetCol() + max((t.canvas.TerminalWidth()-width)/2, 0) + 1
	row := t.canvas.OffsetRow() + max((t.canvas.TerminalHeight()-len(rendered))/2, 0) + 1

	for i, line := range rendered {
		t.cw.WriteAt(col, row+i, line)
		// Canvas cells under the box must be repainted once it goes away.
		t.canvas.MarkDirty(col-t.canvas.OffsetCol(), row+i-t.canvas.OffsetRow(), width)
	}
	t.cw.WriteString("\033[0m")
}

func hexColor(c object.Color) string {
	return fmt.Sprintf("#%06x", uint32(c))
}

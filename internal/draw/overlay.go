package draw

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/object"
)

// Segment is a run of styled text.
type Segment struct {
	Text  string
	Color object.Color
	Bold  bool
}

// hpBarWidth is the number of cells in the HUD health bar.
const hpBarWidth = 12

// HUDSegments lays out the status line: score, high score, health bar and
// sound state. The bar turns red when health is low.
func HUDSegments(h loop.HUD) []Segment {
	filled := int(math.Round(h.HPFraction * hpBarWidth))
	filled = min(max(filled, 0), hpBarWidth)
	barColor := object.ColorHealth
	if h.Danger {
		barColor = object.ColorDanger
	}
	sound := "sound on"
	if h.Muted {
		sound = "muted"
	}

	return []Segment{
		{Text: fmt.Sprintf("Score: %d", h.Score), Color: object.ColorText, Bold: true},
		{Text: fmt.Sprintf(" • High: %d  ", h.HighScore), Color: object.ColorText},
		{Text: "HP ", Color: object.ColorText},
		{Text: strings.Repeat(string(BlockFull), filled), Color: barColor},
		{Text: strings.Repeat(string(BlockLight), hpBarWidth-filled), Color: barColor},
		{Text: "  [m] " + sound, Color: object.ColorStar},
	}
}

// Panel is a centered message box.
type Panel struct {
	Title Segment
	Lines []Segment
}

// PanelFor returns the message box for the frame's state, if any.
func PanelFor(f *loop.Frame) (Panel, bool) {
	hint := object.ColorStar
	switch f.State {
	case loop.StateMenu:
		return Panel{
			Title: Segment{Text: "GALAXY BLASTER", Color: object.ColorPlayer, Bold: true},
			Lines: []Segment{
				{Text: "Survive the swarm. Shoot everything.", Color: object.ColorText},
				{Text: "WASD / arrows move · mouse aims", Color: hint},
				{Text: "space / click shoot · m mute · q quit", Color: hint},
				{Text: fmt.Sprintf("Best: %d", f.HUD.HighScore), Color: object.ColorBullet},
				{Text: "Press ENTER or SPACE to start", Color: object.ColorText, Bold: true},
			},
		}, true
	case loop.StateGameOver:
		best := Segment{Text: fmt.Sprintf("Best: %d", f.HUD.HighScore), Color: object.ColorBullet}
		if f.NewHighScore {
			best = Segment{Text: "New high score!", Color: object.ColorPlayer, Bold: true}
		}
		return Panel{
			Title: Segment{Text: "GAME OVER", Color: object.ColorDanger, Bold: true},
			Lines: []Segment{
				{Text: fmt.Sprintf("Score: %d", f.HUD.Score), Color: object.ColorText, Bold: true},
				best,
				{Text: "r restart · esc menu · q quit", Color: hint},
			},
		}, true
	}
	return Panel{}, false
}

// Width returns the widest line of the panel in cells.
func (p Panel) Width() int {
	w := lipgloss.Width(p.Title.Text)
	for _, l := range p.Lines {
		w = max(w, lipgloss.Width(l.Text))
	}
	return w
}

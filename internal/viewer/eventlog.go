package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Rat-Sense/internal/game"
)

const (
	logPanelWidth = 360
	logMaxEntries = 80
	logLineHeight = 14
)

// LogLine is a single row in the event log.
type LogLine struct {
	Tick    int
	Phase   game.Phase
	Warning bool
	Message string
}

// EventLog is a ring buffer of tick descriptions rendered on-screen.
type EventLog struct {
	entries []LogLine
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]LogLine, logMaxEntries)}
}

// Add appends a line, overwriting the oldest once full.
func (el *EventLog) Add(line LogLine) {
	el.entries[el.head] = line
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// AddResult appends the description of one tick.
func (el *EventLog) AddResult(res game.TickResult) {
	el.Add(LogLine{
		Tick:    res.Tick,
		Phase:   res.Phase,
		Warning: res.Warning != nil,
		Message: res.Description,
	})
}

// Len is the number of stored lines.
func (el *EventLog) Len() int { return el.count }

// Reset drops every line.
func (el *EventLog) Reset() {
	el.head, el.count = 0, 0
}

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []LogLine {
	result := make([]LogLine, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

func phaseColor(p game.Phase) color.RGBA {
	switch p {
	case game.PhaseLocalizing:
		return color.RGBA{R: 90, G: 130, B: 220, A: 255}
	case game.PhaseTracking:
		return color.RGBA{R: 220, G: 150, B: 60, A: 255}
	default:
		return color.RGBA{R: 80, G: 200, B: 90, A: 255}
	}
}

// Draw renders the log panel at panelX, newest line at the bottom.
func (el *EventLog) Draw(screen *ebiten.Image, face text.Face, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 80, A: 255}, false)
	vector.FillRect(screen, float32(panelX), 0, logPanelWidth, 18, color.RGBA{R: 20, G: 26, B: 36, A: 255}, false)
	drawText(screen, face, "EVENT LOG", panelX+8, 3, color.White)

	entries := el.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const recent = 3

	y := 22
	for i, e := range entries {
		if i >= len(entries)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 36, B: 48, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, phaseColor(e.Phase), false)

		txt := color.RGBA{R: 200, G: 200, B: 200, A: 255}
		if e.Warning {
			txt = color.RGBA{R: 240, G: 190, B: 80, A: 255}
		}
		drawText(screen, face, fmt.Sprintf("%4d %s", e.Tick, e.Message), panelX+12, y, txt)
		y += logLineHeight
	}
}

func drawText(dst *ebiten.Image, face text.Face, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, face, op)
}

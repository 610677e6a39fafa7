package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/battlegrid/internal/sim"
)

const (
	panelWidth      = 300
	panelMaxEntries = 60
	panelLineHeight = 11
)

// EventPanel is a ring buffer of the most recent simulation events, rendered
// on the right side of the screen.
type EventPanel struct {
	entries []sim.Event
	head    int
	count   int
	seen    int // events already pulled from the world's log
}

func NewEventPanel() *EventPanel {
	return &EventPanel{entries: make([]sim.Event, panelMaxEntries)}
}

// Add appends an entry, overwriting the oldest when full.
func (p *EventPanel) Add(e sim.Event) {
	p.entries[p.head] = e
	p.head = (p.head + 1) % panelMaxEntries
	if p.count < panelMaxEntries {
		p.count++
	}
}

// Pull copies every event recorded since the last call.
func (p *EventPanel) Pull(el *sim.EventLog) {
	for _, e := range el.Since(p.seen) {
		p.Add(e)
	}
	p.seen = el.Total()
}

// Recent returns entries oldest first.
func (p *EventPanel) Recent() []sim.Event {
	out := make([]sim.Event, p.count)
	for i := 0; i < p.count; i++ {
		idx := (p.head - p.count + i + panelMaxEntries) % panelMaxEntries
		out[i] = p.entries[idx]
	}
	return out
}

func (p *EventPanel) Draw(screen *ebiten.Image, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, panelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, panelWidth, 16, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+panelWidth), 16, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := p.Recent()
	maxVisible := (panelH - 24) / panelLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	const highlight = 3 // newest rows get a background
	y := 20
	for i, e := range entries {
		if i >= len(entries)-highlight {
			vector.FillRect(screen, float32(panelX+2), float32(y), panelWidth-4, panelLineHeight, color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		line := fmt.Sprintf("%4d %-3s %s %s", e.Tick, e.Agent, e.Key, e.Value)
		ebitenutil.DebugPrintAt(screen, line, panelX+6, y)
		y += panelLineHeight
	}
}

// Package termview renders a sim.World in a terminal and drives it from the
// keyboard. It is a text-mode counterpart to the ebiten front end.
package termview

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jakecoffman/cp"
	"github.com/zyedidia/generic/mapset"

	"github.com/Garsondee/battlegrid/internal/nav"
	"github.com/Garsondee/battlegrid/internal/sim"
)

// statusRows is the number of terminal rows kept below the map.
const statusRows = 2

var cellStyles = map[nav.Classification]tcell.Style{
	nav.Empty:      tcell.StyleDefault.Foreground(tcell.ColorGray),
	nav.Walkable:   tcell.StyleDefault.Foreground(tcell.NewRGBColor(90, 120, 70)),
	nav.Unwalkable: tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.NewRGBColor(70, 70, 70)),
	nav.Path:       tcell.StyleDefault.Foreground(tcell.ColorAqua),
	nav.Start:      tcell.StyleDefault.Foreground(tcell.ColorLime),
	nav.End:        tcell.StyleDefault.Foreground(tcell.ColorRed),
	nav.Neighbor:   tcell.StyleDefault.Foreground(tcell.ColorYellow),
}

var (
	agentStyle    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	selectedStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// View draws a world onto a tcell screen, one terminal cell per grid cell.
type View struct {
	screen tcell.Screen
	world  *sim.World

	cursorX, cursorY int // grid cell under the cursor
	scrollX, scrollY int // grid cell at the top-left of the screen
	mode             nav.PlaceMode
	selected         mapset.Set[sim.AgentID]
	paused           bool
	status           string
}

func New(screen tcell.Screen, w *sim.World) *View {
	return &View{
		screen:   screen,
		world:    w,
		mode:     nav.PlaceWall,
		selected: mapset.New[sim.AgentID](),
	}
}

// Draw renders the visible part of the map and the status lines.
func (v *View) Draw() {
	v.screen.Clear()
	sw, sh := v.screen.Size()
	mapH := sh - statusRows
	v.scrollToCursor(sw, mapH)

	for _, c := range v.world.Cells() {
		x, y := c.X-v.scrollX, c.Y-v.scrollY
		if x < 0 || y < 0 || x >= sw || y >= mapH {
			continue
		}
		v.screen.SetContent(x, y, c.Kind.Glyph(), nil, cellStyles[c.Kind])
	}

	t := v.world.Terrain()
	for _, a := range v.world.Agents() {
		c, ok := t.CellAt(a.Pos)
		if !ok {
			continue
		}
		x, y := c.X-v.scrollX, c.Y-v.scrollY
		if x < 0 || y < 0 || x >= sw || y >= mapH {
			continue
		}
		style := agentStyle
		if v.selected.Has(a.ID) {
			style = selectedStyle
		}
		v.screen.SetContent(x, y, '@', nil, style)
	}

	cx, cy := v.cursorX-v.scrollX, v.cursorY-v.scrollY
	prim, _, style, _ := v.screen.GetContent(cx, cy)
	v.screen.SetContent(cx, cy, prim, nil, style.Reverse(true))

	state := "run"
	if v.paused {
		state = "paused"
	}
	v.putLine(mapH, fmt.Sprintf("tick %d  %s  place=%s  selected=%d  cursor=(%d,%d)",
		v.world.TickCount(), state, v.mode, v.selected.Size(), v.cursorX, v.cursorY))
	v.putLine(mapH+1, v.status)
	v.screen.Show()
}

func (v *View) putLine(y int, s string) {
	x := 0
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, statusStyle)
		x++
	}
}

// scrollToCursor keeps the cursor inside a w×h viewport.
func (v *View) scrollToCursor(w, h int) {
	if v.cursorX < v.scrollX {
		v.scrollX = v.cursorX
	}
	if v.cursorY < v.scrollY {
		v.scrollY = v.cursorY
	}
	if w > 0 && v.cursorX >= v.scrollX+w {
		v.scrollX = v.cursorX - w + 1
	}
	if h > 0 && v.cursorY >= v.scrollY+h {
		v.scrollY = v.cursorY - h + 1
	}
}

// cursorPoint is the world anchor of the cell under the cursor.
func (v *View) cursorPoint() cp.Vector {
	return v.world.Terrain().Anchor(nav.Cell{X: v.cursorX, Y: v.cursorY})
}

func (v *View) moveCursor(dx, dy int) {
	t := v.world.Terrain()
	if t.InBounds(v.cursorX+dx, v.cursorY+dy) {
		v.cursorX += dx
		v.cursorY += dy
	}
}

// HandleEvent applies one input event. It returns false when the user asked
// to quit.
//
//	arrows/hjkl  move cursor        1-4    place mode
//	enter        place at cursor    n      spawn at cursor
//	s            toggle selection   a      select all
//	m            move selected      p      path overlay
//	space        pause              q/esc  quit
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			v.moveCursor(0, -1)
		case tcell.KeyDown:
			v.moveCursor(0, 1)
		case tcell.KeyLeft:
			v.moveCursor(-1, 0)
		case tcell.KeyRight:
			v.moveCursor(1, 0)
		case tcell.KeyEnter:
			v.world.Place(v.mode, v.cursorPoint())
		case tcell.KeyRune:
			return v.handleRune(ev.Rune())
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *View) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case 'k':
		v.moveCursor(0, -1)
	case 'j':
		v.moveCursor(0, 1)
	case 'h':
		v.moveCursor(-1, 0)
	case 'l':
		v.moveCursor(1, 0)
	case '1':
		v.mode = nav.PlaceStart
	case '2':
		v.mode = nav.PlaceEnd
	case '3':
		v.mode = nav.PlaceWall
	case '4':
		v.mode = nav.PlaceWalkable
	case 'n':
		v.world.Spawn(v.cursorPoint())
	case 's':
		v.toggleSelectAtCursor()
	case 'a':
		for _, a := range v.world.Agents() {
			v.selected.Put(a.ID)
		}
	case 'm':
		v.orderMove()
	case 'p':
		v.world.SetPathOverlay(!v.world.PathOverlay())
	case ' ':
		v.paused = !v.paused
	}
	return true
}

func (v *View) toggleSelectAtCursor() {
	t := v.world.Terrain()
	for _, a := range v.world.Agents() {
		c, ok := t.CellAt(a.Pos)
		if !ok || c.X != v.cursorX || c.Y != v.cursorY {
			continue
		}
		if v.selected.Has(a.ID) {
			v.selected.Remove(a.ID)
		} else {
			v.selected.Put(a.ID)
		}
	}
}

func (v *View) orderMove() {
	if v.selected.Size() == 0 {
		v.status = "nothing selected"
		return
	}
	ids := make([]sim.AgentID, 0, v.selected.Size())
	v.selected.Each(func(id sim.AgentID) { ids = append(ids, id) })
	attached := 0
	for _, o := range v.world.Move(sim.NewMoveOrder(v.cursorPoint(), ids...)) {
		if o.Result == sim.MoveAttached {
			attached++
		}
	}
	v.status = fmt.Sprintf("move: %d/%d routed to (%d,%d)", attached, len(ids), v.cursorX, v.cursorY)
}

// Step ticks the world by dt unless paused.
func (v *View) Step(dt float64) {
	if !v.paused {
		v.world.Tick(dt)
	}
}

// Run polls input and ticks the world every period until the user quits or
// ctx is done.
func (v *View) Run(ctx context.Context, period time.Duration) error {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go v.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok || !v.HandleEvent(ev) {
				return nil
			}
			v.Draw()
		case <-ticker.C:
			v.Step(period.Seconds())
			v.Draw()
		}
	}
}

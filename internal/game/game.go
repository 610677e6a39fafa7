// Package game is the ebiten front end: it draws the world, turns mouse and
// keyboard input into terrain edits and move orders, and ticks the
// simulation once per frame.
package game

import (
	"fmt"
	"io"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/Garsondee/battlegrid/internal/config"
	"github.com/Garsondee/battlegrid/internal/level"
	"github.com/Garsondee/battlegrid/internal/nav"
	"github.com/Garsondee/battlegrid/internal/sim"
)

// statusSeconds is how long a HUD status message stays up.
const statusSeconds = 3.0

type Game struct {
	world *sim.World
	log   logrus.FieldLogger

	width, height int // window
	playW         int // playfield width; the event panel takes the rest
	cam           camera
	markerTTL     float64

	// Level source and hot reload.
	levelPath  string
	levelIndex int
	watcher    *level.Watcher

	// Interaction state.
	placeMode nav.PlaceMode
	selected  mapset.Set[sim.AgentID]
	box       selectionBox
	markers   markers
	paused    bool
	showHUD   bool

	panel     *EventPanel
	status    string
	statusTTL float64

	copyText func(string) error

	prevKeys       map[ebiten.Key]bool
	prevMouseLeft  bool
	prevMouseRight bool
}

// Option configures a Game.
type Option func(*Game)

// WithRender applies the window, tile and marker settings.
func WithRender(rc config.RenderConfig) Option {
	return func(g *Game) {
		g.width, g.height = rc.WindowWidth, rc.WindowHeight
		g.cam.tilePixels = float64(rc.TilePixels)
		g.markerTTL = rc.MarkerTTL
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Game) { g.log = l }
}

// WithLevel sets where R (and the watcher, if any) reloads terrain from. An
// empty path reloads the embedded map.
func WithLevel(path string, index int, w *level.Watcher) Option {
	return func(g *Game) {
		g.levelPath, g.levelIndex, g.watcher = path, index, w
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(g *Game) { g.copyText = fn }
}

func New(w *sim.World, opts ...Option) *Game {
	def := config.Default().Render
	g := &Game{
		world:     w,
		width:     def.WindowWidth,
		height:    def.WindowHeight,
		cam:       newCamera(def.TilePixels, 0, 0),
		markerTTL: def.MarkerTTL,
		placeMode: nav.PlaceWall,
		selected:  mapset.New[sim.AgentID](),
		panel:     NewEventPanel(),
		showHUD:   true,
		copyText:  clipboard.WriteAll,
		prevKeys:  make(map[ebiten.Key]bool),
	}
	for _, o := range opts {
		o(g)
	}
	if g.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		g.log = quiet
	}
	g.playW = g.width - panelWidth
	if g.playW < 1 {
		g.playW = g.width
	}
	g.cam.vpW, g.cam.vpH = float64(g.playW), float64(g.height)
	g.fitCamera()
	g.panel.Pull(w.Events())
	return g
}

// fitCamera centres the terrain and zooms so all of it is visible.
func (g *Game) fitCamera() {
	t := g.world.Terrain()
	g.cam.pos = t.Origin().Add(cp.Vector{X: float64(t.Width()-1) / 2, Y: float64(t.Height()-1) / 2})
	fit := math.Min(g.cam.vpW/float64(t.Width()), g.cam.vpH/float64(t.Height())) / g.cam.tilePixels
	g.cam.zoom = math.Max(zoomMin, math.Min(zoomMax, fit))
}

func (g *Game) Update() error {
	g.handleInput()
	g.drainWatcher()
	g.step(1 / float64(ebiten.TPS()))
	return nil
}

// step advances everything time-based by dt seconds. Markers and status
// messages fade even while paused.
func (g *Game) step(dt float64) {
	g.markers.update(dt)
	if g.statusTTL > 0 {
		g.statusTTL -= dt
	}
	if !g.paused {
		g.world.Tick(dt)
	}
	g.panel.Pull(g.world.Events())
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Size returns the window size in pixels.
func (g *Game) Size() (int, int) {
	return g.width, g.height
}

func (g *Game) setStatus(format string, args ...any) {
	g.status = fmt.Sprintf(format, args...)
	g.statusTTL = statusSeconds
}

// --- actions ---

// placeAt applies the current place mode at world point p.
func (g *Game) placeAt(p cp.Vector) {
	g.world.Place(g.placeMode, p)
}

// spawnAt adds an agent at p when p is on the grid.
func (g *Game) spawnAt(p cp.Vector) {
	if _, ok := g.world.Terrain().CellAt(p); !ok {
		return
	}
	id := g.world.Spawn(p)
	g.log.WithField("agent", int(id)).Debug("spawned from input")
}

// orderMove sends the selected agents to p. A marker acknowledges the order
// when at least one agent got a route.
func (g *Game) orderMove(p cp.Vector) []sim.MoveOutcome {
	if g.selected.Size() == 0 {
		return nil
	}
	ids := make([]sim.AgentID, 0, g.selected.Size())
	g.selected.Each(func(id sim.AgentID) { ids = append(ids, id) })

	out := g.world.Move(sim.NewMoveOrder(p, ids...))
	attached := 0
	for _, o := range out {
		if o.Result == sim.MoveAttached {
			attached++
		}
	}
	if attached > 0 {
		if c, ok := g.world.Terrain().CellAt(p); ok {
			g.markers.add(g.world.Terrain().Anchor(c), g.markerTTL)
		}
	} else {
		g.setStatus("no route to (%.1f, %.1f)", p.X, p.Y)
	}
	return out
}

// finishSelection replaces the selection with the agents inside the box, or
// with the agent under the cursor for a click.
func (g *Game) finishSelection() {
	agents := g.world.Agents()
	if g.box.isClick() {
		g.selected = mapset.New[sim.AgentID]()
		p := cp.Vector{X: g.box.start[0], Y: g.box.start[1]}
		if id, ok := nearestAgent(p, agents); ok {
			g.selected.Put(id)
		}
	} else {
		g.selected = selectAgents(g.box.bound(), agents)
	}
	g.box.active = false
}

func (g *Game) toggleOverlay() {
	g.world.SetPathOverlay(!g.world.PathOverlay())
}

func (g *Game) toggleBroadphase() {
	next := sim.BroadphaseRTree
	if g.world.Avoidance().Broadphase == sim.BroadphaseRTree {
		next = sim.BroadphasePairwise
	}
	g.world.SetBroadphase(next)
	g.setStatus("broadphase: %s", next)
}

// copyReport puts the world report on the clipboard.
func (g *Game) copyReport() {
	if err := g.copyText(g.world.Report()); err != nil {
		g.log.WithError(err).Warn("clipboard copy failed")
		g.setStatus("copy failed: %v", err)
		return
	}
	g.setStatus("report copied")
}

// reloadLevel re-imports the terrain. Markers go too, since every route
// was dropped.
func (g *Game) reloadLevel() {
	src, err := level.Open(g.levelPath, g.levelIndex)
	if err != nil {
		g.log.WithError(err).Warn("level reload failed")
		g.setStatus("reload failed: %v", err)
		return
	}
	if _, err := g.world.ReloadTerrain(src); err != nil {
		g.log.WithError(err).Warn("level reload failed")
		g.setStatus("reload failed: %v", err)
		return
	}
	g.markers = g.markers[:0]
	g.setStatus("level %q reloaded", src.Name())
}

// drainWatcher reloads once for any number of pending file events.
func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	changed, open := false, true
	for open {
		select {
		case _, ok := <-g.watcher.Events:
			if !ok {
				open = false
				break
			}
			changed = true
		case err, ok := <-g.watcher.Errors:
			if !ok {
				open = false
				break
			}
			g.log.WithError(err).Warn("level watcher")
		default:
			if changed {
				g.reloadLevel()
			}
			return
		}
	}
	g.watcher = nil
	if changed {
		g.reloadLevel()
	}
}

package sim

import (
	"fmt"
	"io"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/battlegrid/internal/nav"
)

const (
	DefaultGridWidth  = 47
	DefaultGridHeight = 36
)

// World owns the terrain, the agents and the pending move orders, and
// advances them one tick at a time.
//
// A World is single-threaded: every call, including terrain edits, must
// come from the goroutine that calls Tick.
type World struct {
	terrain *nav.Terrain
	agents  []*Agent // spawn order
	byID    map[AgentID]*Agent
	nextID  AgentID
	pending []MoveOrder

	move    MovementParams
	avoid   AvoidanceParams
	radius  float64 // spawn radius
	overlay bool    // mark the Start→End route every tick

	gridW, gridH int
	origin       *cp.Vector
	log          logrus.FieldLogger
	events       *EventLog
	tick         int
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra optionKind = iota // terrain, tuning and logging
	optAgent                   // spawns, once the terrain exists
)

// Option configures a World during NewWorld.
type Option struct {
	kind optionKind
	fn   func(*World)
}

// WithGridSize creates a fresh all-Walkable terrain of the given size.
func WithGridSize(w, h int) Option {
	return Option{optInfra, func(wd *World) {
		wd.gridW, wd.gridH = w, h
	}}
}

// WithOrigin places cell (0,0)'s anchor at o in world space.
func WithOrigin(o cp.Vector) Option {
	return Option{optInfra, func(wd *World) {
		wd.origin = &o
	}}
}

// WithTerrain uses an existing terrain. The World takes ownership.
func WithTerrain(t *nav.Terrain) Option {
	return Option{optInfra, func(wd *World) {
		wd.terrain = t
	}}
}

// WithMovement overrides the path-following tuning.
func WithMovement(p MovementParams) Option {
	return Option{optInfra, func(wd *World) {
		wd.move = p
	}}
}

// WithAvoidance overrides the avoidance tuning.
func WithAvoidance(p AvoidanceParams) Option {
	return Option{optInfra, func(wd *World) {
		wd.avoid = p
	}}
}

// WithRadius sets the collision radius given to spawned agents.
func WithRadius(r float64) Option {
	return Option{optInfra, func(wd *World) {
		wd.radius = r
	}}
}

// WithPathOverlay turns the per-tick Start→End route marking on or off.
func WithPathOverlay(on bool) Option {
	return Option{optInfra, func(wd *World) {
		wd.overlay = on
	}}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) Option {
	return Option{optInfra, func(wd *World) {
		wd.log = l
	}}
}

// WithEventLog records simulation events into el.
func WithEventLog(el *EventLog) Option {
	return Option{optInfra, func(wd *World) {
		wd.events = el
	}}
}

// WithAgent spawns an agent at world position (x, y).
func WithAgent(x, y float64) Option {
	return Option{optAgent, func(wd *World) {
		wd.Spawn(cp.Vector{X: x, Y: y})
	}}
}

// NewWorld constructs a World from the given options in ordered passes:
//  1. Infrastructure (terrain, tuning, logging)
//  2. Terrain (default 47×36 Walkable when none was given)
//  3. Agents
func NewWorld(opts ...Option) (*World, error) {
	w := &World{
		byID:    make(map[AgentID]*Agent),
		move:    DefaultMovement(),
		avoid:   DefaultAvoidance(),
		radius:  DefaultRadius,
		overlay: true,
		gridW:   DefaultGridWidth,
		gridH:   DefaultGridHeight,
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(w)
		}
	}
	if w.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		w.log = quiet
	}
	if w.events == nil {
		w.events = NewEventLog(false)
	}
	if err := w.move.Validate(); err != nil {
		return nil, err
	}
	if err := w.avoid.Validate(); err != nil {
		return nil, err
	}
	if !(w.radius > 0) {
		return nil, fmt.Errorf("%w: radius=%v", ErrInvalidParams, w.radius)
	}
	if w.terrain == nil {
		t, err := nav.New(w.gridW, w.gridH)
		if err != nil {
			return nil, fmt.Errorf("sim: new world: %w", err)
		}
		w.terrain = t
	}
	if w.origin != nil {
		w.terrain.SetOrigin(*w.origin)
	}
	for _, o := range opts {
		if o.kind == optAgent {
			o.fn(w)
		}
	}
	return w, nil
}

// Terrain returns the world's terrain. Edits made through it are seen by
// the next search.
func (w *World) Terrain() *nav.Terrain { return w.terrain }

// Events returns the event record.
func (w *World) Events() *EventLog { return w.events }

// TickCount returns the number of completed ticks.
func (w *World) TickCount() int { return w.tick }

// Movement returns the path-following tuning.
func (w *World) Movement() MovementParams { return w.move }

// Avoidance returns the avoidance tuning.
func (w *World) Avoidance() AvoidanceParams { return w.avoid }

// SetBroadphase switches the avoidance broad phase.
func (w *World) SetBroadphase(b Broadphase) { w.avoid.Broadphase = b }

// SetPathOverlay turns the Start→End route marking on or off. Turning it
// off clears any marking left behind.
func (w *World) SetPathOverlay(on bool) {
	w.overlay = on
	if !on {
		w.terrain.ClearPathMarkings()
	}
}

// PathOverlay reports whether the Start→End route is marked each tick.
func (w *World) PathOverlay() bool { return w.overlay }

// Spawn adds an idle agent at pos with the world's spawn radius.
func (w *World) Spawn(pos cp.Vector) AgentID {
	id := w.nextID
	w.nextID++
	a := newAgent(id, pos, w.radius)
	w.agents = append(w.agents, a)
	w.byID[id] = a
	w.events.Add(w.tick, a.label, "agent", "spawn", fmt.Sprintf("(%.1f,%.1f)", pos.X, pos.Y), 0)
	w.log.WithFields(logrus.Fields{"agent": int(id), "x": pos.X, "y": pos.Y}).Debug("agent spawned")
	return id
}

// Agent returns the agent with the given id.
func (w *World) Agent(id AgentID) (*Agent, bool) {
	a, ok := w.byID[id]
	return a, ok
}

// Agents returns snapshots of every agent in spawn order.
func (w *World) Agents() []AgentView {
	out := make([]AgentView, len(w.agents))
	for i, a := range w.agents {
		out[i] = a.view()
	}
	return out
}

// Cells returns a snapshot of every terrain cell in row-major order.
func (w *World) Cells() []nav.Cell {
	return w.terrain.Snapshot()
}

// Place applies a manual terrain edit at the cell under the world point p.
func (w *World) Place(mode nav.PlaceMode, p cp.Vector) bool {
	c, ok := w.terrain.CellAt(p)
	if !ok {
		return false
	}
	w.terrain.Place(mode, c.X, c.Y)
	w.events.AddVerbose(w.tick, "--", "terrain", "place", fmt.Sprintf("%s at (%d,%d)", mode, c.X, c.Y), 0)
	return true
}

// ReloadTerrain re-imports the terrain from src. Every route and queued
// order is dropped and agents go idle where they stand.
func (w *World) ReloadTerrain(src nav.TileSource) (nav.ImportStats, error) {
	stats, err := w.terrain.Import(src)
	if err != nil {
		return stats, fmt.Errorf("sim: reload terrain: %w", err)
	}
	for _, a := range w.agents {
		if a.State() == AgentFollowing {
			a.detach()
			w.events.Add(w.tick, a.label, "route", "dropped", "terrain reloaded", 0)
		}
	}
	w.pending = nil
	w.events.Add(w.tick, "--", "terrain", "import",
		fmt.Sprintf("%dx%d layers=%d tagged=%d ignored=%d", stats.Width, stats.Height, stats.Layers, stats.Tagged, stats.Ignored),
		float64(stats.Tagged))
	w.log.WithFields(logrus.Fields{
		"width":   stats.Width,
		"height":  stats.Height,
		"tagged":  stats.Tagged,
		"ignored": stats.Ignored,
		"offgrid": stats.OffGrid,
	}).Info("terrain imported")
	return stats, nil
}

// Tick advances the simulation by dt seconds:
//  1. ORDERS: queued move orders are applied.
//  2. MOVE: every agent follows its route.
//  3. AVOID: overlapping agents are pushed apart.
//  4. OVERLAY: the Start→End route is re-marked on the terrain.
func (w *World) Tick(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	w.tick++

	// 1. ORDERS
	w.drainOrders()

	// 2. MOVE
	for _, a := range w.agents {
		switch a.advance(w.terrain, w.move, dt) {
		case moveWaypoint:
			w.events.AddVerbose(w.tick, a.label, "route", "waypoint", fmt.Sprintf("%d/%d", a.cursor, len(a.route)), float64(a.cursor))
		case moveArrived:
			w.events.Add(w.tick, a.label, "route", "arrived", fmt.Sprintf("(%.1f,%.1f)", a.pos.X, a.pos.Y), 0)
			w.log.WithField("agent", int(a.id)).Debug("route complete")
		}
	}

	// 3. AVOID
	w.applyAvoidance(dt)

	// 4. OVERLAY
	if w.overlay {
		w.refreshOverlay()
	}

	if w.events.Verbose() {
		for _, a := range w.agents {
			w.events.AddVerbose(w.tick, a.label, "move", "position", fmt.Sprintf("(%.3f,%.3f)", a.pos.X, a.pos.Y), 0)
		}
	}
}

func (w *World) applyAvoidance(dt float64) {
	pushes := avoidanceVectors(w.agents, w.avoid)
	for i, v := range pushes {
		if v.X == 0 && v.Y == 0 {
			continue
		}
		a := w.agents[i]
		a.pos = a.pos.Add(v.Mult(dt))
		w.events.AddVerbose(w.tick, a.label, "avoid", "push", fmt.Sprintf("(%.3f,%.3f)", v.X, v.Y), v.Length())
	}
}

func (w *World) refreshOverlay() {
	w.terrain.ClearPathMarkings()
	start, end, ok := w.terrain.Endpoints()
	if !ok {
		return
	}
	if r, found := nav.FindPath(w.terrain, start, end); found {
		w.terrain.MarkRoute(r)
	}
}

// Report renders the terrain as text with agents drawn as '@', followed by
// one line per agent.
func (w *World) Report() string {
	t := w.terrain
	rows := make([][]rune, t.Height())
	for _, c := range t.Snapshot() {
		if rows[c.Y] == nil {
			rows[c.Y] = make([]rune, t.Width())
		}
		rows[c.Y][c.X] = c.Kind.Glyph()
	}
	for _, a := range w.agents {
		if c, ok := t.CellAt(a.pos); ok {
			rows[c.Y][c.X] = '@'
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "tick=%d grid=%dx%d agents=%d\n", w.tick, t.Width(), t.Height(), len(w.agents))
	for _, r := range rows {
		sb.WriteString(string(r))
		sb.WriteByte('\n')
	}
	for _, a := range w.agents {
		fmt.Fprintf(&sb, "%-4s (%.2f,%.2f) r=%.2f %s", a.label, a.pos.X, a.pos.Y, a.radius, a.State())
		if a.route != nil {
			goal, _ := a.route.Goal()
			fmt.Fprintf(&sb, " %d/%d → (%d,%d)", a.cursor, len(a.route), goal.X, goal.Y)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

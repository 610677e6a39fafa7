package sim

import (
	"errors"
	"fmt"

	"github.com/Garsondee/battlegrid/internal/nav"
)

const (
	DefaultSpeed         = 10.0 // world units per second
	DefaultArriveEpsilon = 0.1  // world units
	DefaultRadius        = 0.5  // world units
)

// ErrInvalidParams is returned for non-positive speeds, radii or epsilons.
var ErrInvalidParams = errors.New("sim: invalid parameters")

// MovementParams tunes path following.
type MovementParams struct {
	Speed         float64 // linear speed, units/second
	ArriveEpsilon float64 // waypoint reached below this distance
}

// DefaultMovement returns the reference movement tuning.
func DefaultMovement() MovementParams {
	return MovementParams{Speed: DefaultSpeed, ArriveEpsilon: DefaultArriveEpsilon}
}

// Validate rejects parameters that would stall or reverse agents.
func (p MovementParams) Validate() error {
	if !(p.Speed > 0) || !(p.ArriveEpsilon > 0) {
		return fmt.Errorf("%w: speed=%v arrive_epsilon=%v", ErrInvalidParams, p.Speed, p.ArriveEpsilon)
	}
	return nil
}

// moveEvent is what one tick of path following produced.
type moveEvent int

const (
	moveNone     moveEvent = iota // idle, nothing happened
	moveStep                      // advanced toward the waypoint
	moveWaypoint                  // waypoint reached, cursor advanced
	moveArrived                   // last waypoint reached, route detached
)

// attach hands r to the agent, replacing any current route outright. The
// cursor skips the first cell when it is the one the agent already stands
// on, so the agent does not walk back to its own cell's anchor first.
// A single-cell route is kept whole: it pulls the agent onto that anchor.
func (a *Agent) attach(t *nav.Terrain, r nav.Route) {
	if len(r) == 0 {
		a.detach()
		return
	}
	a.route = r
	a.cursor = 0
	if len(r) > 1 {
		if here, ok := t.CellAt(a.pos); ok && here.SameCoord(r[0]) {
			a.cursor = 1
		}
	}
}

// detach drops the route and returns the agent to idle.
func (a *Agent) detach() {
	a.route = nil
	a.cursor = 0
}

// advance runs one tick of path following.
//
// Reaching a waypoint is an event: the cursor moves on and the agent stays
// put for that tick. Otherwise the agent moves toward the waypoint at
// p.Speed×dt, clamped so it never passes the waypoint.
func (a *Agent) advance(t *nav.Terrain, p MovementParams, dt float64) moveEvent {
	if a.route == nil {
		return moveNone
	}
	if a.cursor >= len(a.route) {
		a.detach()
		return moveArrived
	}

	wp := t.Anchor(a.route[a.cursor])
	d := wp.Sub(a.pos)
	dist := d.Length()
	if dist < p.ArriveEpsilon {
		a.cursor++
		if a.cursor >= len(a.route) {
			a.detach()
			return moveArrived
		}
		return moveWaypoint
	}

	step := p.Speed * dt
	if step <= 0 {
		return moveNone
	}
	if step > dist {
		step = dist
	}
	a.pos = a.pos.Add(d.Mult(step / dist))
	return moveStep
}

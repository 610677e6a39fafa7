package sim

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/battlegrid/internal/nav"
)

// AgentID identifies an agent for its whole lifetime, independent of where
// it stands.
type AgentID int

// AgentState is the movement controller state.
type AgentState int

const (
	AgentIdle      AgentState = iota // no route
	AgentFollowing                   // route attached, cursor < len(route)
)

func (s AgentState) String() string {
	switch s {
	case AgentIdle:
		return "idle"
	case AgentFollowing:
		return "following"
	default:
		return "unknown"
	}
}

// Agent is a mobile unit that follows a route and is pushed apart from its
// neighbours.
type Agent struct {
	id     AgentID
	label  string
	pos    cp.Vector
	radius float64

	// Navigation
	route  nav.Route
	cursor int // index of the next waypoint in route
}

func newAgent(id AgentID, pos cp.Vector, radius float64) *Agent {
	return &Agent{
		id:     id,
		label:  fmt.Sprintf("U%d", id),
		pos:    pos,
		radius: radius,
	}
}

// ID returns the agent's identity.
func (a *Agent) ID() AgentID { return a.id }

// Label returns the short display label, e.g. "U3".
func (a *Agent) Label() string { return a.label }

// Position returns the world position.
func (a *Agent) Position() cp.Vector { return a.pos }

// Radius returns the collision radius.
func (a *Agent) Radius() float64 { return a.radius }

// Cursor returns the index of the next waypoint.
func (a *Agent) Cursor() int { return a.cursor }

// State reports whether the agent is following a route.
func (a *Agent) State() AgentState {
	if a.route == nil {
		return AgentIdle
	}
	return AgentFollowing
}

// Route returns a copy of the attached route, or nil when idle.
func (a *Agent) Route() nav.Route {
	if a.route == nil {
		return nil
	}
	out := make(nav.Route, len(a.route))
	copy(out, a.route)
	return out
}

// AgentView is a read-only snapshot of an agent for renderers.
type AgentView struct {
	ID     AgentID
	Label  string
	Pos    cp.Vector
	Radius float64
	State  AgentState
	Route  nav.Route
	Cursor int
}

func (a *Agent) view() AgentView {
	return AgentView{
		ID:     a.id,
		Label:  a.label,
		Pos:    a.pos,
		Radius: a.radius,
		State:  a.State(),
		Route:  a.Route(),
		Cursor: a.cursor,
	}
}

package sim

import (
	"fmt"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/Garsondee/battlegrid/internal/nav"
)

// MoveOrder asks every agent in Agents to walk to Target.
type MoveOrder struct {
	Agents mapset.Set[AgentID]
	Target cp.Vector
}

// NewMoveOrder builds an order for the given agents.
func NewMoveOrder(target cp.Vector, ids ...AgentID) MoveOrder {
	set := mapset.New[AgentID]()
	for _, id := range ids {
		set.Put(id)
	}
	return MoveOrder{Agents: set, Target: target}
}

// MoveResult is the per-agent outcome of a MoveOrder.
type MoveResult int

const (
	MoveAttached         MoveResult = iota // route found and attached
	MoveUnknownAgent                       // no agent with that id
	MoveStartOutOfRange                    // agent stands off the grid
	MoveTargetOutOfRange                   // target is off the grid
	MoveUnreachable                        // no route between the two cells
)

func (r MoveResult) String() string {
	switch r {
	case MoveAttached:
		return "attached"
	case MoveUnknownAgent:
		return "unknown_agent"
	case MoveStartOutOfRange:
		return "start_out_of_range"
	case MoveTargetOutOfRange:
		return "target_out_of_range"
	case MoveUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MoveOutcome reports what happened to one agent of an order.
type MoveOutcome struct {
	Agent  AgentID
	Result MoveResult
	Steps  int // route length in cells when attached
}

// Issue queues an order; it is applied at the start of the next Tick,
// before any agent moves.
func (w *World) Issue(o MoveOrder) {
	w.pending = append(w.pending, o)
}

// Move applies an order immediately. Agents are handled in ascending id
// order. Each one first loses its current route; a failure for one agent
// never affects the others.
func (w *World) Move(o MoveOrder) []MoveOutcome {
	ids := sortedIDs(o.Agents)
	goal, goalOK := w.terrain.CellAt(o.Target)

	out := make([]MoveOutcome, 0, len(ids))
	for _, id := range ids {
		res := MoveOutcome{Agent: id}
		a, ok := w.byID[id]
		if !ok {
			res.Result = MoveUnknownAgent
			out = append(out, res)
			w.logOrder(nil, res, o.Target)
			continue
		}
		replanning := a.State() == AgentFollowing
		a.detach()

		start, ok := w.terrain.CellAt(a.pos)
		switch {
		case !ok:
			res.Result = MoveStartOutOfRange
		case !goalOK:
			res.Result = MoveTargetOutOfRange
		default:
			route, found := nav.FindPath(w.terrain, start, goal)
			if !found {
				res.Result = MoveUnreachable
				break
			}
			a.attach(w.terrain, route)
			res.Result = MoveAttached
			res.Steps = len(route)
			if replanning {
				w.events.Add(w.tick, a.label, "route", "replan", fmt.Sprintf("%d cells", len(route)), float64(len(route)))
			}
		}
		out = append(out, res)
		w.logOrder(a, res, o.Target)
	}
	return out
}

func (w *World) drainOrders() {
	if len(w.pending) == 0 {
		return
	}
	orders := w.pending
	w.pending = nil
	for _, o := range orders {
		w.Move(o)
	}
}

func (w *World) logOrder(a *Agent, res MoveOutcome, target cp.Vector) {
	label := "--"
	if a != nil {
		label = a.label
	}
	w.events.Add(w.tick, label, "order", res.Result.String(),
		fmt.Sprintf("→ (%.1f,%.1f)", target.X, target.Y), float64(res.Steps))

	entry := w.log.WithFields(logrus.Fields{
		"agent":   int(res.Agent),
		"target":  fmt.Sprintf("(%.2f,%.2f)", target.X, target.Y),
		"outcome": res.Result.String(),
	})
	if res.Result == MoveAttached {
		entry.WithField("cells", res.Steps).Debug("route attached")
		return
	}
	entry.Debug("move order rejected")
}

func sortedIDs(set mapset.Set[AgentID]) []AgentID {
	ids := make([]AgentID, 0, set.Size())
	set.Each(func(id AgentID) {
		ids = append(ids, id)
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

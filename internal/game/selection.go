package game

import (
	"github.com/jakecoffman/cp"
	"github.com/paulmach/orb"
	"github.com/zyedidia/generic/mapset"

	"github.com/Garsondee/battlegrid/internal/sim"
)

// dragThreshold is the smallest drag, in world units, treated as a box
// rather than a click.
const dragThreshold = 0.05

// selectionBox is the rubber-band rectangle drawn while the left button is
// held. Corners are in world space.
type selectionBox struct {
	active     bool
	start, end orb.Point
}

func (b *selectionBox) begin(p cp.Vector) {
	b.active = true
	b.start = orb.Point{p.X, p.Y}
	b.end = b.start
}

func (b *selectionBox) drag(p cp.Vector) {
	b.end = orb.Point{p.X, p.Y}
}

// bound returns the normalized rectangle, whichever way the drag went.
func (b selectionBox) bound() orb.Bound {
	return orb.MultiPoint{b.start, b.end}.Bound()
}

// isClick reports whether the drag is too small to be a box.
func (b selectionBox) isClick() bool {
	bd := b.bound()
	return bd.Right()-bd.Left() < dragThreshold && bd.Top()-bd.Bottom() < dragThreshold
}

// strictlyInside reports whether p lies in the open interior of bd. Agents
// exactly on an edge are not selected.
func strictlyInside(bd orb.Bound, p cp.Vector) bool {
	return p.X > bd.Min[0] && p.X < bd.Max[0] && p.Y > bd.Min[1] && p.Y < bd.Max[1]
}

// selectAgents returns the ids of every agent whose centre lies strictly
// inside bd.
func selectAgents(bd orb.Bound, agents []sim.AgentView) mapset.Set[sim.AgentID] {
	set := mapset.New[sim.AgentID]()
	for _, a := range agents {
		if strictlyInside(bd, a.Pos) {
			set.Put(a.ID)
		}
	}
	return set
}

// nearestAgent returns the agent whose disc contains p, preferring the
// closest centre. Used for single-click selection.
func nearestAgent(p cp.Vector, agents []sim.AgentView) (sim.AgentID, bool) {
	best, found := sim.AgentID(0), false
	bestDist := 0.0
	for _, a := range agents {
		d := a.Pos.Distance(p)
		if d > a.Radius {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = a.ID, d, true
		}
	}
	return best, found
}

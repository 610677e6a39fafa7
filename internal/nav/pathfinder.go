package nav

import (
	"container/heap"
	"math"
)

// Route is an ordered list of cells from a start to a goal, inclusive.
type Route []Cell

// Goal returns the last cell of the route.
func (r Route) Goal() (Cell, bool) {
	if len(r) == 0 {
		return Cell{}, false
	}
	return r[len(r)-1], true
}

// ManhattanDistance is the A* heuristic: grid steps between a and b.
func ManhattanDistance(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// EuclideanDistance is the straight-line distance between cell coordinates.
// Cosmetic use only; the search heuristic is ManhattanDistance.
func EuclideanDistance(a, b Cell) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// --- A* ---

type pathNode struct {
	idx    int // row-major cell index
	g, h   int
	seq    int // push order, last tie-breaker
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi, fj := ol[i].g+ol[i].h, ol[j].g+ol[j].h
	if fi != fj {
		return fi < fj
	}
	if ol[i].h != ol[j].h {
		return ol[i].h < ol[j].h
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int) { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x any)   { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// FindPath runs A* from start to goal over t.Neighbors and returns a
// minimal-cost route, or false when the goal cannot be reached.
//
// start == goal yields the single-cell route [start]. A goal that is off the
// grid or Unwalkable is never reachable. The start cell's own classification
// is not checked, so a unit nudged into a wall can still walk out.
//
// Every call searches from scratch. On large grids with many units this is
// the dominant per-tick cost.
func FindPath(t *Terrain, start, goal Cell) (Route, bool) {
	start, ok := t.Cell(start.X, start.Y)
	if !ok {
		return nil, false
	}
	goal, ok = t.Cell(goal.X, goal.Y)
	if !ok || goal.Kind == Unwalkable {
		return nil, false
	}
	if start.SameCoord(goal) {
		return Route{start}, true
	}

	key := func(c Cell) int { return c.Y*t.width + c.X }
	goalIdx := key(goal)

	seq := 0
	first := &pathNode{idx: key(start), h: ManhattanDistance(start, goal)}
	ol := &openList{first}
	heap.Init(ol)

	closed := make([]bool, len(t.kinds))
	best := make([]*pathNode, len(t.kinds))
	best[first.idx] = first

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.idx == goalIdx {
			return t.buildRoute(cur), true
		}
		if closed[cur.idx] {
			continue
		}
		closed[cur.idx] = true

		here := Cell{X: cur.idx % t.width, Y: cur.idx / t.width}
		for _, s := range t.Neighbors(here) {
			nk := key(s.Cell)
			if closed[nk] {
				continue
			}
			g := cur.g + s.Cost
			if prev := best[nk]; prev != nil && g >= prev.g {
				continue
			}
			seq++
			node := &pathNode{idx: nk, g: g, h: ManhattanDistance(s.Cell, goal), seq: seq, parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil, false
}

func (t *Terrain) buildRoute(end *pathNode) Route {
	var r Route
	for n := end; n != nil; n = n.parent {
		r = append(r, Cell{X: n.idx % t.width, Y: n.idx / t.width, Kind: t.kinds[n.idx]})
	}
	// Reverse
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return r
}

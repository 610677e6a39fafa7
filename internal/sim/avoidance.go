package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"
	"github.com/jakecoffman/cp"
)

// Broadphase selects how candidate pairs are found for avoidance.
type Broadphase int

const (
	// BroadphasePairwise tests every ordered pair: O(n²) per tick. Fine for
	// the small populations the front ends spawn.
	BroadphasePairwise Broadphase = iota
	// BroadphaseRTree indexes agent bounds in an R-tree each tick and only
	// tests agents whose boxes intersect.
	BroadphaseRTree
)

func (b Broadphase) String() string {
	switch b {
	case BroadphasePairwise:
		return "pairwise"
	case BroadphaseRTree:
		return "rtree"
	default:
		return "unknown"
	}
}

// ParseBroadphase accepts "pairwise" or "rtree" (case-insensitive).
func ParseBroadphase(s string) (Broadphase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pairwise":
		return BroadphasePairwise, nil
	case "rtree":
		return BroadphaseRTree, nil
	default:
		return 0, fmt.Errorf("%w: unknown broadphase %q", ErrInvalidParams, s)
	}
}

// AvoidanceParams tunes local collision avoidance.
type AvoidanceParams struct {
	Strength   float64 // multiplier on penetration depth
	Broadphase Broadphase
}

// DefaultAvoidance returns the reference avoidance tuning.
func DefaultAvoidance() AvoidanceParams {
	return AvoidanceParams{Strength: 1, Broadphase: BroadphasePairwise}
}

// Validate rejects negative or non-finite strengths.
func (p AvoidanceParams) Validate() error {
	if !(p.Strength >= 0) || math.IsInf(p.Strength, 0) {
		return fmt.Errorf("%w: avoidance strength=%v", ErrInvalidParams, p.Strength)
	}
	if p.Broadphase != BroadphasePairwise && p.Broadphase != BroadphaseRTree {
		return fmt.Errorf("%w: broadphase=%d", ErrInvalidParams, p.Broadphase)
	}
	return nil
}

// repulsion is the push a receives from b: away from b, scaled by how deep
// the two radii overlap. Pairs that do not overlap, and pairs at exactly
// the same point (no defined direction), contribute nothing.
func repulsion(a, b *Agent) (cp.Vector, bool) {
	d := a.pos.Sub(b.pos)
	dist := d.Length()
	reach := a.radius + b.radius
	if !(dist < reach) || dist == 0 {
		return cp.Vector{}, false
	}
	return d.Mult((reach - dist) / dist), true
}

// avoidanceVectors sums, for every agent, the repulsion from all overlapping
// agents. All vectors are computed from the current positions before any is
// applied. Contributions are summed in ascending agent order whichever
// broadphase is used, so both give bit-identical results.
func avoidanceVectors(agents []*Agent, p AvoidanceParams) []cp.Vector {
	out := make([]cp.Vector, len(agents))
	var candidates [][]int
	if p.Broadphase == BroadphaseRTree {
		candidates = rtreeCandidates(agents)
	}
	for i, a := range agents {
		sum := cp.Vector{}
		if candidates != nil {
			for _, j := range candidates[i] {
				if v, ok := repulsion(a, agents[j]); ok {
					sum = sum.Add(v)
				}
			}
		} else {
			for j, b := range agents {
				if i == j {
					continue
				}
				if v, ok := repulsion(a, b); ok {
					sum = sum.Add(v)
				}
			}
		}
		out[i] = sum.Mult(p.Strength)
	}
	return out
}

// agentBox wraps an agent's bounding square for R-tree storage.
type agentBox struct {
	index int
	bbox  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (b *agentBox) Bounds() rtreego.Rect {
	return b.bbox
}

func agentRect(a *Agent) (rtreego.Rect, error) {
	side := 2 * a.radius
	return rtreego.NewRect(
		rtreego.Point{a.pos.X - a.radius, a.pos.Y - a.radius},
		[]float64{side, side},
	)
}

// rtreeCandidates returns, per agent, the sorted indices of other agents
// whose bounding squares intersect its own. Overlapping circles always have
// intersecting squares, so no overlap is missed.
func rtreeCandidates(agents []*Agent) [][]int {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node
	rects := make([]rtreego.Rect, len(agents))
	indexed := make([]bool, len(agents))
	for i, a := range agents {
		if !finite(a.pos) {
			continue
		}
		r, err := agentRect(a)
		if err != nil {
			continue
		}
		rects[i] = r
		indexed[i] = true
		tree.Insert(&agentBox{index: i, bbox: r})
	}

	out := make([][]int, len(agents))
	for i := range agents {
		if !indexed[i] {
			continue
		}
		hits := tree.SearchIntersect(rects[i])
		idx := make([]int, 0, len(hits))
		for _, h := range hits {
			if j := h.(*agentBox).index; j != i {
				idx = append(idx, j)
			}
		}
		sort.Ints(idx)
		out[i] = idx
	}
	return out
}

func finite(v cp.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

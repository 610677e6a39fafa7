package sim

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

const testDT = 0.05

func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	w, err := NewWorld(opts...)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

// runTicks advances w n times and returns the agent's cursor after each tick.
func runTicks(w *World, n int, watch AgentID) []int {
	cursors := make([]int, 0, n)
	for i := 0; i < n; i++ {
		w.Tick(testDT)
		if a, ok := w.Agent(watch); ok {
			cursors = append(cursors, a.Cursor())
		}
	}
	return cursors
}

// runUntilIdle ticks until every agent is idle or max ticks pass.
func runUntilIdle(w *World, max int) int {
	for i := 0; i < max; i++ {
		idle := true
		for _, v := range w.Agents() {
			if v.State != AgentIdle {
				idle = false
				break
			}
		}
		if idle {
			return i
		}
		w.Tick(testDT)
	}
	return max
}

func dumpEvents(t *testing.T, w *World) {
	t.Helper()
	for _, e := range w.Events().Entries() {
		t.Log(e.String())
	}
}

func near(a, b cp.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}
